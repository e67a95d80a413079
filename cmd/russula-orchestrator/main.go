// Command russula-orchestrator provisions a run's EC2 infrastructure, drives
// the Stage/Build/Coordinate/Collect/Report phases for every configured
// driver pair, and tears the infrastructure back down, matching main.rs's
// top-level wiring.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	ec2api "github.com/aws/aws-sdk-go-v2/service/ec2"
	iamapi "github.com/aws/aws-sdk-go-v2/service/iam"
	s3api "github.com/aws/aws-sdk-go-v2/service/s3"
	ssmapi "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog"

	"github.com/cuemby/russula/pkg/config"
	"github.com/cuemby/russula/pkg/log"
	"github.com/cuemby/russula/pkg/metrics"
	"github.com/cuemby/russula/pkg/objectstore"
	"github.com/cuemby/russula/pkg/orchestrator"
	"github.com/cuemby/russula/pkg/phase"
	"github.com/cuemby/russula/pkg/provision"
	"github.com/cuemby/russula/pkg/types"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "russula-orchestrator",
	Short: "Provisions and drives a netbench benchmark run across EC2",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	cobra.OnInitialize(initLogging)

	rootCmd.Flags().String("cdk-config-file", "cdk_config.json", "Path to the deployed CDK stack's output file")
	rootCmd.Flags().String("netbench-scenario-file", "", "Path to the s2n-netbench scenario file")
	rootCmd.Flags().StringSlice("client-az", nil, "Availability zone per client host")
	rootCmd.Flags().StringSlice("server-az", nil, "Availability zone per server host")
	rootCmd.Flags().StringSlice("client-placement", nil, "Placement strategy per client host (unspecified|cluster)")
	rootCmd.Flags().StringSlice("server-placement", nil, "Placement strategy per server host (unspecified|cluster)")
	rootCmd.Flags().String("metrics-addr", ":9090", "Address to serve /metrics, /health, /ready, /live on")
	_ = rootCmd.MarkFlagRequired("netbench-scenario-file")
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runLog := log.WithComponent("russula-orchestrator")

	cdkConfigFile, _ := cmd.Flags().GetString("cdk-config-file")
	scenarioFile, _ := cmd.Flags().GetString("netbench-scenario-file")
	clientAZs, _ := cmd.Flags().GetStringSlice("client-az")
	serverAZs, _ := cmd.Flags().GetStringSlice("server-az")
	clientPlacements, _ := cmd.Flags().GetStringSlice("client-placement")
	serverPlacements, _ := cmd.Flags().GetStringSlice("server-placement")

	cdk, err := config.LoadCDKConfig(cdkConfigFile)
	if err != nil {
		return err
	}
	scenario, scenarioBody, scenarioFilename, err := config.LoadNetbenchScenario(scenarioFile)
	if err != nil {
		return err
	}

	if len(serverAZs) != len(scenario.Servers) {
		return fmt.Errorf("--server-az must name %d availability zones, got %d", len(scenario.Servers), len(serverAZs))
	}
	if len(clientAZs) != len(scenario.Clients) {
		return fmt.Errorf("--client-az must name %d availability zones, got %d", len(scenario.Clients), len(clientAZs))
	}
	if len(serverPlacements) != 0 && len(serverPlacements) != len(scenario.Servers) {
		return fmt.Errorf("--server-placement must be empty or name %d entries, got %d", len(scenario.Servers), len(serverPlacements))
	}
	if len(clientPlacements) != 0 && len(clientPlacements) != len(scenario.Clients) {
		return fmt.Errorf("--client-placement must be empty or name %d entries, got %d", len(scenario.Clients), len(clientPlacements))
	}

	serverHosts, err := buildHostConfigs(cdk.Region(), serverAZs, serverPlacements)
	if err != nil {
		return err
	}
	clientHosts, err := buildHostConfigs(cdk.Region(), clientAZs, clientPlacements)
	if err != nil {
		return err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cdk.Region()))
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	clients := orchestrator.Clients{
		EC2:         provision.NewAWSEC2Client(ec2api.NewFromConfig(awsCfg)),
		IAM:         provision.NewAWSIAMClient(iamapi.NewFromConfig(awsCfg)),
		AMI:         provision.NewAWSAMIResolver(ssmapi.NewFromConfig(awsCfg)),
		SSM:         phase.NewAWSSSMClient(ssmapi.NewFromConfig(awsCfg)),
		ObjectStore: objectstore.NewAWSClient(s3api.NewFromConfig(awsCfg)),
	}
	metrics.RegisterComponent("ec2", true, "")
	metrics.RegisterComponent("ssm", true, "")
	metrics.RegisterComponent("objectstore", true, "")

	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	startMetricsServer(ctx, metricsAddr, runLog)

	tuning := config.DefaultTuning()
	runCfg := config.Run{
		Tuning:           tuning,
		CDK:              cdk,
		ScenarioFilename: scenarioFilename,
		ScenarioFilepath: scenarioFile,
		ClientHosts:      clientHosts,
		ServerHosts:      serverHosts,
	}
	uniqueID := types.UniqueID(time.Now(), tuning.Version)

	plan := orchestrator.Plan{
		Run:          runCfg,
		UniqueID:     uniqueID,
		ScenarioBody: scenarioBody,
		Drivers:      orchestrator.DefaultDriverPairs(tuning, uniqueID),
	}

	runLog.Info().Str("run_id", uniqueID).Str("scenario", scenarioFilename).
		Int("servers", len(serverHosts)).Int("clients", len(clientHosts)).Msg("starting run")

	result, err := orchestrator.Run(ctx, clients, plan)
	if err != nil {
		return fmt.Errorf("run %s: %w", uniqueID, err)
	}

	runLog.Info().Str("run_id", result.UniqueID).Str("report", result.ReportURL).Msg("run finished")
	return nil
}

func buildHostConfigs(region string, azs, placements []string) ([]config.HostConfig, error) {
	hosts := make([]config.HostConfig, 0, len(azs))
	for i, az := range azs {
		placement := types.PlacementUnspecified
		if i < len(placements) {
			p, err := parsePlacement(placements[i])
			if err != nil {
				return nil, err
			}
			placement = p
		}
		host, err := config.NewHostConfig(region, az, placement)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, host)
	}
	return hosts, nil
}

func parsePlacement(s string) (types.Placement, error) {
	switch strings.ToLower(s) {
	case "", "unspecified":
		return types.PlacementUnspecified, nil
	case "cluster":
		return types.PlacementCluster, nil
	default:
		return "", fmt.Errorf("unknown placement strategy %q", s)
	}
}

// startMetricsServer runs the /metrics, /health, /ready, /live endpoints in
// the background for the lifetime of the run, matching SPEC_FULL.md's
// concurrency model where background metrics collection runs alongside the
// phase sequencer rather than blocking it.
func startMetricsServer(ctx context.Context, addr string, runLog zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/health", metrics.HealthHandler())
	mux.Handle("/ready", metrics.ReadyHandler())
	mux.Handle("/live", metrics.LivenessHandler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			runLog.Warn().Err(err).Msg("metrics server stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
