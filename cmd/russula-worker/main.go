// Command russula-worker runs one russula role — server/client worker or
// server/client coordinator — as a standalone process. The orchestrator
// dispatches the worker subcommands onto remote VMs via SSM; the
// coordinator subcommands exist for manual/local exercising of the protocol
// against already-running workers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cuemby/russula/pkg/log"
	"github.com/cuemby/russula/pkg/netbench"
	"github.com/cuemby/russula/pkg/workflow"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "russula-worker",
	Short: "Runs one russula coordination role",
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().Duration("poll-delay", 5*time.Second, "Coordination poll delay")
	cobra.OnInitialize(initLogging)

	serverWorkerCmd.Flags().Uint16("russula-port", 9000, "Port to listen on for the coordinator")
	serverWorkerCmd.Flags().String("driver", "", "Netbench server driver binary name")
	serverWorkerCmd.Flags().String("scenario", "", "Netbench scenario filename")
	serverWorkerCmd.Flags().String("netbench-path", "/home/ec2-user/bin", "Directory holding driver binaries and the scenario file")
	_ = serverWorkerCmd.MarkFlagRequired("driver")
	_ = serverWorkerCmd.MarkFlagRequired("scenario")

	clientWorkerCmd.Flags().Uint16("russula-port", 9000, "Port to listen on for the coordinator")
	clientWorkerCmd.Flags().String("driver", "", "Netbench client driver binary name")
	clientWorkerCmd.Flags().String("scenario", "", "Netbench scenario filename")
	clientWorkerCmd.Flags().String("netbench-path", "/home/ec2-user/bin", "Directory holding driver binaries and the scenario file")
	clientWorkerCmd.Flags().StringSlice("netbench-servers", nil, "Server addresses the client subprocess connects to")
	_ = clientWorkerCmd.MarkFlagRequired("driver")
	_ = clientWorkerCmd.MarkFlagRequired("scenario")

	serverCoordCmd.Flags().StringSlice("russula-worker-addrs", nil, "ServerWorker addresses to dial")
	_ = serverCoordCmd.MarkFlagRequired("russula-worker-addrs")

	clientCoordCmd.Flags().StringSlice("russula-worker-addrs", nil, "ClientWorker addresses to dial")
	_ = clientCoordCmd.MarkFlagRequired("russula-worker-addrs")

	rootCmd.AddCommand(serverWorkerCmd, clientWorkerCmd, serverCoordCmd, clientCoordCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
}

var serverWorkerCmd = &cobra.Command{
	Use:   "netbench-server-worker",
	Short: "Runs the ServerWorker role, listening for a coordinator",
	RunE: func(cmd *cobra.Command, args []string) error {
		pollDelay, _ := rootCmd.PersistentFlags().GetDuration("poll-delay")
		port, _ := cmd.Flags().GetUint16("russula-port")
		driver, _ := cmd.Flags().GetString("driver")
		scenario, _ := cmd.Flags().GetString("scenario")
		netbenchPath, _ := cmd.Flags().GetString("netbench-path")

		addr := fmt.Sprintf("0.0.0.0:%d", port)
		newProto := func(addr string) workflow.Protocol {
			return netbench.NewServerWorkerProtocol("0", netbench.ServerContext{
				NetbenchPath: netbenchPath,
				Driver:       driver,
				Scenario:     scenario,
				NetbenchPort: port,
			})
		}
		return runRole(cmd.Context(), "server-worker", []string{addr}, newProto, pollDelay)
	},
}

var clientWorkerCmd = &cobra.Command{
	Use:   "netbench-client-worker",
	Short: "Runs the ClientWorker role, listening for a coordinator",
	RunE: func(cmd *cobra.Command, args []string) error {
		pollDelay, _ := rootCmd.PersistentFlags().GetDuration("poll-delay")
		port, _ := cmd.Flags().GetUint16("russula-port")
		driver, _ := cmd.Flags().GetString("driver")
		scenario, _ := cmd.Flags().GetString("scenario")
		netbenchPath, _ := cmd.Flags().GetString("netbench-path")
		servers, _ := cmd.Flags().GetStringSlice("netbench-servers")

		addr := fmt.Sprintf("0.0.0.0:%d", port)
		newProto := func(addr string) workflow.Protocol {
			return netbench.NewClientWorkerProtocol("0", netbench.ClientContext{
				NetbenchPath:    netbenchPath,
				Driver:          driver,
				Scenario:        scenario,
				NetbenchServers: servers,
			})
		}
		return runRole(cmd.Context(), "client-worker", []string{addr}, newProto, pollDelay)
	},
}

var serverCoordCmd = &cobra.Command{
	Use:   "netbench-server-coordinator",
	Short: "Runs the ServerCoord role, dialing a set of ServerWorkers",
	RunE: func(cmd *cobra.Command, args []string) error {
		pollDelay, _ := rootCmd.PersistentFlags().GetDuration("poll-delay")
		addrs, _ := cmd.Flags().GetStringSlice("russula-worker-addrs")
		newProto := func(addr string) workflow.Protocol { return netbench.NewServerCoordProtocol(addr) }
		return runRole(cmd.Context(), "server-coordinator", addrs, newProto, pollDelay)
	},
}

var clientCoordCmd = &cobra.Command{
	Use:   "netbench-client-coordinator",
	Short: "Runs the ClientCoord role, dialing a set of ClientWorkers",
	RunE: func(cmd *cobra.Command, args []string) error {
		pollDelay, _ := rootCmd.PersistentFlags().GetDuration("poll-delay")
		addrs, _ := cmd.Flags().GetStringSlice("russula-worker-addrs")
		newProto := func(addr string) workflow.Protocol { return netbench.NewClientCoordProtocol(addr) }
		return runRole(cmd.Context(), "client-coordinator", addrs, newProto, pollDelay)
	},
}

// runRole pairs every instance, then drives the workflow until every
// instance reaches its own protocol's Done state.
func runRole(ctx context.Context, role string, addrs []string, newProto func(addr string) workflow.Protocol, pollDelay time.Duration) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	roleLog := log.WithComponent("russula-worker").With().Str("role", role).Logger()
	roleLog.Info().Str("peers", strings.Join(addrs, ",")).Msg("pairing")

	wf, err := workflow.NewWorkflowBuilder(role, addrs, newProto, pollDelay).Build(ctx)
	if err != nil {
		return fmt.Errorf("pair %s: %w", role, err)
	}

	done := wf.Instances()[0].Protocol.DoneState()
	if err := wf.RunTill(ctx, done); err != nil {
		return fmt.Errorf("run %s: %w", role, err)
	}

	roleLog.Info().Msg("done")
	return nil
}
