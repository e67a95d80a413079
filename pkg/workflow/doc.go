/*
Package workflow implements the coordination protocol: a small,
message-driven state-machine framework that lets one Coordinator process
synchronize N Worker processes over TCP.

A role (ServerCoord, ServerWorker, ClientCoord, ClientWorker — defined in
pkg/netbench) implements the Protocol interface over a State tagged union.
The engine in this package drives any Protocol through a uniform loop:
run the action for the current state, consume any peer messages that
satisfy the current state's transition policy, and report readiness against
a caller-supplied target state. A Workflow aggregates one Protocol instance
per peer connection; a Coordinator's aggregate holds one instance per
Worker, a Worker's aggregate holds exactly one (its Coordinator).

Unlike the tokio-based original this is translated from, this engine does
not give each instance its own concurrently-scheduled task: a Coordinator
aggregate polls its instances sequentially, once per tick, and sleeps
between ticks (see Workflow.PollState). Consuming peer messages therefore
uses a short read deadline rather than an unbounded blocking read, so one
slow or silent peer cannot starve the others within a tick; a deadline
timeout is classified as the same transient "network blocked" condition
the original's non-blocking socket read produces.
*/
package workflow
