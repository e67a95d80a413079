/*
Package types defines the core data structures shared across the
orchestrator: instance and driver descriptors, scenario configuration, and
the naming/path conventions used by provisioning, staging, and the
object-store layout.

These are plain data values with no behavior beyond small derivations
(trimmed driver names, host paths, the run's unique id). The workflow
package defines its own state types separately, since those carry a
transition policy and a wire encoding that this package's types do not
need.
*/
package types
