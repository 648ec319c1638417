// Package driving provides interfaces for use-case entry points (primary/inbound ports).
//
// Front ends (CLI, future web surfaces) depend only on these
// interfaces and stay thin.
package driving
