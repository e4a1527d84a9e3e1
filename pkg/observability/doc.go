/*
Package observability turns form session activity into metrics and structured logs.

Both Metrics and LoggingHooks produce domain.Hooks, so they plug into a session manager
with session.WithHooks and compose with domain.Hooks.Merge.
*/
package observability
