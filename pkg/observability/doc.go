/*
Package observability turns relay lifecycle events into metrics and audit logs.

Both Metrics.Hooks and LogHooks return domain.RelayHooks, so they can be
combined with RelayHooks.Merge and passed to relay.WithHooks.
*/
package observability
