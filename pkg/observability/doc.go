/*
Package observability turns conversation lifecycle hooks into logs and
Prometheus metrics.

Both Metrics.Hooks and LoggingHooks return a domain.LifecycleHooks value that
can be passed to parley.WithLifecycleHooks alongside any other hook set.
*/
package observability
