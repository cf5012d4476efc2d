/*
Package observability turns engine lifecycle hooks into metrics and logs.

Metrics exposes Prometheus collectors fed by domain.LifecycleHooks; LoggingHooks
writes the same events to a slog logger; Combine fans one event out to several
hook sets.
*/
package observability
