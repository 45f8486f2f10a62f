// Package observability builds the process logger and the Prometheus
// collectors shared by the HTTP layer and the authorization path.
//
// Collectors are registered on an explicit prometheus.Registerer so tests
// can use a private registry instead of the global default.
package observability
