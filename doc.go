// Package modelplane re-exports the public surface of the model control
// plane: the capability-tagged model catalog, the repository workspace and
// analysis reports, the sandboxed filesystem gateway, the Prometheus proxy
// and the HTTP dispatch server.
//
// The implementation lives under internal/; this package exists so that
// embedders depend on one stable import path. The HTTP surface is served by
// cmd/modelplane.
package modelplane
