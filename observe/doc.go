// Package observe bootstraps the ambient observability of the data-access
// layer: a structured zerolog logger plus OpenTelemetry meter and tracer.
//
// The bootstrap wires stdout exporters, which is what development and
// tests want. Production applications own their export pipeline and pass
// their own providers directly into the component configs; nothing in
// this layer depends on the bootstrap.
package observe
