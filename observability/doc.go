// Package observability wires OpenTelemetry tracing and metrics.
//
//	tp, err := observability.InitTracer(ctx, "scribekit", "production", cfg)
//	defer tp.Shutdown(ctx)
//
//	ctx, stage := observability.StartStage(ctx, "scribekit", "segment", runID, metrics)
//	defer stage.End(ctx, err)
//
// Until InitTracer and InitMeter run, spans and instruments are no-ops.
package observability
