// Package telemetry is the push-only façade used throughout the core
// (spec §1: "the telemetry sink, treated as a push-only interface").
// It is a collaborator, not a redesigned component — callers only ever
// push named events with attributes; nothing in the core reads them
// back.
package telemetry

import "context"

// Sink is the push-only telemetry collaborator.
type Sink interface {
	Emit(ctx context.Context, name string, attrs map[string]any)
}

// Known telemetry event names (spec §6).
const (
	EventProcessed            = "World.Event.Processed"
	EventDuplicate            = "World.Event.Duplicate"
	EventRegistryWriteFailed  = "World.Event.RegistryWriteFailed"
	BatchGenerationStarted    = "World.BatchGeneration.Started"
	BatchGenerationCompleted  = "World.BatchGeneration.Completed"
	AreaGenerationStarted     = "World.AreaGeneration.Started"
	AreaGenerationCompleted   = "World.AreaGeneration.Completed"
	AreaGenerationFailed      = "World.AreaGeneration.Failed"
)
