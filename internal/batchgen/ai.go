package batchgen

import "context"

// DescriptionRequest is the one operation the AI description
// generator exposes (spec §1 Non-goals: "the AI description generator
// is an opaque collaborator called via one operation with a budget").
// The core never inspects how a description is produced.
type DescriptionRequest struct {
	Terrain          string
	ArrivalDirection string
	Budget           float64
}

// DescriptionResult carries the generated name/description plus the
// portion of Budget actually spent, rolled up into aiCost telemetry.
type DescriptionResult struct {
	Name        string
	Description string
	Cost        float64
}

// DescriptionGenerator is the opaque collaborator. A nil Handler.AI
// falls back to a deterministic placeholder (used in tests
// and whenever the AI subsystem is not wired).
type DescriptionGenerator interface {
	Generate(ctx context.Context, req DescriptionRequest) (DescriptionResult, error)
}

func placeholderDescription(terrain, arrival string) DescriptionResult {
	name := "Unexplored " + terrain
	return DescriptionResult{
		Name:        name,
		Description: "You arrive from " + arrival + ". The " + terrain + " stretches out, unmapped.",
	}
}
