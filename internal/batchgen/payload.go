// Package batchgen implements the batch-generate handler (spec §4.4):
// two-phase reconnection plus stub creation for a rootLocationId,
// writing base description layers and enqueuing bidirectional
// exit-creation events. Grounded on event-service's rabbitmq
// consumer.go for the handler shape and join-service's repository
// transactional discipline for the graph mutation.
package batchgen

import "github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"

// Payload is the World.Location.BatchGenerate event payload (spec §4.4).
type Payload struct {
	RootLocationID    string  `json:"rootLocationId"`
	Terrain           string  `json:"terrain"`
	ArrivalDirection  string  `json:"arrivalDirection"`
	ExpansionDepth    int     `json:"expansionDepth"`
	BatchSize         int     `json:"batchSize"`
	TravelDurationMs  *int64  `json:"travelDurationMs,omitempty"`
	RealmKey          *string `json:"realmKey,omitempty"`
}

// Result groups the figures a batch reports in telemetry; it is not
// part of the wire contract. Handle returns only an error and does not
// build a Result.
type Result struct {
	LocationsGenerated   int
	ExitsCreated         int
	ReconnectionsCreated int
	DurationMs           int64
	AICost               float64
}

// parseDirection is a small internal helper to parse the payload's string
// direction into the domain enum, rejecting anything outside it.
func parseDirection(s string) (domain.Direction, bool) {
	d := domain.Direction(s)
	return d, d.Valid()
}
