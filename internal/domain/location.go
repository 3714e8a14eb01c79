package domain

const (
	// TagFrontierBoundary disables Phase 2 fuzzy stitching for the
	// root it is set on (spec §4.4.3).
	TagFrontierBoundary = "frontier:boundary"
	// TagRealmPrefix namespaces a realm tag, e.g. "realm:forest-01".
	TagRealmPrefix = "realm:"
	// TagStructurePrefix and TagStructureAreaPrefix are carried
	// through stub creation untouched; the core never interprets them.
	TagStructurePrefix     = "structure:"
	TagStructureAreaPrefix = "structureArea:"
)

// Location is a node in the world graph. Mutated only through the
// repository, which owns the direction-uniqueness and monotonic
// version invariants (spec §3).
type Location struct {
	ID                string
	Name              string
	Description       string
	Terrain           string
	Tags              []string
	Exits             []Exit
	ExitAvailability  ExitAvailability
	Version           int64
}

// ExitAvailability.Pending maps a direction to a narrative hint that a
// route exists there but has not yet been generated — populated by
// BatchGenerate stub creation (spec §4.4.4). Nothing clears an entry
// afterwards; ExitCreate does not touch ExitAvailability.
type ExitAvailability struct {
	Pending map[Direction]string
}

// HasTag reports whether the location carries the exact tag t.
func (l *Location) HasTag(t string) bool {
	for _, tag := range l.Tags {
		if tag == t {
			return true
		}
	}
	return false
}

// IsFrontierBoundary reports spec §4.4.3's frontier-boundary rule.
func (l *Location) IsFrontierBoundary() bool {
	return l.HasTag(TagFrontierBoundary)
}

// ExitTo returns the target of the exit in direction d, if any.
func (l *Location) ExitTo(d Direction) (string, bool) {
	e, ok := HasDirection(l.Exits, d)
	if !ok {
		return "", false
	}
	return e.To, true
}
