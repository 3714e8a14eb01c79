package areagen

import "strings"

// RealmInferenceRule matches a substring of a realm's name (case
// insensitive) to a terrain. Rules are tried in order; the first
// match wins (spec §4.3, §9: "the realm-name inference table ... is a
// policy hook; keep it data-driven").
type RealmInferenceRule struct {
	Match   string
	Terrain string
}

// RealmInferenceTable is the data-driven `auto`-mode terrain inference
// policy, mirroring the terrain table's own data/fallback split. Only
// the built-in DefaultRealmInferenceTable is used; no table is loaded
// from a file (config.RealmTablePath is read but unused).
type RealmInferenceTable struct {
	Rules []RealmInferenceRule
}

// Infer returns the terrain for the first rule whose Match substring
// appears in any of realmNames, or "" if none match.
func (t RealmInferenceTable) Infer(realmNames []string) string {
	for _, rule := range t.Rules {
		for _, name := range realmNames {
			if strings.Contains(strings.ToLower(name), strings.ToLower(rule.Match)) {
				return rule.Terrain
			}
		}
	}
	return ""
}

// DefaultRealmInferenceTable is the built-in table covering the two
// rules spec §4.3 names explicitly.
func DefaultRealmInferenceTable() RealmInferenceTable {
	return RealmInferenceTable{Rules: []RealmInferenceRule{
		{Match: "forest", Terrain: "dense-forest"},
		{Match: "hill", Terrain: "hilltop"},
	}}
}
