// Package model defines the core domain types shared across the
// enrichment pipeline: lookup targets, provider analyses, merged
// profiles, and progress events.
package model

import "strings"

// Target is a single entity to look up in a batch — a property or
// neighborhood name plus optional context such as a default city.
// Targets are immutable once the work list is built.
type Target struct {
	Name    string            `json:"name"`
	Context map[string]string `json:"context,omitempty"`
}

// City returns the default locality from the target context, if any.
func (t Target) City() string {
	return t.Context["city"]
}

// Kind returns the entity kind ("property" or "neighborhood").
// Defaults to "property" when unset.
func (t Target) Kind() string {
	if k := t.Context["kind"]; k != "" {
		return k
	}
	return "property"
}

// Display returns the target name with its city appended when known,
// e.g. "Marina Heights, Austin". Used for progress events and queries.
func (t Target) Display() string {
	if city := t.City(); city != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(city)) {
		return t.Name + ", " + city
	}
	return t.Name
}
