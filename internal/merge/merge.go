// Package merge combines multiple provider analyses of one target into
// a single deduplicated, confidence-ranked profile.
package merge

import (
	"math"
	"sort"
	"time"

	"github.com/sells-group/catalog-enrich/internal/model"
)

// Merger applies the synthesis rules: scalars from the highest-
// confidence source, set-union for lists, longest-above-threshold for
// narratives, and arithmetic means for ratings and confidence.
type Merger struct {
	policy Policy
}

// New creates a Merger with the given policy.
func New(policy Policy) *Merger {
	if policy.MinNarrativeChars <= 0 {
		policy.MinNarrativeChars = DefaultPolicy().MinNarrativeChars
	}
	return &Merger{policy: policy}
}

// Merge synthesizes one profile from a non-empty list of analyses for
// the same target. A singleton input short-circuits: the profile is
// that analysis unchanged. The returned profile has no Slug; the caller
// derives it from the target.
func (m *Merger) Merge(target model.Target, analyses []model.SourceAnalysis) *model.Profile {
	if len(analyses) == 0 {
		return nil
	}

	p := &model.Profile{
		Name:       target.Name,
		Kind:       target.Kind(),
		Sources:    analyses,
		EnrichedAt: time.Now().UTC(),
	}

	if len(analyses) == 1 {
		a := analyses[0]
		p.Specs = a.Specs
		p.Location = a.Location
		p.Community = a.Community
		p.Market = a.Market
		p.Narrative = a.Narrative
		p.Confidence = clamp(a.Confidence, 0, 100)
		return p
	}

	ranked := make([]model.SourceAnalysis, len(analyses))
	copy(ranked, analyses)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})
	primary := ranked[0]

	// Scalars come from the primary.
	p.Specs = model.Specs{
		Category:  primary.Specs.Category,
		Developer: primary.Specs.Developer,
		Status:    primary.Specs.Status,
	}
	p.Location = model.Location{
		City:      primary.Location.City,
		District:  primary.Location.District,
		Address:   primary.Location.Address,
		Latitude:  primary.Location.Latitude,
		Longitude: primary.Location.Longitude,
	}
	p.Market = model.Market{
		PriceRange: primary.Market.PriceRange,
		Trend:      primary.Market.Trend,
	}

	// Lists are the deduplicated union across all sources.
	p.Specs.UnitTypes = unionStrings(ranked, func(a model.SourceAnalysis) []string { return a.Specs.UnitTypes })
	p.Specs.Amenities = unionStrings(ranked, func(a model.SourceAnalysis) []string { return a.Specs.Amenities })
	p.Location.Landmarks = unionStrings(ranked, func(a model.SourceAnalysis) []string { return a.Location.Landmarks })
	p.Community.Schools = unionStrings(ranked, func(a model.SourceAnalysis) []string { return a.Community.Schools })
	p.Community.Highlights = unionStrings(ranked, func(a model.SourceAnalysis) []string { return a.Community.Highlights })

	// Narratives: longest value above the noise threshold, primary as fallback.
	p.Narrative = model.Narrative{
		Overview:   m.pickNarrative(ranked, primary.Narrative.Overview, func(a model.SourceAnalysis) string { return a.Narrative.Overview }),
		Lifestyle:  m.pickNarrative(ranked, primary.Narrative.Lifestyle, func(a model.SourceAnalysis) string { return a.Narrative.Lifestyle }),
		Investment: m.pickNarrative(ranked, primary.Narrative.Investment, func(a model.SourceAnalysis) string { return a.Narrative.Investment }),
	}

	// Proximity ratings average across all sources.
	p.Location.TransitScore = meanInt(ranked, func(a model.SourceAnalysis) int { return a.Location.TransitScore })
	p.Location.SchoolScore = meanInt(ranked, func(a model.SourceAnalysis) int { return a.Location.SchoolScore })
	p.Location.ShoppingScore = meanInt(ranked, func(a model.SourceAnalysis) int { return a.Location.ShoppingScore })

	p.Confidence = clamp(meanInt(ranked, func(a model.SourceAnalysis) int { return a.Confidence }), 0, 100)

	return p
}

// pickNarrative returns the longest narrative value at or above the
// noise threshold, or fallback when every value is below it.
func (m *Merger) pickNarrative(analyses []model.SourceAnalysis, fallback string, get func(model.SourceAnalysis) string) string {
	best := ""
	for _, a := range analyses {
		v := get(a)
		if len(v) < m.policy.MinNarrativeChars {
			continue
		}
		if len(v) > len(best) {
			best = v
		}
	}
	if best == "" {
		return fallback
	}
	return best
}

// unionStrings returns the order-preserving deduplicated union of the
// extracted lists.
func unionStrings(analyses []model.SourceAnalysis, get func(model.SourceAnalysis) []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range analyses {
		for _, v := range get(a) {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// meanInt returns the arithmetic mean of the extracted values across
// all analyses, rounded to the nearest integer.
func meanInt(analyses []model.SourceAnalysis, get func(model.SourceAnalysis) int) int {
	if len(analyses) == 0 {
		return 0
	}
	sum := 0
	for _, a := range analyses {
		sum += get(a)
	}
	return int(math.Round(float64(sum) / float64(len(analyses))))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
