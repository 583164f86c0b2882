package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/catalog-enrich/internal/model"
)

func target(name string) model.Target {
	return model.Target{Name: name, Context: map[string]string{"city": "Austin"}}
}

func TestMergeEmpty(t *testing.T) {
	m := New(DefaultPolicy())
	assert.Nil(t, m.Merge(target("Marina Heights"), nil))
}

func TestMergeSingleton(t *testing.T) {
	m := New(DefaultPolicy())

	a := model.SourceAnalysis{
		Provider:   "perplexity",
		Specs:      model.Specs{Category: "condo", UnitTypes: []string{"1BR", "2BR"}},
		Narrative:  model.Narrative{Overview: "short"},
		Confidence: 72,
	}

	p := m.Merge(target("Marina Heights"), []model.SourceAnalysis{a})
	require.NotNil(t, p)

	// A single source passes through unchanged, even values that would
	// not survive a multi-source merge (short narrative, odd scores).
	assert.Equal(t, "Marina Heights", p.Name)
	assert.Equal(t, "property", p.Kind)
	assert.Equal(t, "condo", p.Specs.Category)
	assert.Equal(t, "short", p.Narrative.Overview)
	assert.Equal(t, 72, p.Confidence)
	assert.Len(t, p.Sources, 1)
}

func TestMergeScalarsFromPrimary(t *testing.T) {
	m := New(DefaultPolicy())

	low := model.SourceAnalysis{
		Provider:   "jina",
		Specs:      model.Specs{Category: "apartment", Developer: "WrongCo"},
		Market:     model.Market{PriceRange: "$200k-$300k"},
		Confidence: 40,
	}
	high := model.SourceAnalysis{
		Provider:   "perplexity",
		Specs:      model.Specs{Category: "condo", Developer: "RightCo"},
		Market:     model.Market{PriceRange: "$400k-$600k", Trend: "rising"},
		Confidence: 90,
	}

	// Input order must not matter: the primary is picked by confidence.
	for _, analyses := range [][]model.SourceAnalysis{
		{low, high},
		{high, low},
	} {
		p := m.Merge(target("Marina Heights"), analyses)
		require.NotNil(t, p)
		assert.Equal(t, "condo", p.Specs.Category)
		assert.Equal(t, "RightCo", p.Specs.Developer)
		assert.Equal(t, "$400k-$600k", p.Market.PriceRange)
		assert.Equal(t, "rising", p.Market.Trend)
	}
}

func TestMergeListUnion(t *testing.T) {
	m := New(DefaultPolicy())

	a := model.SourceAnalysis{
		Provider:   "perplexity",
		Specs:      model.Specs{Amenities: []string{"pool", "gym"}},
		Confidence: 80,
	}
	b := model.SourceAnalysis{
		Provider:   "jina",
		Specs:      model.Specs{Amenities: []string{"gym", "parking"}},
		Confidence: 60,
	}

	p := m.Merge(target("Marina Heights"), []model.SourceAnalysis{a, b})
	require.NotNil(t, p)
	assert.Equal(t, []string{"pool", "gym", "parking"}, p.Specs.Amenities)
}

func TestMergeNarrativeThreshold(t *testing.T) {
	m := New(Policy{MinNarrativeChars: 20})

	long := "this overview is comfortably longer than twenty characters"
	a := model.SourceAnalysis{
		Provider:   "perplexity",
		Narrative:  model.Narrative{Overview: "tiny", Lifestyle: "also tiny"},
		Confidence: 90,
	}
	b := model.SourceAnalysis{
		Provider:   "jina",
		Narrative:  model.Narrative{Overview: long},
		Confidence: 50,
	}

	p := m.Merge(target("Marina Heights"), []model.SourceAnalysis{a, b})
	require.NotNil(t, p)

	// The longest value above the threshold wins even from a weaker
	// source; below-threshold fields fall back to the primary.
	assert.Equal(t, long, p.Narrative.Overview)
	assert.Equal(t, "also tiny", p.Narrative.Lifestyle)
}

func TestMergeMeansAndClamp(t *testing.T) {
	m := New(DefaultPolicy())

	a := model.SourceAnalysis{
		Provider:   "perplexity",
		Location:   model.Location{TransitScore: 8, SchoolScore: 7},
		Confidence: 90,
	}
	b := model.SourceAnalysis{
		Provider:   "jina",
		Location:   model.Location{TransitScore: 5, SchoolScore: 6},
		Confidence: 71,
	}

	p := m.Merge(target("Marina Heights"), []model.SourceAnalysis{a, b})
	require.NotNil(t, p)

	// 8+5 -> 6.5 rounds to 7; 7+6 -> 6.5 rounds to 7.
	assert.Equal(t, 7, p.Location.TransitScore)
	assert.Equal(t, 7, p.Location.SchoolScore)
	// (90+71)/2 = 80.5 rounds to 81.
	assert.Equal(t, 81, p.Confidence)
}

func TestMergeConfidenceClamped(t *testing.T) {
	m := New(DefaultPolicy())

	a := model.SourceAnalysis{Provider: "perplexity", Confidence: 150}
	b := model.SourceAnalysis{Provider: "jina", Confidence: 130}

	p := m.Merge(target("Marina Heights"), []model.SourceAnalysis{a, b})
	require.NotNil(t, p)
	assert.Equal(t, 100, p.Confidence)
}
