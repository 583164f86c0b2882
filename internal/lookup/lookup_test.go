package lookup

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/catalog-enrich/internal/model"
	"github.com/sells-group/catalog-enrich/internal/resilience"
	"github.com/sells-group/catalog-enrich/pkg/anthropic"
	"github.com/sells-group/catalog-enrich/pkg/jina"
)

type fakePerplexity struct {
	answer string
	err    error
}

func (f *fakePerplexity) Ask(context.Context, string, string) (string, error) {
	return f.answer, f.err
}

type fakeJina struct {
	results []jina.SearchResult
	err     error
}

func (f *fakeJina) Search(context.Context, string) ([]jina.SearchResult, error) {
	return f.results, f.err
}

type fakeAnthropic struct {
	text string
	err  error
}

func (f *fakeAnthropic) Complete(context.Context, anthropic.Request) (*anthropic.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.Response{Text: f.text}, nil
}

func testOpts() Options {
	return Options{
		Retry: resilience.RetryConfig{
			MaxAttempts:    1,
			InitialBackoff: time.Millisecond,
		},
	}
}

const extraction = `{"specs":{"category":"condo"},"location":{"city":"Austin"},"confidence":85}`

func TestAnalyzeBothProviders(t *testing.T) {
	svc := NewService(
		&fakePerplexity{answer: "research text"},
		&fakeJina{results: []jina.SearchResult{{Title: "hit", Content: "details"}}},
		&fakeAnthropic{text: extraction},
		testOpts(),
	)

	analyses, err := svc.Analyze(context.Background(), model.Target{Name: "Marina Heights"})
	require.NoError(t, err)
	require.Len(t, analyses, 2)

	providers := map[string]bool{}
	for _, a := range analyses {
		providers[a.Provider] = true
		assert.Equal(t, "condo", a.Specs.Category)
		assert.Equal(t, 85, a.Confidence)
	}
	assert.True(t, providers["perplexity"])
	assert.True(t, providers["jina"])
}

func TestAnalyzeToleratesOneProviderFailure(t *testing.T) {
	svc := NewService(
		&fakePerplexity{err: eris.New("perplexity down")},
		&fakeJina{results: []jina.SearchResult{{Title: "hit", Content: "details"}}},
		&fakeAnthropic{text: extraction},
		testOpts(),
	)

	analyses, err := svc.Analyze(context.Background(), model.Target{Name: "Marina Heights"})
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, "jina", analyses[0].Provider)
}

func TestAnalyzeAllProvidersFailed(t *testing.T) {
	svc := NewService(
		&fakePerplexity{err: eris.New("perplexity down")},
		&fakeJina{err: eris.New("jina down")},
		&fakeAnthropic{text: extraction},
		testOpts(),
	)

	_, err := svc.Analyze(context.Background(), model.Target{Name: "Marina Heights"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no provider produced an analysis")
}

func TestAnalyzeWithoutJina(t *testing.T) {
	svc := NewService(
		&fakePerplexity{answer: "research text"},
		nil,
		&fakeAnthropic{text: extraction},
		testOpts(),
	)

	analyses, err := svc.Analyze(context.Background(), model.Target{Name: "Marina Heights"})
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, "perplexity", analyses[0].Provider)
}

func TestAnalyzeStructuringFailure(t *testing.T) {
	svc := NewService(
		&fakePerplexity{answer: "research text"},
		nil,
		&fakeAnthropic{text: "not json at all"},
		testOpts(),
	)

	_, err := svc.Analyze(context.Background(), model.Target{Name: "Marina Heights"})
	require.Error(t, err)
}

func TestAnalyzeClampsConfidence(t *testing.T) {
	svc := NewService(
		&fakePerplexity{answer: "research text"},
		nil,
		&fakeAnthropic{text: `{"confidence":250}`},
		testOpts(),
	)

	analyses, err := svc.Analyze(context.Background(), model.Target{Name: "Marina Heights"})
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, 100, analyses[0].Confidence)
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", `{"key": "value"}`, `{"key": "value"}`},
		{"json fence", "```json\n{\"key\": \"value\"}\n```", `{"key": "value"}`},
		{"bare fence", "```\n{\"key\": \"value\"}\n```", `{"key": "value"}`},
		{"leading prose", "Here is the extraction:\n{\"key\": \"value\"}", `{"key": "value"}`},
		{"trailing prose", "{\"key\": \"value\"}\nLet me know if you need more.", `{"key": "value"}`},
		{"whitespace", "  {\"key\": \"value\"}  ", `{"key": "value"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.input))
		})
	}
}
