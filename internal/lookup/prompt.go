package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/catalog-enrich/internal/model"
	"github.com/sells-group/catalog-enrich/pkg/anthropic"
)

// DefaultModel is the Claude model used for structuring when none is
// configured.
const DefaultModel = "claude-haiku-4-5-20251001"

// researchSystemPrompt steers the search-backed providers toward the
// facts the extraction schema asks for.
const researchSystemPrompt = `You are a real estate and local-area research assistant.

Research the named development, neighborhood, or landmark and report what is publicly known about it:
- category, developer, and construction/sales status
- unit types and on-site amenities
- exact location: city, district, street address, coordinates if published
- nearby landmarks, schools, transit, and shopping
- current price range and market trend
- anything notable about lifestyle and investment outlook

Report only facts you can source. Say "unknown" for anything you cannot verify.`

func researchUserPrompt(query string) string {
	return fmt.Sprintf("Research the following and report everything relevant: %s", query)
}

// structureSystemPrompt drives the Claude pass that turns raw provider
// text into the extraction schema.
const structureSystemPrompt = `You are a data extraction engine. You receive raw research text about a real estate development, neighborhood, or landmark and emit one JSON object matching this schema exactly:

{
  "specs": {
    "category": string, "developer": string, "status": string,
    "unitTypes": [string], "amenities": [string]
  },
  "location": {
    "city": string, "district": string, "address": string,
    "latitude": number, "longitude": number, "landmarks": [string],
    "transitScore": int, "schoolScore": int, "shoppingScore": int
  },
  "community": { "schools": [string], "highlights": [string] },
  "market": { "priceRange": string, "trend": string },
  "narrative": { "overview": string, "lifestyle": string, "investment": string },
  "confidence": int
}

Rules:
- Use ONLY information present in the provided text
- Omit fields the text does not support; never invent values
- Proximity scores are 0-10 integers; use 0 when the text gives no signal
- confidence is 0-100: how completely and reliably the text covers the subject
- Return ONLY the JSON object, no commentary`

func structureUserPrompt(target model.Target, raw string) string {
	return fmt.Sprintf("Subject: %s\n\nResearch text:\n%s", target.Display(), raw)
}

// structure turns one provider's raw answer into a SourceAnalysis.
func (s *Service) structure(ctx context.Context, target model.Target, provider, raw string) (*model.SourceAnalysis, error) {
	modelName := s.opts.Model
	if modelName == "" {
		modelName = DefaultModel
	}

	resp, err := s.anthropic.Complete(ctx, anthropic.Request{
		Model:     modelName,
		MaxTokens: s.opts.MaxTokens,
		System:    structureSystemPrompt,
		Prompt:    structureUserPrompt(target, raw),
	})
	if err != nil {
		return nil, eris.Wrapf(err, "lookup: structure %s answer", provider)
	}

	var analysis model.SourceAnalysis
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text)), &analysis); err != nil {
		return nil, eris.Wrapf(err, "lookup: parse %s extraction", provider)
	}

	analysis.Provider = provider
	if analysis.Confidence < 0 {
		analysis.Confidence = 0
	}
	if analysis.Confidence > 100 {
		analysis.Confidence = 100
	}
	return &analysis, nil
}

// cleanJSON extracts a JSON object from text that may contain markdown
// code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
