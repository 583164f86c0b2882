package model

import "time"

// Specs holds the physical and commercial attributes of an entity.
type Specs struct {
	Category  string   `json:"category,omitempty"`
	Developer string   `json:"developer,omitempty"`
	Status    string   `json:"status,omitempty"`
	UnitTypes []string `json:"unitTypes,omitempty"`
	Amenities []string `json:"amenities,omitempty"`
}

// Location describes where the entity sits and how well connected it is.
// The proximity scores are 0-10 ratings averaged across sources on merge.
type Location struct {
	City          string   `json:"city,omitempty"`
	District      string   `json:"district,omitempty"`
	Address       string   `json:"address,omitempty"`
	Latitude      float64  `json:"latitude,omitempty"`
	Longitude     float64  `json:"longitude,omitempty"`
	Landmarks     []string `json:"landmarks,omitempty"`
	TransitScore  int      `json:"transitScore,omitempty"`
	SchoolScore   int      `json:"schoolScore,omitempty"`
	ShoppingScore int      `json:"shoppingScore,omitempty"`
}

// Community lists the surrounding-area facts extracted by providers.
type Community struct {
	Schools    []string `json:"schools,omitempty"`
	Highlights []string `json:"highlights,omitempty"`
}

// Market holds pricing and trend signals.
type Market struct {
	PriceRange string `json:"priceRange,omitempty"`
	Trend      string `json:"trend,omitempty"`
}

// Narrative holds the long-form text blocks. On merge the longest value
// above the noise threshold wins per block.
type Narrative struct {
	Overview   string `json:"overview,omitempty"`
	Lifestyle  string `json:"lifestyle,omitempty"`
	Investment string `json:"investment,omitempty"`
}

// SourceAnalysis is one provider's structured extraction for a target,
// before merging. Confidence is the provider's self-reported score in
// [0,100].
type SourceAnalysis struct {
	Provider   string    `json:"provider"`
	Specs      Specs     `json:"specs"`
	Location   Location  `json:"location"`
	Community  Community `json:"community"`
	Market     Market    `json:"market"`
	Narrative  Narrative `json:"narrative"`
	Confidence int       `json:"confidence"`
}

// Profile is the merged, deduplicated, confidence-ranked record for one
// target. Sources retains the original analyses for audit.
type Profile struct {
	Slug       string           `json:"slug"`
	Name       string           `json:"name"`
	Kind       string           `json:"kind"`
	Specs      Specs            `json:"specs"`
	Location   Location         `json:"location"`
	Community  Community        `json:"community"`
	Market     Market           `json:"market"`
	Narrative  Narrative        `json:"narrative"`
	Confidence int              `json:"confidence"`
	Sources    []SourceAnalysis `json:"sources,omitempty"`
	EnrichedAt time.Time        `json:"enrichedAt"`
}
