package merge

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Policy tunes the synthesis rules. All values have working defaults;
// the YAML file is optional.
type Policy struct {
	// MinNarrativeChars is the noise threshold for long-text blocks.
	// Shorter values are discarded before picking the longest.
	MinNarrativeChars int `yaml:"min_narrative_chars"`
}

// DefaultPolicy returns the built-in synthesis policy.
func DefaultPolicy() Policy {
	return Policy{MinNarrativeChars: 50}
}

// LoadPolicy reads a merge policy from a YAML file. The file has a
// top-level "merge" key.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, eris.Wrapf(err, "merge: read policy %s", path)
	}

	var wrapper struct {
		Merge Policy `yaml:"merge"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Policy{}, eris.Wrap(err, "merge: parse policy")
	}

	p := wrapper.Merge
	if p.MinNarrativeChars <= 0 {
		p.MinNarrativeChars = DefaultPolicy().MinNarrativeChars
	}
	return p, nil
}
