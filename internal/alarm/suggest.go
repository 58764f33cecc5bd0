package alarm

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed suggestions.yaml
var suggestionsRaw []byte

type suggestionBand struct {
	Min   int      `yaml:"min"`
	Max   int      `yaml:"max"`
	Texts []string `yaml:"texts"`
}

type suggestionCatalog struct {
	Bands    []suggestionBand `yaml:"bands"`
	Fallback string           `yaml:"fallback"`
}

var suggestions suggestionCatalog

func init() {
	if err := yaml.Unmarshal(suggestionsRaw, &suggestions); err != nil {
		panic(fmt.Sprintf("alarm: embedded suggestions catalog: %v", err))
	}
	for i, b := range suggestions.Bands {
		if len(b.Texts) == 0 || b.Min > b.Max {
			panic(fmt.Sprintf("alarm: suggestions band %d is malformed", i))
		}
	}
}

// SuggestFor maps a saved-minutes value to one suggestion text, drawn at
// random from the first band whose inclusive range contains the value. Bands
// are checked in catalog order (ascending); values above the highest band get
// the fixed fallback. With a fixed draw the choice is deterministic.
func SuggestFor(minutes int, draw Draw) string {
	for _, b := range suggestions.Bands {
		if minutes >= b.Min && minutes <= b.Max {
			if len(b.Texts) == 1 {
				return b.Texts[0]
			}
			return b.Texts[draw(0, len(b.Texts)-1)]
		}
	}
	return suggestions.Fallback
}
