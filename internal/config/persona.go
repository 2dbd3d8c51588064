package config

import (
	"os"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"
)

// Persona describes the bot identity and the sample rich content it sends.
type Persona struct {
	DisplayName string `yaml:"display_name"`
	AvatarImage string `yaml:"avatar_image"`

	Card         CardText `yaml:"card"`
	SampleImages []string `yaml:"sample_images"`
	Chips        []Chip   `yaml:"chips"`
	ChipsText    string   `yaml:"chips_text"`
}

// CardText is the copy used on rich cards.
type CardText struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Chip is one suggested reply or action. At most one of URL or PhoneNumber is set;
// neither means a plain suggested reply.
type Chip struct {
	Label       string `yaml:"label"`
	Postback    string `yaml:"postback"`
	URL         string `yaml:"url,omitempty"`
	PhoneNumber string `yaml:"phone_number,omitempty"`
}

// DefaultPersona returns the built-in sample bot.
func DefaultPersona() Persona {
	return Persona{
		DisplayName: "Echo Bot",
		AvatarImage: "https://storage.googleapis.com/sample-avatars-for-bm/bot-avatar.jpg",
		Card: CardText{
			Title:       "Business Messages!!!",
			Description: "This is an example rich card",
		},
		SampleImages: []string{
			"https://storage.googleapis.com/kitchen-sink-sample-images/cute-dog.jpg",
			"https://storage.googleapis.com/kitchen-sink-sample-images/elephant.jpg",
			"https://storage.googleapis.com/kitchen-sink-sample-images/adventure-cliff.jpg",
			"https://storage.googleapis.com/kitchen-sink-sample-images/sheep.jpg",
			"https://storage.googleapis.com/kitchen-sink-sample-images/golden-gate-bridge.jpg",
		},
		Chips: []Chip{
			{Label: "Sample Chip", Postback: "sample_chip"},
			{Label: "URL Action", Postback: "url_action", URL: "https://www.google.com"},
			{Label: "Dial Action", Postback: "dial_action", PhoneNumber: "+12223334444"},
		},
		ChipsText: "Message with suggestion chips",
	}
}

// LoadPersona reads a persona YAML file. Fields missing from the file keep
// their DefaultPersona values. An empty path returns the defaults.
func LoadPersona(path string) (Persona, error) {
	persona := DefaultPersona()
	path = strings.TrimSpace(path)
	if path == "" {
		return persona, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Persona{}, goerrors.Wrap(err, goerrors.CategoryValidation, "config: read persona file").
			WithTextCode("INVALID_CONFIG").
			WithMetadata(map[string]any{"path": path})
	}
	if err := yaml.Unmarshal(raw, &persona); err != nil {
		return Persona{}, goerrors.Wrap(err, goerrors.CategoryValidation, "config: parse persona file").
			WithTextCode("INVALID_CONFIG").
			WithMetadata(map[string]any{"path": path})
	}

	for i, chip := range persona.Chips {
		if strings.TrimSpace(chip.Label) == "" || strings.TrimSpace(chip.Postback) == "" {
			return Persona{}, invalid("persona chips need a label and a postback")
		}
		if chip.URL != "" && chip.PhoneNumber != "" {
			return Persona{}, goerrors.New("config: persona chip cannot be both url and dial action", goerrors.CategoryValidation).
				WithTextCode("INVALID_CONFIG").
				WithMetadata(map[string]any{"index": i})
		}
	}
	if len(persona.SampleImages) == 0 {
		return Persona{}, invalid("persona needs at least one sample image")
	}
	return persona, nil
}
