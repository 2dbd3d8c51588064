// Package router maps inbound text to the reply the agent should compose.
package router

import (
	"strings"

	"github.com/PratikDhanave/bm-echo-agent/internal/models"
)

// Commands is the keyword table. Keys are already normalized.
var Commands = map[string]models.Action{
	"card":     models.ActionRichCard,
	"carousel": models.ActionCarousel,
	"chips":    models.ActionSuggestions,
}

// Normalize trims surrounding whitespace and case-folds text for matching.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Route selects the action for text. Anything that is not a command,
// including the empty string, is echoed.
func Route(text string) models.Action {
	if action, ok := Commands[Normalize(text)]; ok {
		return action
	}
	return models.ActionEcho
}
