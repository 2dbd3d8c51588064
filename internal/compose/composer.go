// Package compose builds outbound messages attributed to the bot persona.
// Nothing here touches the network.
package compose

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/PratikDhanave/bm-echo-agent/internal/config"
	"github.com/PratikDhanave/bm-echo-agent/internal/models"
)

// Composer turns a routed action into an OutboundMessage.
type Composer struct {
	persona        config.Persona
	representative models.Representative
	NewID          func() string
}

// New builds a composer for persona. A persona without sample images
// borrows the default ones, so cards always have media.
func New(persona config.Persona) *Composer {
	if len(persona.SampleImages) == 0 {
		persona.SampleImages = config.DefaultPersona().SampleImages
	}
	return &Composer{
		persona: persona,
		representative: models.Representative{
			RepresentativeType: models.RepresentativeBot,
			DisplayName:        persona.DisplayName,
			AvatarImage:        persona.AvatarImage,
		},
		NewID: uuid.NewString,
	}
}

// Representative returns the bot identity stamped on every message.
func (c *Composer) Representative() models.Representative {
	return c.representative
}

// Compose builds the message for action. text is the original inbound text
// and is only used by the echo action.
func (c *Composer) Compose(action models.Action, text string) models.OutboundMessage {
	switch action {
	case models.ActionRichCard:
		return c.RichCard()
	case models.ActionCarousel:
		return c.Carousel()
	case models.ActionSuggestions:
		return c.Suggestions()
	default:
		return c.Echo(text)
	}
}

// Echo replies with text exactly as received.
func (c *Composer) Echo(text string) models.OutboundMessage {
	return models.OutboundMessage{
		MessageID:      c.newID(),
		Representative: c.representative,
		Text:           text,
	}
}

// RichCard sends one standalone card with the first sample image.
func (c *Composer) RichCard() models.OutboundMessage {
	content := c.cardContent(c.persona.Card.Title, c.persona.Card.Description, c.persona.SampleImages[0])
	return models.OutboundMessage{
		MessageID:      c.newID(),
		Representative: c.representative,
		RichCard: &models.RichCard{
			StandaloneCard: &models.StandaloneCard{CardContent: content},
		},
		Fallback: fallback(content),
	}
}

// Carousel sends one medium-width card per sample image.
func (c *Composer) Carousel() models.OutboundMessage {
	contents := make([]models.CardContent, 0, len(c.persona.SampleImages))
	for i, image := range c.persona.SampleImages {
		title := fmt.Sprintf("Card #%d", i+1)
		contents = append(contents, c.cardContent(title, c.persona.Card.Description, image))
	}
	return models.OutboundMessage{
		MessageID:      c.newID(),
		Representative: c.representative,
		RichCard: &models.RichCard{
			CarouselCard: &models.CarouselCard{
				CardWidth:    models.CardWidthMedium,
				CardContents: contents,
			},
		},
		Fallback: fallback(contents...),
	}
}

// Suggestions sends a text message carrying the persona's chips.
func (c *Composer) Suggestions() models.OutboundMessage {
	return models.OutboundMessage{
		MessageID:      c.newID(),
		Representative: c.representative,
		Text:           c.persona.ChipsText,
		Suggestions:    c.suggestions(),
	}
}

func (c *Composer) cardContent(title, description, image string) models.CardContent {
	return models.CardContent{
		Title:       title,
		Description: description,
		Media: &models.Media{
			Height: models.MediaHeightMedium,
			ContentInfo: models.ContentInfo{
				FileURL:      image,
				ForceRefresh: false,
			},
		},
		Suggestions: c.suggestions(),
	}
}

func (c *Composer) suggestions() []models.Suggestion {
	out := make([]models.Suggestion, 0, len(c.persona.Chips))
	for _, chip := range c.persona.Chips {
		out = append(out, Chip(chip))
	}
	return out
}

// Chip converts a configured chip into a suggestion. A URL makes it an
// open-URL action, a phone number a dial action, otherwise it is a reply.
func Chip(chip config.Chip) models.Suggestion {
	switch {
	case chip.URL != "":
		return models.Suggestion{Action: &models.SuggestedAction{
			Text:          chip.Label,
			PostbackData:  chip.Postback,
			OpenURLAction: &models.OpenURLAction{URL: chip.URL},
		}}
	case chip.PhoneNumber != "":
		return models.Suggestion{Action: &models.SuggestedAction{
			Text:         chip.Label,
			PostbackData: chip.Postback,
			DialAction:   &models.DialAction{PhoneNumber: chip.PhoneNumber},
		}}
	default:
		return models.Suggestion{Reply: &models.SuggestedReply{
			Text:         chip.Label,
			PostbackData: chip.Postback,
		}}
	}
}

// fallback is shown by clients that cannot render rich cards.
func fallback(contents ...models.CardContent) string {
	parts := make([]string, 0, len(contents))
	for _, content := range contents {
		part := content.Title
		if content.Description != "" {
			part += "\n" + content.Description
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "\n\n")
}

func (c *Composer) newID() string {
	if c.NewID != nil {
		return c.NewID()
	}
	return uuid.NewString()
}
