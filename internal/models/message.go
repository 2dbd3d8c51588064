package models

// EventType is the presence signal sent around an outbound message.
type EventType string

const (
	EventTypingStarted EventType = "TYPING_STARTED"
	EventTypingStopped EventType = "TYPING_STOPPED"
)

// RepresentativeType marks who authored an outbound message.
type RepresentativeType string

const RepresentativeBot RepresentativeType = "BOT"

// Action is what the command router selected for an inbound text.
type Action string

const (
	ActionEcho        Action = "echo"
	ActionRichCard    Action = "card"
	ActionCarousel    Action = "carousel"
	ActionSuggestions Action = "chips"
)

// Representative is the persona an outbound message is attributed to.
type Representative struct {
	RepresentativeType RepresentativeType `json:"representativeType"`
	DisplayName        string             `json:"displayName,omitempty"`
	AvatarImage        string             `json:"avatarImage,omitempty"`
}

// OutboundMessage is the body of a createMessage call.
type OutboundMessage struct {
	MessageID      string         `json:"messageId"`
	Representative Representative `json:"representative"`
	Text           string         `json:"text,omitempty"`
	RichCard       *RichCard      `json:"richCard,omitempty"`
	Suggestions    []Suggestion   `json:"suggestions,omitempty"`
	Fallback       string         `json:"fallback,omitempty"`
}

// PresenceEvent is the body of a createEvent call.
type PresenceEvent struct {
	EventType EventType `json:"eventType"`
}

// Suggestion holds either a suggested reply or a suggested action.
type Suggestion struct {
	Reply  *SuggestedReply  `json:"reply,omitempty"`
	Action *SuggestedAction `json:"action,omitempty"`
}

// SuggestedReply is a chip that sends its text back to the agent.
type SuggestedReply struct {
	Text         string `json:"text"`
	PostbackData string `json:"postbackData"`
}

// SuggestedAction is a chip that triggers a native action on the device.
type SuggestedAction struct {
	Text          string         `json:"text"`
	PostbackData  string         `json:"postbackData"`
	OpenURLAction *OpenURLAction `json:"openUrlAction,omitempty"`
	DialAction    *DialAction    `json:"dialAction,omitempty"`
}

type OpenURLAction struct {
	URL string `json:"url"`
}

type DialAction struct {
	PhoneNumber string `json:"phoneNumber"`
}

// RichCard holds either a standalone card or a carousel.
type RichCard struct {
	StandaloneCard *StandaloneCard `json:"standaloneCard,omitempty"`
	CarouselCard   *CarouselCard   `json:"carouselCard,omitempty"`
}

type StandaloneCard struct {
	CardContent CardContent `json:"cardContent"`
}

type CarouselCard struct {
	CardWidth    string        `json:"cardWidth"`
	CardContents []CardContent `json:"cardContents"`
}

type CardContent struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Media       *Media       `json:"media,omitempty"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
}

type Media struct {
	Height      string      `json:"height"`
	ContentInfo ContentInfo `json:"contentInfo"`
}

type ContentInfo struct {
	FileURL      string `json:"fileUrl"`
	ForceRefresh bool   `json:"forceRefresh"`
}

const (
	CardWidthMedium   = "MEDIUM"
	MediaHeightMedium = "MEDIUM"
)
