package models

// EventKind identifies which payload variant an inbound callback carried.
type EventKind string

const (
	KindNone               EventKind = "none"
	KindTextMessage        EventKind = "text_message"
	KindSuggestionResponse EventKind = "suggestion_response"
	KindTypingStatus       EventKind = "typing_status"
	KindLiveAgentRequest   EventKind = "live_agent_request"
)

// TextMessage is a free-form message typed by the end user.
type TextMessage struct {
	Text string
}

// SuggestionResponse is the text of a suggested reply or action the user tapped.
type SuggestionResponse struct {
	Text string
}

// UserStatus reports presence changes for the end user.
type UserStatus struct {
	IsTyping           bool
	RequestedLiveAgent bool
}

// InboundEvent is a classified callback delivery.
// Exactly one of Message, Suggestion or Status is set unless Kind is KindNone.
type InboundEvent struct {
	ConversationID string
	RequestID      string
	Kind           EventKind

	Message    *TextMessage
	Suggestion *SuggestionResponse
	Status     *UserStatus
}

// Text returns the routable text of the event and whether it has one.
func (e InboundEvent) Text() (string, bool) {
	switch {
	case e.Message != nil:
		return e.Message.Text, true
	case e.Suggestion != nil:
		return e.Suggestion.Text, true
	default:
		return "", false
	}
}

// CallbackResponse is returned by POST /callback.
// The platform only looks at the status code; Outcome is informational.
type CallbackResponse struct {
	Status  string `json:"status"`
	Outcome string `json:"outcome,omitempty"`
}
