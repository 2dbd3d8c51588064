// Package classify turns raw callback payloads into typed inbound events.
package classify

import (
	"encoding/json"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/PratikDhanave/bm-echo-agent/internal/models"
)

const (
	TextCodeMalformedPayload      = "MALFORMED_PAYLOAD"
	TextCodeMissingConversationID = "MISSING_CONVERSATION_ID"
)

// Classify parses a callback body into an InboundEvent.
//
// It fails only when the body is not a JSON object or conversationId is
// missing. Payloads with no actionable variant classify as KindNone.
// Variants are checked in order: message, suggestionResponse, userStatus.
func Classify(body []byte) (models.InboundEvent, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return models.InboundEvent{}, malformed("classify: payload is not a JSON object", err)
	}

	conversationID, _ := stringField(raw, "conversationId")
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return models.InboundEvent{}, goerrors.New("classify: conversationId is required", goerrors.CategoryBadInput).
			WithCode(http.StatusBadRequest).
			WithTextCode(TextCodeMissingConversationID)
	}
	requestID, _ := stringField(raw, "requestId")

	event := models.InboundEvent{
		ConversationID: conversationID,
		RequestID:      strings.TrimSpace(requestID),
		Kind:           models.KindNone,
	}

	if payload, ok := raw["message"]; ok {
		if text, ok := textOf(payload); ok {
			event.Kind = models.KindTextMessage
			event.Message = &models.TextMessage{Text: text}
		}
		return event, nil
	}

	if payload, ok := raw["suggestionResponse"]; ok {
		if text, ok := textOf(payload); ok {
			event.Kind = models.KindSuggestionResponse
			event.Suggestion = &models.SuggestionResponse{Text: text}
		}
		return event, nil
	}

	if payload, ok := raw["userStatus"]; ok {
		var status map[string]json.RawMessage
		if err := json.Unmarshal(payload, &status); err != nil || status == nil {
			return event, nil
		}
		isTyping, hasTyping := boolField(status, "isTyping")
		liveAgent, hasLiveAgent := boolField(status, "requestedLiveAgent")
		switch {
		case hasTyping:
			event.Kind = models.KindTypingStatus
		case hasLiveAgent:
			event.Kind = models.KindLiveAgentRequest
		default:
			return event, nil
		}
		event.Status = &models.UserStatus{IsTyping: isTyping, RequestedLiveAgent: liveAgent}
	}

	return event, nil
}

func textOf(body json.RawMessage) (string, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil || obj == nil {
		return "", false
	}
	return stringField(obj, "text")
}

func stringField(obj map[string]json.RawMessage, key string) (string, bool) {
	value, ok := obj[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return "", false
	}
	return s, true
}

func boolField(obj map[string]json.RawMessage, key string) (bool, bool) {
	value, ok := obj[key]
	if !ok {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(value, &b); err != nil {
		return false, false
	}
	return b, true
}

func malformed(message string, source error) error {
	if source == nil {
		return goerrors.New(message, goerrors.CategoryBadInput).
			WithCode(http.StatusBadRequest).
			WithTextCode(TextCodeMalformedPayload)
	}
	return goerrors.Wrap(source, goerrors.CategoryBadInput, message).
		WithCode(http.StatusBadRequest).
		WithTextCode(TextCodeMalformedPayload)
}
