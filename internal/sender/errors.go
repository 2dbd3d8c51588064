package sender

import (
	"errors"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const TextCodeSendFailed = "SEND_FAILED"

var errNoClient = errors.New("no outbound client configured")

func pipelineError(step Step, conversationID, messageID, eventID string, cause error) error {
	metadata := map[string]any{
		"step":            string(step),
		"conversation_id": conversationID,
	}
	if messageID != "" {
		metadata["message_id"] = messageID
	}
	if eventID != "" {
		metadata["event_id"] = eventID
	}
	return goerrors.Wrap(cause, goerrors.CategoryExternal, "sender: "+string(step)+" failed").
		WithCode(http.StatusBadGateway).
		WithTextCode(TextCodeSendFailed).
		WithMetadata(metadata)
}

// FailedStep reports which protocol step produced err, if any.
func FailedStep(err error) (Step, bool) {
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.TextCode != TextCodeSendFailed {
		return "", false
	}
	step, ok := rich.Metadata["step"].(string)
	return Step(step), ok
}
