// Package bmclient calls the Business Messages REST API.
package bmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/PratikDhanave/bm-echo-agent/internal/models"
	"github.com/PratikDhanave/bm-echo-agent/internal/sender"
)

const DefaultBaseURL = "https://businessmessages.googleapis.com"

const maxErrorBody = 512

// Client issues createEvent and createMessage requests. The http.Client is
// expected to attach credentials (see the credentials package).
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// CreateEvent posts a presence event:
// POST /v1/conversations/{conversationId}/events?eventId={eventId}
func (c *Client) CreateEvent(ctx context.Context, conversationID string, eventType models.EventType, eventID string) error {
	endpoint := c.conversationURL(conversationID, "events")
	if eventID != "" {
		endpoint += "?" + url.Values{"eventId": {eventID}}.Encode()
	}
	return c.post(ctx, endpoint, models.PresenceEvent{EventType: eventType}, conversationID)
}

// CreateMessage posts a message:
// POST /v1/conversations/{conversationId}/messages
func (c *Client) CreateMessage(ctx context.Context, conversationID string, msg models.OutboundMessage) error {
	return c.post(ctx, c.conversationURL(conversationID, "messages"), msg, conversationID)
}

func (c *Client) conversationURL(conversationID, collection string) string {
	return c.baseURL + "/v1/conversations/" + url.PathEscape(conversationID) + "/" + collection
}

func (c *Client) post(ctx context.Context, endpoint string, body any, conversationID string) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "bmclient: encode request body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "bmclient: build request")
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryExternal, "bmclient: request failed").
			WithTextCode(TextCodeRequestFailed).
			WithMetadata(map[string]any{"conversation_id": conversationID, "url": endpoint})
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return goerrors.New("bmclient: platform rejected request", goerrors.CategoryExternal).
		WithCode(resp.StatusCode).
		WithTextCode(TextCodeRequestRejected).
		WithMetadata(map[string]any{
			"conversation_id": conversationID,
			"url":             endpoint,
			"status":          resp.StatusCode,
			"body":            strings.TrimSpace(string(snippet)),
		})
}

var _ sender.Client = (*Client)(nil)
