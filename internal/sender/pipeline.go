// Package sender delivers a composed reply using the three-step protocol:
// typing started, message, typing stopped.
package sender

import (
	"context"
	"time"

	"github.com/google/uuid"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/PratikDhanave/bm-echo-agent/internal/models"
)

// Client is the outbound side of the messaging platform.
type Client interface {
	CreateEvent(ctx context.Context, conversationID string, eventType models.EventType, eventID string) error
	CreateMessage(ctx context.Context, conversationID string, msg models.OutboundMessage) error
}

// Step names one stage of the send protocol.
type Step string

const (
	StepTypingStart Step = "typing_start"
	StepMessage     Step = "message"
	StepTypingStop  Step = "typing_stop"
)

const DefaultTimeout = 10 * time.Second

// Pipeline runs the send protocol. Steps execute strictly in order and the
// first failure aborts the rest; nothing is retried or rolled back. A failed
// typing start therefore means no message is sent, and a failed message
// leaves the typing indicator running.
type Pipeline struct {
	client  Client
	logger  glog.Logger
	Timeout time.Duration
	NewID   func() string
}

func NewPipeline(client Client, logger glog.Logger, timeout time.Duration) *Pipeline {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Pipeline{
		client:  client,
		logger:  glog.Ensure(logger),
		Timeout: timeout,
		NewID:   uuid.NewString,
	}
}

// Send delivers msg to the conversation. The returned error is already
// logged; callers only need it for accounting.
func (p *Pipeline) Send(ctx context.Context, conversationID string, msg models.OutboundMessage) error {
	if p == nil {
		return pipelineError(StepTypingStart, conversationID, msg.MessageID, "", errNoClient)
	}
	if p.client == nil {
		return p.fail(ctx, StepTypingStart, conversationID, msg.MessageID, "", errNoClient)
	}

	startID := p.newID()
	if err := p.call(ctx, func(ctx context.Context) error {
		return p.client.CreateEvent(ctx, conversationID, models.EventTypingStarted, startID)
	}); err != nil {
		return p.fail(ctx, StepTypingStart, conversationID, msg.MessageID, startID, err)
	}

	p.logger.WithContext(ctx).Info("sending message",
		"conversation_id", conversationID,
		"message_id", msg.MessageID,
	)
	if err := p.call(ctx, func(ctx context.Context) error {
		return p.client.CreateMessage(ctx, conversationID, msg)
	}); err != nil {
		return p.fail(ctx, StepMessage, conversationID, msg.MessageID, "", err)
	}

	stopID := p.newID()
	if err := p.call(ctx, func(ctx context.Context) error {
		return p.client.CreateEvent(ctx, conversationID, models.EventTypingStopped, stopID)
	}); err != nil {
		return p.fail(ctx, StepTypingStop, conversationID, msg.MessageID, stopID, err)
	}

	return nil
}

// call bounds one outbound call; an expired deadline surfaces as the call's error.
func (p *Pipeline) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()
	return fn(ctx)
}

func (p *Pipeline) fail(ctx context.Context, step Step, conversationID, messageID, eventID string, cause error) error {
	err := pipelineError(step, conversationID, messageID, eventID, cause)
	p.logger.WithContext(ctx).Error("send pipeline aborted",
		"step", string(step),
		"conversation_id", conversationID,
		"message_id", messageID,
		"event_id", eventID,
		"error", err,
	)
	return err
}

func (p *Pipeline) timeout() time.Duration {
	if p.Timeout <= 0 {
		return DefaultTimeout
	}
	return p.Timeout
}

func (p *Pipeline) newID() string {
	if p.NewID != nil {
		return p.NewID()
	}
	return uuid.NewString()
}
