// Package agent wires the inbound pipeline: dedup, route, compose, send.
package agent

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/PratikDhanave/bm-echo-agent/internal/compose"
	"github.com/PratikDhanave/bm-echo-agent/internal/dedup"
	"github.com/PratikDhanave/bm-echo-agent/internal/models"
	"github.com/PratikDhanave/bm-echo-agent/internal/router"
)

// Outcome describes what happened to one delivery.
type Outcome string

const (
	OutcomeReplied     Outcome = "replied"
	OutcomeSendFailed  Outcome = "send_failed"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeIgnored     Outcome = "ignored"
	OutcomeUserStatus  Outcome = "user_status"
	OutcomeDedupFailed Outcome = "dedup_failed"
)

// Sender delivers a composed message. *sender.Pipeline implements it.
type Sender interface {
	Send(ctx context.Context, conversationID string, msg models.OutboundMessage) error
}

// Agent handles classified inbound events. It is safe for concurrent use;
// the delivery cache is the only shared mutable state.
type Agent struct {
	cache    dedup.Cache
	composer *compose.Composer
	sender   Sender
	logger   glog.Logger
	stats    *Stats
}

func New(cache dedup.Cache, composer *compose.Composer, sender Sender, logger glog.Logger) *Agent {
	return &Agent{
		cache:    cache,
		composer: composer,
		sender:   sender,
		logger:   glog.Ensure(logger),
		stats:    newStats(),
	}
}

// Stats returns the live counters.
func (a *Agent) Stats() *Stats {
	return a.stats
}

// Handle processes one event. The request id is claimed before anything is
// sent, so a failed send is never retried by a redelivery.
func (a *Agent) Handle(ctx context.Context, event models.InboundEvent) Outcome {
	a.stats.deliveries.Add(1)
	logger := a.logger.WithContext(ctx)

	claimed, err := a.cache.Claim(ctx, event.RequestID)
	if err != nil {
		a.stats.dedupFailures.Add(1)
		logger.Error("dedup check failed, skipping delivery",
			"conversation_id", event.ConversationID,
			"request_id", event.RequestID,
			"error", err,
		)
		return OutcomeDedupFailed
	}
	if !claimed {
		a.stats.duplicates.Add(1)
		logger.Debug("duplicate delivery ignored",
			"conversation_id", event.ConversationID,
			"request_id", event.RequestID,
		)
		return OutcomeDuplicate
	}

	switch event.Kind {
	case models.KindTypingStatus:
		a.stats.userStatus.Add(1)
		logger.Info("user is typing", "conversation_id", event.ConversationID)
		return OutcomeUserStatus
	case models.KindLiveAgentRequest:
		a.stats.userStatus.Add(1)
		logger.Info("user requested transfer to live agent", "conversation_id", event.ConversationID)
		return OutcomeUserStatus
	}

	text, ok := event.Text()
	if !ok {
		a.stats.ignored.Add(1)
		logger.Info("event has no actionable payload",
			"conversation_id", event.ConversationID,
			"request_id", event.RequestID,
		)
		return OutcomeIgnored
	}

	action := router.Route(text)
	a.stats.countAction(action)
	msg := a.composer.Compose(action, text)

	if err := a.sender.Send(ctx, event.ConversationID, msg); err != nil {
		a.stats.sendFailures.Add(1)
		return OutcomeSendFailed
	}
	a.stats.replies.Add(1)
	return OutcomeReplied
}

// Ignore counts a delivery that failed classification.
func (a *Agent) Ignore() {
	a.stats.deliveries.Add(1)
	a.stats.ignored.Add(1)
}
