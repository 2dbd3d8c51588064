package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/PratikDhanave/bm-echo-agent/internal/compose"
	"github.com/PratikDhanave/bm-echo-agent/internal/config"
	"github.com/PratikDhanave/bm-echo-agent/internal/dedup"
	"github.com/PratikDhanave/bm-echo-agent/internal/models"
)

type sentMessage struct {
	conversationID string
	msg            models.OutboundMessage
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (s *fakeSender) Send(_ context.Context, conversationID string, msg models.OutboundMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMessage{conversationID: conversationID, msg: msg})
	return s.err
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type failingCache struct{}

func (failingCache) Seen(context.Context, string) (bool, error) {
	return false, errors.New("down")
}

func (failingCache) Record(context.Context, string) error {
	return errors.New("down")
}

func (failingCache) Claim(context.Context, string) (bool, error) {
	return false, errors.New("down")
}

func newTestAgent(cache dedup.Cache, s Sender) *Agent {
	return New(cache, compose.New(config.DefaultPersona()), s, glog.Nop())
}

func textEvent(requestID, text string) models.InboundEvent {
	return models.InboundEvent{
		ConversationID: "conv-1",
		RequestID:      requestID,
		Kind:           models.KindTextMessage,
		Message:        &models.TextMessage{Text: text},
	}
}

func TestHandle_EchoesOriginalText(t *testing.T) {
	s := &fakeSender{}
	a := newTestAgent(dedup.NewMemoryCache(time.Minute), s)

	if got := a.Handle(context.Background(), textEvent("r1", "Hello there")); got != OutcomeReplied {
		t.Fatalf("expected replied, got %q", got)
	}
	if s.count() != 1 {
		t.Fatalf("expected 1 send, got %d", s.count())
	}
	if s.sent[0].conversationID != "conv-1" || s.sent[0].msg.Text != "Hello there" {
		t.Fatalf("unexpected send %+v", s.sent[0])
	}
}

func TestHandle_RedeliveryTriggersOneSend(t *testing.T) {
	s := &fakeSender{}
	a := newTestAgent(dedup.NewMemoryCache(time.Minute), s)

	outcomes := map[Outcome]int{}
	for i := 0; i < 5; i++ {
		outcomes[a.Handle(context.Background(), textEvent("r-dup", "hi"))]++
	}
	if s.count() != 1 {
		t.Fatalf("expected exactly 1 send, got %d", s.count())
	}
	if outcomes[OutcomeReplied] != 1 || outcomes[OutcomeDuplicate] != 4 {
		t.Fatalf("unexpected outcomes %v", outcomes)
	}
}

func TestHandle_ConcurrentRedeliveryTriggersOneSend(t *testing.T) {
	s := &fakeSender{}
	a := newTestAgent(dedup.NewMemoryCache(time.Minute), s)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.Handle(context.Background(), textEvent("r-race", "hi"))
		}()
	}
	wg.Wait()

	if s.count() != 1 {
		t.Fatalf("expected exactly 1 send, got %d", s.count())
	}
}

func TestHandle_NoRequestIDIsNeverDeduped(t *testing.T) {
	s := &fakeSender{}
	a := newTestAgent(dedup.NewMemoryCache(time.Minute), s)

	for i := 0; i < 3; i++ {
		a.Handle(context.Background(), textEvent("", "hi"))
	}
	if s.count() != 3 {
		t.Fatalf("expected 3 sends, got %d", s.count())
	}
}

func TestHandle_SendFailureStillRecordsDelivery(t *testing.T) {
	s := &fakeSender{err: errors.New("platform down")}
	cache := dedup.NewMemoryCache(time.Minute)
	a := newTestAgent(cache, s)

	if got := a.Handle(context.Background(), textEvent("r-fail", "hi")); got != OutcomeSendFailed {
		t.Fatalf("expected send_failed, got %q", got)
	}
	if got := a.Handle(context.Background(), textEvent("r-fail", "hi")); got != OutcomeDuplicate {
		t.Fatalf("redelivery after failed send must be a duplicate, got %q", got)
	}
	if s.count() != 1 {
		t.Fatalf("expected 1 send attempt, got %d", s.count())
	}
	if snap := a.Stats().Snapshot(); snap.SendFailures != 1 || snap.Duplicates != 1 {
		t.Fatalf("unexpected stats %+v", snap)
	}
}

func TestHandle_CommandsRouteToRichContent(t *testing.T) {
	s := &fakeSender{}
	a := newTestAgent(dedup.NewMemoryCache(time.Minute), s)

	a.Handle(context.Background(), textEvent("r-card", "  CARD "))
	a.Handle(context.Background(), models.InboundEvent{
		ConversationID: "conv-1",
		RequestID:      "r-chips",
		Kind:           models.KindSuggestionResponse,
		Suggestion:     &models.SuggestionResponse{Text: "chips"},
	})

	if s.count() != 2 {
		t.Fatalf("expected 2 sends, got %d", s.count())
	}
	if s.sent[0].msg.RichCard == nil || s.sent[0].msg.RichCard.StandaloneCard == nil {
		t.Fatal("expected a standalone card for CARD")
	}
	if len(s.sent[1].msg.Suggestions) == 0 {
		t.Fatal("expected suggestion chips for chips")
	}
	snap := a.Stats().Snapshot()
	if snap.Actions[models.ActionRichCard] != 1 || snap.Actions[models.ActionSuggestions] != 1 {
		t.Fatalf("unexpected action counts %v", snap.Actions)
	}
}

func TestHandle_UserStatusAndNoPayloadDoNotSend(t *testing.T) {
	s := &fakeSender{}
	a := newTestAgent(dedup.NewMemoryCache(time.Minute), s)

	typing := models.InboundEvent{
		ConversationID: "conv-1",
		RequestID:      "r-typing",
		Kind:           models.KindTypingStatus,
		Status:         &models.UserStatus{IsTyping: true},
	}
	if got := a.Handle(context.Background(), typing); got != OutcomeUserStatus {
		t.Fatalf("expected user_status, got %q", got)
	}
	empty := models.InboundEvent{ConversationID: "conv-1", RequestID: "r-empty", Kind: models.KindNone}
	if got := a.Handle(context.Background(), empty); got != OutcomeIgnored {
		t.Fatalf("expected ignored, got %q", got)
	}
	if s.count() != 0 {
		t.Fatalf("expected no sends, got %d", s.count())
	}
}

func TestHandle_DedupFailureSkipsSend(t *testing.T) {
	s := &fakeSender{}
	a := newTestAgent(failingCache{}, s)

	if got := a.Handle(context.Background(), textEvent("r1", "hi")); got != OutcomeDedupFailed {
		t.Fatalf("expected dedup_failed, got %q", got)
	}
	if s.count() != 0 {
		t.Fatalf("expected no sends, got %d", s.count())
	}
}

func TestHandle_FullCacheNeverResendsRedelivery(t *testing.T) {
	s := &fakeSender{}
	a := newTestAgent(dedup.NewMemoryCacheWithLimits(10*time.Minute, 2), s)
	ctx := context.Background()

	a.Handle(ctx, textEvent("a", "hi"))
	a.Handle(ctx, textEvent("b", "hi"))
	if got := a.Handle(ctx, textEvent("c", "hi")); got != OutcomeDedupFailed {
		t.Fatalf("expected dedup_failed when full, got %q", got)
	}
	if got := a.Handle(ctx, textEvent("a", "hi")); got != OutcomeDuplicate {
		t.Fatalf("expected duplicate for redelivered a, got %q", got)
	}
	if s.count() != 2 {
		t.Fatalf("expected 2 sends, got %d", s.count())
	}
}
