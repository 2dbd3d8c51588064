package bmclient

import (
	"context"
	"net/http"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/PratikDhanave/bm-echo-agent/internal/models"
	"github.com/PratikDhanave/bm-echo-agent/internal/sender"
)

const (
	TextCodeClientUnavailable = "CLIENT_UNAVAILABLE"
	TextCodeRequestFailed     = "REQUEST_FAILED"
	TextCodeRequestRejected   = "REQUEST_REJECTED"
)

// DefaultRetryInterval is the minimum gap between lazy re-initialisations.
const DefaultRetryInterval = 30 * time.Second

// HTTPClientFactory returns an authenticated HTTP client.
type HTTPClientFactory func(ctx context.Context) (*http.Client, error)

// Provider owns the authenticated client. If Init fails the failure is
// logged and calls fail with CLIENT_UNAVAILABLE. While unusable, a call
// retries Init at most once per RetryInterval, so a transient credential
// failure at boot heals without a restart. The process keeps serving either way.
type Provider struct {
	mu          sync.RWMutex
	client      *Client
	lastAttempt time.Time
	baseURL     string
	factory     HTTPClientFactory
	logger      glog.Logger

	RetryInterval time.Duration
	Now           func() time.Time
}

func NewProvider(baseURL string, factory HTTPClientFactory, logger glog.Logger) *Provider {
	return &Provider{
		baseURL:       baseURL,
		factory:       factory,
		logger:        glog.Ensure(logger),
		RetryInterval: DefaultRetryInterval,
		Now:           time.Now,
	}
}

// Init (re)builds the client. The error is returned for callers that care,
// and already logged.
func (p *Provider) Init(ctx context.Context) error {
	p.mu.Lock()
	p.lastAttempt = p.now()
	p.mu.Unlock()

	p.logger.Info("initializing business messages client", "base_url", p.baseURL)

	if p.factory == nil {
		err := unavailable("no credential factory configured", nil)
		p.logger.Error("business messages client init failed", "error", err)
		return err
	}

	httpClient, err := p.factory(ctx)
	if err != nil {
		err = unavailable("credential initialization failed", err)
		p.logger.Error("business messages client init failed", "error", err)
		return err
	}

	p.mu.Lock()
	p.client = New(p.baseURL, httpClient)
	p.mu.Unlock()
	return nil
}

// Ready reports whether Init has succeeded.
func (p *Provider) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client != nil
}

func (p *Provider) CreateEvent(ctx context.Context, conversationID string, eventType models.EventType, eventID string) error {
	client, err := p.current(ctx)
	if err != nil {
		return err
	}
	return client.CreateEvent(ctx, conversationID, eventType, eventID)
}

func (p *Provider) CreateMessage(ctx context.Context, conversationID string, msg models.OutboundMessage) error {
	client, err := p.current(ctx)
	if err != nil {
		return err
	}
	return client.CreateMessage(ctx, conversationID, msg)
}

func (p *Provider) current(ctx context.Context) (*Client, error) {
	p.mu.RLock()
	client := p.client
	p.mu.RUnlock()
	if client != nil {
		return client, nil
	}

	if p.claimRetry() {
		if err := p.Init(ctx); err == nil {
			p.mu.RLock()
			client = p.client
			p.mu.RUnlock()
			return client, nil
		}
	}

	p.mu.RLock()
	client = p.client
	p.mu.RUnlock()
	if client != nil {
		return client, nil
	}
	return nil, unavailable("business messages client is not initialized", nil)
}

// claimRetry reports whether this caller may attempt a lazy Init. At most
// one caller wins per RetryInterval.
func (p *Provider) claimRetry() bool {
	if p.factory == nil {
		return false
	}
	interval := p.RetryInterval
	if interval <= 0 {
		interval = DefaultRetryInterval
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	if p.client != nil || (!p.lastAttempt.IsZero() && now.Sub(p.lastAttempt) < interval) {
		return false
	}
	p.lastAttempt = now
	return true
}

func (p *Provider) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func unavailable(message string, source error) error {
	if source == nil {
		return goerrors.New("bmclient: "+message, goerrors.CategoryInternal).
			WithCode(http.StatusServiceUnavailable).
			WithTextCode(TextCodeClientUnavailable)
	}
	return goerrors.Wrap(source, goerrors.CategoryInternal, "bmclient: "+message).
		WithCode(http.StatusServiceUnavailable).
		WithTextCode(TextCodeClientUnavailable)
}

var _ sender.Client = (*Provider)(nil)
