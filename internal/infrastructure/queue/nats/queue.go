package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/souviksenapati/TejastraX/internal/core/domain"
	"github.com/souviksenapati/TejastraX/internal/infrastructure/resilience"
)

const (
	documentIndexedSuffix = "document.indexed"
	claimDecidedSuffix    = "claim.decided"
	prefetchQueueGroup    = "policyqa-prefetch"
)

// Bus publishes pipeline events and carries prefetch requests that warm
// the document session cache.
type Bus struct {
	conn            *nats.Conn
	eventsSubject   string
	prefetchSubject string
	executor        *resilience.Executor
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url, eventsSubject, prefetchSubject string) (*Bus, error) {
	return NewWithOptions(url, eventsSubject, prefetchSubject, Options{})
}

func NewWithOptions(url, eventsSubject, prefetchSubject string, options Options) (*Bus, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("policyqa"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Bus{
		conn:            conn,
		eventsSubject:   strings.TrimSuffix(eventsSubject, "."),
		prefetchSubject: prefetchSubject,
		executor:        options.ResilienceExecutor,
	}, nil
}

func (b *Bus) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
}

func (b *Bus) PublishDocumentIndexed(ctx context.Context, event domain.DocumentIndexedEvent) error {
	return b.publishJSON(ctx, EventSubject(b.eventsSubject, documentIndexedSuffix), event)
}

func (b *Bus) PublishClaimDecided(ctx context.Context, event domain.ClaimDecidedEvent) error {
	return b.publishJSON(ctx, EventSubject(b.eventsSubject, claimDecidedSuffix), event)
}

// RequestPrefetch asks subscribers to fetch and index documentURL.
func (b *Bus) RequestPrefetch(ctx context.Context, documentURL string) error {
	if strings.TrimSpace(documentURL) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "nats prefetch", errors.New("document url is required"))
	}
	return b.publish(ctx, b.prefetchSubject, []byte(documentURL))
}

func (b *Bus) publishJSON(ctx context.Context, subject string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return b.publish(ctx, subject, data)
}

func (b *Bus) publish(ctx context.Context, subject string, data []byte) error {
	call := func(_ context.Context) error {
		if err := b.conn.Publish(subject, data); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	var err error
	if b.executor != nil {
		err = b.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribePrefetch runs handler for every prefetch request until ctx is
// done. Replicas share the work through a queue group.
func (b *Bus) SubscribePrefetch(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := b.conn.QueueSubscribe(b.prefetchSubject, prefetchQueueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		documentURL := string(msg.Data)
		if err := handler(handlerCtx, documentURL); err != nil {
			slog.Error("prefetch_failed", "url", documentURL, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := b.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := b.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func EventSubject(prefix, suffix string) string {
	if prefix == "" {
		return suffix
	}
	return prefix + "." + suffix
}
