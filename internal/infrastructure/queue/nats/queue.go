package nats

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/inovadocs/trade-doc-review/internal/core/domain"
	"github.com/inovadocs/trade-doc-review/internal/infrastructure/resilience"
)

const (
	DefaultProcessedSubject = "documents.processed"
	DefaultReviewedSubject  = "documents.reviewed"
	defaultQueueGroup       = "reviewers"
)

type Queue struct {
	conn             *nats.Conn
	processedSubject string
	reviewedSubject  string
	queueGroup       string
	executor         *resilience.Executor
}

type Options struct {
	ProcessedSubject     string
	ReviewedSubject      string
	QueueGroup           string
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url string, options Options) (*Queue, error) {
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
		nats.Name("trade-doc-review"),
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
	return &Queue{
		conn:             conn,
		processedSubject: orDefault(options.ProcessedSubject, DefaultProcessedSubject),
		reviewedSubject:  orDefault(options.ReviewedSubject, DefaultReviewedSubject),
		queueGroup:       orDefault(options.QueueGroup, defaultQueueGroup),
		executor:         options.ResilienceExecutor,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishReviewCompleted(ctx context.Context, event domain.ReviewCompletedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal review event: %w", err)
	}

	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.reviewedSubject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	return resilience.WrapTemporary("nats publish", err, classifyNATSError)
}

// SubscribeDocumentProcessed blocks until ctx is done, then drains the subscription.
func (q *Queue) SubscribeDocumentProcessed(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.processedSubject, q.queueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		docID, err := parseDocumentID(msg.Data)
		if err != nil {
			slog.Warn("nats_message_rejected", "subject", msg.Subject, "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, docID); err != nil {
			slog.Error("worker_handler_failed", "doc_id", docID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

// parseDocumentID accepts a bare id or a JSON object carrying docId or id.
func parseDocumentID(data []byte) (string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var payload struct {
			DocID string `json:"docId"`
			ID    string `json:"id"`
		}
		if err := json.Unmarshal(trimmed, &payload); err != nil {
			return "", fmt.Errorf("decode processed event: %w", err)
		}
		trimmed = []byte(orDefault(strings.TrimSpace(payload.DocID), strings.TrimSpace(payload.ID)))
	}
	if len(trimmed) == 0 {
		return "", errors.New("empty document id")
	}
	return string(trimmed), nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
