package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"binFlow/internal/model"
)

// NATSPublisher publishes log records to JetStream, one message per record
// on subject <prefix>.<topic0>.
type NATSPublisher struct {
	js           jetstream.JetStream
	prefix       string
	maxRetries   int
	retryBackoff time.Duration
	logger       *zap.Logger
}

func NewNATSPublisher(js jetstream.JetStream, prefix string, maxRetries int, retryBackoff time.Duration, logger *zap.Logger) *NATSPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NATSPublisher{
		js:           js,
		prefix:       strings.TrimSuffix(prefix, "."),
		maxRetries:   maxRetries,
		retryBackoff: retryBackoff,
		logger:       logger,
	}
}

func (p *NATSPublisher) PutLogBatch(ctx context.Context, logs []model.LogRecord) error {
	for _, record := range logs {
		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal log record: %w", err)
		}
		subject := p.prefix
		if len(record.Topics) > 0 {
			subject = fmt.Sprintf("%s.%s", p.prefix, strings.ToLower(record.Topics[0]))
		}

		err = withRetry(ctx, p.maxRetries, p.retryBackoff, func(ctx context.Context) error {
			_, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(record.ID))
			if err != nil {
				p.logger.Warn("nats publish failed", zap.Error(err), zap.String("subject", subject), zap.String("id", record.ID))
			}
			return err
		})
		if err != nil {
			return fmt.Errorf("publish %s: %w", subject, err)
		}
	}
	return nil
}

// EnsureStream creates or updates the stream holding every subject under
// prefix.
func EnsureStream(ctx context.Context, js jetstream.JetStream, name, prefix string) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      name,
		Subjects:  []string{strings.TrimSuffix(prefix, ".") + ".>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create event stream: %w", err)
	}
	return nil
}
