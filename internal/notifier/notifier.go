package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/feral-file/ff-marketplace/internal/adapter"
	"github.com/feral-file/ff-marketplace/internal/domain"
	"github.com/feral-file/ff-marketplace/internal/logger"
	"github.com/feral-file/ff-marketplace/internal/messaging"
	js "github.com/feral-file/ff-marketplace/internal/providers/jetstream"
)

// Config holds the configuration for the notify request consumer
type Config struct {
	js.Config
	ConsumerName   string
	AckWaitTimeout time.Duration
	MaxDeliver     int
}

// Settler settles the transfer at a block height on behalf of caller
//
//go:generate mockgen -source=notifier.go -destination=../mocks/notifier.go -package=mocks -mock_names=Settler=MockSettler
type Settler interface {
	Notify(ctx context.Context, caller domain.Principal, height uint64) error
	IsProcessed(height uint64) bool
}

type notifier struct {
	nc      adapter.NatsConn
	js      adapter.JetStream
	settler Settler
	json    adapter.JSON
	config  Config
}

// NewNotifier creates a consumer of notify requests published on the event stream
func NewNotifier(
	ctx context.Context,
	cfg Config,
	natsJS adapter.NatsJetStream,
	settler Settler,
	jsonAdapter adapter.JSON,
) (messaging.Subscriber, error) {
	nc, jetStream, err := natsJS.Connect(cfg.URL, js.ConnectOptions(cfg.Config)...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS and create JetStream: %w", err)
	}

	if err := js.EnsureStream(ctx, jetStream, cfg.Config); err != nil {
		nc.Close()
		return nil, err
	}

	return &notifier{
		nc:      nc,
		js:      jetStream,
		settler: settler,
		json:    jsonAdapter,
		config:  cfg,
	}, nil
}

// Run consumes notify requests until ctx is done
func (n *notifier) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "Starting notify request consumer",
		zap.String("stream", n.config.StreamName),
		zap.String("consumer", n.config.ConsumerName))

	consumer, err := n.js.CreateOrUpdateConsumer(ctx, n.config.StreamName, jetstream.ConsumerConfig{
		Durable:       n.config.ConsumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       n.config.AckWaitTimeout,
		MaxDeliver:    n.config.MaxDeliver,
		FilterSubject: messaging.SubjectNotifyRequest,
	})
	if err != nil {
		return fmt.Errorf("failed to create/update consumer: %w", err)
	}

	msgChan := make(chan adapter.Message, 100)
	sub, err := consumer.Consume(func(msg adapter.Message) {
		msgChan <- msg
	})
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	defer sub.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Shutting down notify request consumer")
			return ctx.Err()
		case msg := <-msgChan:
			go n.handleMessage(ctx, msg)
		}
	}
}

// handleMessage settles one notify request.
//
// A request is acked once the proxy consumed its block height, whatever the
// outcome. Failures that left the height unclaimed are nacked for redelivery.
func (n *notifier) handleMessage(ctx context.Context, msg adapter.Message) {
	var delivered uint64
	if metadata, err := msg.Metadata(); err == nil {
		delivered = metadata.NumDelivered
	}

	var req messaging.NotifyRequest
	err := n.json.Unmarshal(msg.Data(), &req)
	if err == nil && req.Caller.IsZero() {
		err = domain.ErrInvalidPrincipal
	}
	if err != nil {
		// unparseable requests are never redelivered
		logger.ErrorCtx(ctx, fmt.Errorf("unparseable notify request: %w", err))
		if err := msg.Term(); err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to terminate message: %w", err))
		}
		return
	}

	fields := []zap.Field{
		zap.String("caller", req.Caller.String()),
		zap.Uint64("blockHeight", req.BlockHeight),
		zap.Uint64("deliveryCount", delivered),
	}
	logger.InfoCtx(ctx, "Received notify request", fields...)

	err = n.settler.Notify(ctx, req.Caller, req.BlockHeight)
	if err != nil && !n.settler.IsProcessed(req.BlockHeight) {
		logger.ErrorCtx(ctx, fmt.Errorf("notify request not claimed: %w", err), fields...)
		if err := msg.Nak(); err != nil {
			logger.ErrorCtx(ctx, fmt.Errorf("failed to NAK message: %w", err))
		}
		return
	}
	if err != nil {
		logger.WarnCtx(ctx, "Notify request settled with error", append(fields, zap.Error(err))...)
	}

	if err := msg.Ack(); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to ACK message: %w", err))
	}
}

// Close closes the NATS connection
func (n *notifier) Close() {
	if n.nc == nil {
		return
	}

	n.nc.Close()
}
