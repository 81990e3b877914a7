package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/apperrors"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/config"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/jetstream"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/observer"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/logger"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/utils"
)

// AckNakAction represents the decision made after processing a message
type AckNakAction int

const (
	ActionAck      AckNakAction = iota // Message processed successfully, ACK it
	ActionNakDelay                     // Retryable error with attempts remaining, NAK with delay
	ActionTerm                         // Fatal error or max retries reached, terminate delivery
)

// baseConsumer holds shared components and logic for NATS consumers
type baseConsumer struct {
	client       jetstream.ClientInterface
	router       *Router
	consumerName string
	ctx          context.Context
	cancel       context.CancelFunc
	maxDeliver   int
	nakBaseDelay time.Duration
	nakMaxDelay  time.Duration
}

func newBaseConsumer(client jetstream.ClientInterface, router *Router, consumerName string, maxDeliver int, nakBaseDelay, nakMaxDelay time.Duration) *baseConsumer {
	ctx, cancel := context.WithCancel(context.Background())
	log := logger.Log.With(zap.String("consumer", consumerName))
	ctx = logger.WithLogger(ctx, log)

	return &baseConsumer{
		client:       client,
		router:       router,
		consumerName: consumerName,
		ctx:          ctx,
		cancel:       cancel,
		maxDeliver:   maxDeliver,
		nakBaseDelay: nakBaseDelay,
		nakMaxDelay:  nakMaxDelay,
	}
}

// determineAckNakAction decides the fate of a message based on processing result and metadata.
// There is no dead-letter stage: a message that exhausts its retries or hits a
// fatal error is terminated, and the board converges from the next full refresh.
func determineAckNakAction(
	processingErr error,
	metadata *nats.MsgMetadata,
	maxDeliver int,
	nakBaseDelay time.Duration,
	nakMaxDelay time.Duration,
) (action AckNakAction, delay time.Duration) {

	if processingErr == nil {
		return ActionAck, 0
	}

	isRetryable := apperrors.IsRetryable(processingErr)
	numDelivered := metadata.NumDelivered

	if numDelivered >= uint64(maxDeliver) || !isRetryable {
		return ActionTerm, 0
	}

	// Retryable with attempts remaining: NAK with exponential delay
	attempt := numDelivered
	delay = nakBaseDelay
	if attempt > 1 {
		delay = nakBaseDelay * (1 << (attempt - 1))
	}
	if delay > nakMaxDelay {
		delay = nakMaxDelay
	}
	return ActionNakDelay, delay
}

// handleMessage is the core message processing logic, shared by consumer types
func (bc *baseConsumer) handleMessage(msg *nats.Msg) {
	startTime := utils.Now()
	var processingErr error

	defer func() {
		finalEventType, _ := model.MapToBaseEventType(msg.Subject)
		observer.ObserveFeedEventProcessing(string(finalEventType), time.Since(startTime))

		if r := recover(); r != nil {
			log := logger.FromContext(bc.ctx)
			log.Error("[panic] Recovered from panic in message handler",
				zap.Any("panic", r),
				zap.String("subject", msg.Subject),
				zap.Duration("duration", time.Since(startTime)),
				zap.Stack("stack"),
			)
			observer.IncFeedEventFailed(string(finalEventType))
			observer.IncFeedEventAction(string(finalEventType), "panic_nak", fmt.Errorf("%v", r))
			if nakErr := msg.Nak(); nakErr != nil {
				log.Error("Failed to NAK message after panic", zap.Error(nakErr))
			}
		}
	}()

	msgCtx := bc.ctx
	log := logger.FromContext(msgCtx)

	var msgID string
	if msg.Header != nil {
		msgID = msg.Header.Get("Nats-Msg-Id")
	}

	eventType, found := model.MapToBaseEventType(msg.Subject)
	if !found {
		log.Warn("Unknown event type, terminating delivery", zap.String("subject", msg.Subject))
		observer.IncFeedEventAction(string(eventType), "term_unknown_type", apperrors.ErrBadRequest)
		if termErr := msg.Term(); termErr != nil {
			log.Error("Failed to TERM message for unknown event type", zap.Error(termErr))
		}
		return
	}

	metadata, err := msg.Metadata()
	if err != nil {
		log.Error("Failed to read message metadata", zap.Error(err), zap.Duration("duration", time.Since(startTime)))
		observer.IncFeedEventAction(string(eventType), "nak_metadata_error", err)
		if nakErr := msg.Nak(); nakErr != nil {
			log.Error("Failed to NAK message", zap.Error(nakErr))
		}
		return
	}
	if msgID == "" {
		msgID = fmt.Sprintf("msg-%d", metadata.Sequence.Stream)
	}

	internalMetadata := &model.MessageMetadata{
		StreamSequence:   metadata.Sequence.Stream,
		ConsumerSequence: metadata.Sequence.Consumer,
		NumDelivered:     metadata.NumDelivered,
		NumPending:       metadata.NumPending,
		Timestamp:        metadata.Timestamp,
		Stream:           metadata.Stream,
		Consumer:         metadata.Consumer,
		MessageID:        msgID,
		MessageSubject:   msg.Subject,
	}

	observer.IncFeedEventReceived(string(eventType))

	msgCtx = logger.WithLogger(msgCtx, log.With(
		zap.String("nats_message_id", msgID),
		zap.Uint64("stream_sequence", internalMetadata.StreamSequence),
		zap.Uint64("consumer_sequence", internalMetadata.ConsumerSequence),
		zap.String("subject", msg.Subject),
	))

	processingErr = bc.router.Route(msgCtx, internalMetadata, msg.Data)

	enhancedLog := logger.FromContext(msgCtx)
	action, nakDelay := determineAckNakAction(processingErr, metadata, bc.maxDeliver, bc.nakBaseDelay, bc.nakMaxDelay)

	switch action {
	case ActionAck:
		enhancedLog.Info("Successfully processed message", zap.Duration("duration", time.Since(startTime)))
		observer.IncFeedEventApplied(string(eventType))
		observer.IncFeedEventAction(string(eventType), "ack_success", nil)
		if ackErr := msg.Ack(); ackErr != nil {
			enhancedLog.Error("Failed to ACK message after successful processing", zap.Error(ackErr))
		}

	case ActionNakDelay:
		enhancedLog.Info("NAKing message with delay for redelivery (retryable error)",
			zap.Error(processingErr),
			zap.Uint64("num_delivered", metadata.NumDelivered),
			zap.Int("max_deliver", bc.maxDeliver),
			zap.Duration("nak_delay", nakDelay),
			zap.Duration("duration", time.Since(startTime)),
		)
		observer.IncFeedEventFailed(string(eventType))
		observer.IncFeedEventAction(string(eventType), "nak_retry", processingErr)
		if nakErr := msg.NakWithDelay(nakDelay); nakErr != nil {
			enhancedLog.Error("Failed to NAK message with delay", zap.Error(nakErr))
		}

	case ActionTerm:
		logReason := "max delivery attempts reached"
		if !apperrors.IsRetryable(processingErr) {
			logReason = "fatal error encountered"
		}
		enhancedLog.Warn(fmt.Sprintf("Terminating message delivery: %s", logReason),
			zap.Error(processingErr),
			zap.Uint64("num_delivered", metadata.NumDelivered),
			zap.Int("max_deliver", bc.maxDeliver),
			zap.Duration("duration", time.Since(startTime)),
		)
		observer.IncFeedEventFailed(string(eventType))
		observer.IncFeedEventAction(string(eventType), "term", processingErr)
		if termErr := msg.Term(); termErr != nil {
			enhancedLog.Error("Failed to TERM message", zap.Error(termErr))
		}
	}
}

// Consumer is a durable push consumer bound to a JetStream stream,
// routing each delivery through the shared event router.
type Consumer struct {
	base          *baseConsumer
	cfg           config.ConsumerNatsConfig
	sub           *nats.Subscription
	filterSubject string
	retention     nats.RetentionPolicy
}

// NewLeadFeedConsumer creates the consumer for the lead changefeed stream.
func NewLeadFeedConsumer(client jetstream.ClientInterface, router *Router, cfg config.ConsumerNatsConfig) *Consumer {
	base := newBaseConsumer(client, router, cfg.Consumer, cfg.MaxDeliver, cfg.NakBaseDelay, cfg.NakMaxDelay)
	return &Consumer{
		base:      base,
		cfg:       cfg,
		retention: nats.LimitsPolicy,
	}
}

// NewInquiryConsumer creates the consumer for the inquiry intake stream.
// Intake uses interest retention: once every intake group has ACKed an
// inquiry there is no reason to keep it around.
func NewInquiryConsumer(client jetstream.ClientInterface, router *Router, cfg config.ConsumerNatsConfig) *Consumer {
	base := newBaseConsumer(client, router, cfg.Consumer, cfg.MaxDeliver, cfg.NakBaseDelay, cfg.NakMaxDelay)
	return &Consumer{
		base:      base,
		cfg:       cfg,
		retention: nats.InterestPolicy,
	}
}

// Setup configures the NATS stream and durable consumer
func (c *Consumer) Setup() error {
	log := logger.FromContext(c.base.ctx)
	log.Info("Setting up consumer...", zap.String("stream", c.cfg.Stream), zap.String("consumer", c.cfg.Consumer))

	maxAgeRetention := time.Duration(c.cfg.MaxAge*24) * time.Hour

	streamCfg := &nats.StreamConfig{
		Name:      c.cfg.Stream,
		Subjects:  c.cfg.SubjectList,
		Storage:   nats.FileStorage,
		Retention: c.retention,
		MaxAge:    maxAgeRetention,
	}

	if err := c.base.client.SetupStream(c.base.ctx, streamCfg); err != nil {
		log.Error("Failed to setup stream", zap.Error(err), zap.String("stream", c.cfg.Stream))
		return fmt.Errorf("failed to setup stream '%s': %w", c.cfg.Stream, err)
	}

	consumerCfg := &nats.ConsumerConfig{
		Durable:        c.cfg.Consumer,
		DeliverGroup:   c.cfg.QueueGroup,
		FilterSubjects: c.cfg.SubjectList,
		AckPolicy:      nats.AckExplicitPolicy,
		DeliverSubject: nats.NewInbox(), // Unique inbox for push consumers
		MaxDeliver:     c.cfg.MaxDeliver,
		AckWait:        30 * time.Second,
		MaxAckPending:  1000,
		ReplayPolicy:   nats.ReplayInstantPolicy,
		DeliverPolicy:  nats.DeliverLastPolicy,
	}
	c.filterSubject = "v1.>"

	if err := c.base.client.SetupConsumer(c.base.ctx, c.cfg.Stream, consumerCfg); err != nil {
		log.Error("Failed to setup consumer", zap.Error(err), zap.String("stream", c.cfg.Stream), zap.String("consumer", c.cfg.Consumer))
		return fmt.Errorf("failed to setup consumer '%s' for stream '%s': %w", c.cfg.Consumer, c.cfg.Stream, err)
	}

	log.Info("Consumer setup complete")
	return nil
}

// Start subscribes to the NATS stream
func (c *Consumer) Start() error {
	log := logger.FromContext(c.base.ctx)
	log.Info("Starting subscription...", zap.String("stream", c.cfg.Stream), zap.String("consumer", c.cfg.Consumer))

	sub, err := c.base.client.SubscribePush(c.filterSubject, c.cfg.Consumer, c.cfg.QueueGroup, c.cfg.Stream, c.base.handleMessage)
	if err != nil {
		log.Error("Failed to subscribe consumer", zap.Error(err),
			zap.String("stream", c.cfg.Stream),
			zap.String("consumer", c.cfg.Consumer),
			zap.String("group", c.cfg.QueueGroup),
		)
		return fmt.Errorf("failed to subscribe consumer '%s': %w", c.cfg.Consumer, err)
	}
	c.sub = sub
	log.Info("Consumer subscribed successfully")
	return nil
}

// Stop unsubscribes and cleans up resources
func (c *Consumer) Stop() {
	log := logger.FromContext(c.base.ctx)
	log.Info("Stopping consumer...", zap.String("stream", c.cfg.Stream), zap.String("consumer", c.cfg.Consumer))
	if c.sub != nil {
		if err := c.sub.Drain(); err != nil {
			log.Error("Error draining subscription", zap.Error(err))
		}
		log.Info("Subscription drained")
	}
	if c.base.cancel != nil {
		c.base.cancel()
	}
	log.Info("Consumer stopped")
}
