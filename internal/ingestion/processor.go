package ingestion

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/config"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/ingestion/handler"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/intake"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/jetstream"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/logger"
)

// Processor orchestrates event processing for both streams: the lead
// changefeed that keeps the board current and the inquiry stream that
// creates leads.
type Processor struct {
	jsClient        jetstream.ClientInterface
	feedConsumer    *Consumer
	inquiryConsumer *Consumer
	eventRouter     *Router
	feedHandler     *handler.LeadFeedHandler
	inquiryHandler  *handler.InquiryHandler
}

// NewProcessor creates a new processor with all components wired up
func NewProcessor(board handler.BoardApplier, worker intake.IWorker, jsClient jetstream.ClientInterface, cfg *config.Config) *Processor {
	// Shared by both consumers
	router := NewRouter()

	feedHandler := handler.NewLeadFeedHandler(board)
	inquiryHandler := handler.NewInquiryHandler(worker)

	feedConsumer := NewLeadFeedConsumer(jsClient, router, cfg.NATS.LeadFeed)
	inquiryConsumer := NewInquiryConsumer(jsClient, router, cfg.NATS.Inquiry)

	return &Processor{
		jsClient:        jsClient,
		feedConsumer:    feedConsumer,
		inquiryConsumer: inquiryConsumer,
		eventRouter:     router,
		feedHandler:     feedHandler,
		inquiryHandler:  inquiryHandler,
	}
}

// GetRouter returns the processor's event router.
func (p *Processor) GetRouter() *Router {
	return p.eventRouter
}

// Setup registers handlers and sets up both consumers
func (p *Processor) Setup() error {
	p.eventRouter.Register(model.V1LeadsInsert, p.feedHandler.HandleEvent)
	p.eventRouter.Register(model.V1LeadsUpdate, p.feedHandler.HandleEvent)
	p.eventRouter.Register(model.V1LeadsDelete, p.feedHandler.HandleEvent)

	p.eventRouter.Register(model.V1InquiryProperty, p.inquiryHandler.HandleEvent)
	p.eventRouter.Register(model.V1InquiryUser, p.inquiryHandler.HandleEvent)
	p.eventRouter.Register(model.V1InquiryResearch, p.inquiryHandler.HandleEvent)
	p.eventRouter.Register(model.V1InquirySaved, p.inquiryHandler.HandleEvent)

	// Unknown event types are logged and ACKed
	p.eventRouter.RegisterDefault(func(ctx context.Context, eventType model.EventType, metadata *model.MessageMetadata, rawEvent []byte) error {
		logger.FromContext(ctx).Warn("Unhandled event type",
			zap.String("type", string(eventType)),
			zap.String("version", eventType.GetVersion()),
			zap.String("base_type", string(eventType.GetBaseType())),
		)
		return nil
	})

	if err := p.feedConsumer.Setup(); err != nil {
		return fmt.Errorf("failed to setup lead feed consumer: %w", err)
	}
	if err := p.inquiryConsumer.Setup(); err != nil {
		return fmt.Errorf("failed to setup inquiry consumer: %w", err)
	}

	logger.Log.Info("Processor setup complete for both consumers")
	return nil
}

// Start starts both consumers
func (p *Processor) Start() error {
	logger.Log.Info("Starting event processor with both consumers...")

	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("[panic] Recovered from panic in processor",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()

	if err := p.feedConsumer.Start(); err != nil {
		return fmt.Errorf("failed to start lead feed consumer: %w", err)
	}
	if err := p.inquiryConsumer.Start(); err != nil {
		// Stop the already started feed consumer
		p.feedConsumer.Stop()
		return fmt.Errorf("failed to start inquiry consumer: %w", err)
	}

	logger.Log.Info("Both consumers started successfully")
	return nil
}

// Stop stops both consumers
func (p *Processor) Stop() {
	logger.Log.Info("Stopping event processor and both consumers...")
	p.inquiryConsumer.Stop()
	p.feedConsumer.Stop()
	logger.Log.Info("Both consumers stopped")
}
