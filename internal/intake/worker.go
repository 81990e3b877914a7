package intake

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/cache"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/config"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/observer"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/storage"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/validator"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/logger"
)

// TaskData holds the necessary data for an intake task.
type TaskData struct {
	Ctx          context.Context // Context derived for the task, NOT the original request context
	Inquiry      model.InquiryPayload
	MetadataJSON datatypes.JSON
}

// IWorker defines the interface for the intake worker pool.
type IWorker interface {
	SubmitTask(taskData TaskData) error
	Stop()
}

// Worker manages the pool that turns raw inquiries into lead rows.
type Worker struct {
	pool       *ants.PoolWithFunc
	leadRepo   storage.LeadRepo
	dedupe     *cache.IntakeCache
	cfg        config.IntakeWorkerPoolConfig
	baseLogger *zap.Logger
}

// Ensure Worker implements IWorker
var _ IWorker = (*Worker)(nil)

// NewWorker creates and initializes a new intake worker pool.
func NewWorker(
	cfg config.IntakeWorkerPoolConfig,
	leadRepo storage.LeadRepo,
	dedupe *cache.IntakeCache,
	baseLogger *zap.Logger,
) (*Worker, error) {
	worker := &Worker{
		leadRepo:   leadRepo,
		dedupe:     dedupe,
		cfg:        cfg,
		baseLogger: baseLogger.Named("intake_worker"),
	}

	pool, err := ants.NewPoolWithFunc(cfg.PoolSize, func(i interface{}) {
		taskData, ok := i.(TaskData)
		if !ok {
			worker.baseLogger.Error("Invalid task data type received", zap.Any("data", i))
			return
		}
		worker.processIntakeTask(taskData)
	},
		ants.WithExpiryDuration(cfg.ExpiryTime),
		ants.WithNonblocking(false), // Block when queue is full, bounded by MaxBlockingTasks
		ants.WithMaxBlockingTasks(cfg.QueueSize),
		ants.WithPanicHandler(func(err interface{}) {
			worker.baseLogger.Error("Panic recovered in intake worker", zap.Any("panic_error", err), zap.Stack("stack"))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create intake worker pool: %w", err)
	}
	worker.pool = pool
	worker.baseLogger.Info("Intake worker pool initialized",
		zap.Int("pool_size", cfg.PoolSize),
		zap.Int("queue_size", cfg.QueueSize),
		zap.Duration("expiry_time", cfg.ExpiryTime),
		zap.Duration("max_block_time", cfg.MaxBlock),
	)
	return worker, nil
}

// SubmitTask submits a new intake task to the worker pool.
func (w *Worker) SubmitTask(taskData TaskData) error {
	start := time.Now()
	observer.IncIntakeTaskSubmitted()
	observer.SetIntakeQueueLength(w.pool.Waiting()) // Approximate queue length

	err := w.pool.Invoke(taskData)

	duration := time.Since(start)

	if err != nil {
		w.baseLogger.Warn("Failed to submit intake task to pool",
			zap.String("source_id", taskData.Inquiry.SourceID),
			zap.String("source_type", string(taskData.Inquiry.SourceType)),
			zap.Duration("submit_duration", duration),
			zap.Error(err),
		)
		observer.IncIntakeTaskProcessed(string(taskData.Inquiry.SourceType), "submit_error")
		if errors.Is(err, ants.ErrPoolOverload) {
			return fmt.Errorf("intake pool overload: %w", err)
		}
		return fmt.Errorf("failed to invoke intake task: %w", err)
	}

	w.baseLogger.Debug("Successfully submitted intake task",
		zap.String("source_id", taskData.Inquiry.SourceID),
		zap.Duration("submit_duration", duration),
	)
	return nil
}

// processIntakeTask contains the actual logic executed by a worker goroutine.
func (w *Worker) processIntakeTask(taskData TaskData) {
	log := logger.FromContextOr(taskData.Ctx, w.baseLogger).With(
		zap.String("task_source_id", taskData.Inquiry.SourceID),
		zap.String("task_source_type", string(taskData.Inquiry.SourceType)),
	)

	start := time.Now()
	status := "success" // Default status for metrics
	inquiry := taskData.Inquiry

	log.Debug("Processing intake task")

	// 1. Validate the inquiry payload
	if err := validator.Validate(&inquiry); err != nil {
		log.Warn("Skipping intake task: invalid inquiry payload", zap.Error(err))
		observer.IncIntakeTaskProcessed(string(inquiry.SourceType), "skipped_invalid_payload")
		return
	}

	// 2. Clean the phone number; a lead needs at least one contact handle
	phoneNumber := cleanPhoneNumber(inquiry.Phone)
	if phoneNumber == "" && inquiry.Email == "" && inquiry.Name == "" {
		log.Warn("Skipping intake task: no contact handle on inquiry")
		observer.IncIntakeTaskProcessed(string(inquiry.SourceType), "skipped_no_handle")
		return
	}

	// 3. Dedupe: bloom hit means "maybe", confirm against the store
	if w.dedupe.ProbablySeen(phoneNumber, inquiry.SourceID) {
		exists, err := w.leadRepo.ExistsBySource(taskData.Ctx, phoneNumber, inquiry.SourceID)
		if err != nil {
			log.Error("Error confirming dedupe hit against store",
				zap.String("phone_number", phoneNumber),
				zap.Error(err))
			observer.IncIntakeTaskProcessed(string(inquiry.SourceType), "failure_dedupe_check")
			return
		}
		if exists {
			log.Debug("Skipping intake: lead already exists for this phone and source",
				zap.String("phone_number", phoneNumber))
			observer.IncIntakeTaskProcessed(string(inquiry.SourceType), "skipped_duplicate")
			return
		}
		w.dedupe.RecordFalsePositive()
	}

	// 4. Build the lead row from the inquiry
	lead := model.Lead{
		ID:            uuid.New().String(),
		Name:          inquiry.Name,
		Phone:         phoneNumber,
		Email:         inquiry.Email,
		SourceType:    inquiry.SourceType,
		SourceID:      inquiry.SourceID,
		PropertyID:    inquiry.PropertyID,
		PropertyTitle: inquiry.PropertyTitle,
		City:          inquiry.City,
		Location:      inquiry.Location,
		BudgetRange:   inquiry.BudgetRange,
		PropertyType:  inquiry.PropertyType,
		Purpose:       inquiry.Purpose,
		Status:        model.StatusNew,
		Priority:      model.PriorityMedium,
		Tags:          datatypes.JSONSlice[string](inquiry.Tags),
		Notes:         inquiry.Message,
		LastMetadata:  taskData.MetadataJSON,
	}

	if err := w.leadRepo.BulkUpsert(taskData.Ctx, []model.Lead{lead}); err != nil {
		log.Error("Error saving new lead from inquiry", zap.Error(err))
		status = "failure_lead_save"
	} else {
		w.dedupe.MarkSeen(phoneNumber, inquiry.SourceID)
		log.Info("Created new lead from inquiry", zap.String("lead_id", lead.ID))
	}

	duration := time.Since(start)
	observer.IncIntakeTaskProcessed(string(inquiry.SourceType), status)

	log.Debug("Finished processing intake task", zap.Duration("duration", duration), zap.String("final_status", status))
}

// cleanPhoneNumber performs basic cleaning.
func cleanPhoneNumber(phone string) string {
	cleaned := strings.ReplaceAll(phone, "+", "")
	cleaned = strings.ReplaceAll(cleaned, "-", "")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, "(", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")
	return cleaned
}

// Stop gracefully shuts down the worker pool.
func (w *Worker) Stop() {
	if w.pool != nil {
		w.baseLogger.Info("Releasing intake worker pool")
		start := time.Now()
		w.pool.Release()
		w.baseLogger.Info("Intake worker pool released", zap.Duration("duration", time.Since(start)))
	}
}
