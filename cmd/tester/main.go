package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gitlab.com/gharnivas/api/estate-crm-leads/internal/config"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/jetstream"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/model"
	"gitlab.com/gharnivas/api/estate-crm-leads/internal/observer"
	"gitlab.com/gharnivas/api/estate-crm-leads/pkg/logger"
)

// IndividualTaskDetail holds info for a single message within a batch.
type IndividualTaskDetail struct {
	Subject string
}

// BatchTask represents a batch of messages to be processed by a worker.
type BatchTask struct {
	Tasks      []IndividualTaskDetail
	NatsClient jetstream.ClientInterface
}

const defaultBatchSize = 50

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	natsURL := flag.String("url", cfg.NATS.URL, "NATS server URL")
	subjectsStr := flag.String("subjects", "v1.leads.insert,v1.inquiries.property", "Comma-separated list of NATS subjects")
	rate := flag.Int("rate", 100, "Target messages per second (total)")
	duration := flag.Duration("duration", 1*time.Minute, "Load test duration")
	concurrency := flag.Int("concurrency", 10, "Number of concurrent workers")
	batchSize := flag.Int("batch-size", defaultBatchSize, "Number of messages to generate/publish per worker batch")
	metricsPort := flag.Int("metrics-port", 9091, "Port for Prometheus metrics endpoint")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "NATS Load Generator (Batch Mode)\\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\\n\\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generates load for the estate-crm-leads service by publishing lead and inquiry messages to NATS.\\n\\n")
		fmt.Fprintf(os.Stderr, "Options:\\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *batchSize <= 0 {
		*batchSize = defaultBatchSize
		fmt.Printf("Invalid batch size, using default: %d\n", defaultBatchSize)
	}

	if err := logger.Initialize(*logLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	observer.InitMetrics(true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsServer := startMetricsServer(*metricsPort)
	var metricsWg sync.WaitGroup
	metricsWg.Add(1)
	go func() {
		defer metricsWg.Done()
		<-ctx.Done()
		logger.Log.Info("Shutting down metrics server...")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Metrics server shutdown error", zap.Error(err))
		} else {
			logger.Log.Info("Metrics server stopped gracefully.")
		}
	}()

	logger.Log.Info("Starting NATS Load Generator (Batch Mode)",
		zap.String("nats_url", *natsURL),
		zap.String("subjects", *subjectsStr),
		zap.Int("rate_per_sec", *rate),
		zap.Duration("duration", *duration),
		zap.Int("concurrency", *concurrency),
		zap.Int("batch_size", *batchSize),
		zap.Int("metrics_port", *metricsPort),
		zap.String("log_level", *logLevel),
	)

	natsClient, err := jetstream.NewClient(*natsURL)
	if err != nil {
		logger.Log.Fatal("Failed to connect to NATS", zap.String("url", *natsURL), zap.Error(err))
	}
	defer natsClient.Close()
	logger.Log.Info("Connected to NATS", zap.String("url", *natsURL))

	subjects := strings.Split(*subjectsStr, ",")
	if len(subjects) == 0 || subjects[0] == "" {
		logger.Log.Fatal("No subjects provided")
	}

	gofakeit.Seed(time.Now().UnixNano())

	var wg sync.WaitGroup
	pool, err := ants.NewPoolWithFunc(*concurrency, func(data interface{}) {
		batchWorkerFunc(data, &wg)
	})
	if err != nil {
		logger.Log.Fatal("Failed to create worker pool", zap.Error(err))
	}
	defer pool.Release()

	logger.Log.Info("Worker pool initialized", zap.Int("size", *concurrency))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var loopWg sync.WaitGroup
	loopWg.Add(1)

	go runBatchLoadLoop(ctx, *rate, *duration, *batchSize, subjects, natsClient, pool, &wg, &loopWg)

	select {
	case sig := <-sigChan:
		logger.Log.Info("Received termination signal, shutting down...", zap.String("signal", sig.String()))
		cancel()
	case <-ctx.Done():
		logger.Log.Info("Load generation duration finished or context cancelled externally.")
	}

	logger.Log.Info("Waiting for load generation loop to finish submitting tasks...")
	loopWg.Wait()
	logger.Log.Info("Load generation loop finished.")

	logger.Log.Info("Waiting for active publishing worker tasks to complete...")
	wg.Wait()
	logger.Log.Info("All worker tasks finished.")

	logger.Log.Info("Waiting for metrics server to stop...")
	cancel()
	metricsWg.Wait()

	logger.Log.Info("Load generator shutdown complete.")
}

func startMetricsServer(port int) *http.Server {
	logger.Log.Info("Starting Prometheus metrics server", zap.Int("port", port))
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Failed to start Prometheus metrics server", zap.Error(err))
		}
	}()

	return server
}

// runBatchLoadLoop manages the rate-limited submission of batches to the worker pool.
func runBatchLoadLoop(ctx context.Context, rate int, duration time.Duration, batchSize int, subjects []string, nc jetstream.ClientInterface, pool *ants.PoolWithFunc, wg *sync.WaitGroup, loopWg *sync.WaitGroup) {
	defer loopWg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	durationTimer := time.NewTimer(duration)
	defer durationTimer.Stop()

	messageCounter := 0
	currentBatch := make([]IndividualTaskDetail, 0, batchSize)

	logger.Log.Info("Starting batch load generation loop",
		zap.Int("target_rate_per_sec", rate),
		zap.Duration("duration", duration),
		zap.Int("batch_size", batchSize),
	)

	submitBatch := func(batchToSubmit []IndividualTaskDetail) {
		if len(batchToSubmit) == 0 {
			return
		}
		batchData := BatchTask{
			Tasks:      batchToSubmit,
			NatsClient: nc,
		}
		wg.Add(len(batchToSubmit))
		if err := pool.Invoke(batchData); err != nil {
			logger.Log.Warn("Failed to invoke worker pool for batch", zap.Int("batch_task_count", len(batchToSubmit)), zap.Error(err))
			wg.Add(-len(batchToSubmit))
			for _, taskDetail := range batchToSubmit {
				observer.IncLoadgenPublishErrors(taskDetail.Subject)
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Load generation loop stopping due to context cancellation. Submitting final partial batch...")
			submitBatch(currentBatch)
			return
		case <-durationTimer.C:
			logger.Log.Info("Load generation loop stopping after specified duration. Submitting final partial batch...")
			submitBatch(currentBatch)
			return
		case <-ticker.C:
			select {
			case <-ctx.Done():
				logger.Log.Debug("Context cancelled during ticker processing, skipping new task addition.")
				return
			default:
			}

			selectedSubject := subjects[messageCounter%len(subjects)]
			messageCounter++

			observer.IncLoadgenMessagesAttempted(selectedSubject)

			currentBatch = append(currentBatch, IndividualTaskDetail{
				Subject: selectedSubject,
			})

			if len(currentBatch) >= batchSize {
				submitBatch(currentBatch)
				currentBatch = make([]IndividualTaskDetail, 0, batchSize)
			}
		}
	}
}

// batchWorkerFunc processes a batch of tasks.
func batchWorkerFunc(data interface{}, wg *sync.WaitGroup) {
	batchTask := data.(BatchTask)

	for _, taskDetail := range batchTask.Tasks {
		func(td IndividualTaskDetail) {
			defer wg.Done()

			var payload interface{}

			switch td.Subject {
			case string(model.V1LeadsInsert):
				payload = model.NewLead()
			case string(model.V1LeadsUpdate):
				lead := model.NewLead()
				lead.Status = randomStatus()
				payload = lead
			case string(model.V1LeadsDelete):
				payload = &model.Lead{ID: gofakeit.UUID()}
			case string(model.V1InquiryProperty):
				payload = model.NewInquiryPayload(&model.InquiryPayload{SourceType: model.SourcePropertyInquiry})
			case string(model.V1InquiryUser):
				payload = model.NewInquiryPayload(&model.InquiryPayload{SourceType: model.SourceUserInquiry})
			case string(model.V1InquiryResearch):
				payload = model.NewInquiryPayload(&model.InquiryPayload{SourceType: model.SourceResearchReport})
			case string(model.V1InquirySaved):
				payload = model.NewInquiryPayload(&model.InquiryPayload{SourceType: model.SourceSavedActivity})
			default:
				logger.Log.Error("Unsupported subject for payload generation in batch", zap.String("subject", td.Subject))
				observer.IncLoadgenPublishErrors(td.Subject)
				return
			}

			payloadBytes, err := json.Marshal(payload)
			if err != nil {
				logger.Log.Error("Failed to marshal payload in batch",
					zap.String("subject", td.Subject),
					zap.String("type", fmt.Sprintf("%T", payload)),
					zap.Error(err))
				observer.IncLoadgenPublishErrors(td.Subject)
				return
			}

			headers := map[string]string{"Nats-Msg-Id": gofakeit.UUID()}
			if err := batchTask.NatsClient.Publish(td.Subject, payloadBytes, headers); err != nil {
				logger.Log.Error("Failed to publish message in batch", zap.String("subject", td.Subject), zap.Error(err))
				observer.IncLoadgenPublishErrors(td.Subject)
			} else {
				observer.IncLoadgenMessagesPublished(td.Subject)
			}
		}(taskDetail)
	}
}

func randomStatus() model.PipelineStatus {
	statuses := model.PipelineStatuses()
	return statuses[rand.Intn(len(statuses))]
}
