package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/veridoc/idverify-worker/internal/config"
	"github.com/veridoc/idverify-worker/internal/logging"
	"github.com/veridoc/idverify-worker/internal/ocr"
	"github.com/veridoc/idverify-worker/internal/pipeline"
	"github.com/veridoc/idverify-worker/internal/queue"
	"github.com/veridoc/idverify-worker/internal/storage"
)

func main() {
	log := logging.NewLogger("worker")

	if err := godotenv.Load(".env"); err != nil {
		log.Info(".env not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateWorker(); err != nil {
		log.Error("worker configuration is incomplete", "error", err)
		os.Exit(1)
	}

	log.Info("identity verification worker starting",
		"queue", cfg.QueueName,
		"concurrency", cfg.WorkerConcurrency,
		"engine", cfg.OCREngine)

	store, err := storage.NewPostgresClient(cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}

	engine, err := ocr.NewEngine(ocr.Options{
		Engine:           cfg.OCREngine,
		Languages:        cfg.OCRLanguages,
		DocAIProjectID:   cfg.DocAIProjectID,
		DocAILocation:    cfg.DocAILocation,
		DocAIProcessorID: cfg.DocAIProcessorID,
	})
	if err != nil {
		log.Error("failed to initialize OCR engine", "error", err)
		os.Exit(1)
	}
	log.Info("OCR engine initialized", "engine", engine.Name())

	pipe := pipeline.New(cfg, engine, log.WithPrefix("pipeline"))

	consumer, err := queue.NewConsumer(&queue.ConsumerConfig{
		RedisURL:          cfg.RedisURL,
		QueueName:         cfg.QueueName,
		Concurrency:       cfg.WorkerConcurrency,
		Pipeline:          pipe,
		Store:             store,
		ProcessingTimeout: int64(cfg.ProcessingTimeout),
		Logger:            log.WithPrefix("queue"),
	})
	if err != nil {
		log.Error("failed to initialize queue consumer", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := consumer.Start(ctx); err != nil {
		log.Error("failed to start queue consumer", "error", err)
		os.Exit(1)
	}
	log.Info("worker is ready, waiting for jobs")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Info("initiating graceful shutdown", "signal", sig)

	if err := consumer.Stop(ctx); err != nil {
		log.Error("error stopping queue consumer", "error", err)
	}
	if err := store.Close(); err != nil {
		log.Error("error closing storage", "error", err)
	}

	log.Info("shutdown complete")
}
