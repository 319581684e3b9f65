package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/veridoc/idverify-worker/internal/config"
	"github.com/veridoc/idverify-worker/internal/logging"
	"github.com/veridoc/idverify-worker/internal/ocr"
	"github.com/veridoc/idverify-worker/internal/pipeline"
	"github.com/veridoc/idverify-worker/internal/queue"
)

func main() {
	filePath := flag.String("file", "", "path to the document image or PDF (required)")
	expectedName := flag.String("expected-name", "", "name to match against the extracted name")
	expectedDOB := flag.String("expected-dob", "", "birth date to check against the identifier (YYYY-MM-DD or DD/MM/YYYY)")
	engineName := flag.String("ocr-engine", "", "OCR engine override: auto, tesseract or docai")
	outputDir := flag.String("output", "", "directory to also save the result JSON into")
	enqueue := flag.Bool("enqueue", false, "submit the job to the worker queue instead of processing locally")
	flag.Parse()

	log := logging.NewLogger("idverify")

	if err := godotenv.Load(".env"); err != nil {
		log.Debug(".env not found, using system environment variables")
	}

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "error: -file is required")
		flag.Usage()
		os.Exit(2)
	}
	if _, err := os.Stat(*filePath); err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot access %s: %v\n", *filePath, err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *engineName != "" {
		cfg.OCREngine = *engineName
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
	}

	if *enqueue {
		if err := submitJob(cfg, *filePath, *expectedName, *expectedDOB); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	engine, err := ocr.NewEngine(ocr.Options{
		Engine:           cfg.OCREngine,
		Languages:        cfg.OCRLanguages,
		DocAIProjectID:   cfg.DocAIProjectID,
		DocAILocation:    cfg.DocAILocation,
		DocAIProcessorID: cfg.DocAIProcessorID,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	pipe := pipeline.New(cfg, engine, log.WithPrefix("pipeline"))
	result, err := pipe.ProcessFile(context.Background(), *filePath, *expectedName, *expectedDOB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(data))

	if *outputDir != "" {
		path, err := pipeline.SaveJSON(result, *filePath, *outputDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		log.Info("result saved", "path", path)
	}
}

// submitJob enqueues the verification for the worker fleet and prints the
// job ID for status tracking.
func submitJob(cfg *config.Config, filePath, expectedName, expectedDOB string) error {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := asynq.NewClient(redisOpt)
	defer client.Close()

	jobID := uuid.NewString()
	if err := queue.Enqueue(client, &queue.VerifyPayload{
		JobID:        jobID,
		FilePath:     filePath,
		ExpectedName: expectedName,
		ExpectedDOB:  expectedDOB,
	}, cfg.QueueName); err != nil {
		return err
	}

	fmt.Println(jobID)
	return nil
}
