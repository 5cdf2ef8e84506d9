package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"fluxo/internal/amqp"
	"fluxo/internal/cache"
	"fluxo/internal/cli"
	"fluxo/internal/core"
	"fluxo/internal/log"
	"fluxo/internal/worker"
)

func main() {
	replay := flag.String("replay", "", "publish the transactions in this JSON file to the queue and exit")
	flag.Parse()

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg).WithComponent(log.ComponentWorker)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker", log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err, log.FieldErrorType, log.ErrorTypeNetwork)
		os.Exit(1)
	}
	defer client.Close()

	if *replay != "" {
		n, err := replayFile(context.Background(), client, *replay)
		if err != nil {
			logger.Error("Replay failed", log.FieldError, err, "published", n)
			os.Exit(1)
		}
		logger.Info("Replay complete", "published", n, "file", *replay)
		return
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", log.FieldError, err, log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath, loc)
	defer repo.Close()

	ingest := worker.NewIngestWorker(repo, logger)
	caches := cache.NewManager(logger.WithComponent(log.ComponentCache))
	caches.Register(ingest.Seen())
	caches.StartCleanup(time.Hour)
	defer caches.Stop()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Starting fluxo-worker", "queue", cfg.AMQPQueue, "db_path", cfg.SQLiteDBPath)
	if err := client.Consume(ctx, ingest.HandleMessage); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}

// replayFile publishes a JSON array of transactions, e.g. a chat export.
func replayFile(ctx context.Context, client *amqp.Client, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	var records []core.Transaction
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}
	for i, t := range records {
		if err := client.Publish(ctx, amqp.NewTransactionMessage(t)); err != nil {
			return i, err
		}
	}
	return len(records), nil
}
