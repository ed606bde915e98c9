package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/jrcode-ui/alchemy-discord-bot/internal/discord"
	"github.com/jrcode-ui/alchemy-discord-bot/pkg/config"
	"github.com/jrcode-ui/alchemy-discord-bot/pkg/dispute"
	"github.com/jrcode-ui/alchemy-discord-bot/pkg/intake"
	"github.com/jrcode-ui/alchemy-discord-bot/pkg/relay"
	"github.com/jrcode-ui/alchemy-discord-bot/pkg/sink"
)

// --- Helper Functions ---

func setupLogger(cfg config.LogConfig) {
	logLevel := log.LevelInfo
	if cfg.Level == "debug" {
		logLevel = log.LevelDebug
	} else if cfg.Level == "warn" {
		logLevel = log.LevelWarn
	} else if cfg.Level == "error" {
		logLevel = log.LevelError
	}

	if cfg.Format == "json" {
		log.SetDefault(log.NewLogger(log.JSONHandlerWithLevel(os.Stderr, logLevel)))
	} else {
		log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, logLevel, true)))
	}
}

func initOutputs(cfg *config.Config, client *discord.Client) []sink.Output {
	var outputs []sink.Output

	// Discord
	if client != nil {
		outputs = append(outputs, sink.NewDiscordOutput(client))
	}

	// Console
	if cfg.Outputs.Console.Enabled {
		outputs = append(outputs, sink.NewConsoleOutput())
	}

	// Postgres
	if cfg.Outputs.Postgres.Enabled {
		if po, err := sink.NewPostgresOutput(cfg.Outputs.Postgres.URL, cfg.Outputs.Postgres.Table); err == nil {
			outputs = append(outputs, po)
		} else {
			log.Warn("Postgres output disabled", "err", err)
		}
	}

	// Redis
	if cfg.Outputs.Redis.Enabled {
		if ro, err := sink.NewRedisOutput(cfg.Outputs.Redis.Addr, cfg.Outputs.Redis.Password, cfg.Outputs.Redis.DB, cfg.Outputs.Redis.Key, cfg.Outputs.Redis.Mode); err == nil {
			outputs = append(outputs, ro)
		} else {
			log.Warn("Redis output disabled", "err", err)
		}
	}

	// Kafka
	if cfg.Outputs.Kafka.Enabled {
		if ko, err := sink.NewKafkaOutput(cfg.Outputs.Kafka.Brokers, cfg.Outputs.Kafka.Topic, cfg.Outputs.Kafka.User, cfg.Outputs.Kafka.Password); err == nil {
			outputs = append(outputs, ko)
		} else {
			log.Warn("Kafka output disabled", "err", err)
		}
	}

	// RabbitMQ
	if cfg.Outputs.RabbitMQ.Enabled {
		if ro, err := sink.NewRabbitMQOutput(cfg.Outputs.RabbitMQ.URL, cfg.Outputs.RabbitMQ.Exchange, cfg.Outputs.RabbitMQ.RoutingKey, cfg.Outputs.RabbitMQ.Queue, cfg.Outputs.RabbitMQ.Durable); err == nil {
			outputs = append(outputs, ro)
		} else {
			log.Warn("RabbitMQ output disabled", "err", err)
		}
	}

	return outputs
}

func main() {
	if err := Run(context.Background()); err != nil && err != context.Canceled {
		log.Crit("Application failed", "err", err)
		os.Exit(1)
	}
}

// Run is the testable entry point of the relay application
func Run(ctx context.Context) error {
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, log.LevelInfo, true)))

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	setupLogger(cfg.Log)

	// An unconfigured webhook URL is fatal; every other sink is optional.
	client, err := discord.NewClient(cfg.Discord)
	if err != nil {
		return err
	}

	outputs := initOutputs(cfg, client)
	defer func() {
		for _, o := range outputs {
			o.Close()
		}
	}()

	proc := relay.NewProcessor(dispute.NewDecoder(), outputs, 0)
	queue := intake.NewQueue(cfg.Queue.Depth, cfg.Queue.Workers, proc.Process)

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      intake.NewServer(queue).Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	log.Info("Starting dispute relay", "project", cfg.Project, "listen", cfg.Server.Listen,
		"workers", cfg.Queue.Workers, "queue_depth", cfg.Queue.Depth, "outputs", len(outputs))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Shutting down...")
	case err := <-errCh:
		queue.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server shutdown incomplete", "err", err)
	}

	// Close drains queued deliveries before the outputs go away.
	queue.Close()
	log.Info("Relay stopped")
	return nil
}
