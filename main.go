package main

import (
	"os"
	"os/signal"
	"syscall"

	"teamhub/internal/config"
	"teamhub/internal/database"
	"teamhub/internal/events"
	"teamhub/internal/logger"
	"teamhub/internal/models"
	"teamhub/internal/server"
	"teamhub/pkg/cache"
	"teamhub/pkg/rabbitmq"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load(viper.New())
	if err != nil {
		logger.New("teamhub", "development").Fatal("invalid configuration", "error", err)
	}

	log := logger.New("teamhub", cfg.AppEnv)
	defer log.Sync()

	// --- Database ---
	db, err := database.Open(cfg, log)
	if err != nil {
		log.Fatal("failed to open database", "driver", cfg.DatabaseDriver, "error", err)
	}

	deps := server.Deps{Config: cfg, DB: db, Log: log}

	// --- RabbitMQ (optional) ---
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:      cfg.RabbitMQURL,
			Exchange: cfg.RabbitMQExchange,
			Queue:    cfg.RabbitMQExchange + ".notifications",
		})
		if err != nil {
			log.Fatal("failed to initialize RabbitMQ client", "error", err)
		}
		defer mqClient.Close()

		deps.Publisher = events.NewPublisher(mqClient, cfg.RabbitMQExchange, log)
		go consumeEvents(mqClient, cfg.RabbitMQExchange+".notifications", log)
	} else {
		log.Warn("RABBITMQ_URL not set, domain events are disabled")
	}

	// --- Redis (optional) ---
	if cfg.RedisAddr != "" {
		rdb, err := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatal("failed to initialize Redis client", "error", err)
		}
		defer rdb.Close()
		deps.TeamCache = cache.NewViewCache[models.Team](rdb, "team:", cfg.CacheTTL)
	}

	app := server.New(deps)

	// --- Start HTTP Server ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("starting server", "port", cfg.AppPort)
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatal("server failed to start", "error", err)
		}
	}()

	<-quit
	log.Info("shutting down server")

	if err := app.Shutdown(); err != nil {
		log.Error("error during fiber shutdown", "error", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info("server gracefully stopped")
}

// consumeEvents logs every domain event delivered to queue. It stands in
// for the notification mailer.
func consumeEvents(client *rabbitmq.Client, queue string, log *logger.Logger) {
	handler := func(msg amqp.Delivery) error {
		event, err := events.Decode(msg.Body)
		if err != nil {
			return err
		}
		log.Info("received event", "type", event.Type, "routing_key", msg.RoutingKey, "timestamp", event.Timestamp)
		return nil
	}
	if err := client.Consume(queue, handler); err != nil {
		log.Error("failed to start RabbitMQ consumer", "queue", queue, "error", err)
	}
}
