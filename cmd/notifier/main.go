package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/example/pizza-shop/internal/email"
	"github.com/example/pizza-shop/internal/infrastructure/kafka"
	"github.com/example/pizza-shop/internal/notification"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[Notifier] No .env file found, using process environment")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	kafkaTopic := getEnv("KAFKA_TOPIC", "pizza-events")
	consumerGroup := getEnv("KAFKA_NOTIFIER_GROUP", "email-notifier")

	senderCfg := email.SenderConfig{
		Provider:       getEnv("EMAIL_PROVIDER", "smtp"),
		SMTPHost:       getEnv("SMTP_HOST", "localhost"),
		SMTPPort:       getEnv("SMTP_PORT", "1025"),
		From:           getEnv("SMTP_FROM", "noreply@example.com"),
		FromName:       getEnv("EMAIL_FROM_NAME", "Pizza Shop"),
		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
	}

	log.Println("[Notifier] ========================================")
	log.Println("[Notifier] Pizza Shop - Email Notification Service")
	log.Println("[Notifier] ========================================")
	log.Printf("[Notifier] Kafka: %v", kafkaBrokers)
	log.Printf("[Notifier] Topic: %s", kafkaTopic)
	log.Printf("[Notifier] Group: %s", consumerGroup)
	log.Printf("[Notifier] Provider: %s", senderCfg.Provider)
	log.Printf("[Notifier] From: %s", senderCfg.From)

	sender, err := email.NewSender(senderCfg)
	if err != nil {
		log.Fatalf("[Notifier] Invalid email configuration: %v", err)
	}
	handler := notification.NewHandler(email.NewService(sender))

	consumer := kafka.NewConsumer(kafkaBrokers, kafkaTopic, consumerGroup)
	defer consumer.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Println("[Notifier] Starting event consumer...")
		if err := consumer.Consume(ctx, handler.HandleEvent); err != nil && ctx.Err() == nil {
			log.Printf("[Notifier] Consumer error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-done:
	}

	log.Println("[Notifier] Shutting down...")
	cancel()
	<-done
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
