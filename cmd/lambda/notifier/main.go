package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/example/pizza-shop/internal/email"
	"github.com/example/pizza-shop/internal/infrastructure/kinesis"
	"github.com/example/pizza-shop/internal/notification"
)

var notifier *notification.Handler

func init() {
	sender, err := email.NewSender(email.SenderConfig{
		Provider:       getEnv("EMAIL_PROVIDER", "sendgrid"),
		SMTPHost:       getEnv("SMTP_HOST", "localhost"),
		SMTPPort:       getEnv("SMTP_PORT", "1025"),
		From:           getEnv("SMTP_FROM", "noreply@example.com"),
		FromName:       getEnv("EMAIL_FROM_NAME", "Pizza Shop"),
		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
	})
	if err != nil {
		log.Fatalf("[Lambda Notifier] Invalid email configuration: %v", err)
	}

	notifier = notification.NewHandler(email.NewService(sender))
	log.Println("[Lambda Notifier] Initialized successfully")
}

func handler(ctx context.Context, batch events.KinesisEvent) (events.KinesisEventResponse, error) {
	log.Printf("[Lambda Notifier] Received %d records", len(batch.Records))
	resp := kinesis.Process(ctx, batch, notifier.Notify)
	if len(resp.BatchItemFailures) > 0 {
		log.Printf("[Lambda Notifier] Stopped at sequence %s", resp.BatchItemFailures[0].ItemIdentifier)
	}
	return resp, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	lambda.Start(handler)
}
