// Command setup-pubsub-local creates the subscription change topic, its dead
// letter topic and the consumer subscriptions on the Pub/Sub emulator.
package main

import (
	"context"
	"flag"
	"time"

	"plandera/internal/config"
	"plandera/internal/logger"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const retention = 7 * 24 * time.Hour

func main() {
	reset := flag.Bool("reset", false, "Delete every topic and subscription on the emulator first")
	pushEndpoint := flag.String("push-endpoint", "", "Push endpoint of the consumer subscription; pull when empty")
	flag.Parse()

	logger := logger.New()
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("No .env file found, relying on system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Failed to load config: %v", err)
	}
	if cfg.GCPProjectID == "" {
		logger.Fatal().Msg("GCP_PROJECT_ID is not set")
	}
	if cfg.PubSubEmulatorHost == "" {
		logger.Fatal().Msg("PUBSUB_EMULATOR_HOST must be set, this tool only targets the emulator")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID,
		option.WithEndpoint(cfg.PubSubEmulatorHost),
		option.WithoutAuthentication(),
	)
	if err != nil {
		logger.Fatal().Msgf("Failed to create Pub/Sub client: %v", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close Pub/Sub client")
		}
	}()

	if *reset {
		resetEmulator(ctx, client, logger)
	}
	if err := ensureResources(ctx, client, cfg.PubSubSubscriptionTopic, *pushEndpoint, logger); err != nil {
		logger.Fatal().Err(err).Msg("Pub/Sub setup failed")
	}
	logger.Info().Str("topic", cfg.PubSubSubscriptionTopic).Msg("Pub/Sub setup complete")
}

// resetEmulator deletes every subscription and topic in the project.
func resetEmulator(ctx context.Context, client *pubsub.Client, logger zerolog.Logger) {
	subs := client.Subscriptions(ctx)
	for {
		sub, err := subs.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Fatal().Msgf("Failed to list subscriptions: %v", err)
		}
		if err := sub.Delete(ctx); err != nil {
			logger.Warn().Err(err).Str("subscription", sub.ID()).Msg("Failed to delete subscription")
		}
	}

	topics := client.Topics(ctx)
	for {
		topic, err := topics.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Fatal().Msgf("Failed to list topics: %v", err)
		}
		if err := topic.Delete(ctx); err != nil {
			logger.Warn().Err(err).Str("topic", topic.ID()).Msg("Failed to delete topic")
		}
	}
	logger.Info().Msg("Emulator reset")
}

func ensureResources(ctx context.Context, client *pubsub.Client, topicID, pushEndpoint string, logger zerolog.Logger) error {
	dlqTopic, err := ensureTopic(ctx, client, topicID+"-dlq", logger)
	if err != nil {
		return err
	}
	topic, err := ensureTopic(ctx, client, topicID, logger)
	if err != nil {
		return err
	}

	consumer := pubsub.SubscriptionConfig{
		Topic:       topic,
		AckDeadline: 60 * time.Second,
		RetryPolicy: &pubsub.RetryPolicy{
			MinimumBackoff: 10 * time.Second,
			MaximumBackoff: 600 * time.Second,
		},
		DeadLetterPolicy: &pubsub.DeadLetterPolicy{
			DeadLetterTopic:     dlqTopic.String(),
			MaxDeliveryAttempts: 5,
		},
	}
	if pushEndpoint != "" {
		consumer.PushConfig = pubsub.PushConfig{Endpoint: pushEndpoint}
	}
	if err := ensureSubscription(ctx, client, topicID+"-calendar-sub", consumer, logger); err != nil {
		return err
	}
	return ensureSubscription(ctx, client, topicID+"-dlq-sub", pubsub.SubscriptionConfig{
		Topic:       dlqTopic,
		AckDeadline: 60 * time.Second,
	}, logger)
}

func ensureTopic(ctx context.Context, client *pubsub.Client, topicID string, logger zerolog.Logger) (*pubsub.Topic, error) {
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		logger.Info().Str("topic", topicID).Msg("Topic already exists")
		return topic, nil
	}
	logger.Info().Str("topic", topicID).Dur("retention", retention).Msg("Creating topic")
	return client.CreateTopicWithConfig(ctx, topicID, &pubsub.TopicConfig{RetentionDuration: retention})
}

func ensureSubscription(ctx context.Context, client *pubsub.Client, subID string, cfg pubsub.SubscriptionConfig, logger zerolog.Logger) error {
	sub := client.Subscription(subID)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		logger.Info().Str("subscription", subID).Str("endpoint", cfg.PushConfig.Endpoint).Msg("Creating subscription")
		_, err := client.CreateSubscription(ctx, subID, cfg)
		return err
	}

	existing, err := sub.Config(ctx)
	if err != nil {
		return err
	}
	if existing.PushConfig.Endpoint == cfg.PushConfig.Endpoint && existing.AckDeadline == cfg.AckDeadline {
		logger.Info().Str("subscription", subID).Msg("Subscription is up to date")
		return nil
	}
	logger.Info().Str("subscription", subID).Msg("Updating subscription")
	_, err = sub.Update(ctx, pubsub.SubscriptionConfigToUpdate{
		PushConfig:  &cfg.PushConfig,
		AckDeadline: cfg.AckDeadline,
		RetryPolicy: cfg.RetryPolicy,
	})
	return err
}
