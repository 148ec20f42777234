package notification

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	emaildto "github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/dto"
	"github.com/Email-Client-AI/Email-Client-AI-Backend/internal/email/usecase"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// Service pulls Gmail change notifications from a Pub/Sub subscription
// and hands them to the sync engine. It is the pull-mode twin of the
// push webhook endpoint; deployments use one or the other.
type Service struct {
	pubsubClient *pubsub.Client
	syncUsecase  usecase.SyncUsecase
	topicName    string
	subName      string
}

func NewService(projectID, topicName string, syncUsecase usecase.SyncUsecase, credentialsFile string) (*Service, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %v", err)
	}

	return &Service{
		pubsubClient: client,
		syncUsecase:  syncUsecase,
		topicName:    topicName,
		subName:      topicName + "-sub", // Convention: topic-sub
	}, nil
}

func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting notification service with topic: %s, subscription: %s", s.topicName, s.subName)

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[PubSub] Error checking subscription existence: %v", err)
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Printf("[PubSub] Error checking topic existence: %v", err)
			return
		}
		if !topicExists {
			log.Printf("[PubSub] Topic %s does not exist, cannot create subscription", s.topicName)
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			log.Printf("[PubSub] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[PubSub] Created subscription: %s", s.subName)
	}

	log.Printf("[PubSub] Listening for messages on subscription: %s", s.subName)
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(msg)
		// Always ack: the sync engine owns retries via the history cursor,
		// redelivery would only duplicate work.
		msg.Ack()
	})
	if err != nil {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

// handleMessage re-wraps the pulled message as a push envelope so both
// delivery modes share one ingestion path.
func (s *Service) handleMessage(msg *pubsub.Message) {
	envelope := &emaildto.PubSubEnvelope{}
	envelope.Message.Data = base64.StdEncoding.EncodeToString(msg.Data)
	envelope.Message.MessageID = msg.ID
	s.syncUsecase.ProcessWebhook(envelope)
}

func (s *Service) Close() error {
	return s.pubsubClient.Close()
}
