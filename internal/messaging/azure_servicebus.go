package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"example.com/campushub/services/events/config"
)

// PushSender publishes push payloads to the queue consumed by the
// mobile push relay.
type PushSender interface {
	SendPush(ctx context.Context, payload PushPayload) error
	Close() error
}

// PushPayload is the message handed to the push relay. UserID is empty
// for audience-wide pushes.
type PushPayload struct {
	UserID   string            `json:"user_id,omitempty"`
	Audience string            `json:"audience,omitempty"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
}

// serviceBusSender implements PushSender over Azure Service Bus
type serviceBusSender struct {
	client    *azservicebus.Client
	sender    *azservicebus.Sender
	queueName string
}

// NewPushSender creates a new Azure Service Bus push sender
func NewPushSender(cfg config.PushConfig) (PushSender, error) {
	if cfg.ConnectionString == "" {
		return nil, fmt.Errorf("Azure Service Bus connection string is empty")
	}

	client, err := azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus client: %w", err)
	}

	sender, err := client.NewSender(cfg.QueueName, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Service Bus sender: %w", err)
	}

	return &serviceBusSender{
		client:    client,
		sender:    sender,
		queueName: cfg.QueueName,
	}, nil
}

// SendPush sends a push payload to the relay queue
func (s *serviceBusSender) SendPush(ctx context.Context, payload PushPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	msg := &azservicebus.Message{
		Body: data,
		ApplicationProperties: map[string]interface{}{
			"source": "events-service",
			"time":   time.Now().UTC().Format(time.RFC3339),
		},
	}

	return s.sender.SendMessage(ctx, msg, nil)
}

// Close closes the Service Bus client
func (s *serviceBusSender) Close() error {
	if s.sender != nil {
		if err := s.sender.Close(context.Background()); err != nil {
			return err
		}
	}

	if s.client != nil {
		return s.client.Close(context.Background())
	}

	return nil
}
