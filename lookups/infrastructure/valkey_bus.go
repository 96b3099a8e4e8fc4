package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/AzielCF/az-lookups/infrastructure/valkey"
	"github.com/AzielCF/az-lookups/lookups/domain"
)

// busMessage is the Pub/Sub envelope. SenderID lets a process ignore its own
// echo since local subscribers were already notified directly.
type busMessage struct {
	Topic    string `json:"topic"`
	SenderID string `json:"sender_id"`
}

// ValkeyBus delivers signals to local subscribers and fans them out to other
// processes sharing the same Valkey instance.
type ValkeyBus struct {
	local    *MemoryBus
	client   *valkey.Client
	senderID string
	channel  string
}

func NewValkeyBus(client *valkey.Client, senderID string) *ValkeyBus {
	return &ValkeyBus{
		local:    NewMemoryBus(),
		client:   client,
		senderID: senderID,
		channel:  client.Key("lookups", "bus"),
	}
}

func (b *ValkeyBus) Publish(ctx context.Context, topic string) error {
	_ = b.local.Publish(ctx, topic)

	data, err := json.Marshal(busMessage{Topic: topic, SenderID: b.senderID})
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, string(data)); err != nil {
		return fmt.Errorf("failed to publish %s to valkey: %w", topic, err)
	}
	return nil
}

func (b *ValkeyBus) Subscribe(topic string, handler domain.Handler) func() {
	return b.local.Subscribe(topic, handler)
}

// Start listens for signals from other processes until ctx is done.
func (b *ValkeyBus) Start(ctx context.Context) {
	logrus.Infof("[LOOKUP_BUS] Starting Valkey Pub/Sub subscriber on %s", b.channel)
	go func() {
		err := b.client.Subscribe(ctx, b.channel, func(message string) {
			var msg busMessage
			if err := json.Unmarshal([]byte(message), &msg); err != nil {
				logrus.Debugf("[LOOKUP_BUS] Ignoring malformed message: %v", err)
				return
			}
			if msg.SenderID == b.senderID {
				return
			}
			_ = b.local.Publish(ctx, msg.Topic)
		})
		if err != nil && ctx.Err() == nil {
			logrus.WithError(err).Error("[LOOKUP_BUS] Valkey subscriber failed")
		}
	}()
}
