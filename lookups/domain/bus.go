package domain

import "context"

// TopicLookupsChanged is published once a remote refresh has been persisted.
const TopicLookupsChanged = "lookups.changed"

// Handler reacts to a signal. Signals carry no payload: handlers re-derive
// state from the Store and must be idempotent.
type Handler func(ctx context.Context)

// Bus is an in-process (optionally cross-process) publish/subscribe channel.
type Bus interface {
	Publish(ctx context.Context, topic string) error
	Subscribe(topic string, handler Handler) (unsubscribe func())
}
