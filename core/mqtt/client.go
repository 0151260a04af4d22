package mqtt

import (
	"context"
	"time"
)

// DefaultModelTopic carries ModelRegistered notifications.
const DefaultModelTopic = "getaround/models/registered"

// ModelRegistered is broadcast after a training run registers a new model
// version.
type ModelRegistered struct {
	Name    string    `json:"name"`
	Version int       `json:"version"`
	RunID   string    `json:"run_id"`
	Time    time.Time `json:"time"`
}

// Handler receives decoded notifications.
type Handler func(ModelRegistered)

// Notifier publishes model registrations.
type Notifier interface {
	PublishModelRegistered(ctx context.Context, ev ModelRegistered) error
}

// Subscriber delivers model registrations published by other processes.
type Subscriber interface {
	SubscribeModelRegistered(h Handler) error
}

// NopNotifier drops notifications.
type NopNotifier struct{}

func (NopNotifier) PublishModelRegistered(context.Context, ModelRegistered) error { return nil }
func (NopNotifier) SubscribeModelRegistered(Handler) error                        { return nil }
