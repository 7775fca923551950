package mq

import (
	"context"
	"encoding/json"
	"log"

	"saffron/models"

	"github.com/redis/go-redis/v9"
)

// Channel carries every content write as a JSON models.ContentEvent.
const Channel = "content-events"

type Emitter struct {
	client *redis.Client
}

func NewEmitter(client *redis.Client) *Emitter {
	return &Emitter{client: client}
}

// Publish sends evt to every subscribed worker. Failures are logged: the
// writer has already invalidated its own caches.
func (e *Emitter) Publish(ctx context.Context, evt models.ContentEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("[Emit] marshal %s %s: %v", evt.EntityType, evt.Slug, err)
		return
	}
	if err := e.client.Publish(ctx, Channel, data).Err(); err != nil {
		log.Printf("[Emit] publish %s %s to %q: %v", evt.EntityType, evt.Slug, Channel, err)
		return
	}
	log.Printf("[Emit] %s %s %s", evt.Method, evt.EntityType, evt.Slug)
}
