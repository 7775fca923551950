package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"saffron/models"

	"github.com/redis/go-redis/v9"
)

// Invalidator drops the cached views of one entity type.
type Invalidator interface {
	Invalidate(ctx context.Context, slug string)
}

type Recounter interface {
	Recount(ctx context.Context) (int, error)
}

// Worker applies content events published by any instance: it clears the
// local caches of the entity and recounts tags when the write touched any.
type Worker struct {
	client       *redis.Client
	invalidators map[string]Invalidator
	tags         Recounter

	// subscribe retry backoff
	retryMin, retryMax time.Duration
}

func NewWorker(client *redis.Client, tags Recounter) *Worker {
	return &Worker{
		client:       client,
		invalidators: map[string]Invalidator{},
		tags:         tags,
		retryMin:     time.Second,
		retryMax:     30 * time.Second,
	}
}

// Handle registers the invalidator for events of entityType.
func (w *Worker) Handle(entityType string, inv Invalidator) {
	w.invalidators[entityType] = inv
}

// Process applies a single event.
func (w *Worker) Process(ctx context.Context, evt models.ContentEvent) error {
	inv, ok := w.invalidators[evt.EntityType]
	if !ok {
		return fmt.Errorf("no handler for entity type %q", evt.EntityType)
	}
	inv.Invalidate(ctx, evt.Slug)

	if len(evt.Tags) == 0 || w.tags == nil {
		return nil
	}
	if _, err := w.tags.Recount(ctx); err != nil {
		return fmt.Errorf("recount after %s %s: %w", evt.Method, evt.Slug, err)
	}
	return nil
}

// Run subscribes to Channel and processes events until ctx is done. A failed
// subscription is retried with exponential backoff.
func (w *Worker) Run(ctx context.Context) error {
	delay := w.retryMin
	for {
		subscribed, err := w.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if subscribed {
			delay = w.retryMin
		}
		log.Printf("[ContentWorker] %v; retrying in %s", err, delay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay = min(delay*2, w.retryMax)
	}
}

// listen holds one subscription until ctx is done or the subscription ends.
func (w *Worker) listen(ctx context.Context) (bool, error) {
	sub := w.client.Subscribe(ctx, Channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return false, fmt.Errorf("subscribe to %q: %w", Channel, err)
	}
	log.Printf("[ContentWorker] Listening on %q", Channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return true, fmt.Errorf("subscription to %q closed", Channel)
			}
			var evt models.ContentEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				log.Printf("[ContentWorker] bad payload: %v", err)
				continue
			}
			if err := w.Process(ctx, evt); err != nil {
				log.Printf("[ContentWorker] %v", err)
			}
		}
	}
}
