package mq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"saffron/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type invalidations struct {
	mu    sync.Mutex
	slugs []string
}

func (i *invalidations) Invalidate(_ context.Context, slug string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.slugs = append(i.slugs, slug)
}

func (i *invalidations) seen() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.slugs...)
}

type recounter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *recounter) Recount(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return 0, r.err
}

func (r *recounter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func newClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestProcess(t *testing.T) {
	client, _ := newClient(t)
	recipes, posts := &invalidations{}, &invalidations{}
	tags := &recounter{}
	w := NewWorker(client, tags)
	w.Handle("recipe", recipes)
	w.Handle("post", posts)
	ctx := context.Background()

	require.NoError(t, w.Process(ctx, models.ContentEvent{EntityType: "recipe", Method: "update", Slug: "carbonara", Tags: []string{"pasta"}}))
	require.NoError(t, w.Process(ctx, models.ContentEvent{EntityType: "post", Method: "create", Slug: "knives"}))

	assert.Equal(t, []string{"carbonara"}, recipes.seen())
	assert.Equal(t, []string{"knives"}, posts.seen())
	assert.Equal(t, 1, tags.count())

	assert.Error(t, w.Process(ctx, models.ContentEvent{EntityType: "video", Slug: "x"}))

	tags.err = errors.New("store down")
	assert.Error(t, w.Process(ctx, models.ContentEvent{EntityType: "recipe", Slug: "carbonara", Tags: []string{"pasta"}}))
}

func TestEmitterPayload(t *testing.T) {
	client, _ := newClient(t)
	ctx := context.Background()

	sub := client.Subscribe(ctx, Channel)
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	evt := models.ContentEvent{EntityType: "recipe", Method: "create", EntityID: "r1", Slug: "carbonara", Tags: []string{"pasta"}}
	NewEmitter(client).Publish(ctx, evt)

	select {
	case msg := <-sub.Channel():
		var got models.ContentEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, evt, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}
}

func TestWorkerRun(t *testing.T) {
	client, mr := newClient(t)
	recipes := &invalidations{}
	w := NewWorker(client, nil)
	w.Handle("recipe", recipes)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(Channel)[Channel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	mr.Publish(Channel, "not json")
	NewEmitter(client).Publish(context.Background(), models.ContentEvent{EntityType: "recipe", Method: "delete", Slug: "tiramisu"})

	require.Eventually(t, func() bool {
		return len(recipes.seen()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"tiramisu"}, recipes.seen())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorkerRunRetriesSubscribe(t *testing.T) {
	client, mr := newClient(t)
	mr.Close()

	w := NewWorker(client, nil)
	w.retryMin, w.retryMax = 10*time.Millisecond, 40*time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, mr.Restart())
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(Channel)[Channel] == 1
	}, 3*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorkerRunStopsWhileWaiting(t *testing.T) {
	client, mr := newClient(t)
	mr.Close()

	w := NewWorker(client, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop during backoff")
	}
}
