package tags

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"saffron/models"
	"saffron/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store interface {
	// All returns the tags in use, highest count first.
	All(ctx context.Context) ([]models.Tag, error)
	// Replace stores counts as the new totals. Tags missing from counts drop to zero.
	Replace(ctx context.Context, counts map[string]int, now time.Time) error
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) All(ctx context.Context) ([]models.Tag, error) {
	opts := options.Find().SetSort(bson.D{{Key: "count", Value: -1}, {Key: "name", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{"count": bson.M{"$gt": 0}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find tags: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Tag{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode tags: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Replace(ctx context.Context, counts map[string]int, now time.Time) error {
	names := make([]string, 0, len(counts))
	writes := make([]mongo.WriteModel, 0, len(counts))
	for name, n := range counts {
		names = append(names, name)
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"name": name}).
			SetUpdate(bson.M{
				"$set":         bson.M{"count": n, "slug": utils.Slugify(name), "updatedAt": now},
				"$setOnInsert": bson.M{"createdAt": now},
			}).
			SetUpsert(true))
	}
	if len(writes) > 0 {
		if _, err := s.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
			return fmt.Errorf("upsert tag counts: %w", err)
		}
	}
	_, err := s.coll.UpdateMany(ctx,
		bson.M{"name": bson.M{"$nin": names}, "count": bson.M{"$ne": 0}},
		bson.M{"$set": bson.M{"count": 0, "updatedAt": now}})
	if err != nil {
		return fmt.Errorf("reset unused tags: %w", err)
	}
	return nil
}

type MemoryStore struct {
	mu   sync.RWMutex
	tags map[string]models.Tag
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tags: map[string]models.Tag{}}
}

func (s *MemoryStore) All(context.Context) ([]models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Tag{}
	for _, t := range s.tags {
		if t.Count > 0 {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, byCount)
	return out, nil
}

func (s *MemoryStore) Replace(_ context.Context, counts map[string]int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, t := range s.tags {
		if _, ok := counts[name]; !ok && t.Count != 0 {
			t.Count = 0
			t.UpdatedAt = now
			s.tags[name] = t
		}
	}
	for name, n := range counts {
		t, ok := s.tags[name]
		if !ok {
			t = models.Tag{Name: name, CreatedAt: now}
		}
		t.Slug = utils.Slugify(name)
		t.Count = n
		t.UpdatedAt = now
		s.tags[name] = t
	}
	return nil
}

func byCount(a, b models.Tag) int {
	if a.Count != b.Count {
		return b.Count - a.Count
	}
	return strings.Compare(a.Name, b.Name)
}
