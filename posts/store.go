package posts

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"saffron/db"
	"saffron/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound  = errors.New("post not found")
	ErrSlugTaken = errors.New("slug already in use")
	ErrForbidden = errors.New("not allowed to modify this post")
)

type Store interface {
	Find(ctx context.Context, q ListQuery) ([]models.BlogPostSummary, error)
	Count(ctx context.Context, q ListQuery) (int64, error)
	BySlug(ctx context.Context, slug string) (models.BlogPost, error)
	Insert(ctx context.Context, p models.BlogPost) error
	Update(ctx context.Context, p models.BlogPost) error
	TagCounts(ctx context.Context) (map[string]int, error)
	Published(ctx context.Context) ([]models.BlogPostSummary, error)
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

var summaryProjection = bson.M{"blocks": 0}

func (s *MongoStore) Find(ctx context.Context, q ListQuery) ([]models.BlogPostSummary, error) {
	opts := options.Find().
		SetProjection(summaryProjection).
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "slug", Value: 1}}).
		SetSkip(int64(q.Page-1) * int64(q.Limit)).
		SetLimit(int64(q.Limit))
	return s.find(ctx, q.BSON(), opts)
}

func (s *MongoStore) Count(ctx context.Context, q ListQuery) (int64, error) {
	return s.coll.CountDocuments(ctx, q.BSON())
}

func (s *MongoStore) BySlug(ctx context.Context, slug string) (models.BlogPost, error) {
	var p models.BlogPost
	err := s.coll.FindOne(ctx, bson.M{"slug": slug}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return p, ErrNotFound
	}
	if err != nil {
		return p, fmt.Errorf("find post %q: %w", slug, err)
	}
	return p, nil
}

func (s *MongoStore) Insert(ctx context.Context, p models.BlogPost) error {
	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, p models.BlogPost) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"postid": p.PostID}, p)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) TagCounts(ctx context.Context) (map[string]int, error) {
	return db.AggregateTagCounts(ctx, s.coll)
}

func (s *MongoStore) Published(ctx context.Context) ([]models.BlogPostSummary, error) {
	opts := options.Find().
		SetProjection(summaryProjection).
		SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return s.find(ctx, bson.M{"published": true}, opts)
}

func (s *MongoStore) find(ctx context.Context, filter any, opts *options.FindOptions) ([]models.BlogPostSummary, error) {
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.BlogPostSummary{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return out, nil
}

// MemoryStore is the in-process driver used with STORE_DRIVER=memory.
type MemoryStore struct {
	mu    sync.RWMutex
	posts map[string]models.BlogPost
}

func NewMemoryStore(seed ...models.BlogPost) *MemoryStore {
	s := &MemoryStore{posts: map[string]models.BlogPost{}}
	for _, p := range seed {
		s.posts[p.Slug] = p
	}
	return s
}

func (s *MemoryStore) matching(keep func(models.BlogPost) bool) []models.BlogPost {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.BlogPost
	for _, p := range s.posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b models.BlogPost) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if a.Slug < b.Slug {
			return -1
		}
		return 1
	})
	return out
}

func (s *MemoryStore) Find(_ context.Context, q ListQuery) ([]models.BlogPostSummary, error) {
	all := s.matching(q.Match)
	out := []models.BlogPostSummary{}
	if q.Page < 1 || q.Limit < 1 || q.Page-1 > len(all)/q.Limit {
		return out, nil
	}
	skip := (q.Page - 1) * q.Limit
	for i := skip; i < len(all) && i < skip+q.Limit; i++ {
		out = append(out, Summarize(all[i]))
	}
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context, q ListQuery) (int64, error) {
	return int64(len(s.matching(q.Match))), nil
}

func (s *MemoryStore) BySlug(_ context.Context, slug string) (models.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[slug]
	if !ok {
		return p, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) Insert(_ context.Context, p models.BlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[p.Slug]; ok {
		return ErrSlugTaken
	}
	s.posts[p.Slug] = p
	return nil
}

func (s *MemoryStore) Update(_ context.Context, p models.BlogPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for slug, existing := range s.posts {
		if existing.PostID == p.PostID {
			delete(s.posts, slug)
			s.posts[p.Slug] = p
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) TagCounts(context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, p := range s.matching(func(p models.BlogPost) bool { return p.Published }) {
		for _, t := range p.Tags {
			counts[t]++
		}
	}
	return counts, nil
}

func (s *MemoryStore) Published(context.Context) ([]models.BlogPostSummary, error) {
	out := []models.BlogPostSummary{}
	for _, p := range s.matching(func(p models.BlogPost) bool { return p.Published }) {
		out = append(out, Summarize(p))
	}
	return out, nil
}

func Summarize(p models.BlogPost) models.BlogPostSummary {
	return models.BlogPostSummary{
		PostID:    p.PostID,
		Title:     p.Title,
		Slug:      p.Slug,
		Excerpt:   p.Excerpt,
		Category:  p.Category,
		Tags:      p.Tags,
		Cover:     p.Cover,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
