package recipes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"saffron/db"
	"saffron/models"
	"saffron/query"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Find(ctx context.Context, q query.Query) ([]models.Recipe, error) {
	opts := options.Find().
		SetSort(q.Sort.BSON()).
		SetSkip(q.Skip).
		SetLimit(q.Limit)
	return s.find(ctx, q.Filter.BSON(), opts)
}

func (s *MongoStore) Count(ctx context.Context, f query.Filter) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, f.BSON())
	if err != nil {
		return 0, fmt.Errorf("count recipes: %w", err)
	}
	return n, nil
}

func (s *MongoStore) BySlug(ctx context.Context, slug string) (models.Recipe, error) {
	var r models.Recipe
	err := s.coll.FindOne(ctx, bson.M{"slug": slug}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return r, ErrNotFound
	}
	if err != nil {
		return r, fmt.Errorf("find recipe %q: %w", slug, err)
	}
	r.Normalize()
	return r, nil
}

func (s *MongoStore) Insert(ctx context.Context, r models.Recipe) error {
	if _, err := s.coll.InsertOne(ctx, r); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("insert recipe: %w", err)
	}
	return nil
}

func (s *MongoStore) Update(ctx context.Context, r models.Recipe) error {
	res, err := s.coll.ReplaceOne(ctx, bson.M{"recipeid": r.RecipeID}, r)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("update recipe: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, slug string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"slug": slug})
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) AddImage(ctx context.Context, slug string, img models.ImageSet) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"slug": slug}, bson.M{
		"$push": bson.M{"images": img},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("add image: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) AddViews(ctx context.Context, slug string, n int) error {
	_, err := s.coll.UpdateOne(ctx, bson.M{"slug": slug}, bson.M{"$inc": bson.M{"views": n}})
	return err
}

func (s *MongoStore) Popular(ctx context.Context, limit int) ([]models.Recipe, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "views", Value: -1}, {Key: "slug", Value: 1}}).
		SetLimit(int64(limit))
	return s.find(ctx, bson.M{"published": true}, opts)
}

func (s *MongoStore) Related(ctx context.Context, r models.Recipe, limit int) ([]models.Recipe, error) {
	filter := bson.M{
		"published": true,
		"category":  r.Category,
		"slug":      bson.M{"$ne": r.Slug},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "createdAt", Value: -1}, {Key: "slug", Value: 1}}).
		SetLimit(int64(limit))
	return s.find(ctx, filter, opts)
}

func (s *MongoStore) Categories(ctx context.Context) ([]models.Category, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"published": true}}},
		{{Key: "$group", Value: bson.M{"_id": "$category", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate categories: %w", err)
	}
	defer cursor.Close(ctx)

	cats := []models.Category{}
	if err := cursor.All(ctx, &cats); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return cats, nil
}

func (s *MongoStore) TagCounts(ctx context.Context) (map[string]int, error) {
	return db.AggregateTagCounts(ctx, s.coll)
}

func (s *MongoStore) Published(ctx context.Context) ([]models.Recipe, error) {
	opts := options.Find().
		SetProjection(bson.M{"slug": 1, "title": 1, "updatedAt": 1, "createdAt": 1, "images": 1}).
		SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	return s.find(ctx, bson.M{"published": true}, opts)
}

func (s *MongoStore) find(ctx context.Context, filter any, opts *options.FindOptions) ([]models.Recipe, error) {
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find recipes: %w", err)
	}
	defer cursor.Close(ctx)

	recipes := []models.Recipe{}
	if err := cursor.All(ctx, &recipes); err != nil {
		return nil, fmt.Errorf("decode recipes: %w", err)
	}
	for i := range recipes {
		recipes[i].Normalize()
	}
	return recipes, nil
}
