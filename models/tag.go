package models

import "time"

type Tag struct {
	Name      string    `json:"name" bson:"name"`
	Slug      string    `json:"slug" bson:"slug"`
	Count     int       `json:"count" bson:"count"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type Category struct {
	Name  string `json:"name" bson:"_id"`
	Count int    `json:"count" bson:"count"`
}

// ContentEvent is published on every content write.
type ContentEvent struct {
	EntityType string   `json:"entityType"`
	Method     string   `json:"method"`
	EntityID   string   `json:"entityId"`
	Slug       string   `json:"slug"`
	Tags       []string `json:"tags,omitempty"`
}
