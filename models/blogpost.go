package models

import "time"

type Block struct {
	Type    string `bson:"type" json:"type" validate:"required,oneof=text heading image quote recipe"`
	Content string `bson:"content,omitempty" json:"content,omitempty"`
	URL     string `bson:"url,omitempty" json:"url,omitempty" validate:"omitempty,max=2048"`
	Alt     string `bson:"alt,omitempty" json:"alt,omitempty"`
}

type BlogPost struct {
	PostID    string    `bson:"postid" json:"id"`
	AuthorID  string    `bson:"authorId" json:"authorId"`
	Title     string    `bson:"title" json:"title"`
	Slug      string    `bson:"slug" json:"slug"`
	Excerpt   string    `bson:"excerpt" json:"excerpt"`
	Category  string    `bson:"category" json:"category"`
	Tags      []string  `bson:"tags" json:"tags"`
	Blocks    []Block   `bson:"blocks" json:"blocks"`
	Cover     string    `bson:"cover" json:"cover"`
	Published bool      `bson:"published" json:"published"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// BlogPostSummary is the list shape; blocks are omitted.
type BlogPostSummary struct {
	PostID    string    `bson:"postid" json:"id"`
	Title     string    `bson:"title" json:"title"`
	Slug      string    `bson:"slug" json:"slug"`
	Excerpt   string    `bson:"excerpt" json:"excerpt"`
	Category  string    `bson:"category" json:"category"`
	Tags      []string  `bson:"tags" json:"tags"`
	Cover     string    `bson:"cover" json:"cover"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

type BlogPostInput struct {
	Title     string   `json:"title" validate:"required,min=3,max=200"`
	Slug      string   `json:"slug" validate:"omitempty,max=200"`
	Excerpt   string   `json:"excerpt" validate:"max=500"`
	Category  string   `json:"category" validate:"required,max=64"`
	Tags      []string `json:"tags" validate:"max=20,dive,min=1,max=40"`
	Blocks    []Block  `json:"blocks" validate:"required,min=1,dive"`
	Published bool     `json:"published"`
}

// PickCover returns the first image block URL, if any.
func PickCover(blocks []Block) string {
	for _, b := range blocks {
		if b.Type == "image" && b.URL != "" {
			return b.URL
		}
	}
	return ""
}
