package models

import "time"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Rank orders difficulties easy < medium < hard. Unknown values sort last.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	}
	return 4
}

type Ingredient struct {
	Name     string  `json:"name" bson:"name" validate:"required,max=120"`
	Quantity float64 `json:"quantity" bson:"quantity" validate:"gte=0"`
	Unit     string  `json:"unit" bson:"unit" validate:"max=32"`
	Note     string  `json:"note,omitempty" bson:"note,omitempty" validate:"max=200"`
}

type Instruction struct {
	Step int    `json:"step" bson:"step"`
	Text string `json:"text" bson:"text" validate:"required,max=2000"`
}

type Recipe struct {
	RecipeID       string        `json:"id" bson:"recipeid"`
	AuthorID       string        `json:"authorId" bson:"authorId"`
	Title          string        `json:"title" bson:"title"`
	Slug           string        `json:"slug" bson:"slug"`
	Description    string        `json:"description" bson:"description"`
	PrepTime       int           `json:"prepTime" bson:"prepTime"`
	CookTime       int           `json:"cookTime" bson:"cookTime"`
	TotalTime      int           `json:"totalTime" bson:"totalTime"`
	Servings       int           `json:"servings" bson:"servings"`
	Difficulty     Difficulty    `json:"difficulty" bson:"difficulty"`
	DifficultyRank int           `json:"-" bson:"difficultyRank"`
	Category       string        `json:"category" bson:"category"`
	Cuisine        string        `json:"cuisine" bson:"cuisine"`
	Ingredients    []Ingredient  `json:"ingredients" bson:"ingredients"`
	Instructions   []Instruction `json:"instructions" bson:"instructions"`
	Tags           []string      `json:"tags" bson:"tags"`
	Images         []ImageSet    `json:"images" bson:"images"`
	Published      bool          `json:"published" bson:"published"`
	Featured       bool          `json:"featured" bson:"featured"`
	Rating         *float64      `json:"rating,omitempty" bson:"rating,omitempty"`
	Views          int           `json:"views" bson:"views"`
	CreatedAt      time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// Normalize applies the write-time conventions: totalTime is derived,
// steps are renumbered, slices are never nil.
func (r *Recipe) Normalize() {
	r.TotalTime = r.PrepTime + r.CookTime
	r.DifficultyRank = r.Difficulty.Rank()
	for i := range r.Instructions {
		r.Instructions[i].Step = i + 1
	}
	if r.Ingredients == nil {
		r.Ingredients = []Ingredient{}
	}
	if r.Instructions == nil {
		r.Instructions = []Instruction{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.Images == nil {
		r.Images = []ImageSet{}
	}
}

// ImageSet holds the URLs of every stored variant of one uploaded image.
type ImageSet struct {
	ID     string `json:"id" bson:"id"`
	Alt    string `json:"alt,omitempty" bson:"alt,omitempty"`
	Thumb  string `json:"thumb" bson:"thumb"`
	Medium string `json:"medium" bson:"medium"`
	Large  string `json:"large" bson:"large"`
}

// RecipeInput is the write payload for POST /api/recipes and PUT /api/recipe/:slug.
type RecipeInput struct {
	Title        string        `json:"title" validate:"required,min=3,max=160"`
	Slug         string        `json:"slug" validate:"omitempty,max=160"`
	Description  string        `json:"description" validate:"required,max=2000"`
	PrepTime     int           `json:"prepTime" validate:"gte=0,lte=1440"`
	CookTime     int           `json:"cookTime" validate:"gte=0,lte=2880"`
	Servings     int           `json:"servings" validate:"required,gte=1,lte=100"`
	Difficulty   Difficulty    `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Category     string        `json:"category" validate:"required,max=64"`
	Cuisine      string        `json:"cuisine" validate:"max=64"`
	Ingredients  []Ingredient  `json:"ingredients" validate:"required,min=1,dive"`
	Instructions []Instruction `json:"instructions" validate:"required,min=1,dive"`
	Tags         []string      `json:"tags" validate:"max=20,dive,min=1,max=40"`
	Published    bool          `json:"published"`
	Featured     bool          `json:"featured"`
	Rating       *float64      `json:"rating" validate:"omitempty,gte=0,lte=5"`
}

// Apply copies the input fields onto r. Identity fields are untouched.
func (in RecipeInput) Apply(r *Recipe) {
	r.Title = in.Title
	r.Description = in.Description
	r.PrepTime = in.PrepTime
	r.CookTime = in.CookTime
	r.Servings = in.Servings
	r.Difficulty = in.Difficulty
	r.Category = in.Category
	r.Cuisine = in.Cuisine
	r.Ingredients = in.Ingredients
	r.Instructions = in.Instructions
	r.Tags = in.Tags
	r.Published = in.Published
	r.Featured = in.Featured
	r.Rating = in.Rating
}
