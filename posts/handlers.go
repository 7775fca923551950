package posts

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"saffron/models"
	"saffron/seo"
	"saffron/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	svc     *Service
	siteURL string
}

func NewHandler(svc *Service, siteURL string) *Handler {
	return &Handler{svc: svc, siteURL: siteURL}
}

type detailResponse struct {
	models.BlogPost
	StructuredData map[string]any `json:"structuredData"`
}

// List serves GET /api/posts.
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.svc.List(ctx, ParseList(r.URL.Query()))
	if err != nil {
		log.Printf("[posts] list %q: %v", r.URL.RawQuery, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch posts")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// Get serves GET /api/post/:slug.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.svc.Get(ctx, ps.ByName("slug"), utils.ActorFromRequest(r))
	if err != nil {
		h.fail(w, "get post", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, detailResponse{BlogPost: p, StructuredData: seo.PostJSONLD(p, h.siteURL)})
}

// Create serves POST /api/posts.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor := utils.ActorFromRequest(r)
	if !actor.Authenticated() {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	var in models.BlogPostInput
	if !decodeBody(w, r, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p, err := h.svc.Create(ctx, actor, in)
	if err != nil {
		h.fail(w, "create post", err)
		return
	}
	w.Header().Set("Location", "/api/post/"+p.Slug)
	utils.RespondWithJSON(w, http.StatusCreated, p)
}

// Update serves PUT /api/post/:slug.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor := utils.ActorFromRequest(r)
	if !actor.Authenticated() {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	var in models.BlogPostInput
	if !decodeBody(w, r, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p, err := h.svc.Update(ctx, actor, ps.ByName("slug"), in)
	if err != nil {
		h.fail(w, "update post", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var fields utils.FieldErrors
	switch {
	case errors.As(err, &fields):
		utils.RespondWithDetails(w, http.StatusBadRequest, "Validation failed", fields)
	case errors.Is(err, ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Post not found")
	case errors.Is(err, ErrForbidden):
		utils.RespondWithError(w, http.StatusForbidden, "Not allowed to modify this post")
	case errors.Is(err, ErrSlugTaken):
		utils.RespondWithError(w, http.StatusConflict, "A post with this slug already exists")
	default:
		log.Printf("[posts] %s: %v", op, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}
