package recipes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"saffron/media"
	"saffron/models"
	"saffron/query"
	"saffron/rdx"
	"saffron/seo"
	"saffron/utils"

	"github.com/julienschmidt/httprouter"
)

const (
	readTimeout  = 5 * time.Second
	writeTimeout = 10 * time.Second
	maxBodyBytes = 1 << 20
)

// ImageUploader stores an uploaded picture and returns its variant URLs.
type ImageUploader interface {
	Upload(ctx context.Context, folder string, r io.Reader, alt string) (models.ImageSet, error)
}

type Handler struct {
	svc     *Service
	images  ImageUploader
	siteURL string
}

func NewHandler(svc *Service, images ImageUploader, siteURL string) *Handler {
	return &Handler{svc: svc, images: images, siteURL: siteURL}
}

// detailResponse is the recipe plus its schema.org structured data.
type detailResponse struct {
	models.Recipe
	StructuredData map[string]any `json:"structuredData"`
}

// List serves GET /api/recipes.
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.search(w, r, rdx.NSList, false)
}

// Search serves GET /api/recipes/search and echoes the parsed filters.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.search(w, r, rdx.NSSearch, true)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request, ns string, echo bool) {
	values := r.URL.Query()
	if values.Get("strict") == "1" {
		if err := query.Validate(values); err != nil {
			var verr *query.ValidationError
			if errors.As(err, &verr) {
				utils.RespondWithDetails(w, http.StatusBadRequest, "Invalid search parameters", verr.Fields)
				return
			}
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	q := query.Parse(values)
	res, err := h.svc.Search(ctx, q, ns)
	if err != nil {
		log.Printf("[recipes] search %q: %v", r.URL.RawQuery, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch recipes")
		return
	}
	if echo {
		res.Query = &q
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// Get serves GET /api/recipe/:slug.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	rec, err := h.svc.Get(ctx, ps.ByName("slug"), utils.ActorFromRequest(r))
	if err != nil {
		h.fail(w, "get recipe", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, detailResponse{
		Recipe:         rec,
		StructuredData: seo.RecipeJSONLD(rec, h.siteURL),
	})
}

// Related serves GET /api/recipe/:slug/related.
func (h *Handler) Related(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	out, err := h.svc.Related(ctx, ps.ByName("slug"))
	if err != nil {
		h.fail(w, "related recipes", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"data": out})
}

// Popular serves GET /api/recipes/popular?limit=.
func (h *Handler) Popular(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	limit := utils.ParseIntOr(r.URL.Query().Get("limit"), 0)
	out, err := h.svc.Popular(ctx, limit)
	if err != nil {
		h.fail(w, "popular recipes", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"data": out})
}

// Categories serves GET /api/recipes/categories.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	out, err := h.svc.Categories(ctx)
	if err != nil {
		h.fail(w, "categories", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"data": out})
}

// Create serves POST /api/recipes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor := utils.ActorFromRequest(r)
	if !actor.Authenticated() {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if !actor.CanPublish() {
		utils.RespondWithError(w, http.StatusForbidden, "Editor role required")
		return
	}

	var in models.RecipeInput
	if !decodeBody(w, r, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	rec, err := h.svc.Create(ctx, actor, in)
	if err != nil {
		h.fail(w, "create recipe", err)
		return
	}
	w.Header().Set("Location", "/api/recipe/"+rec.Slug)
	utils.RespondWithJSON(w, http.StatusCreated, rec)
}

// Update serves PUT /api/recipe/:slug.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor := utils.ActorFromRequest(r)
	if !actor.Authenticated() {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var in models.RecipeInput
	if !decodeBody(w, r, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	rec, err := h.svc.Update(ctx, actor, ps.ByName("slug"), in)
	if err != nil {
		h.fail(w, "update recipe", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, rec)
}

// Delete serves DELETE /api/recipe/:slug.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor := utils.ActorFromRequest(r)
	if !actor.Authenticated() {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	if err := h.svc.Delete(ctx, actor, ps.ByName("slug")); err != nil {
		h.fail(w, "delete recipe", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage serves POST /api/recipe/:slug/images (multipart field "image").
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor := utils.ActorFromRequest(r)
	if !actor.Authenticated() {
		utils.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	slug := ps.ByName("slug")

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := h.svc.Authorize(ctx, actor, slug); err != nil {
		h.fail(w, "upload image", err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, media.MaxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(media.MaxUploadSize); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing image file")
		return
	}
	defer file.Close()

	set, err := h.images.Upload(ctx, "recipes/"+slug, file, r.FormValue("alt"))
	if err != nil {
		if errors.Is(err, media.ErrUnsupportedType) {
			utils.RespondWithError(w, http.StatusUnsupportedMediaType, err.Error())
			return
		}
		log.Printf("[recipes] upload image for %s: %v", slug, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to process image")
		return
	}

	if err := h.svc.AttachImage(ctx, actor, slug, set); err != nil {
		h.fail(w, "attach image", err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, set)
}

// Card serves GET /api/recipe/:slug/card.pdf.
func (h *Handler) Card(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	rec, err := h.svc.ForCard(ctx, ps.ByName("slug"), utils.ActorFromRequest(r))
	if err != nil {
		h.fail(w, "recipe card", err)
		return
	}
	pdf, err := RenderCard(rec, seo.RecipeURL(h.siteURL, rec.Slug))
	if err != nil {
		log.Printf("[recipes] card %s: %v", rec.Slug, err)
		http.Error(w, "Failed to generate PDF", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename="+strconv.Quote(rec.Slug+".pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}

// fail maps service errors onto HTTP statuses.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	var fields utils.FieldErrors
	switch {
	case errors.As(err, &fields):
		utils.RespondWithDetails(w, http.StatusBadRequest, "Validation failed", fields)
	case errors.Is(err, ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Recipe not found")
	case errors.Is(err, ErrForbidden):
		utils.RespondWithError(w, http.StatusForbidden, "Not allowed to modify this recipe")
	case errors.Is(err, ErrSlugTaken):
		utils.RespondWithError(w, http.StatusConflict, "A recipe with this slug already exists")
	default:
		log.Printf("[recipes] %s: %v", op, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}
