package tags

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"saffron/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// parsePagination reads page (1 based) and limit (default 30, at most 100).
func parsePagination(r *http.Request) (page int, limit int) {
	q := r.URL.Query()
	page, limit = 1, 30

	if p := q.Get("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v >= 1 {
			page = v
		}
	}
	if l := q.Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	return
}

// List serves GET /api/tags?page=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	all, err := h.svc.All(ctx)
	if err != nil {
		log.Printf("[tags] list: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch tags")
		return
	}
	page, limit := parsePagination(r)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"data":  paginate(all, page-1, limit),
		"total": len(all),
	})
}
