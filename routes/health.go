package routes

import (
	"context"
	"net/http"
	"time"

	"saffron/utils"

	"github.com/julienschmidt/httprouter"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports the store and the cache. A down store fails the check; a
// down cache only degrades it. A nil store means the in-memory driver.
func Health(store, cache Pinger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status, code := "ok", http.StatusOK
		body := utils.M{}

		switch {
		case store == nil:
			body["store"] = "memory"
		case store.Ping(ctx) != nil:
			body["store"] = "down"
			status, code = "down", http.StatusServiceUnavailable
		default:
			body["store"] = "ok"
		}

		switch {
		case cache == nil:
			body["cache"] = "disabled"
		case cache.Ping(ctx) != nil:
			body["cache"] = "down"
			if code == http.StatusOK {
				status = "degraded"
			}
		default:
			body["cache"] = "ok"
		}

		body["status"] = status
		utils.RespondWithJSON(w, code, body)
	}
}
