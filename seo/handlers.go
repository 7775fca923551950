package seo

import (
	"bytes"
	"log"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (g Generator) Sitemap(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var buf bytes.Buffer
	if err := g.Write(r.Context(), &buf); err != nil {
		log.Printf("[seo] sitemap: %v", err)
		http.Error(w, "Failed to build sitemap", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(buf.Bytes())
}

func (g Generator) RobotsTxt(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(Robots(g.SiteURL)))
}
