// Package site serves the embedded web form that posts readings to /predict.
package site

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Register attaches the web form and its assets to r.
func Register(r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	files := http.FileServer(FS())
	r.Get("/", NewRootHandler().HandleRoot)
	r.Get("/static/*", http.StripPrefix("/static", files).ServeHTTP)
}

// RootHandler handles root path requests.
type RootHandler struct{}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// HandleRoot handles GET / requests and serves the form page.
func (h *RootHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, staticRoot(), "index.html")
}
