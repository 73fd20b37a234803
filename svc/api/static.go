package api

import (
	"embed"
	"io/fs"
	"net/http"

	"freepaste/svc/util"

	"github.com/go-chi/chi/v5"
)

//go:embed static
var staticFiles embed.FS

func staticFS() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

func (h *Hdl) Index(w http.ResponseWriter, r *http.Request) {
	http.ServeFileFS(w, r, staticFS(), "index.html")
}

// ViewPage handles GET /{id}. Static assets win over paste ids; anything
// that is neither an asset nor a well-formed id is a 400.
func (h *Hdl) ViewPage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "id")
	fsys := staticFS()
	if f, err := fsys.Open(name); err == nil {
		f.Close()
		http.ServeFileFS(w, r, fsys, name)
		return
	}
	if !util.ValidID(name) {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	http.ServeFileFS(w, r, fsys, "view.html")
}
