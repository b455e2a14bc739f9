package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/plexusrt/plexus/ecode"
)

type errorsAPI struct{}

func newErrorsAPI() *errorsAPI {
	return &errorsAPI{}
}

func (api *errorsAPI) Bind(r chi.Router) {
	r.Get("/errors", api.handleList)
	r.Get("/errors/{code}", api.handleGet)
}

func (api *errorsAPI) handleList(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, ecode.Catalog())
}

func (api *errorsAPI) handleGet(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))

	desc, ok := ecode.Lookup(ecode.Code(code))
	if !ok {
		http.Error(w, "unknown error code", http.StatusNotFound)
		return
	}

	render.JSON(w, r, desc)
}
