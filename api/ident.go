package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/plexusrt/plexus/nodectl"
)

type identAPI struct {
	ident *nodectl.IdentReader
}

func newIdentAPI(ident *nodectl.IdentReader) *identAPI {
	return &identAPI{ident: ident}
}

func (api *identAPI) Bind(r chi.Router) {
	r.Get("/cluster/ident", api.handleGet)
}

func (api *identAPI) handleGet(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, api.ident.Read())
}
