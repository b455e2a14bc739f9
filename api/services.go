package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/plexusrt/plexus/ecode"
	"github.com/plexusrt/plexus/registry"
)

type servicesAPI struct {
	registry *registry.Registry
}

func newServicesAPI(reg *registry.Registry) *servicesAPI {
	return &servicesAPI{registry: reg}
}

func (api *servicesAPI) Bind(r chi.Router) {
	r.Get("/cluster/services", api.handleList)
	r.Get("/cluster/services/{type}/revisions", api.handleRevisions)
	r.Post("/cluster/services", api.handleRegister)
}

func (api *servicesAPI) handleList(w http.ResponseWriter, r *http.Request) {
	types := api.registry.InstanceTypes()
	resp := make([]registry.Revision, 0, len(types))

	for _, instanceType := range types {
		if latest, ok := api.registry.Latest(instanceType); ok {
			resp = append(resp, latest)
		}
	}

	render.JSON(w, r, resp)
}

func (api *servicesAPI) handleRevisions(w http.ResponseWriter, r *http.Request) {
	instanceType := chi.URLParam(r, "type")

	revisions, err := api.registry.Revisions(instanceType)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	render.JSON(w, r, revisions)
}

func (api *servicesAPI) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InstanceType string                 `json:"instance_type"`
		Key          registry.KeyDefinition `json:"key_definition"`
		Contract     registry.Contract      `json:"contract"`
	}

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rev, err := api.registry.Register(req.InstanceType, req.Key, req.Contract)
	if err != nil {
		status := http.StatusInternalServerError

		var conflict *registry.ConflictError
		if errors.As(err, &conflict) {
			status = http.StatusConflict
		} else if code, ok := ecode.CodeOf(err); ok && code == ecode.CodeInvalidConfig {
			status = http.StatusBadRequest
		}

		// The conflict text is returned verbatim, stable code included.
		http.Error(w, err.Error(), status)

		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, rev)
}
