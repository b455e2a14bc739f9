// Package api exposes the node's admin surface over HTTP: identity,
// membership, open channels, service revisions and the published error
// catalog.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/plexusrt/plexus/channel"
	"github.com/plexusrt/plexus/cluster"
	"github.com/plexusrt/plexus/nodectl"
	"github.com/plexusrt/plexus/registry"
)

// Cluster is the membership view the handlers read from.
type Cluster interface {
	Self() cluster.Node
	Name() string
	Nodes() []cluster.Node
}

// Deps carries everything the admin surface reads from. All of it is
// read-mostly; the handlers never block on cluster activity.
type Deps struct {
	Ident    *nodectl.IdentReader
	Cluster  Cluster
	Channels *channel.Registry
	Registry *registry.Registry
}

func CreateRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	newIdentAPI(deps.Ident).Bind(r)
	newNodesAPI(deps.Cluster).Bind(r)
	newConnectionsAPI(deps.Channels).Bind(r)
	newServicesAPI(deps.Registry).Bind(r)
	newErrorsAPI().Bind(r)

	r.Handle("/metrics", promhttp.Handler())

	return r
}
