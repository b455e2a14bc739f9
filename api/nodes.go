package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/plexusrt/plexus/cluster"
)

type nodeInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Roles       []string `json:"roles"`
	ControlAddr string   `json:"control_addr"`
	GossipAddr  string   `json:"gossip_addr"`
	Self        bool     `json:"self,omitempty"`
}

type nodesAPI struct {
	cluster Cluster
}

func newNodesAPI(cl Cluster) *nodesAPI {
	return &nodesAPI{cluster: cl}
}

func (api *nodesAPI) Bind(r chi.Router) {
	r.Get("/cluster/nodes", api.handleGet)
}

func (api *nodesAPI) handleGet(w http.ResponseWriter, r *http.Request) {
	selfID := api.cluster.Self().ID

	nodes := api.cluster.Nodes()
	resp := make([]nodeInfo, len(nodes))

	for i, node := range nodes {
		resp[i] = nodeInfo{
			ID:          string(node.ID),
			Name:        node.Name,
			Roles:       roleNames(node.Roles),
			ControlAddr: node.ControlAddr,
			GossipAddr:  node.GossipAddr,
			Self:        node.ID == selfID,
		}
	}

	render.JSON(w, r, resp)
}

func roleNames(roles []cluster.Role) []string {
	names := make([]string, len(roles))
	for i, role := range roles {
		names[i] = string(role)
	}

	return names
}
