package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/plexusrt/plexus/channel"
)

type connectionInfo struct {
	ID       string `json:"id"`
	State    string `json:"state"`
	PeerNode string `json:"peer_node,omitempty"`
}

type connectionsAPI struct {
	channels *channel.Registry
}

func newConnectionsAPI(channels *channel.Registry) *connectionsAPI {
	return &connectionsAPI{channels: channels}
}

func (api *connectionsAPI) Bind(r chi.Router) {
	r.Get("/cluster/connections", api.handleGet)
}

func (api *connectionsAPI) handleGet(w http.ResponseWriter, r *http.Request) {
	chans := api.channels.List()
	resp := make([]connectionInfo, len(chans))

	for i, ch := range chans {
		state := ch.State()

		info := connectionInfo{
			ID:    ch.ID(),
			State: state.String(),
		}

		// The peer identity is unset until the handshake completes.
		if state != channel.Connecting {
			info.PeerNode = ch.Peer().NodeID
		}

		resp[i] = info
	}

	render.JSON(w, r, resp)
}
