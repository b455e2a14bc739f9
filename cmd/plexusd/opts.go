package main

import (
	"strings"
)

var opts struct {
	Node struct {
		ID    string `long:"id" env:"ID" description:"unique node id"`
		Name  string `long:"name" env:"NAME" description:"human-readable node name"`
		Roles string `long:"roles" env:"ROLES" description:"comma-separated list of node roles (default: worker,admin)"`
	} `group:"node" namespace:"node" env-namespace:"NODE"`

	GRPC struct {
		BindAddr      string `long:"bind-addr" env:"BIND_ADDR" description:"address to bind the control grpc server (default: :5122)"`
		AdvertiseAddr string `long:"advertise-addr" env:"ADVERTISE_ADDR" description:"control address advertised to other nodes"`
	} `group:"grpc" namespace:"grpc" env-namespace:"GRPC"`

	API struct {
		Enabled  bool   `long:"enabled" env:"ENABLED" description:"enable the admin http server"`
		BindAddr string `long:"bind-addr" env:"BIND_ADDR" description:"address to bind the admin http server (default: :5123)"`
	} `group:"api" namespace:"api" env-namespace:"API"`

	Cluster struct {
		Name           string `long:"name" env:"NAME" description:"cluster name (default: plexus)"`
		GossipBindAddr string `long:"gossip-bind-addr" env:"GOSSIP_BIND_ADDR" description:"address to bind the gossip listener (default: 0.0.0.0)"`
		GossipBindPort int    `long:"gossip-bind-port" env:"GOSSIP_BIND_PORT" description:"port to bind the gossip listener (default: 5124)"`
		JoinAddrs      string `long:"join-addrs" env:"JOIN_ADDRS" description:"comma-separated list of gossip addresses to join"`
	} `group:"cluster" namespace:"cluster" env-namespace:"CLUSTER"`

	Channel struct {
		Window int `long:"window" env:"WINDOW" description:"max in-flight node channel messages per direction (default: 64)"`
	} `group:"channel" namespace:"channel" env-namespace:"CHANNEL"`

	Config  string `long:"config" env:"CONFIG" description:"path to an optional yaml config file"`
	Verbose bool   `long:"verbose" env:"VERBOSE" description:"verbose mode"`
}

// applyDefaults runs after the config file merge, so the file can
// override anything the command line left unset.
func applyDefaults() {
	setIfEmpty(&opts.Node.Roles, "worker,admin")
	setIfEmpty(&opts.GRPC.BindAddr, ":5122")
	setIfEmpty(&opts.API.BindAddr, ":5123")
	setIfEmpty(&opts.Cluster.Name, "plexus")
	setIfEmpty(&opts.Cluster.GossipBindAddr, "0.0.0.0")

	if opts.Cluster.GossipBindPort == 0 {
		opts.Cluster.GossipBindPort = 5124
	}

	if opts.Channel.Window == 0 {
		opts.Channel.Window = 64
	}
}

func parseAddrs(addrs string) []string {
	sl := strings.Split(addrs, ",")
	res := make([]string, 0, len(sl))

	for _, addr := range sl {
		trimmed := strings.TrimSpace(addr)
		if trimmed != "" {
			res = append(res, trimmed)
		}
	}

	return res
}
