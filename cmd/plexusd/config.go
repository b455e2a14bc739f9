package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// fileConfig mirrors the subset of flags that can be set through the
// optional yaml config file. Values from the file apply only where the
// command line left the value unset.
type fileConfig struct {
	Node struct {
		ID    string `yaml:"id"`
		Name  string `yaml:"name"`
		Roles string `yaml:"roles"`
	} `yaml:"node"`

	GRPC struct {
		BindAddr      string `yaml:"bind_addr"`
		AdvertiseAddr string `yaml:"advertise_addr"`
	} `yaml:"grpc"`

	API struct {
		Enabled  bool   `yaml:"enabled"`
		BindAddr string `yaml:"bind_addr"`
	} `yaml:"api"`

	Cluster struct {
		Name           string `yaml:"name"`
		GossipBindAddr string `yaml:"gossip_bind_addr"`
		GossipBindPort int    `yaml:"gossip_bind_port"`
		JoinAddrs      string `yaml:"join_addrs"`
	} `yaml:"cluster"`

	Channel struct {
		Window int `yaml:"window"`
	} `yaml:"channel"`
}

func applyConfigFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var conf fileConfig
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setIfEmpty(&opts.Node.ID, conf.Node.ID)
	setIfEmpty(&opts.Node.Name, conf.Node.Name)
	setIfEmpty(&opts.Node.Roles, conf.Node.Roles)

	setIfEmpty(&opts.GRPC.BindAddr, conf.GRPC.BindAddr)
	setIfEmpty(&opts.GRPC.AdvertiseAddr, conf.GRPC.AdvertiseAddr)

	if conf.API.Enabled {
		opts.API.Enabled = true
	}

	setIfEmpty(&opts.API.BindAddr, conf.API.BindAddr)

	setIfEmpty(&opts.Cluster.Name, conf.Cluster.Name)
	setIfEmpty(&opts.Cluster.GossipBindAddr, conf.Cluster.GossipBindAddr)
	setIfEmpty(&opts.Cluster.JoinAddrs, conf.Cluster.JoinAddrs)

	if conf.Cluster.GossipBindPort != 0 {
		opts.Cluster.GossipBindPort = conf.Cluster.GossipBindPort
	}

	if conf.Channel.Window != 0 {
		opts.Channel.Window = conf.Channel.Window
	}

	return nil
}

func setIfEmpty(dst *string, value string) {
	if *dst == "" && value != "" {
		*dst = value
	}
}
