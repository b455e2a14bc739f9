package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jessevdk/go-flags"

	"github.com/plexusrt/plexus/api"
	"github.com/plexusrt/plexus/channel"
	"github.com/plexusrt/plexus/cluster"
	"github.com/plexusrt/plexus/metadata"
	"github.com/plexusrt/plexus/nodeclient"
	nodeclientgrpc "github.com/plexusrt/plexus/nodeclient/grpc"
	"github.com/plexusrt/plexus/nodectl"
	"github.com/plexusrt/plexus/query"
	"github.com/plexusrt/plexus/registry"
)

func join(ctx context.Context, cl *cluster.Cluster, meta *metadata.Store, dial nodeclient.Dialer, logger kitlog.Logger, addr string) {
	var (
		backoff = 1 * time.Second
		max     = 30 * time.Second
	)

	for {
		if _, err := cl.Join([]string{addr}); err == nil {
			level.Info(logger).Log("msg", "joined cluster", "addr", addr)
			reconcileVersions(ctx, cl, meta, dial, logger)

			return
		} else {
			level.Error(logger).Log(
				"msg", "failed to join cluster",
				"addr", addr,
				"err", err,
			)
		}

		backoff = backoff * 2
		if backoff > max {
			backoff = max
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
			continue
		}
	}
}

// reconcileVersions pulls the identity of every known peer over its
// control endpoint and merges the version counters it advertises, so a
// node that rejoins catches up with configuration changes it missed
// without waiting for the respective authorities to gossip them again.
func reconcileVersions(ctx context.Context, cl *cluster.Cluster, meta *metadata.Store, dial nodeclient.Dialer, logger kitlog.Logger) {
	selfID := cl.Self().ID

	for _, node := range cl.Nodes() {
		if node.ID == selfID || node.ControlAddr == "" {
			continue
		}

		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)

		conn, err := dial(dialCtx, node.ControlAddr)
		if err != nil {
			cancel()
			level.Warn(logger).Log(
				"msg", "failed to dial peer control endpoint",
				"peer", node.ID,
				"addr", node.ControlAddr,
				"err", err,
			)

			continue
		}

		ident, err := nodeclient.ReconcileVersions(dialCtx, conn, meta)

		_ = conn.Close()
		cancel()

		if err != nil {
			level.Warn(logger).Log(
				"msg", "failed to reconcile versions with peer",
				"peer", node.ID,
				"err", err,
			)

			continue
		}

		level.Info(logger).Log(
			"msg", "reconciled versions with peer",
			"peer", ident.NodeID,
			"nodes_config", ident.Versions.NodesConfig,
			"schema", ident.Versions.Schema,
		)
	}
}

func parseRoles(s string) ([]cluster.Role, error) {
	names := parseAddrs(s)
	roles := make([]cluster.Role, 0, len(names))

	for _, name := range names {
		role, err := cluster.ParseRole(name)
		if err != nil {
			return nil, err
		}

		roles = append(roles, role)
	}

	return roles, nil
}

// roleComponents maps the node's roles to the health components they own.
func roleComponents(roles []cluster.Role) []metadata.Component {
	components := make([]metadata.Component, 0, len(roles))

	for _, role := range roles {
		switch role {
		case cluster.RoleAdmin:
			components = append(components, metadata.Admin)
		case cluster.RoleWorker:
			components = append(components, metadata.Worker)
		case cluster.RoleLogServer:
			components = append(components, metadata.LogServer)
		case cluster.RoleMetadataServer:
			components = append(components, metadata.MetadataServer)
		}
	}

	return components
}

func main() {
	p := flags.NewParser(&opts, flags.Default)

	if _, err := p.Parse(); err != nil {
		if err.(*flags.Error).Type != flags.ErrHelp {
			fmt.Println("cli error:", err)
		}

		os.Exit(2)
	}

	if opts.Config != "" {
		if err := applyConfigFile(opts.Config); err != nil {
			fmt.Println("config error:", err)
			os.Exit(2)
		}
	}

	applyDefaults()

	if opts.Node.ID == "" {
		fmt.Println("config error: node id is required")
		os.Exit(2)
	}

	roles, err := parseRoles(opts.Node.Roles)
	if err != nil {
		fmt.Println("config error:", err)
		os.Exit(2)
	}

	wg := sync.WaitGroup{}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)

	startedAt := time.Now()
	meta := metadata.NewStore()
	components := roleComponents(roles)

	for _, component := range components {
		meta.SetStatus(component, metadata.StatusStarting)
	}

	// Initialize all components.
	logger, closeLogger := setupLogger()
	cl, closeCluster := setupCluster(meta, roles, logger)
	engine, closeEngine := setupEngine(logger)

	reg := registry.New(meta, logger)
	channels := channel.NewRegistry()
	ident := nodectl.NewIdentReader(cl, meta, startedAt)
	gateway := query.NewGateway(engine, meta, logger)

	_, closeGRPCServer := setupGRPCServer(&wg, ident, gateway, channels, logger)

	// Components must be shut down in a particular order.
	shutdownOrder := []shutdownFunc{
		closeCluster,
		closeGRPCServer,
		closeEngine,
		closeLogger,
	}

	if opts.API.Enabled {
		_, closeAPIServer := setupAPIServer(&wg, api.Deps{
			Ident:    ident,
			Cluster:  cl,
			Channels: channels,
			Registry: reg,
		}, logger)

		shutdownOrder = append([]shutdownFunc{closeAPIServer}, shutdownOrder...)
	}

	// Join the cluster, in case we were given any addresses to join.
	dial := nodeclientgrpc.Dialer(nodeclientgrpc.Config{
		NodeID:      opts.Node.ID,
		ClusterName: opts.Cluster.Name,
		Window:      opts.Channel.Window,
		Logger:      logger,
	})

	joinCtx, cancelJoin := context.WithCancel(context.Background())
	for _, joinAddr := range parseAddrs(opts.Cluster.JoinAddrs) {
		go join(joinCtx, cl, meta, dial, logger, joinAddr)
	}

	for _, component := range components {
		meta.SetStatus(component, metadata.StatusActive)
	}

	level.Info(logger).Log(
		"msg", "node started",
		"node_id", opts.Node.ID,
		"cluster", opts.Cluster.Name,
		"grpc_addr", opts.GRPC.BindAddr,
	)

	// Block until we receive a signal to shut down.
	<-interrupt
	cancelJoin()
	level.Info(logger).Log("msg", "received interrupt signal, shutting down")

	for _, component := range components {
		meta.SetStatus(component, metadata.StatusShuttingDown)
	}

	// Shutdown all components.
	for _, f := range shutdownOrder {
		if err := f(context.Background()); err != nil {
			level.Error(logger).Log("msg", "failed to shutdown component", "err", err)
		}
	}

	// Wait for all components to finish background tasks.
	wg.Wait()
}
