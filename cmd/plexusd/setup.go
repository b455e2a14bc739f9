package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"google.golang.org/grpc"

	"github.com/plexusrt/plexus/api"
	"github.com/plexusrt/plexus/channel"
	"github.com/plexusrt/plexus/cluster"
	"github.com/plexusrt/plexus/metadata"
	"github.com/plexusrt/plexus/nodectl"
	"github.com/plexusrt/plexus/nodectl/proto"
	nodectlsvc "github.com/plexusrt/plexus/nodectl/service"
	"github.com/plexusrt/plexus/query"
	"github.com/plexusrt/plexus/query/memengine"
)

type shutdownFunc func(ctx context.Context) error

var noopShutdown = func(ctx context.Context) error { return nil }

func setupLogger() (kitlog.Logger, shutdownFunc) {
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))

	if !opts.Verbose {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	return logger, noopShutdown
}

func setupCluster(meta *metadata.Store, roles []cluster.Role, logger kitlog.Logger) (*cluster.Cluster, shutdownFunc) {
	advertiseAddr := opts.GRPC.AdvertiseAddr
	if advertiseAddr == "" {
		advertiseAddr = opts.GRPC.BindAddr
	}

	cl, err := cluster.New(cluster.Config{
		NodeID:      cluster.NodeID(opts.Node.ID),
		NodeName:    opts.Node.Name,
		ClusterName: opts.Cluster.Name,
		Roles:       roles,
		ControlAddr: advertiseAddr,
		BindAddr:    opts.Cluster.GossipBindAddr,
		BindPort:    opts.Cluster.GossipBindPort,
		Meta:        meta,
		Logger:      logger,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to start cluster membership: %v", err))
	}

	shutdown := func(ctx context.Context) error {
		logger.Log("msg", "leaving cluster")

		if err := cl.Leave(5 * time.Second); err != nil {
			return fmt.Errorf("failed to leave cluster: %w", err)
		}

		return nil
	}

	return cl, shutdown
}

func setupEngine(logger kitlog.Logger) (query.Engine, shutdownFunc) {
	level.Info(logger).Log("msg", "using in-memory storage engine")
	return memengine.New(), noopShutdown
}

// channelAcceptor consumes inbound node channels. Payload handling
// belongs to the higher runtime layers; the daemon keeps the channel
// flowing and logs its lifecycle.
func channelAcceptor(logger kitlog.Logger) nodectlsvc.Acceptor {
	return func(ch *channel.Channel) {
		ctx := context.Background()

		for {
			if _, err := ch.Recv(ctx); err != nil {
				level.Info(logger).Log(
					"msg", "node channel finished",
					"channel_id", ch.ID(),
					"peer", ch.Peer().NodeID,
				)

				return
			}
		}
	}
}

func setupGRPCServer(
	wg *sync.WaitGroup,
	ident *nodectl.IdentReader,
	gateway *query.Gateway,
	channels *channel.Registry,
	logger kitlog.Logger,
) (*grpc.Server, shutdownFunc) {
	grpcServer := grpc.NewServer()

	nodeCtrlService := nodectlsvc.New(
		ident,
		gateway,
		channels,
		channel.Config{
			NodeID:      opts.Node.ID,
			ClusterName: opts.Cluster.Name,
			Window:      opts.Channel.Window,
			Logger:      logger,
		},
		channelAcceptor(logger),
		logger,
	)
	proto.RegisterNodeCtrlServer(grpcServer, nodeCtrlService)

	wg.Add(1)

	go func() {
		defer wg.Done()

		listener, err := net.Listen("tcp", opts.GRPC.BindAddr)
		if err != nil {
			panic(fmt.Sprintf("failed to create grpc listener: %v", err))
		}

		if err := grpcServer.Serve(listener); err != nil {
			panic(fmt.Sprintf("failed to start grpc server: %v", err))
		}
	}()

	shutdown := func(ctx context.Context) error {
		logger.Log("msg", "shutting down grpc server")
		channels.DrainAll()
		grpcServer.GracefulStop()

		return nil
	}

	return grpcServer, shutdown
}

func setupAPIServer(
	wg *sync.WaitGroup,
	deps api.Deps,
	logger kitlog.Logger,
) (*http.Server, shutdownFunc) {
	server := &http.Server{
		Addr:    opts.API.BindAddr,
		Handler: api.CreateRouter(deps),
	}

	wg.Add(1)

	go func() {
		defer wg.Done()

		if err := server.ListenAndServe(); err != nil {
			if err != http.ErrServerClosed {
				panic(fmt.Sprintf("failed to start admin http server: %v", err))
			}
		}
	}()

	shutdown := func(ctx context.Context) error {
		logger.Log("msg", "shutting down admin http server")

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown admin http server: %w", err)
		}

		return nil
	}

	return server, shutdown
}
