package rpcservice

import (
	"context"
	"net"
	"time"

	"github.com/kaspanet/chainstated/infrastructure/logger"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
)

// RPCServer serves a Server over gRPC.
type RPCServer struct {
	listenAddress string
	server        *grpc.Server
	listener      net.Listener
}

// NewRPCServer creates a gRPC server serving srv on listenAddress.
func NewRPCServer(listenAddress string, srv Server) *RPCServer {
	server := grpc.NewServer(
		grpc.ForceServerCodec(CramberryCodec{}),
		grpc.UnaryInterceptor(logRequests),
	)
	RegisterServer(server, srv)
	return &RPCServer{
		listenAddress: listenAddress,
		server:        server,
	}
}

// Start starts listening and serving in the background.
func (s *RPCServer) Start() error {
	listener, err := net.Listen("tcp", s.listenAddress)
	if err != nil {
		return errors.Wrapf(err, "error listening on %s", s.listenAddress)
	}
	s.listener = listener
	log.Infof("RPC server listening on %s", listener.Addr())

	spawn("RPCServer.serve", func() {
		err := s.server.Serve(listener)
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Errorf("RPC server stopped serving: %s", err)
		}
	})
	return nil
}

// Address returns the address the server listens on. It's only valid
// after Start.
func (s *RPCServer) Address() string {
	return s.listener.Addr().String()
}

const gracefulStopTimeout = 5 * time.Second

// Stop stops the server, waiting a while for running requests to finish.
func (s *RPCServer) Stop() {
	stopped := make(chan struct{})
	spawn("RPCServer.Stop", func() {
		s.server.GracefulStop()
		close(stopped)
	})
	select {
	case <-stopped:
	case <-time.After(gracefulStopTimeout):
		log.Warnf("RPC server did not stop gracefully in %s, forcing it", gracefulStopTimeout)
		s.server.Stop()
	}
}

func logRequests(ctx context.Context, request any, info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler) (any, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, info.FullMethod)
	defer onEnd()

	response, err := handler(ctx, request)
	if err != nil {
		log.Warnf("RPC request %s failed: %s", info.FullMethod, err)
	}
	return response, err
}
