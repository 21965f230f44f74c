package rpcclient

import (
	"context"
	"time"

	"github.com/kaspanet/chainstated/app/appmessage"
	"github.com/kaspanet/chainstated/infrastructure/network/rpcservice"
	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const defaultTimeout = 30 * time.Second

// RPCClient is an RPC client
type RPCClient struct {
	connection *grpc.ClientConn
	rpcAddress string

	timeout time.Duration
}

// NewRPCClient creates a new RPC client
func NewRPCClient(rpcAddress string) (*RPCClient, error) {
	connection, err := grpc.NewClient(rpcAddress,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(rpcservice.CramberryCodec{})),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "error connecting to address %s", rpcAddress)
	}
	log.Debugf("Created a client for %s", rpcAddress)

	return &RPCClient{
		connection: connection,
		rpcAddress: rpcAddress,
		timeout:    defaultTimeout,
	}, nil
}

// SetTimeout sets the timeout by which to wait for RPC responses
func (c *RPCClient) SetTimeout(timeout time.Duration) {
	c.timeout = timeout
}

// Close closes the RPC client
func (c *RPCClient) Close() error {
	return c.connection.Close()
}

// Address returns the address the RPC client connects to
func (c *RPCClient) Address() string {
	return c.rpcAddress
}

// ErrRPC is an error in the RPC protocol
var ErrRPC = errors.New("rpc error")

func (c *RPCClient) convertRPCError(rpcError *appmessage.RPCError) error {
	return errors.Wrap(ErrRPC, rpcError.Message)
}

func (c *RPCClient) call(method string, request appmessage.Message, response appmessage.ResponseError) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	err := c.connection.Invoke(ctx, rpcservice.FullMethod(method), request, response)
	if err != nil {
		return errors.Wrapf(err, "error calling %s", method)
	}
	if rpcError := response.RPCError(); rpcError != nil {
		return c.convertRPCError(rpcError)
	}
	return nil
}
