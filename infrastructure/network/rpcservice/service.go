package rpcservice

import (
	"context"
	"fmt"

	"github.com/kaspanet/chainstated/app/appmessage"
	"google.golang.org/grpc"
)

// ServiceName is the name of the gRPC service the node exposes.
const ServiceName = "chainstated.RPC"

// Server is the server side of the node's RPC service.
type Server interface {
	DumpTxOutSet(context.Context, *appmessage.DumpTxOutSetRequestMessage) (*appmessage.DumpTxOutSetResponseMessage, error)
	LoadTxOutSet(context.Context, *appmessage.LoadTxOutSetRequestMessage) (*appmessage.LoadTxOutSetResponseMessage, error)
	GetChainStates(context.Context, *appmessage.GetChainStatesRequestMessage) (*appmessage.GetChainStatesResponseMessage, error)
	GetBlockchainInfo(context.Context, *appmessage.GetBlockchainInfoRequestMessage) (*appmessage.GetBlockchainInfoResponseMessage, error)
	GetBlockHash(context.Context, *appmessage.GetBlockHashRequestMessage) (*appmessage.GetBlockHashResponseMessage, error)
	GetBlock(context.Context, *appmessage.GetBlockRequestMessage) (*appmessage.GetBlockResponseMessage, error)
	SubmitHeader(context.Context, *appmessage.SubmitHeaderRequestMessage) (*appmessage.SubmitHeaderResponseMessage, error)
	SubmitBlock(context.Context, *appmessage.SubmitBlockRequestMessage) (*appmessage.SubmitBlockResponseMessage, error)
	GetTxOut(context.Context, *appmessage.GetTxOutRequestMessage) (*appmessage.GetTxOutResponseMessage, error)
	SendRawTransaction(context.Context, *appmessage.SendRawTransactionRequestMessage) (*appmessage.SendRawTransactionResponseMessage, error)
	GetRawMempool(context.Context, *appmessage.GetRawMempoolRequestMessage) (*appmessage.GetRawMempoolResponseMessage, error)
	Generate(context.Context, *appmessage.GenerateRequestMessage) (*appmessage.GenerateResponseMessage, error)
	Stop(context.Context, *appmessage.StopRequestMessage) (*appmessage.StopResponseMessage, error)
}

// RegisterServer registers srv on a gRPC server.
func RegisterServer(s *grpc.Server, srv Server) {
	s.RegisterService(&serviceDesc, srv)
}

// FullMethod builds the full gRPC method path of method.
func FullMethod(method string) string {
	return fmt.Sprintf("/%s/%s", ServiceName, method)
}

func handlerDumpTxOutSet(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	request := new(appmessage.DumpTxOutSetRequestMessage)
	if err := dec(request); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).DumpTxOutSet(ctx, request)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod("DumpTxOutSet")}
	handler := func(ctx context.Context, request any) (any, error) {
		return srv.(Server).DumpTxOutSet(ctx, request.(*appmessage.DumpTxOutSetRequestMessage))
	}
	return interceptor(ctx, request, info, handler)
}

func handlerLoadTxOutSet(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	request := new(appmessage.LoadTxOutSetRequestMessage)
	if err := dec(request); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).LoadTxOutSet(ctx, request)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod("LoadTxOutSet")}
	handler := func(ctx context.Context, request any) (any, error) {
		return srv.(Server).LoadTxOutSet(ctx, request.(*appmessage.LoadTxOutSetRequestMessage))
	}
	return interceptor(ctx, request, info, handler)
}

func handlerGetChainStates(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	request := new(appmessage.GetChainStatesRequestMessage)
	if err := dec(request); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).GetChainStates(ctx, request)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod("GetChainStates")}
	handler := func(ctx context.Context, request any) (any, error) {
		return srv.(Server).GetChainStates(ctx, request.(*appmessage.GetChainStatesRequestMessage))
	}
	return interceptor(ctx, request, info, handler)
}

func handlerGetBlockchainInfo(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	request := new(appmessage.GetBlockchainInfoRequestMessage)
	if err := dec(request); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).GetBlockchainInfo(ctx, request)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod("GetBlockchainInfo")}
	handler := func(ctx context.Context, request any) (any, error) {
		return srv.(Server).GetBlockchainInfo(ctx, request.(*appmessage.GetBlockchainInfoRequestMessage))
	}
	return interceptor(ctx, request, info, handler)
}

func handlerGetBlockHash(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	request := new(appmessage.GetBlockHashRequestMessage)
	if err := dec(request); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).GetBlockHash(ctx, request)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod("GetBlockHash")}
	handler := func(ctx context.Context, request any) (any, error) {
		return srv.(Server).GetBlockHash(ctx, request.(*appmessage.GetBlockHashRequestMessage))
	}
	return interceptor(ctx, request, info, handler)
}

func handlerGetBlock(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	request := new(appmessage.GetBlockRequestMessage)
	if err := dec(request); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).GetBlock(ctx, request)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod("GetBlock")}
	handler := func(ctx context.Context, request any) (any, error) {
		return srv.(Server).GetBlock(ctx, request.(*appmessage.GetBlockRequestMessage))
	}
	return interceptor(ctx, request, info, handler)
}

func handlerSubmitHeader(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	request := new(appmessage.SubmitHeaderRequestMessage)
	if err := dec(request); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).SubmitHeader(ctx, request)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod("SubmitHeader")}
	handler := func(ctx context.Context, request any) (any, error) {
		return srv.(Server).SubmitHeader(ctx, request.(*appmessage.SubmitHeaderRequestMessage))
	}
	return interceptor(ctx, request, info, handler)
}

func handlerSubmitBlock(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	request := new(appmessage.SubmitBlockRequestMessage)
	if err := dec(request); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).SubmitBlock(ctx, request)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod("SubmitBlock")}
	handler := func(ctx context.Context, request any) (any, error) {
		return srv.(Server).SubmitBlock(ctx, request.(*appmessage.SubmitBlockRequestMessage))
	}
	return interceptor(ctx, request, info, handler)
}

func handlerGetTxOut(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	request := new(appmessage.GetTxOutRequestMessage)
	if err := dec(request); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).GetTxOut(ctx, request)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod("GetTxOut")}
	handler := func(ctx context.Context, request any) (any, error) {
		return srv.(Server).GetTxOut(ctx, request.(*appmessage.GetTxOutRequestMessage))
	}
	return interceptor(ctx, request, info, handler)
}

func handlerSendRawTransaction(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	request := new(appmessage.SendRawTransactionRequestMessage)
	if err := dec(request); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).SendRawTransaction(ctx, request)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod("SendRawTransaction")}
	handler := func(ctx context.Context, request any) (any, error) {
		return srv.(Server).SendRawTransaction(ctx, request.(*appmessage.SendRawTransactionRequestMessage))
	}
	return interceptor(ctx, request, info, handler)
}

func handlerGetRawMempool(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	request := new(appmessage.GetRawMempoolRequestMessage)
	if err := dec(request); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).GetRawMempool(ctx, request)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod("GetRawMempool")}
	handler := func(ctx context.Context, request any) (any, error) {
		return srv.(Server).GetRawMempool(ctx, request.(*appmessage.GetRawMempoolRequestMessage))
	}
	return interceptor(ctx, request, info, handler)
}

func handlerGenerate(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	request := new(appmessage.GenerateRequestMessage)
	if err := dec(request); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).Generate(ctx, request)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod("Generate")}
	handler := func(ctx context.Context, request any) (any, error) {
		return srv.(Server).Generate(ctx, request.(*appmessage.GenerateRequestMessage))
	}
	return interceptor(ctx, request, info, handler)
}

func handlerStop(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	request := new(appmessage.StopRequestMessage)
	if err := dec(request); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).Stop(ctx, request)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod("Stop")}
	handler := func(ctx context.Context, request any) (any, error) {
		return srv.(Server).Stop(ctx, request.(*appmessage.StopRequestMessage))
	}
	return interceptor(ctx, request, info, handler)
}

// serviceDesc is the manual gRPC service descriptor of the node's RPC
// service. Its messages are encoded by CramberryCodec.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "DumpTxOutSet", Handler: handlerDumpTxOutSet},
		{MethodName: "LoadTxOutSet", Handler: handlerLoadTxOutSet},
		{MethodName: "GetChainStates", Handler: handlerGetChainStates},
		{MethodName: "GetBlockchainInfo", Handler: handlerGetBlockchainInfo},
		{MethodName: "GetBlockHash", Handler: handlerGetBlockHash},
		{MethodName: "GetBlock", Handler: handlerGetBlock},
		{MethodName: "SubmitHeader", Handler: handlerSubmitHeader},
		{MethodName: "SubmitBlock", Handler: handlerSubmitBlock},
		{MethodName: "GetTxOut", Handler: handlerGetTxOut},
		{MethodName: "SendRawTransaction", Handler: handlerSendRawTransaction},
		{MethodName: "GetRawMempool", Handler: handlerGetRawMempool},
		{MethodName: "Generate", Handler: handlerGenerate},
		{MethodName: "Stop", Handler: handlerStop},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chainstated/rpc.cram",
}
