package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "transactions.v1.TransactionService"

// Method names
const (
	MethodNormalize          = "Normalize"
	MethodIngestTransactions = "IngestTransactions"
	MethodListTransactions   = "ListTransactions"
	MethodTagTransaction     = "TagTransaction"
)

// TransactionServiceServer is the server API for TransactionService.
// Every message is a google.protobuf.Struct.
type TransactionServiceServer interface {
	Normalize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IngestTransactions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTransactions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TagTransaction(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(srv TransactionServiceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

// TransactionServiceDesc describes TransactionService for grpc.Server.RegisterService
var TransactionServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TransactionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: MethodNormalize,
			Handler:    unaryHandler(MethodNormalize, TransactionServiceServer.Normalize),
		},
		{
			MethodName: MethodIngestTransactions,
			Handler:    unaryHandler(MethodIngestTransactions, TransactionServiceServer.IngestTransactions),
		},
		{
			MethodName: MethodListTransactions,
			Handler:    unaryHandler(MethodListTransactions, TransactionServiceServer.ListTransactions),
		},
		{
			MethodName: MethodTagTransaction,
			Handler:    unaryHandler(MethodTagTransaction, TransactionServiceServer.TagTransaction),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "transactions/v1/transaction_service.proto",
}

// RegisterTransactionServiceServer registers srv on s
func RegisterTransactionServiceServer(s grpc.ServiceRegistrar, srv TransactionServiceServer) {
	s.RegisterService(&TransactionServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(TransactionServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(server, ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// TransactionServiceClient is the client API for TransactionService
type TransactionServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewTransactionServiceClient creates a client on an established connection
func NewTransactionServiceClient(cc grpc.ClientConnInterface) *TransactionServiceClient {
	return &TransactionServiceClient{cc: cc}
}

func (c *TransactionServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TransactionServiceClient) Normalize(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodNormalize, in, opts...)
}

func (c *TransactionServiceClient) IngestTransactions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodIngestTransactions, in, opts...)
}

func (c *TransactionServiceClient) ListTransactions(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodListTransactions, in, opts...)
}

func (c *TransactionServiceClient) TagTransaction(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodTagTransaction, in, opts...)
}
