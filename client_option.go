package stub

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/grpclog"
)

var logger = grpclog.Component("stub")

// ClientOption configures a Stub.
type ClientOption func(o *clientOptions)

type clientOptions struct {
	grpcOpts    []grpc.DialOption
	interceptor Interceptor
	service     *ServiceDesc
	logger      grpclog.LoggerV2
}

func newClientOptions(opt []ClientOption) clientOptions {
	opts := clientOptions{
		logger: logger,
	}
	for _, o := range opt {
		o(&opts)
	}
	return opts
}

// WithGRPCOptions configures the channel a Stub builds when none is given.
// They're ignored when the Stub adopts an existing Channel.
func WithGRPCOptions(opts ...grpc.DialOption) ClientOption {
	return func(o *clientOptions) {
		o.grpcOpts = append(o.grpcOpts, opts...)
	}
}

// WithInterceptors appends interceptors to the Stub's chain. The first one
// added is the outermost.
func WithInterceptors(interceptors ...Interceptor) ClientOption {
	return func(o *clientOptions) {
		o.interceptor = Chain(append([]Interceptor{o.interceptor}, interceptors...)...)
	}
}

// WithService restricts the Stub to the methods of sd. Calls to any other
// procedure fail with Unimplemented before reaching the Channel.
func WithService(sd *ServiceDesc) ClientOption {
	return func(o *clientOptions) {
		o.service = sd
	}
}

// WithLogger replaces the "stub" grpclog component.
func WithLogger(l grpclog.LoggerV2) ClientOption {
	return func(o *clientOptions) {
		if l != nil {
			o.logger = l
		}
	}
}
