// Hand-maintained equivalent of the generated client for
// src/proto/grpc/testing/compiler_test.proto.

package grpc_testing

import (
	"context"

	"github.com/opensraph/stub"
	"google.golang.org/grpc/metadata"
)

const (
	ServiceB_ServiceName = "grpc.testing.ServiceB"

	ServiceB_MethodB1_FullMethodName = "/grpc.testing.ServiceB/MethodB1"
)

var (
	ServiceB_MethodB1 stub.MethodDesc[*Request, *Response]

	ServiceB_ServiceDesc *stub.ServiceDesc
)

func init() {
	ServiceB_MethodB1 = stub.NewProtoMethod[*Request](
		serviceBDesc.Methods().ByName("MethodB1"),
		func() *Response { return new(Response) },
	)
	sd, err := stub.NewServiceDesc(ServiceB_ServiceName, ServiceB_MethodB1)
	if err != nil {
		panic(err)
	}
	ServiceB_ServiceDesc = sd
}

// ServiceB leading comment 1
type ServiceBClient struct {
	stub *stub.Stub
}

// NewServiceBClient binds ServiceB to target. Pass ch to reuse an existing
// channel; target and the channel-construction options are then ignored.
func NewServiceBClient(target string, ch stub.Channel, opts ...stub.ClientOption) (*ServiceBClient, error) {
	opts = append(opts, stub.WithService(ServiceB_ServiceDesc))
	s, err := stub.NewStub(target, ch, opts...)
	if err != nil {
		return nil, err
	}
	return &ServiceBClient{stub: s}, nil
}

// MethodB1 leading comment 1
func (c *ServiceBClient) MethodB1(ctx context.Context, in *Request, md metadata.MD, opts stub.CallOptions) (*Response, error) {
	return stub.Invoke(ctx, c.stub, ServiceB_MethodB1, in, md, opts)
}

// Close releases the channel if the client created it.
func (c *ServiceBClient) Close() error {
	return c.stub.Close()
}
