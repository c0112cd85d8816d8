package grpc_testing_test

import (
	"context"
	"strings"
	"testing"

	"github.com/jhump/protoreflect/v2/protoprint"
	"github.com/opensraph/stub"
	"github.com/opensraph/stub/errors"
	grpc_testing "github.com/opensraph/stub/gen/grpc/testing"
	"github.com/opensraph/stub/stubtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

func TestDescriptors(t *testing.T) {
	t.Parallel()

	fd := grpc_testing.File_src_proto_grpc_testing_compiler_test_proto
	assert.Equal(t, "src/proto/grpc/testing/compiler_test.proto", fd.Path())
	assert.Equal(t, "grpc.testing", string(fd.Package()))

	service := fd.Services().ByName("ServiceB")
	require.NotNil(t, service)
	method := service.Methods().ByName("MethodB1")
	require.NotNil(t, method)
	assert.Equal(t, "grpc.testing.Request", string(method.Input().FullName()))
	assert.Equal(t, "grpc.testing.Response", string(method.Output().FullName()))
	assert.False(t, method.IsStreamingClient())
	assert.False(t, method.IsStreamingServer())

	assert.Equal(t, grpc_testing.ServiceB_MethodB1_FullMethodName, grpc_testing.ServiceB_MethodB1.Procedure())
	assert.Equal(t, "proto", grpc_testing.ServiceB_MethodB1.ContentSubtype())
	assert.Equal(t, grpc_testing.ServiceB_ServiceName, grpc_testing.ServiceB_ServiceDesc.Name())
	assert.Equal(t, []string{grpc_testing.ServiceB_MethodB1_FullMethodName}, grpc_testing.ServiceB_ServiceDesc.Procedures())
}

func TestPrintedSchemaKeepsComments(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	require.NoError(t, (&protoprint.Printer{}).PrintProtoFile(grpc_testing.File_src_proto_grpc_testing_compiler_test_proto, &out))
	printed := out.String()
	for _, want := range []string{
		"package grpc.testing;",
		"service ServiceB",
		"rpc MethodB1",
		"MethodB1 leading comment 1",
	} {
		assert.Contains(t, printed, want)
	}
}

func TestMessages(t *testing.T) {
	t.Parallel()

	var zero *grpc_testing.Request
	assert.False(t, zero.ProtoReflect().IsValid())
	assert.Equal(t, "grpc.testing.Request", string(zero.ProtoReflect().Descriptor().FullName()))

	req := &grpc_testing.Request{}
	assert.True(t, req.ProtoReflect().IsValid())
	b, err := proto.Marshal(req)
	require.NoError(t, err)
	assert.Empty(t, b)
	assert.True(t, proto.Equal(&grpc_testing.Response{}, &grpc_testing.Response{}))
	assert.Empty(t, req.String())
}

func TestMessagesRoundTripThroughReflection(t *testing.T) {
	t.Parallel()

	req := &grpc_testing.Request{}
	assert.Same(t, req, req.ProtoReflect().Interface())
	cloned, ok := proto.Clone(req).(*grpc_testing.Request)
	require.True(t, ok)
	assert.NotSame(t, req, cloned)
	assert.True(t, proto.Equal(req, cloned))

	res := &grpc_testing.Response{}
	clonedRes, ok := proto.Clone(res).(*grpc_testing.Response)
	require.True(t, ok)
	assert.True(t, proto.Equal(res, clonedRes))

	fresh, ok := req.ProtoReflect().New().Interface().(*grpc_testing.Request)
	require.True(t, ok)
	assert.True(t, fresh.ProtoReflect().IsValid())
	assert.Equal(t, "grpc.testing.Response", string(res.ProtoReflect().Type().Descriptor().FullName()))

	var zero *grpc_testing.Request
	clonedZero, ok := proto.Clone(zero).(*grpc_testing.Request)
	require.True(t, ok)
	assert.Nil(t, clonedZero)
	_, ok = zero.ProtoReflect().Type().Zero().Interface().(*grpc_testing.Request)
	assert.True(t, ok)
}

func TestServiceBClient(t *testing.T) {
	t.Parallel()

	ch := stubtest.NewMockChannel()
	require.NoError(t, ch.ReturnMessage(&grpc_testing.Response{}))
	client, err := grpc_testing.NewServiceBClient("", ch)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, client.Close())
	})

	res, err := client.MethodB1(context.Background(), &grpc_testing.Request{}, nil, stub.CallOptions{})
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, 1, ch.CallCount())

	ch.ReturnStatus(errors.Unavailable, "server down")
	_, err = client.MethodB1(context.Background(), &grpc_testing.Request{}, nil, stub.CallOptions{})
	assert.Equal(t, errors.Unavailable, errors.CodeOf(err))
	assert.Equal(t, 2, ch.CallCount())
}
