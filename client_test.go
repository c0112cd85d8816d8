package stub_test

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/opensraph/stub"
	"github.com/opensraph/stub/errors"
	grpc_testing "github.com/opensraph/stub/gen/grpc/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/proto"
)

// Request metadata understood by echoHandler.
const (
	failCodeKey    = "x-fail-code"
	failMessageKey = "x-fail-message"
	waitKey        = "x-wait"
)

// bytesCodec is the server half of the channel's raw codec.
type bytesCodec struct{}

func (bytesCodec) Marshal(v any) ([]byte, error) {
	b, ok := v.(*[]byte)
	if !ok {
		return nil, fmt.Errorf("bytes codec: cannot marshal %T", v)
	}
	return *b, nil
}

func (bytesCodec) Unmarshal(data []byte, v any) error {
	b, ok := v.(*[]byte)
	if !ok {
		return fmt.Errorf("bytes codec: cannot unmarshal into %T", v)
	}
	*b = append((*b)[:0], data...)
	return nil
}

func (bytesCodec) Name() string {
	return "proto"
}

// echoHandler answers every method by echoing the request payload. x-
// prefixed request metadata comes back as response headers, and the trailer
// names the method that was called.
func echoHandler(_ any, stream grpc.ServerStream) error {
	method, _ := grpc.MethodFromServerStream(stream)
	var payload []byte
	if err := stream.RecvMsg(&payload); err != nil {
		return err
	}
	md, _ := metadata.FromIncomingContext(stream.Context())
	header := metadata.MD{}
	for key, vals := range md {
		if strings.HasPrefix(key, "x-") {
			header[key] = vals
		}
	}
	if err := stream.SetHeader(header); err != nil {
		return err
	}
	stream.SetTrailer(metadata.Pairs("x-method", method))

	if len(md.Get(waitKey)) > 0 {
		<-stream.Context().Done()
		return status.FromContextError(stream.Context().Err()).Err()
	}
	if raw := md.Get(failCodeKey); len(raw) > 0 {
		code, err := strconv.Atoi(raw[0])
		if err != nil {
			return status.Error(codes.Internal, err.Error())
		}
		var message string
		if vals := md.Get(failMessageKey); len(vals) > 0 {
			message = vals[0]
		}
		st, err := status.New(codes.Code(code), message).WithDetails(&errdetails.ErrorInfo{
			Reason: "ECHO_FAILURE",
			Domain: "stub.test",
		})
		if err != nil {
			return err
		}
		return st.Err()
	}
	return stream.SendMsg(&payload)
}

func newBufconnChannel(t *testing.T) *stub.GRPCChannel {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer(
		grpc.ForceServerCodec(bytesCodec{}),
		grpc.UnknownServiceHandler(echoHandler),
	)
	go func() {
		_ = server.Serve(lis)
	}()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
	})
	return stub.WrapGRPC(conn)
}

func TestGRPCChannelMethodB1(t *testing.T) {
	t.Parallel()

	client := newServiceBClient(t, newBufconnChannel(t))
	var header, trailer metadata.MD
	res, err := client.MethodB1(
		context.Background(),
		&grpc_testing.Request{},
		metadata.Pairs("x-tenant", "a", "x-tenant", "b", "authorization", "secret"),
		stub.CallOptions{Header: &header, Trailer: &trailer, Timeout: 5 * time.Second},
	)
	require.NoError(t, err)
	assert.True(t, proto.Equal(&grpc_testing.Response{}, res))
	assert.Equal(t, []string{"a", "b"}, header.Get("x-tenant"))
	assert.Empty(t, header.Get("authorization"))
	assert.Equal(t, []string{grpc_testing.ServiceB_MethodB1_FullMethodName}, trailer.Get("x-method"))
}

func TestGRPCChannelEchoesPayload(t *testing.T) {
	t.Parallel()

	schema := newEchoSchema(t)
	s, err := stub.NewStub("bufnet", newBufconnChannel(t))
	require.NoError(t, err)

	for _, opts := range []stub.CallOptions{{}, {Compressor: "gzip"}, {WaitForReady: true}} {
		res, err := stub.Invoke(context.Background(), s, schema.method(), schema.newMessage("ping"), nil, opts)
		require.NoError(t, err)
		assert.Equal(t, "ping", res.Get(schema.text).String())
	}
}

func TestGRPCChannelServerStatus(t *testing.T) {
	t.Parallel()

	client := newServiceBClient(t, newBufconnChannel(t))
	var trailer metadata.MD
	_, err := client.MethodB1(
		context.Background(),
		&grpc_testing.Request{},
		metadata.Pairs(failCodeKey, strconv.Itoa(int(codes.Unavailable)), failMessageKey, "server down"),
		stub.CallOptions{Trailer: &trailer},
	)
	stubErr, ok := errors.AsError(err)
	require.True(t, ok)
	assert.Equal(t, errors.Unavailable, stubErr.Code())
	assert.Equal(t, "server down", stubErr.Message())
	assert.True(t, stubErr.IsWireError())
	require.Len(t, stubErr.Details(), 1)
	assert.Equal(t, "ECHO_FAILURE", stubErr.Details()[0].(*errdetails.ErrorInfo).GetReason())
	assert.Equal(t, []string{grpc_testing.ServiceB_MethodB1_FullMethodName}, stubErr.Meta().Get("x-method"))
	assert.Equal(t, []string{grpc_testing.ServiceB_MethodB1_FullMethodName}, trailer.Get("x-method"))
}

func TestGRPCChannelDeadline(t *testing.T) {
	t.Parallel()

	client := newServiceBClient(t, newBufconnChannel(t))
	_, err := client.MethodB1(
		context.Background(),
		&grpc_testing.Request{},
		metadata.Pairs(waitKey, "1"),
		stub.CallOptions{Timeout: 50 * time.Millisecond},
	)
	assert.Equal(t, errors.DeadlineExceeded, errors.CodeOf(err))
}

func TestGRPCChannelRejectsReservedMetadata(t *testing.T) {
	t.Parallel()

	client := newServiceBClient(t, newBufconnChannel(t))
	for _, md := range []metadata.MD{
		{"grpc-timeout": {"1S"}},
		{":authority": {"evil"}},
		{"Content-Type": {"text/plain"}},
		{"bad key": {"x"}},
		{"x-text": {"caf\u00e9"}},
	} {
		_, err := client.MethodB1(context.Background(), &grpc_testing.Request{}, md, stub.CallOptions{})
		assert.Equal(t, errors.InvalidArgument, errors.CodeOf(err), md)
	}
}

func TestGRPCChannelMixedCaseMetadata(t *testing.T) {
	t.Parallel()

	client := newServiceBClient(t, newBufconnChannel(t))
	var header metadata.MD
	_, err := client.MethodB1(
		context.Background(),
		&grpc_testing.Request{},
		metadata.MD{"X-Request-Id": {"abc"}, "User-Agent": {"caller/1.0"}},
		stub.CallOptions{Header: &header},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"abc"}, header.Get("x-request-id"))
}

func TestGRPCChannelBinaryMetadata(t *testing.T) {
	t.Parallel()

	client := newServiceBClient(t, newBufconnChannel(t))
	var header metadata.MD
	_, err := client.MethodB1(
		context.Background(),
		&grpc_testing.Request{},
		metadata.Pairs("x-raw-bin", string([]byte{0, 0xff, 0x10})),
		stub.CallOptions{Header: &header},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{string([]byte{0, 0xff, 0x10})}, header.Get("x-raw-bin"))
}

func TestGRPCChannelMaxResponseSize(t *testing.T) {
	t.Parallel()

	schema := newEchoSchema(t)
	s, err := stub.NewStub("bufnet", newBufconnChannel(t))
	require.NoError(t, err)

	_, err = stub.Invoke(context.Background(), s, schema.method(), schema.newMessage(strings.Repeat("x", 64)), nil, stub.CallOptions{
		MaxResponseSize: 8,
	})
	assert.Equal(t, errors.ResourceExhausted, errors.CodeOf(err))
}

func TestGRPCChannelCanceledContext(t *testing.T) {
	t.Parallel()

	client := newServiceBClient(t, newBufconnChannel(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.MethodB1(ctx, &grpc_testing.Request{}, nil, stub.CallOptions{})
	assert.Equal(t, errors.Canceled, errors.CodeOf(err))
}

func TestWrapGRPCLeavesConnectionOpen(t *testing.T) {
	t.Parallel()

	ch := newBufconnChannel(t)
	require.NoError(t, ch.Close())
	client := newServiceBClient(t, ch)
	_, err := client.MethodB1(context.Background(), &grpc_testing.Request{}, nil, stub.CallOptions{})
	assert.NoError(t, err)
}
