package stubtest_test

import (
	"context"
	"testing"

	"github.com/opensraph/stub"
	"github.com/opensraph/stub/errors"
	"github.com/opensraph/stub/stubtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"
)

func TestMockChannelDefaults(t *testing.T) {
	t.Parallel()

	ch := stubtest.NewMockChannel()
	reply, err := ch.UnaryCall(context.Background(), &stub.Call{Procedure: "/a.B/C"})
	require.NoError(t, err)
	assert.Empty(t, reply.Payload)
	assert.Equal(t, 1, ch.CallCount())
	assert.Nil(t, ch.Calls()[0].Metadata)
}

func TestMockChannelRecordsCopies(t *testing.T) {
	t.Parallel()

	ch := stubtest.NewMockChannel()
	payload := []byte("abc")
	md := metadata.Pairs("k", "v")
	_, err := ch.UnaryCall(context.Background(), &stub.Call{Procedure: "/a.B/C", Payload: payload, Metadata: md})
	require.NoError(t, err)

	payload[0] = 'z'
	md.Set("k", "changed")
	recorded := ch.Calls()[0]
	assert.Equal(t, []byte("abc"), recorded.Payload)
	assert.Equal(t, []string{"v"}, recorded.Metadata.Get("k"))
}

func TestMockChannelStatus(t *testing.T) {
	t.Parallel()

	ch := stubtest.NewMockChannel()
	ch.ReturnStatus(errors.Unavailable, "server down")
	_, err := ch.UnaryCall(context.Background(), &stub.Call{Procedure: "/a.B/C"})
	stubErr, ok := errors.AsError(err)
	require.True(t, ok)
	assert.Equal(t, errors.Unavailable, stubErr.Code())
	assert.Equal(t, "server down", stubErr.Message())
	assert.True(t, stubErr.IsWireError())
}

func TestEchoChannel(t *testing.T) {
	t.Parallel()

	reply, err := stubtest.EchoChannel{}.UnaryCall(context.Background(), &stub.Call{
		Payload:  []byte{1, 2, 3},
		Metadata: metadata.Pairs("x-a", "b"),
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, reply.Payload)
	assert.Equal(t, []string{"b"}, reply.Header.Get("x-a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = stubtest.EchoChannel{}.UnaryCall(ctx, &stub.Call{})
	assert.Equal(t, errors.Canceled, errors.CodeOf(err))
}
