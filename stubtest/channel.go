// Package stubtest provides in-memory Channels for testing code built on
// stub.Stub.
package stubtest

import (
	"context"
	"slices"
	"sync"

	"github.com/opensraph/stub"
	"github.com/opensraph/stub/errors"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/proto"
)

var (
	_ stub.Channel = (*MockChannel)(nil)
	_ stub.Channel = EchoChannel{}
)

// RecordedCall is a copy of a Call taken when the channel received it.
type RecordedCall struct {
	Procedure      string
	ContentSubtype string
	Payload        []byte
	Metadata       metadata.MD
	Options        stub.CallOptions
}

// MockChannel records every call and answers with a programmed outcome. It's
// safe for concurrent use.
type MockChannel struct {
	mu      sync.Mutex
	calls   []RecordedCall
	respond func(ctx context.Context, call *stub.Call) (*stub.Reply, error)
}

// NewMockChannel returns a channel that answers every call with an empty
// payload and no error until programmed otherwise.
func NewMockChannel() *MockChannel {
	return &MockChannel{}
}

// ReturnMessage programs the channel to reply with msg encoded as protobuf.
func (m *MockChannel) ReturnMessage(msg proto.Message) error {
	payload, err := proto.Marshal(msg)
	if err != nil {
		return err
	}
	m.ReturnPayload(payload, nil, nil)
	return nil
}

// ReturnPayload programs the channel to reply with the given bytes and
// response metadata.
func (m *MockChannel) ReturnPayload(payload []byte, header, trailer metadata.MD) {
	m.Respond(func(context.Context, *stub.Call) (*stub.Reply, error) {
		return &stub.Reply{
			Payload: slices.Clone(payload),
			Header:  header.Copy(),
			Trailer: trailer.Copy(),
		}, nil
	})
}

// ReturnError programs the channel to fail every call with err.
func (m *MockChannel) ReturnError(err error) {
	m.Respond(func(context.Context, *stub.Call) (*stub.Reply, error) {
		return nil, err
	})
}

// ReturnStatus programs the channel to fail every call with code and
// message, the way a gRPC transport surfaces a server status.
func (m *MockChannel) ReturnStatus(code errors.Code, message string) {
	m.ReturnError(errors.NewWireError(code, errors.New(message)))
}

// ReturnTrailerStatus programs the channel to deliver err only through the
// grpc-status trailers of an otherwise successful reply, like a raw HTTP/2
// transport would.
func (m *MockChannel) ReturnTrailerStatus(err *errors.Error) {
	m.ReturnPayload(nil, nil, err.Trailer())
}

// Respond installs fn as the channel's behavior.
func (m *MockChannel) Respond(fn func(ctx context.Context, call *stub.Call) (*stub.Reply, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.respond = fn
}

// UnaryCall implements stub.Channel.
func (m *MockChannel) UnaryCall(ctx context.Context, call *stub.Call) (*stub.Reply, error) {
	var md metadata.MD
	if call.Metadata != nil {
		md = call.Metadata.Copy()
	}
	m.mu.Lock()
	m.calls = append(m.calls, RecordedCall{
		Procedure:      call.Procedure,
		ContentSubtype: call.ContentSubtype,
		Payload:        slices.Clone(call.Payload),
		Metadata:       md,
		Options:        call.Options,
	})
	respond := m.respond
	m.mu.Unlock()

	if respond == nil {
		return &stub.Reply{}, nil
	}
	return respond(ctx, call)
}

// Calls returns the calls received so far, oldest first.
func (m *MockChannel) Calls() []RecordedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// CallCount returns how many calls the channel received.
func (m *MockChannel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// EchoChannel is a loopback: the request payload comes back as the response
// and the request metadata comes back as the response header. It honors
// context cancellation but otherwise never fails.
type EchoChannel struct{}

// UnaryCall implements stub.Channel.
func (EchoChannel) UnaryCall(ctx context.Context, call *stub.Call) (*stub.Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.FromContextError(err)
	}
	return &stub.Reply{
		Payload: slices.Clone(call.Payload),
		Header:  call.Metadata.Copy(),
	}, nil
}
