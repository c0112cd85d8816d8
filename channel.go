package stub

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// Channel performs unary calls on behalf of a Stub. The Channel owns every
// transport concern: connections, credentials, retries, multiplexing and
// applying the deadline in CallOptions.
//
// Implementations must be safe for concurrent use. A Channel returns either
// a Reply or an error; a status carried only in Reply.Trailer is also
// honored by the Stub.
type Channel interface {
	UnaryCall(ctx context.Context, call *Call) (*Reply, error)
}

// Call is one unary invocation as seen by a Channel.
type Call struct {
	// Procedure is the wire path, /<package.Service>/<Method>.
	Procedure string
	// ContentSubtype names the codec Payload was produced with.
	ContentSubtype string
	// Payload is the encoded request.
	Payload []byte
	// Metadata is passed exactly as the caller supplied it.
	Metadata metadata.MD
	// Options are the caller's per-call options.
	Options CallOptions
}

// Service returns the fully-qualified service name of the call.
func (c *Call) Service() string {
	service, _, _ := ParseProcedure(c.Procedure)
	return service
}

// Method returns the bare method name of the call.
func (c *Call) Method() string {
	_, method, _ := ParseProcedure(c.Procedure)
	return method
}

// Reply is what a Channel hands back for a completed exchange.
type Reply struct {
	Payload []byte
	Header  metadata.MD
	Trailer metadata.MD
}

// ChannelFunc adapts a function to the Channel interface.
type ChannelFunc func(ctx context.Context, call *Call) (*Reply, error)

// UnaryCall implements Channel.
func (f ChannelFunc) UnaryCall(ctx context.Context, call *Call) (*Reply, error) {
	return f(ctx, call)
}
