package stub

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/opensraph/stub/encoding"
	"github.com/opensraph/stub/errors"
	"github.com/opensraph/stub/internal/headers"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	_ "google.golang.org/grpc/encoding/gzip" // register gzip compressor
	"google.golang.org/grpc/metadata"
)

var defaultDialOptions = []grpc.DialOption{
	grpc.WithTransportCredentials(insecure.NewCredentials()),
}

var _ Channel = (*GRPCChannel)(nil)

// GRPCChannel is a Channel backed by grpc-go. Payloads cross it as opaque
// bytes; the content-subtype of each Call is preserved on the wire.
type GRPCChannel struct {
	conn  grpc.ClientConnInterface
	close func() error
}

// NewGRPCChannel creates a client connection to target. Connections are
// insecure unless opts set transport credentials; later options win.
func NewGRPCChannel(target string, opts ...grpc.DialOption) (*GRPCChannel, error) {
	dialOpts := make([]grpc.DialOption, 0, len(defaultDialOptions)+len(opts))
	dialOpts = append(dialOpts, defaultDialOptions...)
	dialOpts = append(dialOpts, opts...)
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, errors.Newf("failed to connect to %s: %w", target, err).WithCode(errors.Unavailable)
	}
	return &GRPCChannel{
		conn:  conn,
		close: conn.Close,
	}, nil
}

// WrapGRPC adopts an existing connection. Close leaves it open.
func WrapGRPC(conn grpc.ClientConnInterface) *GRPCChannel {
	return &GRPCChannel{conn: conn}
}

// Close closes the connection if the channel created it.
func (c *GRPCChannel) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}

// UnaryCall implements Channel.
func (c *GRPCChannel) UnaryCall(ctx context.Context, call *Call) (*Reply, error) {
	if err := validateMetadata(call.Metadata); err != nil {
		return nil, err
	}
	if deadline, ok := call.Options.EffectiveDeadline(time.Now()); ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, deadline)
		defer cancel()
	}
	if len(call.Metadata) > 0 {
		// FromOutgoingContext returns a copy, so merging leaves the caller's
		// context untouched.
		md, ok := metadata.FromOutgoingContext(ctx)
		if !ok {
			md = make(metadata.MD, len(call.Metadata))
		}
		headers.MergeMetadata(md, call.Metadata)
		ctx = metadata.NewOutgoingContext(ctx, md)
	}

	var (
		header, trailer metadata.MD
		out             []byte
	)
	err := c.conn.Invoke(ctx, call.Procedure, call.Payload, &out, grpcCallOptions(call, &header, &trailer)...)
	if err != nil {
		return nil, errors.FromError(err).WithMeta(trailer)
	}
	return &Reply{
		Payload: out,
		Header:  header,
		Trailer: trailer,
	}, nil
}

func grpcCallOptions(call *Call, header, trailer *metadata.MD) []grpc.CallOption {
	subtype := call.ContentSubtype
	if subtype == "" {
		subtype = encoding.CodecNameProto
	}
	opts := []grpc.CallOption{
		grpc.ForceCodec(rawCodec{name: subtype}),
		grpc.Header(header),
		grpc.Trailer(trailer),
	}
	o := call.Options
	if o.Credentials != nil {
		opts = append(opts, grpc.PerRPCCredentials(o.Credentials))
	}
	if o.Compressor != "" {
		opts = append(opts, grpc.UseCompressor(o.Compressor))
	}
	if o.WaitForReady {
		opts = append(opts, grpc.WaitForReady(true))
	}
	if o.MaxResponseSize > 0 {
		opts = append(opts, grpc.MaxCallRecvMsgSize(o.MaxResponseSize))
	}
	return opts
}

// validateMetadata checks md the way the transport would see it: keys are
// compared in lower case.
func validateMetadata(md metadata.MD) error {
	for key, vals := range md {
		if err := headers.ValidateKey(strings.ToLower(key)); err != nil {
			return errors.Newf("stub: %w", err).WithCode(errors.InvalidArgument)
		}
		if headers.IsReservedKey(key) {
			return errors.Newf("stub: metadata key %q is reserved", key).WithCode(errors.InvalidArgument)
		}
		if headers.IsBinaryKey(key) {
			continue
		}
		for _, v := range vals {
			if !isPrintableASCII(v) {
				return errors.Newf("stub: metadata value for %q must be printable ASCII, use a -bin key for binary data", key).WithCode(errors.InvalidArgument)
			}
		}
	}
	return nil
}

func isPrintableASCII(s string) bool {
	for i := range len(s) {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}

// rawCodec moves already-encoded payloads through grpc-go untouched.
type rawCodec struct {
	name string
}

func (c rawCodec) Marshal(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case *[]byte:
		return *b, nil
	}
	return nil, fmt.Errorf("raw codec: cannot marshal %T", v)
}

func (c rawCodec) Unmarshal(data []byte, v any) error {
	b, ok := v.(*[]byte)
	if !ok {
		return fmt.Errorf("raw codec: cannot unmarshal into %T", v)
	}
	*b = append((*b)[:0], data...)
	return nil
}

func (c rawCodec) Name() string {
	return c.name
}
