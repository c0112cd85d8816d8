package errors

import (
	"strconv"

	"github.com/opensraph/stub/internal/headers"
	spb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
)

// NewWireError is similar to [Newf], but the resulting *Error returns true
// when tested with IsWireError.
//
// Use it to make clear that the code, message, and details were explicitly
// sent by the server rather than inferred from a lower-level networking error
// or timeout.
func NewWireError(c Code, underlying error) *Error {
	var message string
	if e, ok := AsError(underlying); ok {
		message = e.Message()
	} else if underlying != nil {
		message = underlying.Error()
	}
	return &Error{
		status:  status.New(codes.Code(c), message),
		err:     underlying,
		wireErr: true,
	}
}

func (e *Error) IsWireError() bool {
	return e.wireErr
}

// Meta returns the trailing metadata received with the error, minus the
// protocol keys that carried the status itself. It may be nil; callers must
// not modify it.
func (e *Error) Meta() metadata.MD {
	return e.meta
}

// WithMeta returns a copy of e with the non-protocol keys of meta added to
// its metadata.
func (e *Error) WithMeta(meta metadata.MD) *Error {
	c := e.clone()
	if c.meta == nil {
		c.meta = make(metadata.MD, len(meta))
	}
	headers.MergeNonProtocolMetadata(c.meta, meta)
	return c
}

// FromTrailer rebuilds the status a peer reported through trailing metadata.
// It returns false when the trailer carries no status or an OK one.
func FromTrailer(trailer metadata.MD) (*Error, bool) {
	rawCode := headers.First(trailer, headers.GRPCHeaderStatus)
	if rawCode == "" || rawCode == "0" {
		return nil, false
	}
	code, err := strconv.ParseUint(rawCode, 10 /* base */, 32 /* bitsize */)
	if err != nil {
		return Newf("invalid %s trailer %q: %w", headers.GRPCHeaderStatus, rawCode, err).WithCode(Internal), true
	}
	message, err := headers.PercentDecode(headers.First(trailer, headers.GRPCHeaderMessage))
	if err != nil {
		return Newf("invalid %s trailer: %w", headers.GRPCHeaderMessage, err).WithCode(Internal), true
	}
	s := &spb.Status{
		Code:    int32(code), //nolint:gosec // bounded by ParseUint
		Message: message,
	}
	if raw := headers.First(trailer, headers.GRPCHeaderDetails); raw != "" {
		bin, err := headers.DecodeBinaryHeader(raw)
		if err != nil {
			return Newf("invalid %s trailer: %w", headers.GRPCHeaderDetails, err).WithCode(Internal), true
		}
		var detailed spb.Status
		if err := proto.Unmarshal(bin, &detailed); err != nil {
			return Newf("invalid %s trailer: %w", headers.GRPCHeaderDetails, err).WithCode(Internal), true
		}
		// The binary status is authoritative when the code matches.
		if detailed.GetCode() == s.GetCode() {
			s = &detailed
		}
	}
	return FromProto(s).WithMeta(trailer), true
}

// Trailer renders e as gRPC trailing metadata, the inverse of FromTrailer.
func (e *Error) Trailer() metadata.MD {
	trailer := metadata.MD{}
	headers.MergeNonProtocolMetadata(trailer, e.meta)
	var (
		s       = e.Proto()
		code    = s.GetCode()
		message = s.GetMessage()
		bin     []byte
	)
	if len(s.GetDetails()) > 0 {
		var binErr error
		bin, binErr = proto.Marshal(s)
		if binErr != nil {
			code = int32(Internal)
			message = "marshal protobuf status: " + binErr.Error()
		}
	}
	trailer.Set(headers.GRPCHeaderStatus, strconv.Itoa(int(code)))
	trailer.Set(headers.GRPCHeaderMessage, headers.PercentEncode(message))
	if len(bin) > 0 {
		trailer.Set(headers.GRPCHeaderDetails, headers.EncodeBinaryHeader(bin))
	}
	return trailer
}
