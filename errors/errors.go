package errors

import (
	"context"
	"fmt"
	"os"

	spb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/protoadapt"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const errorFormat = "code = %s desc = %s"

var _ (interface{ Unwrap() error }) = (*Error)(nil)
var _ (interface{ GRPCStatus() *status.Status }) = (*Error)(nil)
var _ error = (*Error)(nil)

// Error is the outcome of a failed call: a status code, a human-readable
// message, optional detail messages and the trailing metadata that came with
// them.
//
// An *Error is never modified once it has been returned: the With methods
// return an updated copy, so one value can be handed to many callers.
type Error struct {
	status  *status.Status
	err     error
	wireErr bool
	meta    metadata.MD
}

func New(text string) *Error {
	return &Error{
		status: status.New(codes.Unknown, text),
	}
}

// Newf formats like [fmt.Errorf]; %w verbs stay reachable through
// [errors.Is] and [errors.As].
func Newf(format string, a ...any) *Error {
	err := fmt.Errorf(format, a...)
	return &Error{
		status: status.New(codes.Unknown, err.Error()),
		err:    err,
	}
}

// FromError converts any error into an *Error. Errors carrying a gRPC status
// keep their code, message and details verbatim. Context errors become
// Canceled or DeadlineExceeded. Everything else is Unknown.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := AsError(err); ok {
		return e
	}
	if s, ok := status.FromError(err); ok {
		return &Error{status: s, err: err, wireErr: true}
	}
	code := Unknown
	switch {
	case Is(err, context.Canceled):
		code = Canceled
	case Is(err, context.DeadlineExceeded):
		code = DeadlineExceeded
	// Ick, some dial errors can be returned as os.ErrDeadlineExceeded
	// instead of context.DeadlineExceeded :(
	// https://github.com/golang/go/issues/64449
	case Is(err, os.ErrDeadlineExceeded):
		code = DeadlineExceeded
	}
	return &Error{
		status: status.New(codes.Code(code), err.Error()),
		err:    err,
	}
}

func AsError(err error) (*Error, bool) {
	var stubErr *Error
	ok := As(err, &stubErr)
	return stubErr, ok
}

func FromProto(s *spb.Status) *Error {
	return FromStatus(status.FromProto(s))
}

// FromStatus wraps a status received from a peer.
func FromStatus(s *status.Status) *Error {
	return &Error{
		status:  s,
		wireErr: true,
	}
}

// CodeOf returns the status code of err. A nil error is OK.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	return FromError(err).Code()
}

func (e *Error) Error() string {
	return fmt.Sprintf(errorFormat, e.Code(), e.Message())
}

// Unwrap allows [ge.Is] and [ge.As] access to the underlying error.
func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Code() Code {
	return Code(e.status.Code())
}

func (e *Error) Message() string {
	return e.status.Message()
}

// Details returns the decoded detail messages. Entries whose type isn't
// linked into the binary are returned as errors.
func (e *Error) Details() []any {
	return e.status.Details()
}

func (e *Error) DetailsAsAny() []*anypb.Any {
	return e.status.Proto().GetDetails()
}

// Proto returns e's status as an spb.Status proto message.
func (e *Error) Proto() *spb.Status {
	return e.status.Proto()
}

// GRPCStatus lets [status.FromError] and [status.Code] read e directly.
func (e *Error) GRPCStatus() *status.Status {
	return e.status
}

// clone returns a shallow copy of e that owns its metadata.
func (e *Error) clone() *Error {
	c := *e
	if e.meta != nil {
		c.meta = e.meta.Copy()
	}
	return &c
}

// WithCode returns a copy of e with its code replaced. Message and details
// are kept.
func (e *Error) WithCode(code Code) *Error {
	p := e.status.Proto()
	p.Code = int32(code) //nolint:gosec // codes fit in int32
	c := e.clone()
	c.status = status.FromProto(p)
	return c
}

// WithDetails returns a copy of e with the detail messages appended. On
// failure e is returned unchanged together with the first error encountered.
func (e *Error) WithDetails(details ...protoadapt.MessageV1) (*Error, error) {
	s, err := e.status.WithDetails(details...)
	if err != nil {
		return e, err
	}
	c := e.clone()
	c.status = s
	return c, nil
}

func (e *Error) WithDetailFromMap(v map[string]any) (*Error, error) {
	s, err := structpb.NewStruct(v)
	if err != nil {
		return e, err
	}
	return e.WithDetails(s)
}

// FromContextError converts a context error or wrapped context error into an
// *Error. It returns nil if err is nil.
func FromContextError(err error) error {
	if err == nil {
		return nil
	}
	return FromError(err)
}

// WrapIfContextDone converts err using the state of ctx when err itself
// doesn't carry a status. Errors that already have a code, and errors sent
// by the peer, are left unchanged. err itself is never modified.
func WrapIfContextDone(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	e := FromError(err)
	if e.Code() != Unknown || e.IsWireError() {
		return e
	}
	switch ctxErr := ctx.Err(); {
	case Is(ctxErr, context.Canceled):
		return e.WithCode(Canceled)
	case Is(ctxErr, context.DeadlineExceeded):
		return e.WithCode(DeadlineExceeded)
	}
	return e
}
