// Package stub is the runtime behind generated unary gRPC client stubs.
//
// A Stub binds a service to a Channel. Generated code declares one
// MethodDesc per RPC and calls Invoke, which encodes the request, hands it to
// the Channel as a Call, and decodes the reply. Every failure surfaces as an
// *errors.Error carrying a gRPC status code:
//
//   - the request can't be encoded: InvalidArgument, and the Channel is never
//     called;
//   - the Channel fails: its status code, verbatim;
//   - the response can't be decoded: Internal.
//
// The Stub keeps no per-call state and starts no goroutines. Retries,
// timeouts and connection management belong to the Channel.
package stub

import (
	"context"
	"io"

	"github.com/opensraph/stub/errors"
	"google.golang.org/grpc/metadata"
)

// Stub is bound to one Channel. It's immutable and safe for concurrent use.
type Stub struct {
	target  string
	channel Channel
	owned   bool
	opts    clientOptions
	unary   UnaryFunc
}

// NewStub returns a Stub for target. When ch is non-nil the Stub adopts it
// and target is informational only; otherwise a gRPC channel is dialed for
// target using the options given by WithGRPCOptions, and Close releases it.
func NewStub(target string, ch Channel, opt ...ClientOption) (*Stub, error) {
	opts := newClientOptions(opt)
	s := &Stub{
		target:  target,
		channel: ch,
		opts:    opts,
	}
	if ch == nil {
		if target == "" {
			return nil, errors.New("stub: target is empty").WithCode(errors.InvalidArgument)
		}
		gc, err := NewGRPCChannel(target, opts.grpcOpts...)
		if err != nil {
			return nil, err
		}
		s.channel, s.owned = gc, true
		if opts.logger.V(2) {
			opts.logger.Infof("stub: created channel for %s", target)
		}
	}
	s.unary = s.newUnaryFunc()
	return s, nil
}

// Target returns the address the Stub was created for.
func (s *Stub) Target() string {
	return s.target
}

// Channel returns the Channel the Stub calls through.
func (s *Stub) Channel() Channel {
	return s.channel
}

// Service returns the service set with WithService, or nil.
func (s *Stub) Service() *ServiceDesc {
	return s.opts.service
}

// Close releases the channel if the Stub created it. An adopted Channel is
// left to its owner.
func (s *Stub) Close() error {
	if !s.owned {
		return nil
	}
	closer, ok := s.channel.(io.Closer)
	if !ok {
		return nil
	}
	if err := closer.Close(); err != nil {
		s.opts.logger.Warningf("stub: closing channel for %s: %v", s.target, err)
		return err
	}
	return nil
}

// newUnaryFunc builds the innermost call: one Channel exchange, with its
// outcome normalized to *errors.Error and the response metadata copied out.
func (s *Stub) newUnaryFunc() UnaryFunc {
	next := func(ctx context.Context, call *Call) (*Reply, error) {
		reply, err := s.channel.UnaryCall(ctx, call)
		if err != nil {
			stubErr := errors.FromError(errors.WrapIfContextDone(ctx, err))
			if call.Options.Trailer != nil {
				*call.Options.Trailer = stubErr.Meta().Copy()
			}
			return nil, stubErr
		}
		if reply == nil {
			return nil, errors.Newf("stub: %s: channel returned no reply", call.Procedure).WithCode(errors.Internal)
		}
		if call.Options.Header != nil {
			*call.Options.Header = reply.Header
		}
		if call.Options.Trailer != nil {
			*call.Options.Trailer = reply.Trailer
		}
		if stubErr, failed := errors.FromTrailer(reply.Trailer); failed {
			return nil, stubErr
		}
		return reply, nil
	}
	if interceptor := s.opts.interceptor; interceptor != nil {
		return interceptor.WrapUnary(next)
	}
	return next
}

// Invoke performs one unary call of method through s. md is handed to the
// Channel unmodified; opts are interpreted by the Channel.
func Invoke[Req, Resp any](
	ctx context.Context,
	s *Stub,
	method MethodDesc[Req, Resp],
	req Req,
	md metadata.MD,
	opts CallOptions,
) (Resp, error) {
	var zero Resp
	if sd := s.opts.service; sd != nil && !sd.Has(method.procedure) {
		return zero, errors.Newf("stub: %s is not a method of %s", method.procedure, sd.Name()).WithCode(errors.Unimplemented)
	}
	payload, err := method.encodeRequest(req)
	if err != nil {
		return zero, err
	}
	reply, err := s.unary(ctx, &Call{
		Procedure:      method.procedure,
		ContentSubtype: method.contentSubtype,
		Payload:        payload,
		Metadata:       md,
		Options:        opts,
	})
	if err != nil {
		return zero, errors.FromError(err)
	}
	if reply == nil {
		return zero, errors.Newf("stub: %s: interceptor returned no reply", method.procedure).WithCode(errors.Internal)
	}
	return method.decodeResponse(reply.Payload)
}
