package stub

import (
	"context"
	"time"

	"github.com/opensraph/stub/errors"
	"google.golang.org/grpc/grpclog"
)

// NewLoggingInterceptor logs the outcome of every call. Failures are logged
// as warnings; successes only at verbosity 2 and above. A nil logger uses
// the "stub" grpclog component.
func NewLoggingInterceptor(l grpclog.LoggerV2) Interceptor {
	if l == nil {
		l = logger
	}
	return UnaryInterceptorFunc(func(next UnaryFunc) UnaryFunc {
		return func(ctx context.Context, call *Call) (*Reply, error) {
			start := time.Now()
			reply, err := next(ctx, call)
			elapsed := time.Since(start)
			if err != nil {
				l.Warningf("stub: %s failed after %v: %v", call.Procedure, elapsed, err)
				return nil, err
			}
			if l.V(2) {
				l.Infof("stub: %s %s in %v (%d bytes)", call.Procedure, errors.OK, elapsed, len(reply.Payload))
			}
			return reply, nil
		}
	})
}
