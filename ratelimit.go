package stub

import (
	"context"

	"github.com/opensraph/stub/errors"
	"golang.org/x/time/rate"
)

// NewRateLimitInterceptor delays calls until limiter admits them. A call the
// limiter can never admit in time fails with ResourceExhausted; a call whose
// context ends while waiting fails with Canceled or DeadlineExceeded. Nothing
// reaches the Channel in either case.
func NewRateLimitInterceptor(limiter *rate.Limiter) Interceptor {
	return UnaryInterceptorFunc(func(next UnaryFunc) UnaryFunc {
		return func(ctx context.Context, call *Call) (*Reply, error) {
			if err := limiter.Wait(ctx); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, errors.FromError(ctxErr)
				}
				return nil, errors.Newf("stub: %s: rate limit: %w", call.Procedure, err).WithCode(errors.ResourceExhausted)
			}
			return next(ctx, call)
		}
	})
}
