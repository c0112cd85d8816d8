package stub

import (
	"context"
)

// UnaryFunc is the generic signature of a unary call from the client's
// perspective. Interceptors wrap UnaryFuncs.
type UnaryFunc func(ctx context.Context, call *Call) (*Reply, error)

// An Interceptor adds logic to a Stub, like the decorators or middleware you
// may have seen in other libraries. Interceptors may replace the context,
// inspect or rewrite calls and replies, handle errors, emit logs and
// traces, or do nearly anything else. They run after the request is encoded
// and before the response is decoded.
//
// The returned functions must be safe to call concurrently.
type Interceptor interface {
	WrapUnary(next UnaryFunc) UnaryFunc
}

// UnaryInterceptorFunc is a simple Interceptor implementation.
type UnaryInterceptorFunc func(next UnaryFunc) UnaryFunc

// WrapUnary implements Interceptor.
func (f UnaryInterceptorFunc) WrapUnary(next UnaryFunc) UnaryFunc {
	return f(next)
}

// Chain composes interceptors so that the first one acts first.
func Chain(interceptors ...Interceptor) Interceptor {
	// We usually wrap in reverse order to have the first interceptor from
	// the slice act first. Rather than doing this dance repeatedly, reverse the
	// interceptor order now.
	var chain chain
	for i := len(interceptors) - 1; i >= 0; i-- {
		if interceptor := interceptors[i]; interceptor != nil {
			chain.interceptors = append(chain.interceptors, interceptor)
		}
	}
	return &chain
}

// A chain composes multiple interceptors into one.
type chain struct {
	interceptors []Interceptor
}

func (c *chain) WrapUnary(next UnaryFunc) UnaryFunc {
	for _, interceptor := range c.interceptors {
		next = interceptor.WrapUnary(next)
	}
	return next
}
