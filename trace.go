package stub

import (
	"context"
	"time"

	"golang.org/x/net/trace"
)

// NewTraceInterceptor records every call in the golang.org/x/net/trace
// event log under the family "stub.unary", one trace per procedure.
func NewTraceInterceptor() Interceptor {
	return UnaryInterceptorFunc(func(next UnaryFunc) UnaryFunc {
		return func(ctx context.Context, call *Call) (*Reply, error) {
			tr := trace.New("stub.unary", call.Procedure)
			defer tr.Finish()

			tr.LazyPrintf("request: %d bytes, %d metadata keys", len(call.Payload), len(call.Metadata))
			if deadline, ok := call.Options.EffectiveDeadline(time.Now()); ok {
				tr.LazyPrintf("deadline: %v", time.Until(deadline))
			}

			ctx = trace.NewContext(ctx, tr)
			reply, err := next(ctx, call)
			if err != nil {
				tr.LazyPrintf("%s", err)
				tr.SetError()
				return nil, err
			}
			tr.LazyPrintf("response: %d bytes", len(reply.Payload))
			return reply, nil
		}
	})
}
