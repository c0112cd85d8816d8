package stub

import (
	"time"

	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"
)

// CallOptions configures a single call. The zero value means "no deadline,
// channel defaults for everything else". The Stub never interprets these
// fields itself; it hands them to the Channel.
type CallOptions struct {
	// Timeout bounds the call relative to the moment it's issued.
	Timeout time.Duration
	// Deadline bounds the call absolutely. When both Timeout and Deadline are
	// set, the earlier one wins.
	Deadline time.Time
	// Credentials override the channel's per-RPC credentials for this call.
	Credentials credentials.PerRPCCredentials
	// Compressor names a registered compressor, e.g. "gzip".
	Compressor string
	// WaitForReady makes the call wait for a ready transport instead of
	// failing fast with Unavailable.
	WaitForReady bool
	// MaxResponseSize limits the encoded response; zero keeps the default.
	MaxResponseSize int

	// Header and Trailer, when set, receive the response metadata.
	Header  *metadata.MD
	Trailer *metadata.MD
}

// EffectiveDeadline folds Timeout and Deadline into one deadline.
func (o CallOptions) EffectiveDeadline(now time.Time) (time.Time, bool) {
	deadline, ok := o.Deadline, !o.Deadline.IsZero()
	if o.Timeout > 0 {
		if byTimeout := now.Add(o.Timeout); !ok || byTimeout.Before(deadline) {
			deadline, ok = byTimeout, true
		}
	}
	return deadline, ok
}
