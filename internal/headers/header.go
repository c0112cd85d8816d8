// Package headers holds the gRPC metadata keys and the encoding rules the
// protocol applies to them.
package headers

import (
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/grpc/metadata"
)

// Metadata keys are always lower-case on the wire.
const (
	HeaderContentType = "content-type"
	HeaderUserAgent   = "user-agent"
	HeaderTE          = "te"
	HeaderAuthority   = ":authority"
)

const (
	GRPCHeaderCompression       = "grpc-encoding"
	GRPCHeaderAcceptCompression = "grpc-accept-encoding"
	GRPCHeaderTimeout           = "grpc-timeout"
	GRPCHeaderStatus            = "grpc-status"
	GRPCHeaderMessage           = "grpc-message"
	GRPCHeaderDetails           = "grpc-status-details-bin"
)

const binarySuffix = "-bin"

//nolint:gochecknoglobals
var ProtocolHeaders = map[string]struct{}{
	HeaderContentType: {},
	HeaderUserAgent:   {},
	HeaderTE:          {},
	// gRPC headers.
	GRPCHeaderCompression:       {},
	GRPCHeaderAcceptCompression: {},
	GRPCHeaderTimeout:           {},
	GRPCHeaderStatus:            {},
	GRPCHeaderMessage:           {},
	GRPCHeaderDetails:           {},
}

// IsReservedKey reports whether key, in any case, is owned by the transport.
// Pseudo-headers and the grpc- prefix are reserved by the gRPC HTTP/2
// mapping, as are content-type and te. user-agent is not: the transport
// sends its own value in its place.
func IsReservedKey(key string) bool {
	key = strings.ToLower(key)
	if strings.HasPrefix(key, ":") || strings.HasPrefix(key, "grpc-") {
		return true
	}
	return key == HeaderContentType || key == HeaderTE
}

// IsBinaryKey reports whether values under key carry raw bytes.
func IsBinaryKey(key string) bool {
	return strings.HasSuffix(strings.ToLower(key), binarySuffix)
}

// ValidateKey checks key against the gRPC metadata grammar: lower-case ASCII
// letters, digits, and the characters "-", "_" and ".".
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("metadata key is empty")
	}
	for i := range len(key) {
		switch c := key[i]; {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.':
		default:
			return fmt.Errorf("metadata key %q contains illegal character %q", key, c)
		}
	}
	return nil
}

// EncodeBinaryHeader base64-encodes the data. It always emits unpadded values.
//
// Binary metadata must have keys ending in "-bin".
func EncodeBinaryHeader(data []byte) string {
	// gRPC specification says that implementations should emit unpadded values.
	return base64.RawStdEncoding.EncodeToString(data)
}

// DecodeBinaryHeader base64-decodes the data. It can decode padded or unpadded
// values. Multiple base64-encoded values may be joined with a comma; split
// them with [strings.Split] before calling DecodeBinaryHeader.
func DecodeBinaryHeader(data string) ([]byte, error) {
	if len(data)%4 != 0 {
		// Data definitely isn't padded.
		return base64.RawStdEncoding.DecodeString(data)
	}
	// Either the data was padded, or padding wasn't necessary. In both cases,
	// the padding-aware decoder works.
	return base64.StdEncoding.DecodeString(data)
}

// MergeMetadata appends every non-empty entry of from to into, under its
// lower-case key.
func MergeMetadata(into, from metadata.MD) {
	for key, vals := range from {
		if len(vals) == 0 {
			continue
		}
		key = strings.ToLower(key)
		into[key] = append(into[key], vals...)
	}
}

// MergeNonProtocolMetadata is MergeMetadata without the keys listed in
// ProtocolHeaders.
func MergeNonProtocolMetadata(into, from metadata.MD) {
	for key, vals := range from {
		if len(vals) == 0 {
			continue
		}
		if _, isProtocolHeader := ProtocolHeaders[key]; !isProtocolHeader {
			into[key] = append(into[key], vals...)
		}
	}
}

// First returns the first value stored under the lower-case key.
func First(md metadata.MD, key string) string {
	if md == nil {
		return ""
	}
	v := md[key]
	if len(v) == 0 {
		return ""
	}
	return v[0]
}
