package encoding

import (
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/protoadapt"
)

const (
	CodecNameProto           = "proto"
	CodecNameJSON            = "json"
	CodecNameJSONCharsetUTF8 = CodecNameJSON + "; charset=utf-8"
)

// Codec converts between a message and its wire bytes. Implementations must
// be safe for concurrent use, and Unmarshal(Marshal(v)) must reproduce v.
type Codec interface {
	// Marshal returns the wire format of v.
	Marshal(v any) ([]byte, error)
	// Unmarshal parses the wire format into v. The codec must not retain
	// data after it returns.
	Unmarshal(data []byte, v any) error
	// Name returns the name of the Codec implementation. It's sent as the
	// content-subtype, so it must be static.
	Name() string
}

var registeredCodecs = make(ReadOnlyCodecs)

// RegisterCodec registers the provided Codec for use by method descriptors.
//
// The Codec is stored and looked up by the lower-cased result of its Name()
// method. If Name() is empty, RegisterCodec panics.
//
// NOTE: this function must only be called during initialization time (i.e. in
// an init() function), and is not thread-safe.  If multiple Codecs are
// registered with the same name, the one registered last will take effect.
func RegisterCodec(codec Codec) {
	if codec == nil {
		panic("cannot register a nil Codec")
	}
	if codec.Name() == "" {
		panic("cannot register Codec with empty string result for Name()")
	}
	contentSubtype := strings.ToLower(codec.Name())
	registeredCodecs[contentSubtype] = codec
}

type ReadOnlyCodecs map[string]Codec

func (m ReadOnlyCodecs) Get(name string) Codec {
	return m[strings.ToLower(name)]
}

func (m ReadOnlyCodecs) Protobuf() Codec {
	if pb, ok := m[CodecNameProto]; ok {
		return pb
	}

	panic("protobuf codec not registered")
}

func (m ReadOnlyCodecs) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	return names
}

// Registered returns the codecs registered so far.
func Registered() ReadOnlyCodecs {
	return registeredCodecs
}

// GetCodec gets a registered Codec by content-subtype, or nil if no Codec is
// registered for the content-subtype.
func GetCodec(contentSubtype string) Codec {
	return registeredCodecs.Get(contentSubtype)
}

func MessageV2Of(v any) proto.Message {
	switch v := v.(type) {
	case protoadapt.MessageV2:
		return v
	case protoadapt.MessageV1:
		return protoadapt.MessageV2Of(v)
	}

	return nil
}
