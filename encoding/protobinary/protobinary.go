// Package protobinary registers the protobuf binary codec, the default
// encoding of gRPC payloads.
package protobinary

import (
	"fmt"

	"github.com/opensraph/stub/encoding"
	"google.golang.org/protobuf/proto"
)

const Name = encoding.CodecNameProto

func init() {
	encoding.RegisterCodec(&protoBinary{})
}

var _ encoding.Codec = (*protoBinary)(nil)

type protoBinary struct{}

// Marshal implements encoding.Codec.
func (c *protoBinary) Marshal(v any) ([]byte, error) {
	vv := encoding.MessageV2Of(v)
	if vv == nil {
		return nil, fmt.Errorf("proto: failed to marshal, message is %T, want proto.Message", v)
	}
	return proto.Marshal(vv)
}

// Unmarshal implements encoding.Codec.
func (c *protoBinary) Unmarshal(data []byte, v any) error {
	vv := encoding.MessageV2Of(v)
	if vv == nil {
		return fmt.Errorf("proto: failed to unmarshal, message is %T, want proto.Message", v)
	}
	return proto.Unmarshal(data, vv)
}

// Name implements encoding.Codec.
func (c *protoBinary) Name() string {
	return Name
}
