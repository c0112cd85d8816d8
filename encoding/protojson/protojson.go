// Package protojson registers the protobuf JSON codec under the "json"
// content-subtype.
package protojson

import (
	"fmt"

	"github.com/opensraph/stub/encoding"
	"google.golang.org/protobuf/encoding/protojson"
)

const CodecNameJSON = encoding.CodecNameJSON
const CodecNameJSONCharsetUTF8 = encoding.CodecNameJSONCharsetUTF8

func init() {
	encoding.RegisterCodec(&protoJSON{CodecNameJSON})
	encoding.RegisterCodec(&protoJSON{CodecNameJSONCharsetUTF8})
}

var _ encoding.Codec = (*protoJSON)(nil)

type protoJSON struct {
	name string
}

// Marshal implements encoding.Codec.
func (c *protoJSON) Marshal(v any) ([]byte, error) {
	vv := encoding.MessageV2Of(v)
	if vv == nil {
		return nil, fmt.Errorf("protojson: failed to marshal, message is %T, want proto.Message", v)
	}
	return protojson.Marshal(vv)
}

// Unmarshal implements encoding.Codec.
func (c *protoJSON) Unmarshal(data []byte, v any) error {
	vv := encoding.MessageV2Of(v)
	if vv == nil {
		return fmt.Errorf("protojson: failed to unmarshal, message is %T, want proto.Message", v)
	}
	return protojson.Unmarshal(data, vv)
}

func (c *protoJSON) Name() string {
	return c.name
}
