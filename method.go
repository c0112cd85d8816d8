package stub

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/opensraph/stub/encoding"
	"github.com/opensraph/stub/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"

	_ "github.com/opensraph/stub/encoding/protobinary" // register protobuf codec
	_ "github.com/opensraph/stub/encoding/protojson"   // register json codec
)

// Procedure returns the wire path of a method: /<service>/<method>.
func Procedure(service, method string) string {
	return "/" + service + "/" + method
}

// ParseProcedure splits a wire path into its service and method names.
func ParseProcedure(procedure string) (service, method string, ok bool) {
	rest, found := strings.CutPrefix(procedure, "/")
	if !found {
		return "", "", false
	}
	service, method, ok = strings.Cut(rest, "/")
	if !ok || service == "" || method == "" || strings.Contains(method, "/") {
		return "", "", false
	}
	return service, method, true
}

// MethodDesc describes one unary RPC: its wire path, the request type it
// accepts and the codec pair that moves Req and Resp on and off the wire.
// A MethodDesc is immutable once built.
type MethodDesc[Req, Resp any] struct {
	procedure      string
	contentSubtype string
	input          protoreflect.FullName
	output         protoreflect.FullName

	encode func(Req) ([]byte, error)
	decode func([]byte) (Resp, error)
}

// NewMethodDesc builds a descriptor from an explicit codec pair. The pair
// must be symmetric: decode(encode(x)) reproduces x.
func NewMethodDesc[Req, Resp any](
	service, method string,
	encode func(Req) ([]byte, error),
	decode func([]byte) (Resp, error),
) MethodDesc[Req, Resp] {
	if encode == nil || decode == nil {
		panic(fmt.Sprintf("stub: method %s/%s needs both an encoder and a decoder", service, method))
	}
	return MethodDesc[Req, Resp]{
		procedure:      Procedure(service, method),
		contentSubtype: encoding.CodecNameProto,
		encode:         encode,
		decode:         decode,
	}
}

// MethodOption configures NewProtoMethod.
type MethodOption func(o *methodOptions)

type methodOptions struct {
	codec encoding.Codec
}

// WithCodec selects a registered codec by name. The default is "proto".
func WithCodec(name string) MethodOption {
	return func(o *methodOptions) {
		codec := encoding.GetCodec(name)
		if codec == nil {
			panic(fmt.Sprintf("stub: codec %q not registered", name))
		}
		o.codec = codec
	}
}

// NewProtoMethod builds a descriptor for a protobuf method. schema must
// describe a unary method; newResponse returns an empty response message
// ready to be decoded into.
func NewProtoMethod[Req, Resp proto.Message](
	schema protoreflect.MethodDescriptor,
	newResponse func() Resp,
	options ...MethodOption,
) MethodDesc[Req, Resp] {
	if schema.IsStreamingClient() || schema.IsStreamingServer() {
		panic(fmt.Sprintf("stub: method %s is streaming, want unary", schema.FullName()))
	}
	o := methodOptions{codec: encoding.Registered().Protobuf()}
	for _, opt := range options {
		opt(&o)
	}
	codec := o.codec
	service := string(schema.Parent().FullName())
	return MethodDesc[Req, Resp]{
		procedure:      Procedure(service, string(schema.Name())),
		contentSubtype: codec.Name(),
		input:          schema.Input().FullName(),
		output:         schema.Output().FullName(),
		encode: func(req Req) ([]byte, error) {
			return codec.Marshal(req)
		},
		decode: func(data []byte) (Resp, error) {
			resp := newResponse()
			if err := codec.Unmarshal(data, resp); err != nil {
				var zero Resp
				return zero, err
			}
			return resp, nil
		},
	}
}

// Procedure implements Method.
func (m MethodDesc[Req, Resp]) Procedure() string {
	return m.procedure
}

// ContentSubtype is the name of the codec the payloads use.
func (m MethodDesc[Req, Resp]) ContentSubtype() string {
	return m.contentSubtype
}

func (m MethodDesc[Req, Resp]) encodeRequest(req Req) ([]byte, error) {
	if isNil(req) {
		return nil, errors.Newf("stub: %s: request is nil", m.procedure).WithCode(errors.InvalidArgument)
	}
	if m.input != "" {
		msg, ok := any(req).(proto.Message)
		if !ok || !msg.ProtoReflect().IsValid() {
			return nil, errors.Newf("stub: %s: request is nil", m.procedure).WithCode(errors.InvalidArgument)
		}
		if got := msg.ProtoReflect().Descriptor().FullName(); got != m.input {
			return nil, errors.Newf("stub: %s: request is %s, want %s", m.procedure, got, m.input).WithCode(errors.InvalidArgument)
		}
	}
	payload, err := m.encode(req)
	if err != nil {
		return nil, errors.Newf("stub: %s: encode request: %w", m.procedure, err).WithCode(errors.InvalidArgument)
	}
	return payload, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func (m MethodDesc[Req, Resp]) decodeResponse(payload []byte) (Resp, error) {
	resp, err := m.decode(payload)
	if err != nil {
		var zero Resp
		return zero, errors.Newf("stub: %s: decode response: %w", m.procedure, err).WithCode(errors.Internal)
	}
	return resp, nil
}

// Method is the type-erased view of a MethodDesc.
type Method interface {
	Procedure() string
}

// ServiceDesc groups the methods of one service.
type ServiceDesc struct {
	name       string
	procedures map[string]struct{}
}

// NewServiceDesc checks that every method belongs to the service named name
// and that no wire path repeats.
func NewServiceDesc(name string, methods ...Method) (*ServiceDesc, error) {
	if name == "" {
		return nil, errors.New("stub: service name is empty").WithCode(errors.InvalidArgument)
	}
	sd := &ServiceDesc{
		name:       name,
		procedures: make(map[string]struct{}, len(methods)),
	}
	for _, m := range methods {
		procedure := m.Procedure()
		service, _, ok := ParseProcedure(procedure)
		if !ok || service != name {
			return nil, errors.Newf("stub: %s is not a method of %s", procedure, name).WithCode(errors.InvalidArgument)
		}
		if _, dup := sd.procedures[procedure]; dup {
			return nil, errors.Newf("stub: duplicate method %s", procedure).WithCode(errors.AlreadyExists)
		}
		sd.procedures[procedure] = struct{}{}
	}
	return sd, nil
}

// Name returns the fully-qualified service name.
func (sd *ServiceDesc) Name() string {
	return sd.name
}

// Has reports whether procedure is one of the service's methods.
func (sd *ServiceDesc) Has(procedure string) bool {
	_, ok := sd.procedures[procedure]
	return ok
}

// Procedures returns the wire paths of the service's methods.
func (sd *ServiceDesc) Procedures() []string {
	out := make([]string, 0, len(sd.procedures))
	for p := range sd.procedures {
		out = append(out, p)
	}
	return out
}
