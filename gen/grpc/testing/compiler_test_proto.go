// Hand-maintained equivalent of the generated messages for
// src/proto/grpc/testing/compiler_test.proto. Descriptors are built at init
// and message state is held in dynamicpb.

// Original file comments:
// Copyright 2016 gRPC authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package grpc_testing

import (
	"sync/atomic"

	"github.com/jhump/protoreflect/v2/protobuilder"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

var (
	File_src_proto_grpc_testing_compiler_test_proto protoreflect.FileDescriptor

	requestDesc  protoreflect.MessageDescriptor
	responseDesc protoreflect.MessageDescriptor
	serviceBDesc protoreflect.ServiceDescriptor

	requestType  messageType
	responseType messageType
)

func init() {
	fd, err := buildCompilerTestFile()
	if err != nil {
		panic(err)
	}
	File_src_proto_grpc_testing_compiler_test_proto = fd
	requestDesc = fd.Messages().ByName("Request")
	responseDesc = fd.Messages().ByName("Response")
	serviceBDesc = fd.Services().ByName("ServiceB")
	requestType = newMessageType(requestDesc, func() proto.Message { return new(Request) }, (*Request)(nil))
	responseType = newMessageType(responseDesc, func() proto.Message { return new(Response) }, (*Response)(nil))
}

func buildCompilerTestFile() (protoreflect.FileDescriptor, error) {
	fb := protobuilder.NewFile("src/proto/grpc/testing/compiler_test.proto")
	fb.SetPackageName("grpc.testing")
	fb.SetSyntax(protoreflect.Proto3)

	request := protobuilder.NewMessage("Request")
	request.SetComments(leading("Request leading comment 1"))
	response := protobuilder.NewMessage("Response")
	response.SetComments(leading("Response leading comment 1"))
	fb.AddMessage(request)
	fb.AddMessage(response)

	methodB1 := protobuilder.NewMethod(
		"MethodB1",
		protobuilder.RpcTypeMessage(request, false),
		protobuilder.RpcTypeMessage(response, false),
	)
	methodB1.SetComments(leading("MethodB1 leading comment 1"))
	serviceB := protobuilder.NewService("ServiceB")
	serviceB.SetComments(leading("ServiceB leading comment 1"))
	serviceB.AddMethod(methodB1)
	fb.AddService(serviceB)

	return fb.Build()
}

func leading(text string) protobuilder.Comments {
	return protobuilder.Comments{LeadingComment: " " + text + "\n"}
}

// Request leading comment 1
//
// The zero value is an empty Request.
type Request struct {
	msg atomic.Pointer[dynamicpb.Message]
}

func (x *Request) ProtoReflect() protoreflect.Message {
	if x == nil {
		return requestType.wrap(requestType.zero, x)
	}
	return requestType.wrap(lazyMessage(&x.msg, requestDesc), x)
}

func (x *Request) String() string {
	return prototext.Format(x)
}

// Response leading comment 1
//
// The zero value is an empty Response.
type Response struct {
	msg atomic.Pointer[dynamicpb.Message]
}

func (x *Response) ProtoReflect() protoreflect.Message {
	if x == nil {
		return responseType.wrap(responseType.zero, x)
	}
	return responseType.wrap(lazyMessage(&x.msg, responseDesc), x)
}

func (x *Response) String() string {
	return prototext.Format(x)
}

var (
	_ proto.Message = (*Request)(nil)
	_ proto.Message = (*Response)(nil)
)

func lazyMessage(p *atomic.Pointer[dynamicpb.Message], desc protoreflect.MessageDescriptor) *dynamicpb.Message {
	if m := p.Load(); m != nil {
		return m
	}
	p.CompareAndSwap(nil, dynamicpb.NewMessage(desc))
	return p.Load()
}

// messageType is the protoreflect.MessageType of Request and Response.
type messageType struct {
	desc        protoreflect.MessageDescriptor
	newMessage  func() proto.Message
	zeroMessage proto.Message
	// zero is the read-only dynamic state behind a nil message.
	zero *dynamicpb.Message
}

func newMessageType(desc protoreflect.MessageDescriptor, newMessage func() proto.Message, zeroMessage proto.Message) messageType {
	return messageType{
		desc:        desc,
		newMessage:  newMessage,
		zeroMessage: zeroMessage,
		zero:        dynamicpb.NewMessageType(desc).Zero().(*dynamicpb.Message),
	}
}

func (t messageType) New() protoreflect.Message {
	return t.newMessage().ProtoReflect()
}

func (t messageType) Zero() protoreflect.Message {
	return t.zeroMessage.ProtoReflect()
}

func (t messageType) Descriptor() protoreflect.MessageDescriptor {
	return t.desc
}

func (t messageType) wrap(m *dynamicpb.Message, self proto.Message) protoreflect.Message {
	return reflectMessage{Message: m, self: self, typ: t}
}

// reflectMessage exposes the dynamic state of a Request or Response while
// reporting the concrete message as its Interface, so proto.Clone and
// proto.Merge hand back *Request and *Response.
type reflectMessage struct {
	*dynamicpb.Message
	self proto.Message
	typ  messageType
}

func (m reflectMessage) Interface() protoreflect.ProtoMessage {
	return m.self
}

func (m reflectMessage) New() protoreflect.Message {
	return m.typ.New()
}

func (m reflectMessage) Type() protoreflect.MessageType {
	return m.typ
}
