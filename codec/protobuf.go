package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Protobuf serializes proto.Message values. Encode fails when handed a value
// that is not a proto.Message; Decode materializes through the constructor
// (e.g. func() proto.Message { return &mypb.User{} }).
type Protobuf struct {
	new func() proto.Message
}

func NewProtobuf(ctor func() proto.Message) Protobuf {
	return Protobuf{new: ctor}
}

func (c Protobuf) Encode(v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("codec: %T is not a proto.Message", v)
	}
	return proto.Marshal(m)
}

func (c Protobuf) Decode(b []byte) (any, error) {
	m := c.new()
	err := proto.Unmarshal(b, m)
	return m, err
}
