package sqliteconn

import (
	"bytes"
	"encoding/gob"
	"errors"

	"github.com/fxamacker/cbor/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/ugorji/go/codec"
	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/protobuf/proto"
)

// ErrNotProtoMessage is returned by ProtoCodec for values that are not
// protobuf messages.
var ErrNotProtoMessage = errors.New("value does not implement proto.Message")

// Codec encodes values bound as Serializable and decodes them back in
// Results.GetObject.
type Codec interface {
	// Marshal converts a Go value to a byte slice.
	Marshal(v any) ([]byte, error)

	// Unmarshal converts a byte slice back to a Go value.
	// The provided value must be a pointer to the target type.
	Unmarshal(data []byte, v any) error
}

// MsgpackCodec implements Codec using MessagePack. It is the default.
type MsgpackCodec struct{}

// Marshal encodes v as MessagePack.
func (MsgpackCodec) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal decodes MessagePack data into v.
func (MsgpackCodec) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

// JSONCodec implements Codec using json-iterator in standard-library
// compatible mode.
type JSONCodec struct{}

// Marshal encodes v as JSON.
func (JSONCodec) Marshal(v any) ([]byte, error) {
	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
}

// Unmarshal decodes JSON data into v.
func (JSONCodec) Unmarshal(data []byte, v any) error {
	return jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, v)
}

// CBORCodec implements Codec using CBOR (RFC 8949).
type CBORCodec struct{}

// Marshal encodes v as CBOR.
func (CBORCodec) Marshal(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func (CBORCodec) Unmarshal(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}

// BincCodec implements Codec using the Binc format.
type BincCodec struct{}

// Marshal encodes v as Binc.
func (BincCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	err := codec.NewEncoder(&buf, new(codec.BincHandle)).Encode(v)
	return buf.Bytes(), err
}

// Unmarshal decodes Binc data into v.
func (BincCodec) Unmarshal(data []byte, v any) error {
	return codec.NewDecoderBytes(data, new(codec.BincHandle)).Decode(v)
}

// GobCodec implements Codec using encoding/gob.
type GobCodec struct{}

// Marshal encodes v as a gob stream.
func (GobCodec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(v)
	return buf.Bytes(), err
}

// Unmarshal decodes a gob stream into v.
func (GobCodec) Unmarshal(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// ProtoCodec implements Codec for protobuf messages only.
type ProtoCodec struct{}

// Marshal encodes v, which must be a proto.Message.
func (ProtoCodec) Marshal(v any) ([]byte, error) {
	msg, ok := v.(proto.Message)
	if !ok {
		return nil, ErrNotProtoMessage
	}
	return proto.Marshal(msg)
}

// Unmarshal decodes data into v, which must be a proto.Message.
func (ProtoCodec) Unmarshal(data []byte, v any) error {
	msg, ok := v.(proto.Message)
	if !ok {
		return ErrNotProtoMessage
	}
	return proto.Unmarshal(data, msg)
}
