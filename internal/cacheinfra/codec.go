package cacheinfra

import "github.com/vmihailenco/msgpack/v5"

// Codec turns cached values into bytes and back. Entries are stored
// encoded so a value handed out by Get never aliases cached state.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

type msgpackCodec struct{}

// MsgpackCodec returns the default codec.
func MsgpackCodec() Codec {
	return msgpackCodec{}
}

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
