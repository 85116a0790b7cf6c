package provider

import (
	"errors"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/voicestudio/voicestudio/internal/schema"
)

// EncodeMsgpack encodes a value to MessagePack format.
func EncodeMsgpack(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

// DecodeMsgpack decodes MessagePack data into the provided value.
func DecodeMsgpack(data []byte, v interface{}) error {
	return msgpack.Unmarshal(data, v)
}

// EncodeSynthesisRequest encodes a normalized synthesis request for the
// provider wire.
func EncodeSynthesisRequest(req *schema.SynthesisRequest) ([]byte, error) {
	if req == nil {
		return nil, errors.New("request is nil")
	}

	return EncodeMsgpack(req)
}
