package server

import (
	"github.com/goccy/go-json"
)

// jsonCodec replaces connect's protobuf-only JSON codec so plain structs can
// be used as messages.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	return json.Unmarshal(data, msg)
}
