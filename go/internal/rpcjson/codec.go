// Package rpcjson lets Connect handlers and clients exchange plain Go structs as JSON.
package rpcjson

import (
	"encoding/json"

	"connectrpc.com/connect"
)

// Name replaces Connect's protobuf-JSON codec, so request types need not be generated messages.
const Name = "json"

// Codec marshals with encoding/json.
type Codec struct{}

var _ connect.Codec = Codec{}

func (Codec) Name() string { return Name }

func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Option registers the codec on a handler or client.
func Option() connect.Option {
	return connect.WithCodec(Codec{})
}
