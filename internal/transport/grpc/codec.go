package grpc

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// codecName — content-subtype: application/grpc+json.
const codecName = "json"

// jsonCodec — кодек сообщений CommentsService. Контракт описан Go-структурами
// (messages.go), поэтому protobuf-кодек не используется.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}

	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
