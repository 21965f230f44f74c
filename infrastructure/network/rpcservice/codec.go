package rpcservice

import (
	"github.com/blockberries/cramberry/pkg/cramberry"
	"github.com/pkg/errors"
	"google.golang.org/grpc/encoding"
)

const codecName = "cramberry"

// CramberryCodec implements grpc/encoding.Codec by serializing the
// appmessage types directly through their cramberry field tags.
type CramberryCodec struct{}

// Marshal implements encoding.Codec
func (CramberryCodec) Marshal(v any) ([]byte, error) {
	data, err := cramberry.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "cramberry marshal")
	}
	return data, nil
}

// Unmarshal implements encoding.Codec
func (CramberryCodec) Unmarshal(data []byte, v any) error {
	err := cramberry.Unmarshal(data, v)
	if err != nil {
		return errors.Wrap(err, "cramberry unmarshal")
	}
	return nil
}

// Name implements encoding.Codec
func (CramberryCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(CramberryCodec{})
}
