package localstore

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Stored value encodings.
const (
	EncodingJSON     = "json"
	EncodingJSONZstd = "json+zstd"
)

type zstdCodec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newZstdCodec() (*zstdCodec, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &zstdCodec{enc: enc, dec: dec}, nil
}

func (c *zstdCodec) encode(raw []byte, compress bool) ([]byte, string) {
	if !compress {
		return raw, EncodingJSON
	}
	return c.enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), EncodingJSONZstd
}

func (c *zstdCodec) decode(value []byte, encoding string) ([]byte, error) {
	switch encoding {
	case EncodingJSON, "":
		return value, nil
	case EncodingJSONZstd:
		out, err := c.dec.DecodeAll(value, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBlob, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown encoding %q", ErrInvalidBlob, encoding)
	}
}

func (c *zstdCodec) close() {
	c.dec.Close()
	_ = c.enc.Close()
}
