package widget

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"lukechampine.com/blake3"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Encode serialises d as JSON, gzip compressed when compress is set.
func Encode(d *PrecomputedData, compress bool) ([]byte, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode precomputed data: %w", err)
	}
	if !compress {
		return raw, nil
	}
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("compress precomputed data: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress precomputed data: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode, detecting compression from the payload. Unknown
// fields are ignored.
func Decode(data []byte) (*PrecomputedData, error) {
	if bytes.HasPrefix(data, gzipMagic) {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("open compressed precomputed data: %w", err)
		}
		defer func() { _ = zr.Close() }()
		if data, err = io.ReadAll(zr); err != nil {
			return nil, fmt.Errorf("inflate precomputed data: %w", err)
		}
	}
	var d PrecomputedData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decode precomputed data: %w", err)
	}
	return &d, nil
}

// Fingerprint returns the hex BLAKE3 hash of an encoded payload.
func Fingerprint(payload []byte) string {
	sum := blake3.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
