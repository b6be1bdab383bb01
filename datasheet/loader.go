package datasheet

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/theoremus-urban-solutions/hkbus-eta/config"
)

// ErrEmptyData is returned when the data sheet has no routes or no stops.
var ErrEmptyData = errors.New("datasheet: no routes or stops")

var gzipMagic = []byte{0x1f, 0x8b}

// NewIndexFromBytes parses a data sheet, gzip compressed or plain JSON. The
// payload is either a container ({"dataSheet": ..., "mtrBusStopAlias": ...})
// or a bare data sheet.
func NewIndexFromBytes(data []byte) (*Index, error) {
	c, err := DecodeContainer(data)
	if err != nil {
		return nil, err
	}
	return NewIndex(*c), nil
}

// NewIndexFromReader reads the whole of r and parses it.
func NewIndexFromReader(r io.Reader) (*Index, error) {
	data, err := readMaybeGzip(r)
	if err != nil {
		return nil, err
	}
	return NewIndexFromBytes(data)
}

// NewIndexFromFile parses the data sheet stored at path.
func NewIndexFromFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open data sheet: %w", err)
	}
	defer func() { _ = f.Close() }()
	return NewIndexFromReader(f)
}

// NewIndexFromConfig loads the data sheet described by cfg. A readable gob
// cache at cfg.CachePath wins over the source; after a source load the cache
// is refreshed.
func NewIndexFromConfig(ctx context.Context, cfg config.DataSheetConfig) (*Index, error) {
	if cfg.CachePath != "" {
		if c, err := DeserializeContainerFromFile(cfg.CachePath); err == nil {
			slog.Info("data sheet loaded from cache", "path", cfg.CachePath, "routes", len(c.DataSheet.RouteList))
			return NewIndex(*c), nil
		} else if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("ignoring unreadable data sheet cache", "path", cfg.CachePath, "err", err)
		}
	}

	return NewIndexFromSource(ctx, cfg)
}

// NewIndexFromSource loads the data sheet from cfg.Path or cfg.URL, ignoring
// any cache, and then rewrites the cache.
func NewIndexFromSource(ctx context.Context, cfg config.DataSheetConfig) (*Index, error) {
	src := cfg.Path
	if src == "" {
		src = cfg.URL
	}
	data, err := NewFetcher(cfg.TimeoutMS).Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	c, err := DecodeContainer(data)
	if err != nil {
		return nil, err
	}
	slog.Info("data sheet loaded", "source", src, "routes", len(c.DataSheet.RouteList), "stops", len(c.DataSheet.StopList))

	if cfg.CachePath != "" {
		if err := SerializeContainerToFile(c, cfg.CachePath); err != nil {
			slog.Warn("failed to write data sheet cache", "path", cfg.CachePath, "err", err)
		}
	}
	return NewIndex(*c), nil
}

// DecodeContainer parses data into a Container and records the route order.
func DecodeContainer(data []byte) (*Container, error) {
	data, err := readMaybeGzip(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("decode data sheet: %w", err)
	}

	var c Container
	sheetRaw := data
	if raw, ok := top["dataSheet"]; ok {
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode data container: %w", err)
		}
		sheetRaw = raw
	} else if err := json.Unmarshal(data, &c.DataSheet); err != nil {
		return nil, fmt.Errorf("decode data sheet: %w", err)
	}

	if len(c.DataSheet.RouteList) == 0 || len(c.DataSheet.StopList) == 0 {
		return nil, ErrEmptyData
	}

	var sheetTop map[string]json.RawMessage
	if err := json.Unmarshal(sheetRaw, &sheetTop); err != nil {
		return nil, fmt.Errorf("decode data sheet: %w", err)
	}
	order, err := objectKeys(sheetTop["routeList"])
	if err != nil {
		return nil, fmt.Errorf("read route order: %w", err)
	}
	c.RouteOrder = order
	return &c, nil
}

// objectKeys returns the keys of a JSON object in document order.
func objectKeys(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil {
		return nil, err
	} else if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected key, got %v", tok)
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

func readMaybeGzip(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read data sheet: %w", err)
	}
	if !bytes.Equal(head, gzipMagic) {
		return io.ReadAll(br)
	}
	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("open gzip data sheet: %w", err)
	}
	defer func() { _ = zr.Close() }()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflate data sheet: %w", err)
	}
	return data, nil
}
