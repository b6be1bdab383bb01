package datasheet

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// SerializeContainer encodes a Container to bytes using gob encoding.
// This is useful for disk-based caching to avoid re-parsing the JSON data sheet.
//
// Example:
//
//	c, _ := datasheet.DecodeContainer(raw)
//	data, err := datasheet.SerializeContainer(c)
//	if err != nil {
//	    // handle error
//	}
//	os.WriteFile("/path/to/cache/datasheet.gob", data, 0644)
func SerializeContainer(c *Container) ([]byte, error) {
	var buf bytes.Buffer
	if err := SerializeContainerToWriter(c, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeserializeContainer decodes a Container from bytes using gob encoding.
//
// Example:
//
//	data, _ := os.ReadFile("/path/to/cache/datasheet.gob")
//	c, err := datasheet.DeserializeContainer(data)
//	if err != nil {
//	    // Cache is corrupted or invalid, fetch fresh data
//	}
//	index := datasheet.NewIndex(*c)
func DeserializeContainer(data []byte) (*Container, error) {
	return DeserializeContainerFromReader(bytes.NewReader(data))
}

// SerializeContainerToFile writes a Container to a file using gob encoding,
// creating the parent directory if needed.
func SerializeContainerToFile(c *Container, path string) error {
	data, err := SerializeContainer(c)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create cache dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

// DeserializeContainerFromFile reads a Container from a gob file. A missing
// file yields an error wrapping os.ErrNotExist.
func DeserializeContainerFromFile(path string) (*Container, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	return DeserializeContainer(data)
}

// SerializeContainerToWriter writes a Container to an io.Writer using gob encoding.
func SerializeContainerToWriter(c *Container, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("failed to encode Container: %w", err)
	}
	return nil
}

// DeserializeContainerFromReader reads a Container from an io.Reader using gob encoding.
func DeserializeContainerFromReader(r io.Reader) (*Container, error) {
	var c Container
	if err := gob.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode Container: %w", err)
	}
	return &c, nil
}
