package library

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// ErrCorruptSnapshot is returned when a stored collection cannot be decoded.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

var snapshotJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// saveSnapshot writes v to key as one JSON document.
func saveSnapshot(kv KV, key string, v any) error {
	data, err := snapshotJSON.MarshalToString(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := kv.Set(key, data); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

// loadSnapshot decodes key into v. A missing key leaves v untouched and
// returns found=false.
func loadSnapshot(kv KV, key string, v any) (bool, error) {
	data, found, err := kv.Get(key)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if !found {
		return false, nil
	}
	if err := snapshotJSON.UnmarshalFromString(data, v); err != nil {
		return true, fmt.Errorf("%w: %s: %v", ErrCorruptSnapshot, key, err)
	}
	return true, nil
}
