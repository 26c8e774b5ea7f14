package kv

import (
	"encoding/json"
	"fmt"
)

// Merge overlays the top-level fields of patch onto base and returns the
// combined object. Fields absent from patch keep their base value; nested
// objects are replaced, not merged.
func Merge(base, patch json.RawMessage) (json.RawMessage, error) {
	merged := make(map[string]json.RawMessage)
	if len(base) > 0 {
		if err := json.Unmarshal(base, &merged); err != nil {
			return nil, fmt.Errorf("decode base: %w", err)
		}
	}

	var overlay map[string]json.RawMessage
	if len(patch) > 0 {
		if err := json.Unmarshal(patch, &overlay); err != nil {
			return nil, fmt.Errorf("decode patch: %w", err)
		}
	}
	for k, v := range overlay {
		merged[k] = v
	}

	out, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode merged: %w", err)
	}
	return out, nil
}

// MergeInto encodes current, overlays patch, and decodes the result back
// into current.
func MergeInto(current interface{}, patch json.RawMessage) error {
	base, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("encode current: %w", err)
	}
	merged, err := Merge(base, patch)
	if err != nil {
		return err
	}
	return json.Unmarshal(merged, current)
}
