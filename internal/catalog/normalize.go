package catalog

import (
	"encoding/json"
	"strings"
)

// Container keys upstreams are known to wrap the entry array under.
var containerKeys = []string{"systems", "data", "items"}

// normalizeCatalog parses an upstream catalog payload into Entry records.
// Accepted shapes: a top-level array, or an object with the array under one
// of the known container keys. Field names vary between deployments, so
// each field is taken from the first present variant. Entries missing an id
// or a type after normalization are dropped.
func normalizeCatalog(raw []byte) ([]Entry, error) {
	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	items := arrayCandidate(payload)
	if len(items) == 0 {
		return nil, nil
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		record, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		id := strings.TrimSpace(firstString(record, "system_id", "systemId", "id"))
		systemType := strings.TrimSpace(firstString(record, "system_type", "systemType", "type"))
		if id == "" || systemType == "" {
			continue
		}

		entries = append(entries, Entry{
			SystemID:   id,
			SystemType: systemType,
			Name:       strings.TrimSpace(firstString(record, "name", "display_name", "displayName")),
		})
	}

	return entries, nil
}

func arrayCandidate(payload interface{}) []interface{} {
	if arr, ok := payload.([]interface{}); ok {
		return arr
	}
	record, ok := payload.(map[string]interface{})
	if !ok {
		return nil
	}
	for _, key := range containerKeys {
		if arr, ok := record[key].([]interface{}); ok {
			return arr
		}
	}
	return nil
}

func firstString(record map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s, ok := record[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
