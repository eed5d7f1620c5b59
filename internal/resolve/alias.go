package resolve

import (
	"encoding/json"
	"strings"
)

// AliasMap maps local asset ids to canonical catalog ids. It is parsed once
// from configuration at startup.
type AliasMap map[string]string

// ParseAliasMap parses the JSON object form of the alias table. Malformed or
// empty input degrades to an empty map; it never fails, because a broken
// alias table must not take resolution down with it.
func ParseAliasMap(raw string) AliasMap {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return AliasMap{}
	}

	var parsed map[string]string
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return AliasMap{}
	}
	if parsed == nil {
		return AliasMap{}
	}
	return parsed
}
