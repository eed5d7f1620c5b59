// Package resolve maps locally assigned asset identifiers onto the canonical
// system ids of the upstream catalog. Local ids are stable strings fixed at
// build time; the catalog's ids may differ between deployments, so after the
// exact and alias lookups fail, a deterministic positional fallback by system
// type keeps the mapping reproducible.
package resolve

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/gridwatch/gridwatch-orchestrator/internal/catalog"
	"github.com/gridwatch/gridwatch-orchestrator/internal/metrics"
)

// Local asset types map onto catalog system types through a fixed vocabulary.
// Catalog-native type names pass through unchanged.
var typeVocabulary = map[string]string{
	"power_grid":   "power_grid",
	"hydro_plant":  "hydro_plant",
	"sewage_plant": "sewage_plant",
	"data_center":  "data_center",
	"substation":   "substation",
	"solar_farm":   "solar_farm",
}

var suffixPattern = regexp.MustCompile(`_(\d+)$`)

// Resolver maps local asset ids to canonical catalog ids.
type Resolver struct {
	aliases AliasMap
	log     *zap.Logger
}

// NewResolver creates a resolver with the given alias table.
func NewResolver(aliases AliasMap, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	if aliases == nil {
		aliases = AliasMap{}
	}
	return &Resolver{aliases: aliases, log: log}
}

// Resolve returns the canonical system id for a local asset id and type.
//
// Lookup order, first match wins:
//  1. exact: the local id is already a canonical id in the catalog
//  2. alias: the alias table maps the local id to a canonical id present in
//     the catalog
//  3. positional: entries of the mapped type, sorted by id; a numeric _<N>
//     suffix selects the N-th entry (1-based), anything else the first
//
// The positional fallback is best-effort: it is deterministic but only
// correct when the catalog's per-type ordering matches the local numbering.
func (r *Resolver) Resolve(localID, localType string, entries []catalog.Entry) (string, error) {
	id := strings.TrimSpace(localID)
	if id == "" {
		metrics.ResolutionsTotal.WithLabelValues("not_found").Inc()
		return "", &NotFoundError{LocalID: localID}
	}

	for _, e := range entries {
		if e.SystemID == id {
			metrics.ResolutionsTotal.WithLabelValues("exact").Inc()
			return id, nil
		}
	}

	if alias := strings.TrimSpace(r.aliases[id]); alias != "" {
		for _, e := range entries {
			if e.SystemID == alias {
				metrics.ResolutionsTotal.WithLabelValues("alias").Inc()
				r.log.Debug("resolved via alias",
					zap.String("local_id", id),
					zap.String("canonical_id", alias))
				return alias, nil
			}
		}
	}

	bucket := typeBucket(mapLocalType(localType), entries)
	if len(bucket) == 0 {
		metrics.ResolutionsTotal.WithLabelValues("not_found").Inc()
		return "", &NotFoundError{LocalID: id}
	}

	canonical := bucket[0]
	if n, ok := suffixIndex(id); ok && n <= len(bucket) {
		canonical = bucket[n-1]
	}

	metrics.ResolutionsTotal.WithLabelValues("positional").Inc()
	r.log.Debug("resolved via positional fallback",
		zap.String("local_id", id),
		zap.String("canonical_id", canonical))
	return canonical, nil
}

// mapLocalType normalizes a local asset type to a catalog system type.
func mapLocalType(localType string) string {
	t := strings.TrimSpace(localType)
	if mapped, ok := typeVocabulary[t]; ok {
		return mapped
	}
	return t
}

// typeBucket returns the canonical ids of the given catalog type, sorted
// ascending so the positional selection is stable.
func typeBucket(systemType string, entries []catalog.Entry) []string {
	var ids []string
	for _, e := range entries {
		if e.SystemType == systemType {
			ids = append(ids, e.SystemID)
		}
	}
	sort.Strings(ids)
	return ids
}

// suffixIndex extracts the trailing _<N> index of a local id. Only indices
// >= 1 count; the index is human-facing 1-based.
func suffixIndex(id string) (int, bool) {
	m := suffixPattern.FindStringSubmatch(id)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
