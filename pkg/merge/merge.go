// Package merge implements the field-level merge policy for manifest
// files. Protected fields keep the project's value, merge-candidate
// fields are merged one level deep with conflict markers on genuine
// divergence, and everything else is replaced by the template's value.
package merge

import (
	"github.com/iancoleman/orderedmap"
	"github.com/rs/zerolog"

	"github.com/tetherhq/tether/pkg/config"
	"github.com/tetherhq/tether/pkg/logging"
	"github.com/tetherhq/tether/pkg/manifest"
)

// Merger merges an incoming manifest document into the current one.
type Merger struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// NewMerger creates a manifest merger using the given policy
// configuration.
func NewMerger(cfg *config.Config) *Merger {
	return &Merger{
		cfg:    cfg,
		logger: logging.GetLogger("merge.manifest"),
	}
}

// Merge merges incoming manifest text into current manifest text and
// returns the merged document with conflict markup where values
// genuinely diverge. Any parse or render failure falls back to
// returning current unchanged; the failure is logged as a warning and
// never surfaces to the caller.
func (m *Merger) Merge(current, incoming []byte) []byte {
	cur, err := manifest.Parse(current)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Current manifest is unparseable, keeping it unchanged")
		return current
	}
	inc, err := manifest.Parse(incoming)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Incoming manifest is unparseable, keeping current")
		return current
	}

	merged, conflicts, err := m.mergeDocuments(cur, inc)
	if err != nil {
		m.logger.Warn().Err(err).Msg("Merge failed, keeping current manifest")
		return current
	}

	serialized, err := merged.Bytes()
	if err != nil {
		m.logger.Warn().Err(err).Msg("Failed to serialize merged manifest, keeping current")
		return current
	}

	rendered, err := RenderConflicts(string(serialized))
	if err != nil {
		m.logger.Warn().Err(err).Msg("Failed to render conflict markup, keeping current")
		return current
	}

	if conflicts > 0 {
		m.logger.Info().Int("conflicts", conflicts).Msg("Manifest merged with conflicts")
	}
	return []byte(rendered)
}

// mergeDocuments applies the per-key policy classes and returns the
// merged document plus the number of conflicts emitted.
func (m *Merger) mergeDocuments(cur, inc *manifest.Document) (*manifest.Document, int, error) {
	result := manifest.New()
	for _, k := range cur.Keys() {
		v, _ := cur.Get(k)
		result.Set(k, v)
	}

	conflictID := 0
	for _, key := range inc.Keys() {
		incValue, _ := inc.Get(key)

		switch {
		case m.cfg.IsProtectedField(key):
			// Current value wins verbatim; a key absent from the
			// current document stays absent.
			continue

		case m.cfg.IsMergeField(key):
			curValue, exists := cur.Get(key)
			if !exists {
				result.Set(key, incValue)
				continue
			}
			curObj, curOK := asObject(curValue)
			incObj, incOK := asObject(incValue)
			if !curOK || !incOK {
				// One side is not an object; treat like any other key.
				result.Set(key, incValue)
				continue
			}
			merged, n, err := m.mergeObjects(curObj, incObj, conflictID)
			if err != nil {
				return nil, 0, err
			}
			conflictID += n
			result.Set(key, *merged)

		default:
			result.Set(key, incValue)
		}
	}

	return result, conflictID, nil
}

// mergeObjects deep-merges one level of a merge-candidate field.
// Sub-keys present only in current are kept; sub-keys present only in
// incoming are added; diverging sub-keys are replaced in place by
// conflict sentinels.
func (m *Merger) mergeObjects(cur, inc *orderedmap.OrderedMap, baseID int) (*orderedmap.OrderedMap, int, error) {
	out := orderedmap.New()
	out.SetEscapeHTML(false)
	conflicts := 0

	for _, sk := range cur.Keys() {
		curValue, _ := cur.Get(sk)
		incValue, exists := inc.Get(sk)
		if !exists || !HasChanged(curValue, incValue) {
			out.Set(sk, curValue)
			continue
		}
		conflicts++
		pairs, err := EncodeConflict(baseID+conflicts, sk, curValue, incValue)
		if err != nil {
			return nil, 0, err
		}
		for _, pair := range pairs {
			out.Set(pair.Key, pair.Value)
		}
		m.logger.Debug().Str("key", sk).Msg("Conflict recorded")
	}

	for _, sk := range inc.Keys() {
		if _, exists := cur.Get(sk); !exists {
			incValue, _ := inc.Get(sk)
			out.Set(sk, incValue)
		}
	}

	return out, conflicts, nil
}
