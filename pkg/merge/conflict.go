package merge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tetherhq/tether/pkg/errors"
)

// Sentinel keys carry conflicts through the manifest's ordinary JSON
// serialization. Each conflict becomes five key/value pairs inserted
// in place of the diverged key, so relative ordering with neighboring
// keys survives. The "#" prefix keeps the namespace disjoint from
// legitimate manifest keys, and the zero-padded id keeps each
// conflict's sentinels adjacent and unambiguous.
const markerPrefix = "#conflict#"

const (
	partStart    = "start"
	partCurrent  = "current"
	partMid      = "mid"
	partTemplate = "template"
	partEnd      = "end"
)

// Conflict markup delimiters, matching the visual convention of
// version-control merge conflicts.
const (
	conflictOpen  = "<<<<<<< Local Package"
	conflictMid   = "======="
	conflictClose = ">>>>>>> Template"

	templateAnnotation = " // from template"
)

// MarkerPair is one sentinel key/value pair.
type MarkerPair struct {
	Key   string
	Value interface{}
}

// EncodeConflict produces the five sentinel pairs representing a
// divergence on key: start, the current value, mid, the incoming
// template value, end. Values are stored as compact JSON strings so
// each sentinel occupies exactly one line in indented serialization.
func EncodeConflict(id int, key string, currentValue, incomingValue interface{}) ([]MarkerPair, error) {
	currentJSON, err := compactJSON(currentValue)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrMergeConflictMarkup, "failed to encode current value for %q", key)
	}
	incomingJSON, err := compactJSON(incomingValue)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrMergeConflictMarkup, "failed to encode incoming value for %q", key)
	}
	return []MarkerPair{
		{Key: markerKey(id, partStart, ""), Value: ""},
		{Key: markerKey(id, partCurrent, key), Value: currentJSON},
		{Key: markerKey(id, partMid, ""), Value: ""},
		{Key: markerKey(id, partTemplate, key), Value: incomingJSON},
		{Key: markerKey(id, partEnd, ""), Value: ""},
	}, nil
}

func markerKey(id int, part, origKey string) string {
	if origKey == "" {
		return fmt.Sprintf("%s%03d#%s", markerPrefix, id, part)
	}
	return fmt.Sprintf("%s%03d#%s#%s", markerPrefix, id, part, origKey)
}

func compactJSON(value interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// RenderConflicts rewrites sentinel-marker lines in serialized
// manifest text into human-style merge-conflict markup. Lines without
// markers pass through unchanged. Malformed marker structure
// (unmatched or out-of-order sentinels) is an error; callers fall back
// to the unmerged document.
func RenderConflicts(serialized string) (string, error) {
	lines := strings.Split(serialized, "\n")
	var out []string
	inConflict := false

	for i, line := range lines {
		part, origKey, ok := parseMarkerLine(line)
		if !ok {
			out = append(out, line)
			continue
		}

		switch part {
		case partStart:
			if inConflict {
				return "", errors.New(errors.ErrMergeConflictMarkup, "nested conflict start marker")
			}
			inConflict = true
			out = append(out, conflictOpen)
		case partCurrent, partTemplate:
			if !inConflict {
				return "", errors.Newf(errors.ErrMergeConflictMarkup, "%s marker outside conflict", part)
			}
			rendered, err := renderValueLine(line, origKey, needsComma(lines, i))
			if err != nil {
				return "", err
			}
			if part == partTemplate {
				rendered += templateAnnotation
			}
			out = append(out, rendered)
		case partMid:
			if !inConflict {
				return "", errors.New(errors.ErrMergeConflictMarkup, "mid marker outside conflict")
			}
			out = append(out, conflictMid)
		case partEnd:
			if !inConflict {
				return "", errors.New(errors.ErrMergeConflictMarkup, "unmatched conflict end marker")
			}
			inConflict = false
			out = append(out, conflictClose)
		}
	}

	if inConflict {
		return "", errors.New(errors.ErrMergeConflictMarkup, "unmatched conflict start marker")
	}
	return strings.Join(out, "\n"), nil
}

// parseMarkerLine recognizes a serialized sentinel line and returns
// its part name and, for value-carrying parts, the original key.
func parseMarkerLine(line string) (part, origKey string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, `"`+markerPrefix) {
		return "", "", false
	}
	end := strings.Index(trimmed[1:], `"`)
	if end < 0 {
		return "", "", false
	}
	key := trimmed[1 : 1+end]
	// #conflict#<id>#<part>[#<origkey>]
	fields := strings.SplitN(key, "#", 5)
	if len(fields) < 4 {
		return "", "", false
	}
	part = fields[3]
	if len(fields) == 5 {
		origKey = fields[4]
	}
	return part, origKey, true
}

// renderValueLine turns a current/template sentinel line back into the
// original key with its compact value, keeping the line's indentation.
func renderValueLine(line, origKey string, comma bool) (string, error) {
	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	sep := strings.Index(line, `": `)
	if sep < 0 {
		return "", errors.New(errors.ErrMergeConflictMarkup, "malformed marker value line")
	}
	token := strings.TrimSuffix(strings.TrimSpace(line[sep+3:]), ",")
	var compact string
	if err := json.Unmarshal([]byte(token), &compact); err != nil {
		return "", errors.Wrap(err, errors.ErrMergeConflictMarkup, "malformed marker value")
	}
	rendered := fmt.Sprintf("%s%q: %s", indent, origKey, compact)
	if comma {
		rendered += ","
	}
	return rendered, nil
}

// needsComma looks ahead past the remaining marker lines of the
// current conflict to the next structurally significant line: a
// closing brace or bracket means the resolved value will be the last
// entry, so no trailing separator.
func needsComma(lines []string, from int) bool {
	for i := from + 1; i < len(lines); i++ {
		if _, _, ok := parseMarkerLine(lines[i]); ok {
			continue
		}
		next := strings.TrimSpace(lines[i])
		if next == "" {
			continue
		}
		return next[0] != '}' && next[0] != ']'
	}
	return false
}
