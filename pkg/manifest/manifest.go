// Package manifest reads and writes the project manifest file
// (package.json): a key-ordered JSON object whose top-level "meta"
// object carries tether's own configuration — the tracked template
// revision, the template repository URL, and the list of workspaces
// excluded from updates.
package manifest

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/iancoleman/orderedmap"

	"github.com/tetherhq/tether/pkg/errors"
	"github.com/tetherhq/tether/pkg/types"
)

// MetaKey is the top-level manifest key holding tether configuration.
const MetaKey = "meta"

const (
	metaVersionKey  = "version"
	metaTemplateKey = "template"
	metaIgnoreKey   = "ignore"
)

// Document is a key-ordered manifest document. Key order is preserved
// across parse and serialize so merge output diffs cleanly against the
// original file.
type Document struct {
	om *orderedmap.OrderedMap
}

// New returns an empty document.
func New() *Document {
	om := orderedmap.New()
	om.SetEscapeHTML(false)
	return &Document{om: om}
}

// Parse decodes a manifest from JSON text.
func Parse(data []byte) (*Document, error) {
	om := orderedmap.New()
	om.SetEscapeHTML(false)
	if err := json.Unmarshal(data, om); err != nil {
		return nil, errors.Wrap(err, errors.ErrManifestParse, "failed to parse manifest")
	}
	return &Document{om: om}, nil
}

// Load reads and parses the manifest at path.
func Load(fs types.FS, path string) (*Document, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrManifestMissing, "failed to read manifest").
			WithDetail("path", path)
	}
	return Parse(data)
}

// Save serializes the document and writes it to path.
func (d *Document) Save(fs types.FS, path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	if err := fs.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, errors.ErrManifestWrite, "failed to write manifest").
			WithDetail("path", path)
	}
	return nil
}

// Bytes serializes the document as 2-space-indented JSON with a
// trailing newline.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d.om); err != nil {
		return nil, errors.Wrap(err, errors.ErrManifestWrite, "failed to serialize manifest")
	}
	return buf.Bytes(), nil
}

// Get returns the value for key.
func (d *Document) Get(key string) (interface{}, bool) {
	return d.om.Get(key)
}

// Set sets the value for key, appending the key if new.
func (d *Document) Set(key string, value interface{}) {
	d.om.Set(key, value)
}

// Keys returns the document's keys in order.
func (d *Document) Keys() []string {
	return d.om.Keys()
}

// Underlying exposes the backing ordered map for merge operations.
func (d *Document) Underlying() *orderedmap.OrderedMap {
	return d.om
}

// Name returns the manifest's name field, or empty if absent or not a
// string.
func (d *Document) Name() string {
	return d.metaString("", "name")
}

// Version returns the tracked template revision (meta.version).
func (d *Document) Version() string {
	return d.metaString(MetaKey, metaVersionKey)
}

// TemplateURL returns the template repository URL (meta.template).
func (d *Document) TemplateURL() string {
	return d.metaString(MetaKey, metaTemplateKey)
}

// SetVersion records rev as the tracked template revision, creating
// the meta object if needed.
func (d *Document) SetVersion(rev string) {
	meta := d.metaObject()
	meta.Set(metaVersionKey, rev)
	// Stored by value to match how nested objects come out of Parse.
	d.om.Set(MetaKey, *meta)
}

// SetTemplateURL records the template repository URL in meta.
func (d *Document) SetTemplateURL(url string) {
	meta := d.metaObject()
	meta.Set(metaTemplateKey, url)
	d.om.Set(MetaKey, *meta)
}

// IgnoredWorkspaces returns the configured workspace exclusion list
// (meta.ignore) resolved against projectRoot as absolute paths. A
// leading "./" on an entry is stripped.
func (d *Document) IgnoredWorkspaces(projectRoot string) map[string]bool {
	ignored := make(map[string]bool)
	meta, ok := d.om.Get(MetaKey)
	if !ok {
		return ignored
	}
	metaMap, ok := meta.(orderedmap.OrderedMap)
	if !ok {
		return ignored
	}
	raw, ok := metaMap.Get(metaIgnoreKey)
	if !ok {
		return ignored
	}
	list, ok := raw.([]interface{})
	if !ok {
		return ignored
	}
	for _, item := range list {
		rel, ok := item.(string)
		if !ok {
			continue
		}
		rel = strings.TrimPrefix(rel, "./")
		ignored[filepath.Join(projectRoot, rel)] = true
	}
	return ignored
}

// metaObject returns a mutable copy of the meta object, or a fresh one
// if absent.
func (d *Document) metaObject() *orderedmap.OrderedMap {
	out := orderedmap.New()
	out.SetEscapeHTML(false)
	if meta, ok := d.om.Get(MetaKey); ok {
		if metaMap, ok := meta.(orderedmap.OrderedMap); ok {
			for _, k := range metaMap.Keys() {
				v, _ := metaMap.Get(k)
				out.Set(k, v)
			}
		}
	}
	return out
}

func (d *Document) metaString(objKey, key string) string {
	var container interface{} = *d.om
	if objKey != "" {
		nested, ok := d.om.Get(objKey)
		if !ok {
			return ""
		}
		container = nested
	}
	om, ok := container.(orderedmap.OrderedMap)
	if !ok {
		return ""
	}
	value, ok := om.Get(key)
	if !ok {
		return ""
	}
	s, _ := value.(string)
	return s
}
