package merge

import (
	"encoding/json"

	"github.com/iancoleman/orderedmap"
)

// HasChanged reports whether two JSON-compatible values differ under
// recursive structural equality. Object comparison is insensitive to
// key order; values of different JSON types always differ (a string
// "123" is not the number 123, and null is not absence).
func HasChanged(a, b interface{}) bool {
	return !structurallyEqual(a, b)
}

func structurallyEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if aObj, ok := asObject(a); ok {
		bObj, ok := asObject(b)
		if !ok {
			return false
		}
		return objectsEqual(aObj, bObj)
	}

	if aArr, ok := a.([]interface{}); ok {
		bArr, ok := b.([]interface{})
		if !ok || len(aArr) != len(bArr) {
			return false
		}
		for i := range aArr {
			if !structurallyEqual(aArr[i], bArr[i]) {
				return false
			}
		}
		return true
	}

	if aNum, ok := asNumber(a); ok {
		bNum, ok := asNumber(b)
		return ok && aNum == bNum
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return false
}

func objectsEqual(a, b *orderedmap.OrderedMap) bool {
	aKeys := a.Keys()
	if len(aKeys) != len(b.Keys()) {
		return false
	}
	for _, k := range aKeys {
		av, _ := a.Get(k)
		bv, ok := b.Get(k)
		if !ok || !structurallyEqual(av, bv) {
			return false
		}
	}
	return true
}

// asObject normalizes the object representations that show up in a
// parsed document: ordered maps (by value or pointer) and plain maps
// from hand-built test fixtures.
func asObject(v interface{}) (*orderedmap.OrderedMap, bool) {
	switch obj := v.(type) {
	case orderedmap.OrderedMap:
		return &obj, true
	case *orderedmap.OrderedMap:
		return obj, true
	case map[string]interface{}:
		om := orderedmap.New()
		for k, val := range obj {
			om.Set(k, val)
		}
		return om, true
	}
	return nil, false
}

func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
