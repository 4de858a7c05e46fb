package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// mapKeyKind discriminates the four MapKey-representable value kinds.
type mapKeyKind int

const (
	mapKeyNumber mapKeyKind = iota
	mapKeyBoolean
	mapKeyString
	mapKeyTuple
)

// MapKey is the restricted, comparable key type spec.md §3 requires: only
// Number (compared by IEEE-754 bit pattern, so NaN is self-equal as a
// key), Boolean, String, and Tuple-of-MapKeys may key a Map. All fields
// are primitive so MapKey itself satisfies Go's `comparable` constraint,
// letting it key github.com/wk8/go-ordered-map/v2 directly.
type MapKey struct {
	kind mapKeyKind
	bits uint64
	b    bool
	s    string
}

// raw renders a MapKey into a self-delimiting string used only to build a
// parent TupleKey's composite encoding; it never leaves this file.
func (k MapKey) raw() string {
	switch k.kind {
	case mapKeyNumber:
		return "n" + strconv.FormatUint(k.bits, 36)
	case mapKeyBoolean:
		if k.b {
			return "bt"
		}
		return "bf"
	case mapKeyString:
		return "s" + strconv.Itoa(len(k.s)) + ":" + k.s
	case mapKeyTuple:
		return "t" + strconv.Itoa(len(k.s)) + ":" + k.s
	}
	return ""
}

// NewMapKey converts a Value into a MapKey, failing for List, Map,
// Function, Regex, Stream, Module, and Nil — the kinds spec.md §3
// explicitly excludes from MapKey.
func NewMapKey(v Value) (MapKey, error) {
	switch x := v.(type) {
	case Number:
		return MapKey{kind: mapKeyNumber, bits: math.Float64bits(float64(x))}, nil
	case Boolean:
		return MapKey{kind: mapKeyBoolean, b: bool(x)}, nil
	case String:
		return MapKey{kind: mapKeyString, s: string(x)}, nil
	case *Tuple:
		var sb strings.Builder
		for _, el := range x.Elements {
			ek, err := NewMapKey(el)
			if err != nil {
				return MapKey{}, err
			}
			sb.WriteString(ek.raw())
		}
		return MapKey{kind: mapKeyTuple, s: sb.String()}, nil
	default:
		return MapKey{}, fmt.Errorf("invalid key type: %s", v.Kind())
	}
}

// mapEntry keeps the original key Value alongside the MapKey it hashes to,
// so iteration can hand back the exact key a caller inserted (important
// for Tuple keys, which MapKey encodes lossily for indexing purposes).
type mapEntry struct {
	Key Value
	Val Value
}

// Map is Sei's insertion-ordered map value.
type Map struct {
	om *orderedmap.OrderedMap[MapKey, mapEntry]
}

func NewMap() *Map {
	return &Map{om: orderedmap.New[MapKey, mapEntry]()}
}

func (*Map) Kind() Kind { return KindMap }

func (m *Map) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	first := true
	for p := m.om.Oldest(); p != nil; p = p.Next() {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(stringLiteralForCollection(p.Value.Key))
		sb.WriteString(": ")
		sb.WriteString(stringLiteralForCollection(p.Value.Val))
	}
	sb.WriteString("}")
	return sb.String()
}

// Len returns the number of entries.
func (m *Map) Len() int { return m.om.Len() }

// Get looks up key, reporting whether it was present.
func (m *Map) Get(key Value) (Value, bool) {
	mk, err := NewMapKey(key)
	if err != nil {
		return nil, false
	}
	entry, ok := m.om.Get(mk)
	if !ok {
		return nil, false
	}
	return entry.Val, true
}

// Set inserts or overwrites key -> val, preserving the original insertion
// position on overwrite (orderedmap's documented behavior) so the map
// iteration-order invariant holds across repeated assignment to the same
// key.
func (m *Map) Set(key, val Value) error {
	mk, err := NewMapKey(key)
	if err != nil {
		return err
	}
	m.om.Set(mk, mapEntry{Key: key, Val: val})
	return nil
}

// Delete removes key, reporting whether it was present.
func (m *Map) Delete(key Value) bool {
	mk, err := NewMapKey(key)
	if err != nil {
		return false
	}
	_, present := m.om.Delete(mk)
	return present
}

// Pair is one (key, value) entry, handed out by Each in insertion order.
type Pair struct {
	Key Value
	Val Value
}

// Each walks the map from oldest to newest entry.
func (m *Map) Each(fn func(Pair) bool) {
	for p := m.om.Oldest(); p != nil; p = p.Next() {
		if !fn(Pair{Key: p.Value.Key, Val: p.Value.Val}) {
			return
		}
	}
}

// Copy returns an independent map with every key and value deep-copied,
// realizing the pass-by-value invariant for map reads.
func (m *Map) Copy() *Map {
	out := NewMap()
	for p := m.om.Oldest(); p != nil; p = p.Next() {
		out.om.Set(p.Key, mapEntry{Key: Copy(p.Value.Key), Val: Copy(p.Value.Val)})
	}
	return out
}
