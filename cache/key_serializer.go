package cache

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// KeySeparator defines the delimiter used between cache key segments.
// Keys such as "product_7" and "category_products_3" are built with it,
// which keeps them friendly to substring invalidation.
const KeySeparator = "_"

// maxSegmentLength bounds plain text segments. Longer values are hashed.
const maxSegmentLength = 64

// defaultKeySerializer implements KeySerializer. Scalars are written as is,
// composite values are reduced to a canonical form and hashed with xxhash so
// keys stay short and deterministic.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey builds a cache key from a namespace and args. The namespace
// is normalized to snake_case without id-like digit segments.
func (s *defaultKeySerializer) SerializeKey(namespace string, args ...any) string {
	parts := make([]string, 0, len(args)+1)
	if ns := normalizeNamespace(namespace); ns != "" {
		parts = append(parts, ns)
	}

	for _, arg := range args {
		parts = append(parts, s.segment(arg))
	}

	return strings.Join(parts, KeySeparator)
}

func (s *defaultKeySerializer) segment(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "nil"
		}
		rv = rv.Elem()
	}

	if s.isBasicType(rv.Kind()) {
		text := s.basic(rv)
		if len(text) > maxSegmentLength {
			return hashSegment(text)
		}
		return text
	}

	return hashSegment(s.canonical(rv))
}

func hashSegment(text string) string {
	return "h" + strconv.FormatUint(xxhash.Sum64String(text), 16)
}

func (s *defaultKeySerializer) basic(rv reflect.Value) string {
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	default:
		return fmt.Sprintf("%v", rv.Interface())
	}
}

// canonical renders any value deterministically. It is only used as hash input.
func (s *defaultKeySerializer) canonical(rv reflect.Value) string {
	if !rv.IsValid() {
		return "nil"
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "nil"
		}
		return s.canonical(rv.Elem())

	case reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return rv.Kind().String() + ":nil"
		}
		// stable only within a process
		return fmt.Sprintf("%s:%x", rv.Kind(), rv.Pointer())

	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return "slice" + s.sequence(rv)

	case reflect.Array:
		return "array" + s.sequence(rv)

	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return s.mapping(rv)

	case reflect.Struct:
		return s.structure(rv)
	}

	if s.isBasicType(rv.Kind()) {
		return rv.Type().String() + ":" + s.basic(rv)
	}

	return s.jsonFallback(rv)
}

func (s *defaultKeySerializer) sequence(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = s.canonical(rv.Index(i))
	}
	return fmt.Sprintf("[%d]:{%s}", len(parts), strings.Join(parts, ","))
}

// mapping sorts entries by their rendered key for determinism.
func (s *defaultKeySerializer) mapping(rv reflect.Value) string {
	pairs := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, s.canonical(iter.Key())+"="+s.canonical(iter.Value()))
	}
	sort.Strings(pairs)
	return fmt.Sprintf("map[%d]:{%s}", len(pairs), strings.Join(pairs, ","))
}

func (s *defaultKeySerializer) structure(rv reflect.Value) string {
	rt := rv.Type()
	parts := make([]string, 0, rv.NumField())

	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		parts = append(parts, field.Name+":"+s.canonical(rv.Field(i)))
	}

	return fmt.Sprintf("%s{%s}", rt.String(), strings.Join(parts, ","))
}

// isBasicType checks if a kind represents a basic Go type
func (s *defaultKeySerializer) isBasicType(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	default:
		return false
	}
}

// jsonFallback provides JSON serialization as a last resort
func (s *defaultKeySerializer) jsonFallback(rv reflect.Value) string {
	if !rv.CanInterface() {
		return "opaque:" + rv.Type().String()
	}
	data, err := json.Marshal(rv.Interface())
	if err != nil {
		return "fallback:" + rv.Type().String()
	}
	return "json:" + string(data)
}
