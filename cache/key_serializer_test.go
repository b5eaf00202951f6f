package cache

import (
	"strings"
	"testing"

	"github.com/goliatone/go-storefront/pkg/testsupport"
)

// TestScenario represents a test scenario loaded from fixtures
type TestScenario struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Cases       []TestCase `json:"cases"`
}

// TestCase represents individual test cases within a scenario
type TestCase struct {
	Namespace   string `json:"namespace"`
	Args        []any  `json:"args"`
	ExpectedKey string `json:"expectedKey"`
}

// TestFixtures represents the structure of the test fixture file
type TestFixtures struct {
	Scenarios []TestScenario `json:"scenarios"`
}

func joinWithSeparator(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}

func loadTestFixtures(t *testing.T) TestFixtures {
	t.Helper()

	var fixtures TestFixtures
	testsupport.LoadFixtureJSON(t, testsupport.FixturePath("key_scenarios.json"), &fixtures)
	return fixtures
}

func TestDefaultKeySerializer_Fixtures(t *testing.T) {
	serializer := NewDefaultKeySerializer()
	fixtures := loadTestFixtures(t)

	for _, scenario := range fixtures.Scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			for _, tc := range scenario.Cases {
				got := serializer.SerializeKey(tc.Namespace, tc.Args...)
				if got != tc.ExpectedKey {
					t.Errorf("SerializeKey(%q, %v) = %v, want %v", tc.Namespace, tc.Args, got, tc.ExpectedKey)
				}
			}
		})
	}
}

func TestDefaultKeySerializer_BasicTypes(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	tests := []struct {
		name      string
		namespace string
		args      []any
		want      string
	}{
		{
			name:      "no args",
			namespace: "all_products",
			args:      []any{},
			want:      "all_products",
		},
		{
			name:      "single int",
			namespace: "product",
			args:      []any{42},
			want:      joinWithSeparator("product", "42"),
		},
		{
			name:      "multiple basic types",
			namespace: "Get",
			args:      []any{1, "hello", true, 3.14, uint8(7)},
			want:      joinWithSeparator("get", "1", "hello", "true", "3.14", "7"),
		},
		{
			name:      "camel case namespace",
			namespace: "CategoryProducts",
			args:      []any{int64(9)},
			want:      joinWithSeparator("category", "products", "9"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey(tt.namespace, tt.args...)
			if got != tt.want {
				t.Errorf("SerializeKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultKeySerializer_NilValues(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	tests := []struct {
		name string
		args []any
		want string
	}{
		{name: "nil interface", args: []any{nil}, want: joinWithSeparator("product", "nil")},
		{name: "nil pointer", args: []any{(*int)(nil)}, want: joinWithSeparator("product", "nil")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey("product", tt.args...)
			if got != tt.want {
				t.Errorf("SerializeKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultKeySerializer_Pointers(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	value := 42
	got := serializer.SerializeKey("product", &value)
	if want := joinWithSeparator("product", "42"); got != want {
		t.Errorf("SerializeKey() = %v, want %v", got, want)
	}
}

func TestDefaultKeySerializer_CompositeArgsAreHashed(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	type filter struct {
		CategoryID int
		Name       string
		secret     string
	}

	tests := []struct {
		name string
		arg  any
	}{
		{name: "slice", arg: []int{1, 2, 3}},
		{name: "nested slice", arg: [][]int{{1, 2}, {3, 4}}},
		{name: "array", arg: [2]string{"hello", "world"}},
		{name: "map", arg: map[string]int{"age": 25, "count": 10}},
		{name: "struct", arg: filter{CategoryID: 1, Name: "lamps"}},
		{name: "empty slice", arg: []int{}},
		{name: "nil slice", arg: ([]int)(nil)},
	}

	prefix := joinWithSeparator("search", "h")
	seen := map[string]string{}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey("search", tt.arg)
			if !strings.HasPrefix(got, prefix) {
				t.Fatalf("expected hashed segment with prefix %q, got %q", prefix, got)
			}
			if strings.ContainsAny(got[len(prefix):], ",{}:=[]") {
				t.Errorf("hashed segment leaked structure: %q", got)
			}
			if other, dup := seen[got]; dup {
				t.Errorf("%s and %s produced the same key %q", tt.name, other, got)
			}
			seen[got] = tt.name
		})
	}
}

func TestDefaultKeySerializer_UnexportedFieldsIgnored(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	type filter struct {
		ID     int
		secret string
	}

	a := serializer.SerializeKey("search", filter{ID: 1, secret: "a"})
	b := serializer.SerializeKey("search", filter{ID: 1, secret: "b"})
	if a != b {
		t.Errorf("unexported fields should not affect the key: %v != %v", a, b)
	}
}

func TestDefaultKeySerializer_MapOrderIndependent(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	first := map[string]int{}
	second := map[string]int{}
	for _, k := range []string{"a", "b", "c", "d"} {
		first[k] = len(k)
	}
	for _, k := range []string{"d", "c", "b", "a"} {
		second[k] = len(k)
	}

	if a, b := serializer.SerializeKey("m", first), serializer.SerializeKey("m", second); a != b {
		t.Errorf("map keys should be order independent: %v != %v", a, b)
	}
}

func TestDefaultKeySerializer_LongStringsAreHashed(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	long := strings.Repeat("x", maxSegmentLength+1)
	got := serializer.SerializeKey("search", long)
	if strings.Contains(got, long) {
		t.Errorf("expected long segment to be hashed, got %q", got)
	}

	short := strings.Repeat("x", maxSegmentLength)
	if got := serializer.SerializeKey("search", short); got != joinWithSeparator("search", short) {
		t.Errorf("expected short segment verbatim, got %q", got)
	}
}

func TestDefaultKeySerializer_Functions(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	testFunc := func() {}

	key1 := serializer.SerializeKey("GetWithFunc", testFunc)
	key2 := serializer.SerializeKey("GetWithFunc", testFunc)

	if key1 != key2 {
		t.Errorf("Function serialization should be stable: %v != %v", key1, key2)
	}
}

func TestDefaultKeySerializer_Stability(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	args := []any{1, "hello", []int{1, 2, 3}, map[string]int{"a": 1, "b": 2}}

	key1 := serializer.SerializeKey("TestMethod", args...)
	key2 := serializer.SerializeKey("TestMethod", args...)

	if key1 != key2 {
		t.Errorf("Key serialization should be stable across runs: %v != %v", key1, key2)
	}
}

func BenchmarkDefaultKeySerializer(b *testing.B) {
	serializer := NewDefaultKeySerializer()
	args := []any{1, "benchmark", []int{1, 2, 3}, map[string]int{"test": 1}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		serializer.SerializeKey("BenchmarkMethod", args...)
	}
}
