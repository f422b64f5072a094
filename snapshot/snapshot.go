package snapshot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/minio/highwayhash"
)

// hashKey must be 32 bytes long
var hashKey = []byte("selfie-snapshot-content-hash-key")

// Facet represents a named component of a snapshot, the primary facet has an empty name
type Facet struct {
	Name  string
	Value Value
}

// Snapshot represents a recorded expectation, it is immutable once created
type Snapshot struct {
	facets []Facet // primary first, the rest sorted by name
}

// Of creates a single facet text snapshot
func Of(primary string) Snapshot {
	return Snapshot{facets: []Facet{{Value: TextValue(primary)}}}
}

// OfBinary creates a single facet binary snapshot
func OfBinary(primary []byte) Snapshot {
	return Snapshot{facets: []Facet{{Value: BinaryValue(primary)}}}
}

// OfValue creates a single facet snapshot
func OfValue(primary Value) Snapshot {
	return Snapshot{facets: []Facet{{Value: primary}}}
}

// Primary returns the primary facet value
func (s Snapshot) Primary() Value {
	if len(s.facets) == 0 {
		return TextValue("")
	}
	return s.facets[0].Value
}

// Facet returns a named facet, empty name returns primary
func (s Snapshot) Facet(name string) (Value, bool) {
	if name == "" {
		return s.Primary(), true
	}
	idx, ok := s.index(name)
	if !ok {
		return Value{}, false
	}
	return s.facets[idx].Value, true
}

// Facets returns all facets, primary first
func (s Snapshot) Facets() []Facet {
	if len(s.facets) == 0 {
		return []Facet{{Value: TextValue("")}}
	}
	result := make([]Facet, len(s.facets))
	copy(result, s.facets)
	return result
}

// Plus returns a snapshot extended with a named facet, it fails if the facet already exists
func (s Snapshot) Plus(name string, value Value) (Snapshot, error) {
	if err := ValidateFacetName(name); err != nil {
		return s, err
	}
	if _, ok := s.index(name); ok {
		return s, fmt.Errorf("facet %q already exists", name)
	}
	return s.with(name, value), nil
}

// PlusOrReplace returns a snapshot with the named facet set to value
func (s Snapshot) PlusOrReplace(name string, value Value) (Snapshot, error) {
	if name == "" {
		result := Snapshot{facets: s.Facets()}
		result.facets[0].Value = value
		return result, nil
	}
	if err := ValidateFacetName(name); err != nil {
		return s, err
	}
	return s.with(name, value), nil
}

func (s Snapshot) with(name string, value Value) Snapshot {
	facets := make([]Facet, 0, len(s.facets)+1)
	facets = append(facets, s.Facets()...)
	if idx, ok := s.index(name); ok {
		facets[idx].Value = value
		return Snapshot{facets: facets}
	}
	facets = append(facets, Facet{Name: name, Value: value})
	named := facets[1:]
	sort.Slice(named, func(i, j int) bool { return named[i].Name < named[j].Name })
	return Snapshot{facets: facets}
}

func (s Snapshot) index(name string) (int, bool) {
	for i := 1; i < len(s.facets); i++ {
		if s.facets[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

// Equal returns true when both snapshots have the same facets with the same values
func (s Snapshot) Equal(other Snapshot) bool {
	left, right := s.Facets(), other.Facets()
	if len(left) != len(right) {
		return false
	}
	for i := range left {
		if left[i].Name != right[i].Name || !left[i].Value.Equal(right[i].Value) {
			return false
		}
	}
	return true
}

// Hash returns 64-bit highwayhash of the content, equal snapshots have equal hashes
func (s Snapshot) Hash() uint64 {
	builder := &strings.Builder{}
	for _, facet := range s.Facets() {
		builder.WriteString(facet.Name)
		builder.WriteByte(0)
		builder.WriteString(facet.Value.Kind().String())
		builder.WriteByte(0)
		builder.Write(facet.Value.Bytes())
		builder.WriteByte(0)
	}
	return highwayhash.Sum64([]byte(builder.String()), hashKey)
}

func (s Snapshot) String() string {
	facets := s.Facets()
	if len(facets) == 1 {
		return facets[0].Value.String()
	}
	builder := &strings.Builder{}
	builder.WriteString(facets[0].Value.String())
	for _, facet := range facets[1:] {
		builder.WriteString("\n[" + facet.Name + "]\n")
		builder.WriteString(facet.Value.String())
	}
	return builder.String()
}

// ValidateFacetName checks that a facet name can be written in a header
func ValidateFacetName(name string) error {
	if name == "" {
		return fmt.Errorf("facet name must not be empty")
	}
	if strings.ContainsAny(name, "[]\r\n") {
		return fmt.Errorf("facet name %q must not contain '[', ']' or line breaks", name)
	}
	return nil
}
