// Package schema describes the logical attribute layout of a relation: the
// per-column storage length, by-value flag, and alignment class the page
// checker needs to walk a tuple's attribute stream.
//
// A Relation is built once per check run and is immutable afterwards, so a
// single descriptor can be shared read-only across concurrent page checks.
package schema

import "fmt"

// Variable-width length markers used in Attribute.Len.
const (
	// VarlenaLen marks a self-describing length-prefixed value.
	VarlenaLen = -1
	// CStringLen marks a null-terminated value.
	CStringLen = -2
)

// AlignClass is an attribute's declared alignment requirement.
type AlignClass int

const (
	// AlignChar requires no alignment.
	AlignChar AlignClass = iota
	// AlignShort requires 2-byte alignment.
	AlignShort
	// AlignInt requires 4-byte alignment.
	AlignInt
	// AlignDouble requires 8-byte alignment.
	AlignDouble
)

// Size returns the alignment quantum in bytes.
func (a AlignClass) Size() int {
	switch a {
	case AlignShort:
		return 2
	case AlignInt:
		return 4
	case AlignDouble:
		return 8
	}
	return 1
}

func (a AlignClass) String() string {
	switch a {
	case AlignChar:
		return "char"
	case AlignShort:
		return "short"
	case AlignInt:
		return "int"
	case AlignDouble:
		return "double"
	}
	return "invalid"
}

// ParseAlignClass maps an alignment class name to its value.
func ParseAlignClass(s string) (AlignClass, error) {
	switch s {
	case "char":
		return AlignChar, nil
	case "short":
		return AlignShort, nil
	case "int":
		return AlignInt, nil
	case "double":
		return AlignDouble, nil
	}
	return 0, fmt.Errorf("unknown alignment class %q", s)
}

// Attribute describes one logical column.
type Attribute struct {
	// Name is the display name used in diagnostics.
	Name string
	// Len is the fixed storage length in bytes, or VarlenaLen/CStringLen
	// for variable-width storage.
	Len int
	// ByValue is true when the value is stored directly rather than by
	// reference.
	ByValue bool
	// Align is the alignment class applied before reading the value.
	Align AlignClass
}

// IsVarlena reports whether the attribute uses the self-describing
// length-prefixed encoding.
func (a Attribute) IsVarlena() bool {
	return !a.ByValue && a.Len == VarlenaLen
}

// IsCString reports whether the attribute uses the null-terminated encoding.
func (a Attribute) IsCString() bool {
	return !a.ByValue && a.Len == CStringLen
}

// Relation is an immutable ordered attribute list for one relation.
type Relation struct {
	Name string
	Atts []Attribute
}

// NumAtts returns the number of attributes.
func (r *Relation) NumAtts() int {
	return len(r.Atts)
}

// Validate checks that the descriptor is internally consistent. The page
// checker refuses to run with a descriptor that fails validation, since a
// bad schema would make every structural finding meaningless.
func (r *Relation) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("relation has no name")
	}
	if len(r.Atts) == 0 {
		return fmt.Errorf("relation %q has no attributes", r.Name)
	}
	for i, a := range r.Atts {
		if a.Name == "" {
			return fmt.Errorf("attribute %d has no name", i+1)
		}
		switch {
		case a.ByValue:
			switch a.Len {
			case 1, 2, 4, 8:
			default:
				return fmt.Errorf("attribute %q: by-value length must be 1, 2, 4 or 8, got %d", a.Name, a.Len)
			}
		case a.Len == VarlenaLen || a.Len == CStringLen:
		case a.Len <= 0:
			return fmt.Errorf("attribute %q: invalid fixed length %d", a.Name, a.Len)
		}
	}
	return nil
}
