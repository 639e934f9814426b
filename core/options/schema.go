// Package options implements the typed option declarations every surrogate
// model carries and the per-model instances bound to them.
//
// A Schema is fixed once built. An Options value holds the bindings made on
// top of a Schema; reads fall back to the declared default and writes are
// validated against the declaration.
package options

import (
	"sort"

	"github.com/YuminosukeSato/smtgo/pkg/errors"
)

// Kind is the value type an option accepts.
type Kind int

const (
	Bool Kind = iota
	Int
	Float
	String
	Floats
	Ints
	Matrix
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Floats:
		return "[]float64"
	case Ints:
		return "[]int"
	case Matrix:
		return "matrix"
	default:
		return "unknown"
	}
}

// Declaration describes one option key.
//
// An empty Types accepts any of the known kinds. Values, when non-empty,
// restricts scalar values to the listed set. Validate runs last and its
// error text becomes the reason of the resulting InvalidOptionValueError.
type Declaration struct {
	Name     string
	Default  any
	Types    []Kind
	Values   []any
	Validate func(v any) error
	Required bool
	Desc     string
}

func (d Declaration) accepts(k Kind) bool {
	if len(d.Types) == 0 {
		return true
	}
	for _, t := range d.Types {
		if t == k {
			return true
		}
	}
	return false
}

// Schema is an immutable set of declarations keyed by name.
type Schema struct {
	decls map[string]Declaration
	keys  []string
}

// NewSchema builds a Schema. Duplicate or empty names are rejected, as is a
// non-nil default that its own declaration would refuse.
func NewSchema(decls ...Declaration) (*Schema, error) {
	s := &Schema{decls: make(map[string]Declaration, len(decls))}
	for _, d := range decls {
		if d.Name == "" {
			return nil, errors.NewValueError("options.NewSchema", "declaration with empty name")
		}
		if _, dup := s.decls[d.Name]; dup {
			return nil, errors.NewValueError("options.NewSchema", "duplicate option '"+d.Name+"'")
		}
		if d.Default != nil {
			v, err := normalize(d, d.Default)
			if err != nil {
				return nil, errors.Wrapf(err, "options.NewSchema: default of '%s'", d.Name)
			}
			d.Default = v
		}
		s.decls[d.Name] = d
		s.keys = append(s.keys, d.Name)
	}
	sort.Strings(s.keys)
	return s, nil
}

// MustSchema is NewSchema that panics on error. Intended for package-level
// schemas built from literals.
func MustSchema(decls ...Declaration) *Schema {
	s, err := NewSchema(decls...)
	if err != nil {
		panic(err)
	}
	return s
}

// Keys returns the declared names in sorted order.
func (s *Schema) Keys() []string {
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Declaration returns the declaration of key.
func (s *Schema) Declaration(key string) (Declaration, bool) {
	d, ok := s.decls[key]
	return d, ok
}

// Has reports whether key is declared.
func (s *Schema) Has(key string) bool {
	_, ok := s.decls[key]
	return ok
}

// Len returns the number of declared keys.
func (s *Schema) Len() int {
	return len(s.keys)
}

// Extend returns a new Schema with the declarations of s followed by decls.
func (s *Schema) Extend(decls ...Declaration) (*Schema, error) {
	all := make([]Declaration, 0, len(s.keys)+len(decls))
	for _, k := range s.keys {
		all = append(all, s.decls[k])
	}
	return NewSchema(append(all, decls...)...)
}
