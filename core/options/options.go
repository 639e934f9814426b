package options

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/smtgo/pkg/errors"
)

// Options holds the option bindings of one model instance. Every bound key is
// declared in the schema; unbound keys read as their declared default.
//
// Options is not safe for concurrent mutation.
type Options struct {
	schema *Schema
	owner  string
	values map[string]any
}

// New returns an Options with no bindings over schema.
func New(schema *Schema) *Options {
	return NewNamed("", schema)
}

// NewNamed is New with an owner name used in error messages.
func NewNamed(owner string, schema *Schema) *Options {
	if schema == nil {
		schema = MustSchema()
	}
	return &Options{schema: schema, owner: owner, values: make(map[string]any)}
}

// Schema returns the schema the options are bound to.
func (o *Options) Schema() *Schema { return o.schema }

// Owner returns the name given to NewNamed.
func (o *Options) Owner() string { return o.owner }

// Get returns the bound value of key, or a copy of its default.
func (o *Options) Get(key string) (any, error) {
	d, ok := o.schema.decls[key]
	if !ok {
		return nil, errors.NewUnknownOptionError(key, o.owner)
	}
	if v, bound := o.values[key]; bound {
		return copyValue(v), nil
	}
	return copyValue(d.Default), nil
}

// Set validates value against the declaration of key and binds it,
// replacing any previous binding. Slices and matrices are copied.
func (o *Options) Set(key string, value any) error {
	d, ok := o.schema.decls[key]
	if !ok {
		return errors.NewUnknownOptionError(key, o.owner)
	}
	v, err := normalize(d, value)
	if err != nil {
		return err
	}
	o.values[key] = v
	return nil
}

// IsSet reports whether key has an explicit binding.
func (o *Options) IsSet(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Unset removes the binding of key so it reads as its default again.
func (o *Options) Unset(key string) error {
	if !o.schema.Has(key) {
		return errors.NewUnknownOptionError(key, o.owner)
	}
	delete(o.values, key)
	return nil
}

// Clone returns an independent copy sharing the same schema.
func (o *Options) Clone() *Options {
	c := &Options{schema: o.schema, owner: o.owner, values: make(map[string]any, len(o.values))}
	for k, v := range o.values {
		c.values[k] = copyValue(v)
	}
	return c
}

// Update binds every entry of values. Either all entries are applied or,
// on the first failing key in sorted order, none are.
func (o *Options) Update(values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	staged := o.Clone()
	for _, k := range keys {
		if err := staged.Set(k, values[k]); err != nil {
			return err
		}
	}
	o.values = staged.values
	return nil
}

// RequireSet fails with MissingOptionError for the first required key, in
// sorted order, whose effective value is nil.
func (o *Options) RequireSet() error {
	for _, k := range o.schema.keys {
		d := o.schema.decls[k]
		if !d.Required {
			continue
		}
		v, bound := o.values[k]
		if !bound {
			v = d.Default
		}
		if v == nil {
			return errors.NewMissingOptionError(k)
		}
	}
	return nil
}

// Bindings returns a deep copy of the explicit bindings.
func (o *Options) Bindings() map[string]any {
	out := make(map[string]any, len(o.values))
	for k, v := range o.values {
		out[k] = copyValue(v)
	}
	return out
}

// Effective returns every declared key with its current value.
func (o *Options) Effective() map[string]any {
	out := make(map[string]any, len(o.schema.keys))
	for _, k := range o.schema.keys {
		out[k], _ = o.Get(k)
	}
	return out
}

func (o *Options) typed(key string, want Kind) (any, error) {
	v, err := o.Get(key)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	if _, k, ok := kindOf(v); !ok || k != want {
		return nil, errors.NewInvalidOptionValueError(key, "not a "+want.String(), v)
	}
	return v, nil
}

// Bool returns the value of a bool option.
func (o *Options) Bool(key string) (bool, error) {
	v, err := o.typed(key, Bool)
	if err != nil || v == nil {
		return false, err
	}
	return v.(bool), nil
}

// Int returns the value of an int option.
func (o *Options) Int(key string) (int, error) {
	v, err := o.typed(key, Int)
	if err != nil || v == nil {
		return 0, err
	}
	return v.(int), nil
}

// Float returns the value of a float option. Int values are widened.
func (o *Options) Float(key string) (float64, error) {
	v, err := o.Get(key)
	if err != nil || v == nil {
		return 0, err
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	}
	return 0, errors.NewInvalidOptionValueError(key, "not a float", v)
}

// String returns the value of a string option.
func (o *Options) String(key string) (string, error) {
	v, err := o.typed(key, String)
	if err != nil || v == nil {
		return "", err
	}
	return v.(string), nil
}

// Floats returns a copy of a []float64 option; nil when unset without default.
func (o *Options) Floats(key string) ([]float64, error) {
	v, err := o.typed(key, Floats)
	if err != nil || v == nil {
		return nil, err
	}
	return v.([]float64), nil
}

// Ints returns a copy of a []int option.
func (o *Options) Ints(key string) ([]int, error) {
	v, err := o.typed(key, Ints)
	if err != nil || v == nil {
		return nil, err
	}
	return v.([]int), nil
}

// Matrix returns a copy of a matrix option; nil when unset without default.
func (o *Options) Matrix(key string) (*mat.Dense, error) {
	v, err := o.typed(key, Matrix)
	if err != nil || v == nil {
		return nil, err
	}
	return v.(*mat.Dense), nil
}
