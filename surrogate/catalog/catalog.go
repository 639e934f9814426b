// Package catalog maps model names to surrogate variants.
package catalog

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/smtgo/pkg/errors"
	"github.com/YuminosukeSato/smtgo/surrogate"
	"github.com/YuminosukeSato/smtgo/surrogate/idw"
	"github.com/YuminosukeSato/smtgo/surrogate/kpls"
	"github.com/YuminosukeSato/smtgo/surrogate/ls"
	"github.com/YuminosukeSato/smtgo/surrogate/pa2"
	"github.com/YuminosukeSato/smtgo/surrogate/rmtb"
	"github.com/YuminosukeSato/smtgo/surrogate/rmts"
)

var specs = []surrogate.Spec{
	ls.Spec,
	pa2.Spec,
	kpls.Spec,
	idw.Spec,
	rmts.Spec,
	rmtb.Spec,
}

// Names returns the registered model names.
func Names() []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name
	}
	return names
}

// Lookup returns the Spec registered under name, ignoring case.
func Lookup(name string) (surrogate.Spec, error) {
	for _, s := range specs {
		if strings.EqualFold(s.Name, name) {
			return s, nil
		}
	}
	return surrogate.Spec{}, errors.NewValueError("catalog.Lookup",
		fmt.Sprintf("unknown model %q, expected one of %s", name, strings.Join(Names(), ", ")))
}

// New returns an untrained model of the named variant with default options.
func New(name string) (*surrogate.Model, error) {
	s, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return surrogate.New(s)
}

// NewWithOptions returns New(name) with values applied all-or-nothing.
func NewWithOptions(name string, values map[string]any) (*surrogate.Model, error) {
	m, err := New(name)
	if err != nil {
		return nil, err
	}
	o := m.Options().Clone()
	if err := o.Update(values); err != nil {
		return nil, err
	}
	if err := m.SetOptions(o); err != nil {
		return nil, err
	}
	return m, nil
}
