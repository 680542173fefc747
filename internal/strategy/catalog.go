package strategy

import (
	"sort"

	"main/pkg/exception"

	"github.com/yanun0323/errors"
)

var catalog = map[string]func() Strategy{
	"vamp": func() Strategy { return VAMP{} },
}

// Known reports whether a strategy name is registered.
func Known(name string) bool {
	_, ok := catalog[name]
	return ok
}

// Build instantiates a registered strategy by name.
func Build(name string) (Strategy, error) {
	factory, ok := catalog[name]
	if !ok {
		return nil, errors.Wrap(exception.ErrConfigUnknownStrategy, name)
	}
	return factory(), nil
}

// Names lists the registered strategy names.
func Names() []string {
	out := make([]string, 0, len(catalog))
	for name := range catalog {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
