package config

import (
	"fmt"

	"mercator-hq/matchgram/pkg/rule/ast"
	"mercator-hq/matchgram/pkg/rule/registry"
)

// Registry builds the field registry described by the compiler section:
// the default table plus EnableFields, minus DisableFields.
func (c CompilerConfig) Registry() (*registry.Registry, error) {
	enable, err := parseFields(c.EnableFields)
	if err != nil {
		return nil, err
	}
	disable, err := parseFields(c.DisableFields)
	if err != nil {
		return nil, err
	}
	return registry.Default().With(enable...).Without(disable...), nil
}

func parseFields(names []string) ([]ast.Field, error) {
	fields := make([]ast.Field, 0, len(names))
	for _, name := range names {
		f, ok := ast.ParseField(name)
		if !ok {
			return nil, fmt.Errorf("unknown field %q", name)
		}
		fields = append(fields, f)
	}
	return fields, nil
}
