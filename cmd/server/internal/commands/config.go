package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"
)

// YAMLLoader resolves flags from a YAML configuration file. Keys may use the flag name
// ("postgres-conn-string"), its snake case form, or nest on the first dash
// ("postgres: {conn-string: ...}"). Flags and environment variables take precedence.
func YAMLLoader(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode YAML config: %w", err)
	}

	var f kong.ResolverFunc = func(context *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		raw, ok := lookup(values, flag.Name)
		if !ok {
			return nil, nil
		}
		return stringify(raw), nil
	}

	return f, nil
}

func lookup(values map[string]any, name string) (any, bool) {
	if v, ok := values[name]; ok {
		return v, true
	}
	if v, ok := values[strings.ReplaceAll(name, "-", "_")]; ok {
		return v, true
	}

	prefix, rest, found := strings.Cut(name, "-")
	if !found {
		return nil, false
	}
	nested, ok := values[prefix].(map[string]any)
	if !ok {
		return nil, false
	}
	return lookup(nested, rest)
}

// stringify turns YAML scalars and lists into the string forms kong parses from the command line.
func stringify(v any) string {
	switch t := v.(type) {
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(t)
	}
}
