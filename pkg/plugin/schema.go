package plugin

import (
	"encoding/json"
	"fmt"
)

// Property types understood by the configuration schema vocabulary.
const (
	TypeObject  = "object"
	TypeBoolean = "boolean"
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeArray   = "array"
)

// Schema is a structural description of the configuration a collector
// accepts, sufficient for a host to validate values and render a
// configuration UI. It follows a JSON-Schema-like vocabulary: type,
// properties, per-property type/default/description.
type Schema struct {
	Type       string              `json:"type" yaml:"type"`
	Properties map[string]Property `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Property describes a single configuration option.
type Property struct {
	Type        string `json:"type" yaml:"type"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ObjectSchema builds the common case: an object schema with the given
// properties.
func ObjectSchema(properties map[string]Property) Schema {
	return Schema{Type: TypeObject, Properties: properties}
}

// Config is an opaque structured configuration value supplied per
// invocation. Unset optional fields fall back to the schema-declared
// default; an empty or absent configuration is always valid.
type Config map[string]any

// ParseConfig decodes a serialized configuration. Empty input yields an
// empty configuration with all defaults in effect.
func ParseConfig(raw []byte) (Config, error) {
	if len(raw) == 0 {
		return Config{}, nil
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg == nil {
		cfg = Config{}
	}
	return cfg, nil
}

// ApplyDefaults returns a copy of the configuration with every unset
// property filled from its schema default. The receiver is not mutated;
// invocations own their values exclusively.
func (c Config) ApplyDefaults(s Schema) Config {
	out := make(Config, len(c)+len(s.Properties))
	for k, v := range c {
		out[k] = v
	}
	for name, prop := range s.Properties {
		if _, ok := out[name]; !ok && prop.Default != nil {
			out[name] = prop.Default
		}
	}
	return out
}

// Validate checks the configuration structurally against the schema:
// every set property must be declared and carry a value of the declared
// type. Unknown properties are rejected so misspelled options surface
// instead of silently falling back to defaults.
func (c Config) Validate(s Schema) error {
	for name, value := range c {
		prop, ok := s.Properties[name]
		if !ok {
			return fmt.Errorf("unknown option %q", name)
		}
		if value == nil {
			continue
		}
		if err := checkType(prop.Type, value); err != nil {
			return fmt.Errorf("option %q: %w", name, err)
		}
	}
	return nil
}

// Bool reads a boolean option, falling back to def when unset or not a
// boolean.
func (c Config) Bool(name string, def bool) bool {
	if v, ok := c[name].(bool); ok {
		return v
	}
	return def
}

// String reads a string option, falling back to def when unset.
func (c Config) String(name, def string) string {
	if v, ok := c[name].(string); ok {
		return v
	}
	return def
}

// Int reads an integer option, falling back to def when unset. JSON
// numbers decode as float64, so both representations are accepted.
func (c Config) Int(name string, def int) int {
	switch v := c[name].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

func checkType(want string, value any) error {
	switch want {
	case TypeBoolean:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case TypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case TypeInteger:
		switch n := value.(type) {
		case int:
		case float64:
			if n != float64(int64(n)) {
				return fmt.Errorf("expected integer, got %v", n)
			}
		default:
			return fmt.Errorf("expected integer, got %T", value)
		}
	case TypeNumber:
		switch value.(type) {
		case int, float64:
		default:
			return fmt.Errorf("expected number, got %T", value)
		}
	case TypeArray:
		if _, ok := value.([]any); !ok {
			return fmt.Errorf("expected array, got %T", value)
		}
	case TypeObject:
		if _, ok := value.(map[string]any); !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
	}
	return nil
}
