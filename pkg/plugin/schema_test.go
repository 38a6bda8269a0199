package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() Schema {
	return ObjectSchema(map[string]Property{
		"include_cpu":  {Type: TypeBoolean, Default: true},
		"sample_count": {Type: TypeInteger, Default: 3},
		"label":        {Type: TypeString},
		"mount_points": {Type: TypeArray},
	})
}

func TestParseConfig_EmptyInput(t *testing.T) {
	for _, raw := range [][]byte{nil, {}, []byte("{}")} {
		cfg, err := ParseConfig(raw)
		require.NoError(t, err)
		assert.NotNil(t, cfg)
		assert.Empty(t, cfg)
	}
}

func TestParseConfig_Malformed(t *testing.T) {
	_, err := ParseConfig([]byte("{not json"))
	assert.Error(t, err)

	// A JSON scalar is not a configuration object either.
	_, err = ParseConfig([]byte(`42`))
	assert.Error(t, err)
}

func TestParseConfig_Null(t *testing.T) {
	cfg, err := ParseConfig([]byte("null"))
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"include_cpu": false}`))
	require.NoError(t, err)

	out := cfg.ApplyDefaults(testSchema())

	assert.Equal(t, false, out.Bool("include_cpu", true), "explicit value wins over default")
	assert.Equal(t, 3, out.Int("sample_count", 0), "unset option falls back to schema default")
	_, ok := out["label"]
	assert.False(t, ok, "options without a default stay unset")

	// The original configuration is not mutated.
	_, ok = cfg["sample_count"]
	assert.False(t, ok)
}

func TestConfig_ValidateUnknownOption(t *testing.T) {
	cfg, err := ParseConfig([]byte(`{"include_cups": true}`))
	require.NoError(t, err)

	err = cfg.Validate(testSchema())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "include_cups")
}

func TestConfig_ValidateTypes(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"boolean ok", `{"include_cpu": true}`, false},
		{"boolean wrong type", `{"include_cpu": "yes"}`, true},
		{"integer ok", `{"sample_count": 5}`, false},
		{"integer fractional", `{"sample_count": 5.5}`, true},
		{"string ok", `{"label": "node-a"}`, false},
		{"string wrong type", `{"label": 1}`, true},
		{"array ok", `{"mount_points": ["/", "/var"]}`, false},
		{"array wrong type", `{"mount_points": "/"}`, true},
		{"null value passes", `{"label": null}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig([]byte(tt.raw))
			require.NoError(t, err)

			err = cfg.Validate(testSchema())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestErrorResult(t *testing.T) {
	doc := ErrorResult("Unknown collector: bogus")

	assert.True(t, doc.IsError())
	assert.Equal(t, "Unknown collector: bogus", doc.ErrorMessage())

	raw, err := doc.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"error": "Unknown collector: bogus"}`, string(raw))
}

func TestDocument_IsError(t *testing.T) {
	assert.False(t, Document{"cpu": map[string]any{}}.IsError())
	assert.False(t, Document{}.IsError())
	// The sentinel key must hold a string to count as an error result.
	assert.False(t, Document{ErrorKey: 42}.IsError())
}

func TestCapabilities(t *testing.T) {
	caps := NewCapabilities(CategoryFactsCollectors)

	assert.True(t, caps.Declares(CategoryFactsCollectors))
	for _, cat := range SiblingCategories {
		assert.False(t, caps.Declares(cat), "sibling category %s must stay undeclared", cat)
	}
}
