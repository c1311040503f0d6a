package schema_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/effective-security/agentcore/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type SearchType string

// Search represents a search request with various parameters.
type Search struct {
	Topic string     `json:"topic,omitempty" jsonschema:"title=Topic,description=Topic of the search"`
	Query string     `json:"query" jsonschema:"title=Query,description=Query to search for relevant content"`
	Type  SearchType `json:"type" jsonschema:"title=Type,description=Type of search,enum=web,enum=image"`
	Args  []*KVPair  `json:"args,omitempty" jsonschema:"title=Args,description=Arguments for the search"`
	Prov  *KVPair    `json:"prov,omitempty" jsonschema:"title=Prov,description=Provider for the search"`
}

// KVPair represents a key-value pair.
type KVPair struct {
	Key   string `json:"key" jsonschema:"title=Key,description=Key of the pair"`
	Value string `json:"value" jsonschema:"title=Value,description=Value of the pair"`
}

type Location struct {
	Location string `json:"location" jsonschema:"title=Location,description=The location to get the weather for."`
}

func TestSchema(t *testing.T) {
	t.Parallel()

	s, err := schema.New(reflect.TypeOf(Location{}))
	require.NoError(t, err)
	exp := `{
	"properties": {
		"location": {
			"type": "string",
			"title": "Location",
			"description": "The location to get the weather for."
		}
	},
	"type": "object",
	"required": [
		"location"
	]
}`
	assert.Equal(t, exp, s.String())

	// cached
	s2, err := schema.New(reflect.TypeOf(Location{}))
	require.NoError(t, err)
	assert.Same(t, s, s2)
	assert.Same(t, s.Parameters, schema.For[Location]())
}

func TestSchema_Nested(t *testing.T) {
	t.Parallel()

	p := schema.For[Search]()
	assert.Equal(t, "object", p.Type)
	assert.Equal(t, []string{"query", "type"}, p.Required)

	prov, ok := p.Properties.Get("prov")
	require.True(t, ok)
	assert.Empty(t, prov.Ref)
	assert.Equal(t, "object", prov.Type)

	args, ok := p.Properties.Get("args")
	require.True(t, ok)
	assert.Equal(t, "array", args.Type)
	require.NotNil(t, args.Items)
	assert.Empty(t, args.Items.Ref)

	typ, ok := p.Properties.Get("type")
	require.True(t, ok)
	assert.Equal(t, []any{"web", "image"}, typ.Enum)

	js, err := json.Marshal(p)
	require.NoError(t, err)
	assert.NotContains(t, string(js), "$ref")
}

func TestFromAny(t *testing.T) {
	t.Parallel()

	s, err := schema.FromAny(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"timezone": map[string]any{"type": "string"},
		},
		"required": []string{"timezone"},
	})
	require.NoError(t, err)
	assert.Equal(t, "object", s.Type)
	assert.Equal(t, []string{"timezone"}, s.Required)

	tz, ok := s.Properties.Get("timezone")
	require.True(t, ok)
	assert.Equal(t, "string", tz.Type)

	_, err = schema.FromAny(func() {})
	assert.Error(t, err)
}
