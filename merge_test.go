package schemaforge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/schemaforge"
)

func ids(nodes []*schemaforge.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID()
	}
	return out
}

func TestMerge_KindMismatchReturnsOverlay(t *testing.T) {
	base := schemaforge.NewString("a").SetMaxLength(3)
	overlay := schemaforge.NewBoolean("a")
	assert.Same(t, overlay, schemaforge.Merge(base, overlay))

	email := schemaforge.NewEmailString("a")
	assert.Same(t, email, schemaforge.Merge(schemaforge.NewString("a"), email))
}

func TestMerge_RemoveLeavesTombstone(t *testing.T) {
	root := schemaforge.NewObject(schemaforge.RootID)
	base := schemaforge.NewString("a")
	root.AddProperty(base)

	overlay := schemaforge.NewString("a").SetMergeStrategy(schemaforge.MergeRemove)
	got := schemaforge.Merge(base, overlay)
	assert.Equal(t, schemaforge.KindNull, got.Kind())
	assert.Equal(t, "a", got.ID())
	assert.Same(t, root, got.Parent())
}

func TestMerge_StringAddAndReplace(t *testing.T) {
	base := schemaforge.NewString("code").SetMaxLength(10).SetPattern("^[a-z]+$").SetDescription("code")
	schemaforge.Merge(base, schemaforge.NewString("code").SetMinLength(2))

	hi, ok := base.MaxLength()
	assert.True(t, ok)
	assert.Equal(t, 10, hi)
	lo, _ := base.MinLength()
	assert.Equal(t, 2, lo)
	assert.Equal(t, "^[a-z]+$", base.Pattern())
	assert.Equal(t, "code", base.Description())

	replace := schemaforge.NewString("code").SetMaxLength(5).SetMergeStrategy(schemaforge.MergeReplace)
	got := schemaforge.Merge(base, replace)
	assert.Same(t, base, got)
	hi, _ = base.MaxLength()
	assert.Equal(t, 5, hi)
	_, ok = base.MinLength()
	assert.False(t, ok)
	assert.Empty(t, base.Pattern())
	assert.Empty(t, base.Description())
	assert.Equal(t, schemaforge.MergeAdd, base.MergeStrategy())
}

func TestMerge_EnumOptions(t *testing.T) {
	base := schemaforge.NewEnum("size", "s", "m")
	schemaforge.Merge(base, schemaforge.NewEnum("size", "l"))
	assert.Equal(t, []any{"s", "m", "l"}, base.Options())

	schemaforge.Merge(base, schemaforge.NewEnum("size", "xl").SetMergeStrategy(schemaforge.MergeReplace))
	assert.Equal(t, []any{"xl"}, base.Options())
}

func TestMerge_ValidatorsKeyedByURL(t *testing.T) {
	base := schemaforge.NewString("zip").
		AddValidator(schemaforge.NewValidator("/zip", "GET", nil)).
		AddValidator(schemaforge.NewValidator("/blacklist", "GET", nil))
	overlay := schemaforge.NewString("zip").
		AddValidator(schemaforge.NewValidator("/zip", "POST", nil)).
		AddValidator(schemaforge.NewValidator("/geo", "GET", nil))
	schemaforge.Merge(base, overlay)

	vs := base.Validators()
	require.Len(t, vs, 3)
	assert.Equal(t, []string{"/zip", "/blacklist", "/geo"}, []string{vs[0].URL, vs[1].URL, vs[2].URL})
	assert.Equal(t, "POST", vs[0].Method)
}

func TestMerge_ObjectAdd(t *testing.T) {
	base := mustBuild(t, map[string]any{
		"properties": map[string]any{
			"a": map[string]any{"type": "string"},
			"b": map[string]any{"type": "string", "maxLength": 3},
		},
	})
	overlay := mustBuild(t, map[string]any{
		"properties": map[string]any{
			"b": map[string]any{"type": "string", "minLength": 1},
			"c": map[string]any{"type": "boolean"},
		},
		"definitions": map[string]any{"addr": map[string]any{"type": "object"}},
	})
	got := schemaforge.Merge(base, overlay)
	require.Same(t, base, got)
	assert.Equal(t, []string{"a", "b", "c"}, ids(base.Properties()))

	b := base.Property("b")
	hi, _ := b.MaxLength()
	lo, _ := b.MinLength()
	assert.Equal(t, 3, hi)
	assert.Equal(t, 1, lo)
	assert.Same(t, base, base.Property("c").Parent())
	assert.NotNil(t, base.Definition("addr"))
}

func TestMerge_ObjectReplaceKeepsDefinitions(t *testing.T) {
	base := mustBuild(t, map[string]any{
		"properties":  map[string]any{"a": map[string]any{"type": "string"}, "b": map[string]any{"type": "string"}},
		"definitions": map[string]any{"old": map[string]any{"type": "object"}},
	})
	overlay := mustBuild(t, map[string]any{
		"mergeStrategy": "replace",
		"properties":    map[string]any{"c": map[string]any{"type": "string"}},
		"definitions":   map[string]any{"new": map[string]any{"type": "object"}},
	})
	schemaforge.Merge(base, overlay)
	assert.Equal(t, []string{"c"}, ids(base.Properties()))
	assert.Same(t, base, base.Property("c").Parent())
	assert.NotNil(t, base.Definition("old"))
	assert.NotNil(t, base.Definition("new"))
}

func TestMerge_NestedRemove(t *testing.T) {
	base := mustBuild(t, map[string]any{
		"properties": map[string]any{
			"phone": map[string]any{"type": "string", "required": true},
			"name":  map[string]any{"type": "string"},
		},
	})
	overlay := mustBuild(t, map[string]any{
		"properties": map[string]any{
			"phone": map[string]any{"type": "string", "mergeStrategy": "remove"},
			"fax":   map[string]any{"type": "string", "mergeStrategy": "remove"},
		},
	})
	schemaforge.Merge(base, overlay)
	assert.Equal(t, schemaforge.KindNull, base.Property("phone").Kind())
	assert.Equal(t, schemaforge.KindNull, base.Property("fax").Kind())
	assert.Empty(t, base.Validate(t.Context(), map[string]any{}, nil))
	assert.Equal(t, []string{"name"}, keys(base.Export(true)["properties"]))
}

func TestMerge_DateBounds(t *testing.T) {
	base, err := schemaforge.FromDeclaration("birth", map[string]any{"type": "string", "format": "date", "minValue": "2000-01-01"})
	require.NoError(t, err)
	overlay, err := schemaforge.FromDeclaration("birth", map[string]any{"type": "string", "format": "date", "maxValue": "1990-01-01"})
	require.NoError(t, err)
	schemaforge.Merge(base, overlay)
	assert.Equal(t, "2000-01-01", base.MinValue())
	assert.Equal(t, "1990-01-01", base.MaxValue())
}

func keys(v any) []string {
	m, _ := v.(map[string]any)
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
