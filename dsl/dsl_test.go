package dsl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/dsl"
)

func TestObject_BuildsTree(t *testing.T) {
	root, err := dsl.Object().
		Field("name", dsl.String().MaxLength(5).MinLength(2)).Required().
		Field("mail", dsl.Email()).Required().
		Field("plan", dsl.Enum("free", "pro").Default("free")).
		Field("company", dsl.String()).
		Field("vat", dsl.String().Pattern("/^de[0-9]+$/i")).DependsOn("company").
		Definition("address", dsl.Object().Field("street", dsl.String()).Required()).
		Field("home", dsl.Ref("address")).
		Build()
	require.NoError(t, err)

	assert.Equal(t, schemaforge.RootID, root.ID())
	var ids []string
	for _, p := range root.Properties() {
		ids = append(ids, p.ID())
	}
	assert.Equal(t, []string{"name", "mail", "plan", "company", "vat", "home"}, ids)
	assert.True(t, root.Property("name").IsRequired())
	assert.Equal(t, schemaforge.KindEmailString, root.Property("mail").Kind())
	assert.Equal(t, "company", root.Property("vat").DependsOn())
	assert.Equal(t, "free", root.Property("plan").Default())
	require.NotNil(t, root.Definition("address"))
	assert.Equal(t, "#/home", root.Property("home").FullPath())

	iss := root.Validate(t.Context(), map[string]any{
		"name":    "x",
		"mail":    "nope",
		"company": "ACME",
		"vat":     "DE123",
		"home":    map[string]any{},
	}, nil)
	assert.Equal(t, []string{
		schemaforge.CodeLessThanMinLength,
		schemaforge.CodeNotValidEmail,
		schemaforge.CodeRequiredPropertyMissing,
	}, iss.Codes())
	assert.Equal(t, "#/home", iss[2].Path)
}

func TestObject_Condition(t *testing.T) {
	root := dsl.Object().
		Field("kind", dsl.String()).
		When(
			dsl.Object().Field("kind", dsl.String().Const("company")).Required(),
			dsl.Object().Field("vat", dsl.String()).Required(),
		).
		MustBuild()

	iss := root.Validate(t.Context(), map[string]any{"kind": "company"}, nil)
	assert.Equal(t, []string{schemaforge.CodeThenConditionNotPassed, schemaforge.CodeRequiredPropertyMissing}, iss.Codes())
	assert.Equal(t, "#/vat", iss[1].Path)
	assert.Empty(t, root.Validate(t.Context(), map[string]any{"kind": "person"}, nil))
}

func TestComposition(t *testing.T) {
	root := dsl.Object().
		Field("code", dsl.String().AnyOf(
			dsl.String().Pattern("^[0-9]+$"),
			dsl.String().Const("n/a"),
		)).
		Field("role", dsl.String().Not(dsl.String().Const("root"))).
		MustBuild()

	assert.Empty(t, root.Validate(t.Context(), map[string]any{"code": "n/a", "role": "user"}, nil))
	iss := root.Validate(t.Context(), map[string]any{"code": "abc", "role": "root"}, nil)
	assert.Equal(t, []string{schemaforge.CodeNotPassedAnyContainer, schemaforge.CodeNotPassedAnyContainer}, iss.Codes())
	assert.Equal(t, "#/code", iss[0].Path)
	assert.Equal(t, "#/role", iss[1].Path)
}

func TestBuild_Errors(t *testing.T) {
	_, err := dsl.Object().Field("ok", dsl.Bool().MaxLength(3)).Build()
	assert.ErrorIs(t, err, dsl.ErrKindMismatch)

	_, err = dsl.Object().Field("p", dsl.String().Pattern("([")).Build()
	assert.ErrorIs(t, err, schemaforge.ErrInvalidPattern)

	_, err = dsl.Object().Field("d", dsl.Date().MinDate("sometime")).Build()
	assert.ErrorIs(t, err, schemaforge.ErrInvalidDate)

	_, err = dsl.Object().Field("s", dsl.String().MinDate("-1 year")).Build()
	assert.ErrorIs(t, err, dsl.ErrKindMismatch)

	_, err = dsl.Object().Require("ghost").Build()
	assert.ErrorIs(t, err, schemaforge.ErrPropertyNotFound)

	_, err = dsl.Object().When(dsl.Object(), nil).Build()
	assert.ErrorIs(t, err, schemaforge.ErrIncompleteCondition)

	assert.Panics(t, func() { dsl.Object().Require("ghost").MustBuild() })
}

func TestExportMatchesDeclarations(t *testing.T) {
	root := dsl.Object().
		Field("born", dsl.Date().MinDate("2000-01-01").Description("birthday")).Required().
		Field("zip", dsl.String().Validator("/zip", "check", map[string]string{"zip": "self"})).
		MustBuild()

	built, err := schemaforge.Build(root.Export(false))
	require.NoError(t, err)
	assert.Equal(t, root.Export(false), built.Export(false))
	assert.Equal(t, "2000-01-01", built.Property("born").MinValue())
	require.Len(t, built.Property("zip").Validators(), 1)
}
