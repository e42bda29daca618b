package connector_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/connector"
)

func zipRouter() *connector.Router {
	return connector.NewRouter().
		HandleValidate("check", "/zip", func(_ context.Context, fields map[string]any) (schemaforge.Issues, error) {
			if fields["zip"] == "00000" {
				return schemaforge.Issues{schemaforge.IssueAt("", schemaforge.CodeCustomError, "unknown zip", nil)}, nil
			}
			return nil, nil
		}).
		HandleSchema("get", "/extra", func(_ context.Context, fields map[string]any) (*schemaforge.Node, error) {
			if fields["country"] == "XX" {
				return nil, errors.New("no such country")
			}
			return schemaforge.NewObject(schemaforge.RootID).
				AddProperty(schemaforge.NewString("state").SetRequired(true)), nil
		})
}

func addressSchema() *schemaforge.Node {
	return schemaforge.NewObject(schemaforge.RootID).
		AddProperty(schemaforge.NewString("zip").
			AddValidator(schemaforge.NewValidator("/zip", "check", map[string]string{"zip": "self"}))).
		AddProperty(schemaforge.NewString("country")).
		SetSource(schemaforge.NewSource("/extra", "get", map[string]string{"country": "country"}))
}

func TestRouter_Dispatch(t *testing.T) {
	r := zipRouter()

	iss, err := r.Validate(t.Context(), "/zip", "check", map[string]any{"zip": "00000"})
	require.NoError(t, err)
	assert.Equal(t, []string{schemaforge.CodeCustomError}, iss.Codes())

	_, err = r.Validate(t.Context(), "/zip", "post", nil)
	assert.ErrorIs(t, err, connector.ErrNoRoute)
	_, err = r.ResolveSchema(t.Context(), "/nope", "get", nil)
	assert.ErrorIs(t, err, connector.ErrNoRoute)
}

func TestRouter_DrivesValidation(t *testing.T) {
	s := addressSchema()
	r := zipRouter()

	iss := s.Validate(t.Context(), map[string]any{"zip": "00000", "country": "DE"}, r)
	require.Len(t, iss, 2)
	assert.Equal(t, schemaforge.CodeRequiredPropertyMissing, iss[0].Code)
	assert.Equal(t, "#", iss[0].Path)
	assert.Equal(t, schemaforge.Issue{Path: "#/zip", Code: schemaforge.CodeCustomError, Message: "unknown zip"}, iss[1])

	assert.Empty(t, s.Validate(t.Context(), map[string]any{"zip": "12345", "country": "DE", "state": "BE"}, r))
}

func TestInstrument_CountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	ic, err := connector.Instrument(zipRouter(), reg)
	require.NoError(t, err)

	_, _ = ic.Validate(t.Context(), "/zip", "check", map[string]any{"zip": "12345"})
	_, _ = ic.Validate(t.Context(), "/zip", "check", map[string]any{"zip": "00000"})
	_, err = ic.ResolveSchema(t.Context(), "/extra", "get", map[string]any{"country": "XX"})
	require.Error(t, err)

	expected := `
# HELP schemaforge_connector_calls_total Total number of connector calls by operation and outcome
# TYPE schemaforge_connector_calls_total counter
schemaforge_connector_calls_total{op="resolve",outcome="error"} 1
schemaforge_connector_calls_total{op="validate",outcome="ok"} 1
schemaforge_connector_calls_total{op="validate",outcome="rejected"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "schemaforge_connector_calls_total"))

	n, err := testutil.GatherAndCount(reg, "schemaforge_connector_call_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestInstrument_SharesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := connector.Instrument(zipRouter(), reg)
	require.NoError(t, err)
	second, err := connector.Instrument(zipRouter(), reg)
	require.NoError(t, err)

	_, _ = first.Validate(t.Context(), "/zip", "check", nil)
	_, _ = second.Validate(t.Context(), "/zip", "check", nil)

	expected := `
# HELP schemaforge_connector_calls_total Total number of connector calls by operation and outcome
# TYPE schemaforge_connector_calls_total counter
schemaforge_connector_calls_total{op="validate",outcome="ok"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "schemaforge_connector_calls_total"))
}

func TestInstrument_EndToEnd(t *testing.T) {
	reg := prometheus.NewRegistry()
	ic, err := connector.Instrument(zipRouter(), reg)
	require.NoError(t, err)

	iss := addressSchema().Validate(t.Context(), map[string]any{"zip": "1", "country": "XX"}, ic)
	assert.Empty(t, iss, "source failure falls back to an empty schema")

	n, err := testutil.GatherAndCount(reg, "schemaforge_connector_calls_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
