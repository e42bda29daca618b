package schemaforge_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/schemaforge"
)

type call struct {
	session string
	url     string
	method  string
	fields  map[string]any
}

type stubConnector struct {
	mu       sync.Mutex
	calls    []call
	validate func(url string, fields map[string]any) (schemaforge.Issues, error)
	resolve  func(url string, fields map[string]any) (*schemaforge.Node, error)
}

func (c *stubConnector) record(ctx context.Context, url, method string, fields map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call{session: schemaforge.SessionIDFrom(ctx), url: url, method: method, fields: fields})
}

func (c *stubConnector) Validate(ctx context.Context, url, method string, fields map[string]any) (schemaforge.Issues, error) {
	c.record(ctx, url, method, fields)
	if c.validate == nil {
		return nil, nil
	}
	return c.validate(url, fields)
}

func (c *stubConnector) ResolveSchema(ctx context.Context, url, method string, fields map[string]any) (*schemaforge.Node, error) {
	c.record(ctx, url, method, fields)
	if c.resolve == nil {
		return nil, errors.New("no schema")
	}
	return c.resolve(url, fields)
}

func zipSchema(t *testing.T) *schemaforge.Node {
	return mustBuild(t, map[string]any{
		"properties": map[string]any{
			"zip": map[string]any{
				"type": "string",
				"validators": []any{map[string]any{
					"url":    "/zip",
					"method": "GET",
					"fields": map[string]any{"code": "self", "country": "address/country", "missing": "nowhere"},
				}},
			},
			"address": map[string]any{
				"type":       "object",
				"properties": map[string]any{"country": map[string]any{"type": "string"}},
			},
		},
	})
}

func TestValidators_BindFieldsAndRepathIssues(t *testing.T) {
	root := zipSchema(t)
	conn := &stubConnector{validate: func(url string, fields map[string]any) (schemaforge.Issues, error) {
		return schemaforge.Issues{{Path: "elsewhere", Code: "zip_not_valid", Message: "bad zip"}}, nil
	}}
	input := map[string]any{"zip": "123", "address": map[string]any{"country": "DE"}}

	iss := root.Validate(t.Context(), input, conn, schemaforge.ValidateOpt{SessionID: "s-1"})
	require.Len(t, iss, 1)
	assert.Equal(t, "#/zip", iss[0].Path)
	assert.Equal(t, "zip_not_valid", iss[0].Code)
	assert.Equal(t, "bad zip", iss[0].Message)

	require.Len(t, conn.calls, 1)
	assert.Equal(t, "s-1", conn.calls[0].session)
	assert.Equal(t, "/zip", conn.calls[0].url)
	assert.Equal(t, "GET", conn.calls[0].method)
	assert.Equal(t, map[string]any{"code": "123", "country": "DE", "missing": nil}, conn.calls[0].fields)
}

func TestValidators_FailuresAreSwallowed(t *testing.T) {
	root := zipSchema(t)
	input := map[string]any{"zip": "123"}

	failing := &stubConnector{validate: func(string, map[string]any) (schemaforge.Issues, error) {
		return nil, errors.New("connection refused")
	}}
	assert.Empty(t, root.Validate(t.Context(), input, failing))

	panicking := &stubConnector{validate: func(string, map[string]any) (schemaforge.Issues, error) {
		panic("boom")
	}}
	assert.Empty(t, root.Validate(t.Context(), input, panicking))

	assert.Empty(t, root.Validate(t.Context(), input, nil))
}

func TestValidators_TreeIsReusableAcrossSessions(t *testing.T) {
	root := zipSchema(t)
	conn := &stubConnector{}
	root.Validate(t.Context(), map[string]any{"zip": "111"}, conn)
	root.Validate(t.Context(), map[string]any{"zip": "222"}, conn)
	require.Len(t, conn.calls, 2)
	assert.Equal(t, "111", conn.calls[0].fields["code"])
	assert.Equal(t, "222", conn.calls[1].fields["code"])
	assert.NotEqual(t, conn.calls[0].session, conn.calls[1].session)
}

func TestValidators_ConcurrentSessions(t *testing.T) {
	root := zipSchema(t)
	conn := &stubConnector{validate: func(_ string, fields map[string]any) (schemaforge.Issues, error) {
		if fields["code"] == "bad" {
			return schemaforge.Issues{{Code: "zip_not_valid"}}, nil
		}
		return nil, nil
	}}
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(bad bool) {
			defer wg.Done()
			code := "good"
			if bad {
				code = "bad"
			}
			iss := root.Validate(context.Background(), map[string]any{"zip": code}, conn)
			if bad {
				assert.Len(t, iss, 1)
			} else {
				assert.Empty(t, iss)
			}
		}(i%2 == 0)
	}
	wg.Wait()
}

func TestValidators_ScalarDocumentBindsEveryField(t *testing.T) {
	n, err := schemaforge.FromDeclaration("code", map[string]any{
		"type": "string",
		"validators": []any{map[string]any{
			"url": "/code", "method": "GET", "fields": map[string]any{"a": "self", "b": "some/path"},
		}},
	})
	require.NoError(t, err)
	conn := &stubConnector{}
	n.Validate(t.Context(), "XYZ", conn)
	require.Len(t, conn.calls, 1)
	assert.Equal(t, map[string]any{"a": "XYZ", "b": "XYZ"}, conn.calls[0].fields)
}

func TestSource_IssuesAreRepathed(t *testing.T) {
	root := mustBuild(t, map[string]any{
		"properties": map[string]any{
			"address": map[string]any{
				"type":   "object",
				"source": map[string]any{"url": "/address-schema", "method": "GET", "fields": map[string]any{"country": "country"}},
			},
		},
	})
	conn := &stubConnector{resolve: func(_ string, fields map[string]any) (*schemaforge.Node, error) {
		return schemaforge.Build(map[string]any{
			"properties": map[string]any{"street": map[string]any{"type": "string", "required": true}},
		})
	}}
	iss := root.Validate(t.Context(), map[string]any{"address": map[string]any{"country": "DE"}}, conn)
	require.Len(t, iss, 1)
	assert.Equal(t, "#/address", iss[0].Path)
	assert.Equal(t, schemaforge.CodeRequiredPropertyMissing, iss[0].Code)
	assert.Equal(t, "Required property 'street' is missing", iss[0].Message)
}

func TestSource_FieldsBindAgainstNodeInput(t *testing.T) {
	root := mustBuild(t, map[string]any{
		"properties": map[string]any{
			"address": map[string]any{
				"type": "object",
				"source": map[string]any{"url": "/address-schema", "method": "GET", "fields": map[string]any{
					"country": "country", "city": "location/city", "missing": "nowhere",
				}},
			},
			"country": map[string]any{"type": "string"},
		},
	})
	conn := &stubConnector{resolve: func(string, map[string]any) (*schemaforge.Node, error) {
		return schemaforge.NewObject(schemaforge.RootID), nil
	}}
	input := map[string]any{
		"country": "DE",
		"address": map[string]any{"country": "FR", "location": map[string]any{"city": "Lyon"}},
	}
	assert.Empty(t, root.Validate(t.Context(), input, conn))
	require.Len(t, conn.calls, 1)
	assert.Equal(t, map[string]any{"country": "FR", "city": "Lyon", "missing": nil}, conn.calls[0].fields)
}

func TestSource_FailureYieldsEmptySchema(t *testing.T) {
	root := mustBuild(t, map[string]any{
		"properties": map[string]any{
			"address": map[string]any{
				"type":   "object",
				"source": map[string]any{"url": "/address-schema", "method": "GET", "fields": map[string]any{}},
			},
		},
	})
	conn := &stubConnector{}
	assert.Empty(t, root.Validate(t.Context(), map[string]any{"address": map[string]any{"x": 1}}, conn))
	require.Len(t, conn.calls, 1)
}

func TestValidators_OneOfStopsAtSecondMatch(t *testing.T) {
	conn := &stubConnector{}
	n := schemaforge.NewString("v").SetComposition(schemaforge.OneOf,
		schemaforge.NewString(""),
		schemaforge.NewString("").SetMaxLength(10),
		schemaforge.NewString("").AddValidator(schemaforge.NewValidator("/late", "GET", map[string]string{"v": "self"})))

	iss := n.Validate(t.Context(), "abc", conn)
	assert.Equal(t, []string{schemaforge.CodeSatisfyMultipleCasesOneOf}, iss.Codes())
	assert.Empty(t, conn.calls)
}

func TestValidators_FieldsBindOncePerPass(t *testing.T) {
	root := mustBuild(t, map[string]any{
		"properties": map[string]any{
			"cost":  map[string]any{"type": "reference", "ref": "#/definitions/money"},
			"price": map[string]any{"type": "reference", "ref": "#/definitions/money"},
		},
		"definitions": map[string]any{
			"money": map[string]any{
				"type": "string",
				"validators": []any{map[string]any{
					"url": "/amount", "method": "GET", "fields": map[string]any{"amount": "self"},
				}},
			},
		},
	})
	conn := &stubConnector{}

	root.Validate(t.Context(), map[string]any{"cost": "20", "price": "10"}, conn)
	require.Len(t, conn.calls, 2)
	assert.Equal(t, "20", conn.calls[0].fields["amount"])
	assert.Equal(t, "20", conn.calls[1].fields["amount"], "second reference reuses the bound fields")

	root.Validate(t.Context(), map[string]any{"cost": "30"}, conn)
	require.Len(t, conn.calls, 3)
	assert.Equal(t, "30", conn.calls[2].fields["amount"])
}
