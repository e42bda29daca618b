package schemaforge

import "context"

// FieldSelf binds a connector field to the value of the node that declares the
// binding.
const FieldSelf = "self"

// Connector is the caller-supplied boundary to external validators and schema
// sources. Errors returned by a Connector never abort a validation pass: a
// failed Validate contributes no issues and a failed ResolveSchema yields an
// empty object schema.
type Connector interface {
	// Validate submits resolved field values to the validator at url and
	// returns the issues it reports.
	Validate(ctx context.Context, url, method string, fields map[string]any) (Issues, error)
	// ResolveSchema fetches a schema tree from url for the resolved field
	// values.
	ResolveSchema(ctx context.Context, url, method string, fields map[string]any) (*Node, error)
}

// Binding describes a connector call: endpoint plus field bindings. Each
// binding maps a field name to FieldSelf or to a path into the input document.
type Binding struct {
	URL    string            `json:"url"`
	Method string            `json:"method"`
	Fields map[string]string `json:"fields"`
}

// Validator delegates validation of a node to an external service.
type Validator struct {
	Binding
}

// NewValidator returns a Validator for url/method with the given bindings.
func NewValidator(url, method string, fields map[string]string) *Validator {
	return &Validator{Binding{URL: url, Method: method, Fields: fields}}
}

// Source supplies an additional schema for a node from an external service.
type Source struct {
	Binding
}

// NewSource returns a Source for url/method with the given bindings.
func NewSource(url, method string, fields map[string]string) *Source {
	return &Source{Binding{URL: url, Method: method, Fields: fields}}
}
