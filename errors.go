package schemaforge

import (
	"errors"
	"fmt"
	"html"
	"strings"
)

// Issue codes. The values are part of the public contract and stay stable.
const (
	CodeMoreThanMaxLength         = "schema.validation.max_length"
	CodeLessThanMinLength         = "schema.validation.min_length"
	CodeRegexpIsNotMatch          = "schema.validation.pattern"
	CodeNotValidEmail             = "schema.validation.email_not_valid"
	CodeNotValidDate              = "schema.validation.date"
	CodeLessThanMinValue          = "schema.validation.min_value"
	CodeMoreThanMaxValue          = "schema.validation.max_value"
	CodeNotInOptions              = "schema.validation.enum"
	CodeNotBoolean                = "schema.validation.boolean"
	CodeNotEqualsToConst          = "schema.validation.readonly"
	CodeRequiredPropertyMissing   = "schema.validation.required"
	CodeDependPropertyEmpty       = "schema.validation.dependency"
	CodeNotPassedAnyContainer     = "schema.validation.container.not_passed"
	CodeSatisfyMultipleCasesOneOf = "schema.validation.container.one_of.satisfy_multiple"
	CodeDefinitionDoesNotExist    = "schema.build.definition_does_not_exist"
	CodeCustomError               = "schema.validation.custom"
	CodeThenConditionNotPassed    = "then_condition_not_passed"
	CodeNotArray                  = "not_array"
)

// Issue represents a single validation entry.
type Issue struct {
	Path    string `json:"path"` // slash-joined node ids, e.g. #/address/street
	Code    string `json:"code"`
	Message string `json:"message"`
	// Params carries the values used to render Message, for i18n and
	// observability.
	Params map[string]any `json:"params,omitempty"`
}

// WebSafe returns a copy of the issue whose message is HTML-escaped.
func (i Issue) WebSafe() Issue {
	i.Message = html.EscapeString(i.Message)
	return i
}

// Issues is an ordered collection of validation errors that implements error.
type Issues []Issue

// Error lists the code and path of the first three issues and the total
// when more remain.
func (iss Issues) Error() string {
	const shown = 3
	parts := make([]string, 0, shown+1)
	for _, it := range iss[:min(len(iss), shown)] {
		parts = append(parts, it.Code+" at "+it.Path)
	}
	if len(iss) > shown {
		parts = append(parts, fmt.Sprintf("... (total %d)", len(iss)))
	}
	return strings.Join(parts, "; ")
}

// Codes lists the codes of all issues in order.
func (iss Issues) Codes() []string {
	out := make([]string, len(iss))
	for i, it := range iss {
		out[i] = it.Code
	}
	return out
}

// AsIssues reports whether err wraps Issues and returns them.
func AsIssues(err error) (Issues, bool) {
	var iss Issues
	ok := errors.As(err, &iss)
	return iss, ok
}

// Build failures. They are wrapped in *BuildError.
var (
	ErrMissingType          = errors.New("schemaforge: type is not set")
	ErrUnknownType          = errors.New("schemaforge: unknown type")
	ErrUnknownMergeStrategy = errors.New("schemaforge: unknown merge strategy")
	ErrInvalidDate          = errors.New("schemaforge: invalid date expression")
	ErrPropertyNotFound     = errors.New("schemaforge: property not found")
	ErrNotObject            = errors.New("schemaforge: property is not an object")
	ErrUnknownField         = errors.New("schemaforge: unknown field")
	ErrMissingOptions       = errors.New("schemaforge: enum options are not set")
	ErrInvalidPattern       = errors.New("schemaforge: invalid pattern")
	ErrIncompleteCondition  = errors.New("schemaforge: if and then must be declared together")
	ErrMalformed            = errors.New("schemaforge: malformed declaration")
)

// BuildError reports a declaration that cannot be turned into a node.
type BuildError struct {
	Path  string // full path of the node being built
	Field string // offending declaration key, when known
	Err   error
	// Detail is an optional human readable addition (the offending value).
	Detail string
}

func (e *BuildError) Error() string {
	b := &strings.Builder{}
	b.WriteString(e.Err.Error())
	if e.Field != "" {
		fmt.Fprintf(b, " (field %q", e.Field)
		if e.Detail != "" {
			fmt.Fprintf(b, ": %s", e.Detail)
		}
		b.WriteString(")")
	} else if e.Detail != "" {
		fmt.Fprintf(b, " (%s)", e.Detail)
	}
	if e.Path != "" {
		fmt.Fprintf(b, " at %s", e.Path)
	}
	return b.String()
}

func (e *BuildError) Unwrap() error { return e.Err }

func buildErr(path, field string, err error, detail string) *BuildError {
	return &BuildError{Path: path, Field: field, Err: err, Detail: detail}
}
