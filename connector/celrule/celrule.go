// Package celrule implements remote field validators as CEL expressions
// evaluated in-process. An expression sees the bound fields as the map
// variable "fields" and must evaluate to a bool; false rejects the value.
//
//	- method: check
//	  url: /zip
//	  expr: size(fields.zip) == 5
//	  message: zip code must have five digits
package celrule

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"gopkg.in/yaml.v3"

	"github.com/reoring/schemaforge"
	"github.com/reoring/schemaforge/connector"
)

// ErrNotBool is returned for expressions that do not produce a bool.
var ErrNotBool = errors.New("celrule: expression does not evaluate to bool")

// VarFields is the variable holding the bound fields.
const VarFields = "fields"

// Rule is a compiled expression. It is safe for concurrent use.
type Rule struct {
	expr    string
	message string
	prg     cel.Program
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(cel.Variable(VarFields, cel.MapType(cel.StringType, cel.DynType)))
}

// Compile type-checks expr. message becomes the issue message when the
// expression evaluates to false.
func Compile(expr, message string) (*Rule, error) {
	env, err := newEnv()
	if err != nil {
		return nil, err
	}
	ast, iss := env.Compile(expr)
	if iss.Err() != nil {
		return nil, fmt.Errorf("celrule: compile %q: %w", expr, iss.Err())
	}
	switch ast.OutputType().Kind() {
	case types.BoolKind, types.DynKind:
	default:
		return nil, fmt.Errorf("%w: %q has type %s", ErrNotBool, expr, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("celrule: program %q: %w", expr, err)
	}
	return &Rule{expr: expr, message: message, prg: prg}, nil
}

func (r *Rule) Expr() string { return r.expr }

// Eval runs the rule. A false result yields one custom issue; evaluation
// failures are errors.
func (r *Rule) Eval(ctx context.Context, fields map[string]any) (schemaforge.Issues, error) {
	if fields == nil {
		fields = map[string]any{}
	}
	out, _, err := r.prg.ContextEval(ctx, map[string]any{VarFields: fields})
	if err != nil {
		return nil, fmt.Errorf("celrule: eval %q: %w", r.expr, err)
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return nil, fmt.Errorf("%w: %q returned %s", ErrNotBool, r.expr, out.Type())
	}
	if ok {
		return nil, nil
	}
	return schemaforge.Issues{schemaforge.IssueAt("", schemaforge.CodeCustomError, r.message, map[string]any{"rule": r.expr})}, nil
}

// Spec declares a rule bound to a validator route.
type Spec struct {
	Method  string `yaml:"method" json:"method"`
	URL     string `yaml:"url" json:"url"`
	Expr    string `yaml:"expr" json:"expr"`
	Message string `yaml:"message" json:"message"`
}

// ReadSpecs decodes a YAML list of Specs.
func ReadSpecs(r io.Reader) ([]Spec, error) {
	var specs []Spec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&specs); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("celrule: decode specs: %w", err)
	}
	return specs, nil
}

// Register compiles specs and mounts them on r. Rules sharing a route run
// in declaration order and their issues are concatenated.
func Register(r *connector.Router, specs []Spec) error {
	type route struct{ method, url string }
	grouped := map[route][]*Rule{}
	var order []route
	for i, s := range specs {
		rule, err := Compile(s.Expr, s.Message)
		if err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
		k := route{s.Method, s.URL}
		if _, seen := grouped[k]; !seen {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], rule)
	}
	for _, k := range order {
		rules := grouped[k]
		r.HandleValidate(k.method, k.url, func(ctx context.Context, fields map[string]any) (schemaforge.Issues, error) {
			var out schemaforge.Issues
			for _, rule := range rules {
				iss, err := rule.Eval(ctx, fields)
				if err != nil {
					return nil, err
				}
				out = append(out, iss...)
			}
			return out, nil
		})
	}
	return nil
}
