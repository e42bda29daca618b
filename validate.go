package schemaforge

import (
	"context"

	"go.uber.org/zap"

	"github.com/reoring/schemaforge/i18n"
)

// Validate checks input against the tree rooted at n and returns the issues in
// a stable order. Validator and source bindings are resolved against input as
// the top-level document. conn may be nil when the tree has no bindings.
func (n *Node) Validate(ctx context.Context, input any, conn Connector, opt ...ValidateOpt) Issues {
	s := newSession(ctx, input, conn, opt)
	iss := s.validate(n, input)
	s.log.Debug("validation finished", zap.String("node", n.FullPath()), zap.Int("issues", len(iss)))
	return iss
}

// Check is Validate returning the issues as an error, or nil.
func (n *Node) Check(ctx context.Context, input any, conn Connector, opt ...ValidateOpt) error {
	if iss := n.Validate(ctx, input, conn, opt...); len(iss) > 0 {
		return iss
	}
	return nil
}

func (s *session) validate(n *Node, input any) Issues {
	var errs Issues
	errs = append(errs, s.checkConst(n, input)...)
	errs = append(errs, s.checkComposition(n, input)...)
	errs = append(errs, s.checkValidators(n, input)...)
	errs = append(errs, s.checkSource(n, input)...)

	switch n.kind {
	case KindNull:
	case KindString:
		errs = append(errs, s.checkString(n, input)...)
	case KindEmailString:
		errs = append(errs, s.checkString(n, input)...)
		errs = append(errs, s.checkEmail(n, input)...)
	case KindDateString:
		errs = append(errs, s.checkString(n, input)...)
		errs = append(errs, s.checkDate(n, input)...)
	case KindBoolean:
		errs = append(errs, s.checkBoolean(n, input)...)
	case KindEnum:
		errs = append(errs, s.checkEnum(n, input)...)
	case KindReference:
		errs = append(errs, s.checkReference(n, input)...)
	case KindObject:
		errs = append(errs, s.checkObject(n, input)...)
	}
	return errs
}

func (s *session) checkConst(n *Node, input any) Issues {
	if n.constant == nil || equalValues(input, n.constant) {
		return nil
	}
	return Issues{s.issue(n.FullPath(), CodeNotEqualsToConst, map[string]any{"value": input, "const": n.constant})}
}

func (s *session) checkComposition(n *Node, input any) Issues {
	c := n.composition
	if c == nil {
		return nil
	}
	path := n.FullPath()
	notPassed := func() Issue {
		return s.issue(path, CodeNotPassedAnyContainer, map[string]any{"container": string(c.Op)})
	}
	switch c.Op {
	case OneOf:
		passed := false
		var cases []Issues
		for _, it := range c.Items {
			errs := s.validate(it, input)
			if len(errs) > 0 {
				cases = append(cases, errs)
				continue
			}
			if passed {
				return Issues{s.issue(path, CodeSatisfyMultipleCasesOneOf, nil)}
			}
			passed = true
		}
		if passed || len(cases) == 0 {
			return nil
		}
		out := Issues{notPassed()}
		for i, errs := range cases {
			for _, e := range errs {
				out = append(out, s.annotateCase(e, i))
			}
		}
		return out
	case AnyOf:
		for _, it := range c.Items {
			if len(s.validate(it, input)) == 0 {
				return nil
			}
		}
		return Issues{notPassed()}
	case AllOf:
		for _, it := range c.Items {
			if errs := s.validate(it, input); len(errs) > 0 {
				return append(Issues{notPassed()}, errs...)
			}
		}
	case Not:
		for _, it := range c.Items {
			if len(s.validate(it, input)) == 0 {
				return Issues{notPassed()}
			}
		}
	}
	return nil
}

func (s *session) checkValidators(n *Node, input any) Issues {
	var out Issues
	for _, v := range n.validators {
		out = append(out, repath(s.submit(n, v, input), n.FullPath())...)
	}
	return out
}

func (s *session) checkSource(n *Node, input any) Issues {
	if n.source == nil {
		return nil
	}
	schema := s.resolve(n, n.source, input)
	return repath(s.validate(schema, input), n.FullPath())
}

func (s *session) checkReference(n *Node, input any) Issues {
	path := n.FullPath()
	def := n.Root().Definition(n.ref)
	if def == nil {
		return Issues{s.issue(path, CodeDefinitionDoesNotExist, map[string]any{"reference": n.ref})}
	}
	if s.refDepth >= s.maxRefDepth {
		params := map[string]any{"reference": n.ref, "depth": s.maxRefDepth}
		return Issues{s.issueWith(path, CodeCustomError, i18n.KeyCyclicRef, params)}
	}
	s.refDepth++
	defer func() { s.refDepth-- }()
	return repath(s.validate(def, input), path)
}
