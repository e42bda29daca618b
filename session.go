package schemaforge

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reoring/schemaforge/i18n"
)

// DefaultMaxRefDepth bounds nested reference resolution in one pass.
const DefaultMaxRefDepth = 64

// ValidateOpt bundles validation options.
type ValidateOpt struct {
	// Logger receives connector failures and pass summaries. Defaults to a
	// no-op logger.
	Logger *zap.Logger
	// Translator renders issue messages. Defaults to i18n.Current().
	Translator i18n.Translator
	// SessionID identifies the pass in logs and in the context handed to the
	// connector. A random UUID is used when empty.
	SessionID string
	// MaxRefDepth bounds nested reference resolution. Defaults to
	// DefaultMaxRefDepth.
	MaxRefDepth int
}

type contextKey int

const (
	_ctxKeySessionID contextKey = iota
)

// WithSessionID returns a child context carrying a validation session id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, _ctxKeySessionID, id)
}

// SessionIDFrom returns the validation session id carried by ctx, or "".
func SessionIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(_ctxKeySessionID).(string)
	return id
}

// session holds the state of one validation pass. The schema tree itself is
// never written to while validating.
type session struct {
	ctx         context.Context
	conn        Connector
	doc         any
	log         *zap.Logger
	tr          i18n.Translator
	maxRefDepth int
	refDepth    int
	bound       map[boundKey]map[string]any
}

type boundKey struct {
	node *Node
	v    *Validator
}

func newSession(ctx context.Context, doc any, conn Connector, opts []ValidateOpt) *session {
	var opt ValidateOpt
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	if opt.Translator == nil {
		opt.Translator = i18n.Current()
	}
	if opt.SessionID == "" {
		opt.SessionID = uuid.NewString()
	}
	if opt.MaxRefDepth <= 0 {
		opt.MaxRefDepth = DefaultMaxRefDepth
	}
	return &session{
		ctx:         WithSessionID(ctx, opt.SessionID),
		conn:        conn,
		doc:         doc,
		log:         opt.Logger.With(zap.String("session", opt.SessionID)),
		tr:          opt.Translator,
		maxRefDepth: opt.MaxRefDepth,
		bound:       map[boundKey]map[string]any{},
	}
}

// issue builds an Issue whose message is rendered from params.
func (s *session) issue(path, code string, params map[string]any) Issue {
	return s.issueWith(path, code, code, params)
}

// issueWith renders the message from the template key instead of the code.
func (s *session) issueWith(path, code, key string, params map[string]any) Issue {
	return Issue{Path: path, Code: code, Message: s.tr.Message(key, renderParams(params)), Params: params}
}

// fields binds b's fields for node n whose own value is input.
func (s *session) fields(b Binding, input any) map[string]any {
	out := make(map[string]any, len(b.Fields))
	_, structured := asDocument(s.doc)
	for name, p := range b.Fields {
		switch {
		case p == FieldSelf:
			out[name] = input
		case structured:
			out[name], _ = ValueAt(s.doc, p)
		default:
			out[name] = input
		}
	}
	return out
}

// sourceFields binds a source's fields against the node's own value rather
// than the top-level document. Missing paths bind nil.
func sourceFields(b Binding, input any) map[string]any {
	out := make(map[string]any, len(b.Fields))
	for name, p := range b.Fields {
		out[name], _ = ValueAt(input, p)
	}
	return out
}

// boundFields resolves a validator's fields once per pass.
func (s *session) boundFields(n *Node, v *Validator, input any) map[string]any {
	k := boundKey{node: n, v: v}
	if f, ok := s.bound[k]; ok {
		return f
	}
	f := s.fields(v.Binding, input)
	s.bound[k] = f
	return f
}

func (s *session) submit(n *Node, v *Validator, input any) (out Issues) {
	logger := s.log.With(zap.String("node", n.FullPath()), zap.String("url", v.URL), zap.String("method", v.Method))
	if s.conn == nil {
		logger.Warn("validator skipped: no connector")
		return nil
	}
	fields := s.boundFields(n, v, input)
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("validator panicked", zap.String("panic", fmt.Sprint(r)))
			out = nil
		}
	}()
	iss, err := s.conn.Validate(s.ctx, v.URL, v.Method, fields)
	if err != nil {
		logger.Warn("validator failed", zap.Error(err))
		return nil
	}
	return iss
}

func (s *session) resolve(n *Node, src *Source, input any) (root *Node) {
	logger := s.log.With(zap.String("node", n.FullPath()), zap.String("url", src.URL), zap.String("method", src.Method))
	empty := NewObject(RootID)
	if s.conn == nil {
		logger.Warn("source skipped: no connector")
		return empty
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("source panicked", zap.String("panic", fmt.Sprint(r)))
			root = empty
		}
	}()
	schema, err := s.conn.ResolveSchema(s.ctx, src.URL, src.Method, sourceFields(src.Binding, input))
	if err != nil {
		logger.Warn("source failed", zap.Error(err))
		return empty
	}
	if schema == nil {
		return empty
	}
	return schema
}
