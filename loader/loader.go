// Package loader turns serialized schema declarations into Configs: a built
// root node plus the variables, customData and root-level oneOf/allOf lists
// that travel with it.
//
// A declaration document is a root object declaration with four extra
// top-level keys:
//
//	properties: {...}
//	definitions: {...}
//	variables: {name: value}
//	customData: {...}
//	oneOf: [...]
//	allOf: [...]
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/reoring/schemaforge"
)

// Top-level document keys that are not part of the root declaration.
const (
	KeyVariables  = "variables"
	KeyCustomData = "customData"
	KeyOneOf      = "oneOf"
	KeyAllOf      = "allOf"
)

var (
	// ErrNotMapping is returned when a document is not a key/value mapping.
	ErrNotMapping = errors.New("loader: document is not a mapping")
	// ErrUnsupportedFormat is returned by FromFile for unknown extensions.
	ErrUnsupportedFormat = errors.New("loader: unsupported file format")
)

// Config is one loaded declaration document.
type Config struct {
	Root       *schemaforge.Node
	Variables  map[string]any
	CustomData map[string]any
	OneOf      []any
	AllOf      []any
}

// FromMap builds a Config from an already decoded document.
func FromMap(doc map[string]any) (*Config, error) {
	cfg := &Config{}
	decl := make(map[string]any, len(doc))
	for k, v := range doc {
		switch k {
		case KeyVariables:
			m, err := mapping(k, v)
			if err != nil {
				return nil, err
			}
			cfg.Variables = m
		case KeyCustomData:
			m, err := mapping(k, v)
			if err != nil {
				return nil, err
			}
			cfg.CustomData = m
		case KeyOneOf:
			l, err := list(k, v)
			if err != nil {
				return nil, err
			}
			cfg.OneOf = l
		case KeyAllOf:
			l, err := list(k, v)
			if err != nil {
				return nil, err
			}
			cfg.AllOf = l
		default:
			decl[k] = v
		}
	}
	root, err := schemaforge.Build(decl)
	if err != nil {
		return nil, err
	}
	cfg.Root = root
	return cfg, nil
}

// FromJSON decodes a JSON document. Duplicate keys are rejected.
func FromJSON(data []byte) (*Config, error) {
	if err := checkJSONKeys(data); err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("loader: decode json: %w", err)
	}
	return fromDocument(doc)
}

// FromYAML decodes the first document of a YAML stream.
func FromYAML(data []byte) (*Config, error) {
	doc, err := newYAMLReader(bytes.NewReader(data)).next()
	if errors.Is(err, io.EOF) {
		return FromMap(map[string]any{})
	}
	if err != nil {
		return nil, fmt.Errorf("loader: decode yaml: %w", err)
	}
	return fromDocument(doc)
}

// ReadYAML decodes every document of a YAML stream, in order.
func ReadYAML(r io.Reader) ([]*Config, error) {
	yr := newYAMLReader(r)
	var out []*Config
	for i := 0; ; i++ {
		doc, err := yr.next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("loader: decode yaml document %d: %w", i, err)
		}
		cfg, err := fromDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("loader: document %d: %w", i, err)
		}
		out = append(out, cfg)
	}
}

// FromFile loads path, choosing the decoder by extension (.json, .yml, .yaml).
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FromJSON(data)
	case ".yml", ".yaml":
		return FromYAML(data)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

func fromDocument(doc any) (*Config, error) {
	if doc == nil {
		return FromMap(map[string]any{})
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrNotMapping, doc)
	}
	return FromMap(m)
}

func mapping(key string, v any) (map[string]any, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a mapping, got %T", ErrNotMapping, key, v)
	}
	return m, nil
}

func list(key string, v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	l, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("loader: %s must be a list, got %T", key, v)
	}
	return l, nil
}
