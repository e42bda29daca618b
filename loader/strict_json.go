package loader

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

type jsonFrame struct {
	object       bool
	keys         map[string]struct{}
	expectingKey bool
	key          string
	idx          int
	segment      string
}

// checkJSONKeys walks data token by token and returns a *DuplicateKeyError
// for the first key declared twice in one object. Syntax errors are left to
// the decoder.
func checkJSONKeys(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var stack []*jsonFrame

	valueDone := func() {
		if len(stack) == 0 {
			return
		}
		top := stack[len(stack)-1]
		if top.object {
			top.expectingKey = true
		} else {
			top.idx++
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil
		}
		switch v := tok.(type) {
		case json.Delim:
			switch v {
			case '{', '[':
				f := &jsonFrame{object: v == '{', expectingKey: v == '{'}
				if f.object {
					f.keys = map[string]struct{}{}
				}
				if n := len(stack); n > 0 {
					if top := stack[n-1]; top.object {
						f.segment = top.key
					} else {
						f.segment = strconv.Itoa(top.idx)
					}
				}
				stack = append(stack, f)
			case '}', ']':
				if n := len(stack); n > 0 {
					stack = stack[:n-1]
				}
				valueDone()
			}
		case string:
			if n := len(stack); n > 0 {
				if top := stack[n-1]; top.object && top.expectingKey {
					if _, dup := top.keys[v]; dup {
						return &DuplicateKeyError{Key: v, Path: pointer(stack)}
					}
					top.keys[v] = struct{}{}
					top.key = v
					top.expectingKey = false
					continue
				}
			}
			valueDone()
		default:
			valueDone()
		}
	}
}

// pointer renders the JSON pointer of the innermost container.
func pointer(stack []*jsonFrame) string {
	if len(stack) <= 1 {
		return "/"
	}
	var b strings.Builder
	for _, f := range stack[1:] {
		b.WriteByte('/')
		b.WriteString(strings.NewReplacer("~", "~0", "/", "~1").Replace(f.segment))
	}
	return b.String()
}
