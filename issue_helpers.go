package schemaforge

import (
	"maps"

	"github.com/reoring/schemaforge/i18n"
)

// IssueAt creates an Issue at the given path with provided code, message and
// params map.
func IssueAt(path, code, msg string, params map[string]any) Issue {
	return Issue{Path: path, Code: code, Message: msg, Params: params}
}

// repath moves every issue to path, keeping code, message and params.
func repath(iss Issues, path string) Issues {
	if len(iss) == 0 {
		return nil
	}
	out := make(Issues, len(iss))
	for i, it := range iss {
		it.Path = path
		out[i] = it
	}
	return out
}

// underPath prefixes every issue path with prefix.
func underPath(iss Issues, prefix string) Issues {
	out := make(Issues, len(iss))
	for i, it := range iss {
		it.Path = JoinPath(prefix, it.Path)
		out[i] = it
	}
	return out
}

// annotateCase tags an issue from a failed oneOf item with the item index.
func (s *session) annotateCase(it Issue, idx int) Issue {
	it.Message = s.tr.Message(i18n.KeyOneOfCase, map[string]string{"message": it.Message, "case": display(idx)})
	params := maps.Clone(it.Params)
	if params == nil {
		params = map[string]any{}
	}
	params["case"] = idx
	it.Params = params
	return it
}

func renderParams(params map[string]any) map[string]string {
	data := make(map[string]string, len(params))
	for k, v := range params {
		data[k] = display(v)
	}
	return data
}
