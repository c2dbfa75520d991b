package toolchain

import (
	"encoding/json"
	"fmt"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/inferara/infs/api"
)

// QueryManifest evaluates a JSONPath expression against m, for example
// "$.versions[*].version" or "$.versions[?(@.prerelease == false)].version".
func QueryManifest(m *api.ReleaseManifest, expr string) ([]any, error) {
	x, err := jp.ParseString(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid query %q: %w", expr, err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	doc, err := oj.Parse(data)
	if err != nil {
		return nil, err
	}
	return x.Get(doc), nil
}
