package criteria

import (
	"github.com/viant/lakeflow/service/dao"
)

// Match returns true when every parameter named in values accepts the corresponding value.
// Parameters with names absent from values are ignored.
func Match(values map[string]string, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		actual, ok := values[parameter.Name]
		if !ok {
			continue
		}
		if !accepts(actual, parameter.Value) {
			return false
		}
	}
	return true
}

func accepts(actual string, expected interface{}) bool {
	switch candidate := expected.(type) {
	case string:
		return actual == candidate
	case []string:
		if len(candidate) == 0 {
			return true
		}
		for _, s := range candidate {
			if actual == s {
				return true
			}
		}
		return false
	}
	return true
}
