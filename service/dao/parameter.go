package dao

// Parameter names supported by execution stores
const (
	ParameterPipeline = "Pipeline"
	ParameterStatus   = "Status"
)

// Parameter represents a list filter
type Parameter struct {
	Name  string
	Value interface{}
}

func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}
