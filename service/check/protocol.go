package check

import (
	"strings"

	"github.com/viant/lakeflow/model/graph"
	"github.com/viant/lakeflow/runtime/placeholder"
)

// Step names of a check chain
const (
	SubmitStep   = "submit"
	ResultsStep  = "results"
	DecisionStep = "decide"
)

// Protocol describes a query backed check: submit the query, wait for it, fetch the
// first result row into run state and route on it.
type Protocol struct {
	Name string
	// Query is the query text; {key} references are substituted from Context first
	// and the remaining ones from run state.
	Query string
	// QueryName names the query for the executor; a registered text is used when Query is empty
	QueryName string
	Context   map[string]interface{}
	// Assign maps run state keys to expressions over the results output, e.g. {result.rows[0][0]}
	Assign  map[string]string
	Rules   []*graph.Rule
	Default *graph.Node
	// Timeout bounds the blocking query wait
	Timeout string
}

// Node builds the check as a single chain
func (p *Protocol) Node() *graph.Node {
	handleKey := p.handleKey()
	input := map[string]interface{}{}
	if p.QueryName != "" {
		input["name"] = p.QueryName
	}
	if p.Query != "" {
		input["query"] = substitute(p.Query, p.Context)
	}
	if len(p.Context) > 0 {
		input["context"] = p.Context
	}
	submit := graph.NewTask(SubmitStep, "query", "submit", input).
		WithBlocking(p.Timeout).
		WithAssign(handleKey, "{result.queryExecutionId}")

	results := graph.NewTask(ResultsStep, "query", "results", map[string]interface{}{
		"queryExecutionId": "{" + handleKey + "}",
	})
	for key, expr := range p.Assign {
		results.WithAssign(key, expr)
	}
	decision := graph.NewChoice(DecisionStep, p.Default, p.Rules...)
	return graph.NewChain(p.Name, submit, results, decision)
}

func (p *Protocol) handleKey() string {
	key := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '_'
	}, p.Name)
	return key + "_query_execution_id"
}

// substitute replaces {key} references found in values, leaving the rest for run state resolution
func substitute(text string, values map[string]interface{}) string {
	for _, name := range placeholder.Names(text) {
		value, ok := values[name]
		if !ok {
			continue
		}
		text = strings.ReplaceAll(text, "{"+name+"}", placeholder.Stringify(value))
	}
	return text
}
