package graph

import (
	"errors"
	"fmt"

	"github.com/viant/lakeflow/model/failure"
	"github.com/viant/lakeflow/runtime/evaluator"
)

// Kind represents workflow node kind
type Kind string

const (
	KindTask     Kind = "task"
	KindChain    Kind = "chain"
	KindParallel Kind = "parallel"
	KindMap      Kind = "map"
	KindChoice   Kind = "choice"
	KindGuard    Kind = "guard"
	KindSucceed  Kind = "succeed"
	KindFail     Kind = "fail"
)

type (
	// Node is a workflow tree node; the populated field depends on Kind
	Node struct {
		Name   string  `json:"name" yaml:"name"`
		Kind   Kind    `json:"kind" yaml:"kind"`
		Task   *Task   `json:"task,omitempty" yaml:"task,omitempty"`
		Nodes  []*Node `json:"nodes,omitempty" yaml:"nodes,omitempty"`
		Map    *Map    `json:"map,omitempty" yaml:"map,omitempty"`
		Choice *Choice `json:"choice,omitempty" yaml:"choice,omitempty"`
		Guard  *Guard  `json:"guard,omitempty" yaml:"guard,omitempty"`
		Fail   *Fail   `json:"fail,omitempty" yaml:"fail,omitempty"`
	}

	// Map runs Template once per element of the Items list expression
	Map struct {
		Items          string            `json:"items" yaml:"items"`
		ItemKey        string            `json:"itemKey,omitempty" yaml:"itemKey,omitempty"`
		IndexKey       string            `json:"indexKey,omitempty" yaml:"indexKey,omitempty"`
		MaxConcurrency int               `json:"maxConcurrency,omitempty" yaml:"maxConcurrency,omitempty"`
		Seed           map[string]string `json:"seed,omitempty" yaml:"seed,omitempty"`
		Template       *Node             `json:"template" yaml:"template"`
	}

	// Choice routes to the first matching rule, or Default
	Choice struct {
		Rules   []*Rule `json:"rules,omitempty" yaml:"rules,omitempty"`
		Default *Node   `json:"default,omitempty" yaml:"default,omitempty"`
	}

	// Rule compares a run state value with a literal Value or another run state value (Ref)
	Rule struct {
		Variable string      `json:"variable" yaml:"variable"`
		Operator string      `json:"operator,omitempty" yaml:"operator,omitempty"`
		Value    interface{} `json:"value,omitempty" yaml:"value,omitempty"`
		Ref      string      `json:"ref,omitempty" yaml:"ref,omitempty"`
		Next     *Node       `json:"next" yaml:"next"`
	}

	// Guard runs Body only when no other execution of Pipeline is running
	Guard struct {
		Pipeline string `json:"pipeline,omitempty" yaml:"pipeline,omitempty"`
		Body     *Node  `json:"body" yaml:"body"`
	}

	// Fail terminates with a classified failure; Cause may reference run state and
	// Values names the run state keys reported with the failure.
	Fail struct {
		Error  failure.Kind `json:"error" yaml:"error"`
		Cause  string       `json:"cause,omitempty" yaml:"cause,omitempty"`
		Values []string     `json:"values,omitempty" yaml:"values,omitempty"`
	}
)

// Default item key used by map instances
const (
	DefaultItemKey  = "item"
	DefaultIndexKey = "item_index"
)

// Key returns the run state key the item is exposed under
func (m *Map) Key() string {
	if m.ItemKey == "" {
		return DefaultItemKey
	}
	return m.ItemKey
}

// Index returns the run state key the item index is exposed under
func (m *Map) Index() string {
	if m.IndexKey == "" {
		return DefaultIndexKey
	}
	return m.IndexKey
}

// NewTask creates a task node
func NewTask(name, service, method string, input map[string]interface{}) *Node {
	task := &Task{}
	return &Node{Name: name, Kind: KindTask, Task: task.WithAction(service, method, input)}
}

// WithBlocking marks task as blocking with optional timeout
func (n *Node) WithBlocking(timeout string) *Node {
	if n.Task != nil {
		n.Task.Blocking = true
		n.Task.Timeout = timeout
	}
	return n
}

// WithAssign declares task output key
func (n *Node) WithAssign(key, expr string) *Node {
	if n.Task != nil {
		if n.Task.Assign == nil {
			n.Task.Assign = map[string]string{}
		}
		n.Task.Assign[key] = expr
	}
	return n
}

// NewChain creates a sequential node
func NewChain(name string, nodes ...*Node) *Node {
	return &Node{Name: name, Kind: KindChain, Nodes: nodes}
}

// NewParallel creates a parallel branch set
func NewParallel(name string, branches ...*Node) *Node {
	return &Node{Name: name, Kind: KindParallel, Nodes: branches}
}

// NewMap creates a fan-out map; maxConcurrency 0 means unbounded
func NewMap(name, items string, maxConcurrency int, template *Node) *Node {
	return &Node{Name: name, Kind: KindMap, Map: &Map{Items: items, MaxConcurrency: maxConcurrency, Template: template}}
}

// WithSeed adds a per item value resolved against the item and run state
func (n *Node) WithSeed(key, expr string) *Node {
	if n.Map != nil {
		if n.Map.Seed == nil {
			n.Map.Seed = map[string]string{}
		}
		n.Map.Seed[key] = expr
	}
	return n
}

// WithItemKey sets the run state key of the map item
func (n *Node) WithItemKey(key string) *Node {
	if n.Map != nil {
		n.Map.ItemKey = key
	}
	return n
}

// NewChoice creates a choice gate
func NewChoice(name string, defaultNode *Node, rules ...*Rule) *Node {
	return &Node{Name: name, Kind: KindChoice, Choice: &Choice{Rules: rules, Default: defaultNode}}
}

// When creates a rule comparing variable with a literal value
func When(variable, operator string, value interface{}, next *Node) *Rule {
	return &Rule{Variable: variable, Operator: operator, Value: value, Next: next}
}

// WhenRef creates a rule comparing two run state values
func WhenRef(variable, operator, ref string, next *Node) *Rule {
	return &Rule{Variable: variable, Operator: operator, Ref: ref, Next: next}
}

// NewGuard wraps body with a singleton guard
func NewGuard(name, pipeline string, body *Node) *Node {
	return &Node{Name: name, Kind: KindGuard, Guard: &Guard{Pipeline: pipeline, Body: body}}
}

// NewSucceed creates a success terminal
func NewSucceed(name string) *Node {
	return &Node{Name: name, Kind: KindSucceed}
}

// NewFail creates a failure terminal
func NewFail(name string, kind failure.Kind, cause string, values ...string) *Node {
	return &Node{Name: name, Kind: KindFail, Fail: &Fail{Error: kind, Cause: cause, Values: values}}
}

// Children returns direct child nodes
func (n *Node) Children() []*Node {
	switch n.Kind {
	case KindChain, KindParallel:
		return n.Nodes
	case KindMap:
		if n.Map != nil && n.Map.Template != nil {
			return []*Node{n.Map.Template}
		}
	case KindChoice:
		if n.Choice == nil {
			return nil
		}
		var result []*Node
		for _, rule := range n.Choice.Rules {
			if rule != nil && rule.Next != nil {
				result = append(result, rule.Next)
			}
		}
		if n.Choice.Default != nil {
			result = append(result, n.Choice.Default)
		}
		return result
	case KindGuard:
		if n.Guard != nil && n.Guard.Body != nil {
			return []*Node{n.Guard.Body}
		}
	}
	return nil
}

// Walk visits nodes depth first, passing the node path and depth
func (n *Node) Walk(fn func(path string, depth int, node *Node) error) error {
	return n.walk("", 0, fn, map[*Node]bool{})
}

func (n *Node) walk(parent string, depth int, fn func(path string, depth int, node *Node) error, visited map[*Node]bool) error {
	if visited[n] {
		return fmt.Errorf("node %q is referenced more than once", n.Name)
	}
	visited[n] = true
	path := Path(parent, n.Name)
	if err := fn(path, depth, n); err != nil {
		return err
	}
	for _, child := range n.Children() {
		if err := child.walk(path, depth+1, fn, visited); err != nil {
			return err
		}
	}
	return nil
}

// Path joins parent path and node name
func Path(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

// Tasks returns all task nodes
func (n *Node) Tasks() []*Node {
	var result []*Node
	_ = n.Walk(func(_ string, _ int, node *Node) error {
		if node.Kind == KindTask {
			result = append(result, node)
		}
		return nil
	})
	return result
}

// Validate verifies static properties of the tree
func (n *Node) Validate() error {
	var issues []error
	err := n.Walk(func(path string, _ int, node *Node) error {
		if node.Name == "" {
			issues = append(issues, fmt.Errorf("%s: node name is empty", path))
		}
		issues = append(issues, node.validateKind(path)...)
		return nil
	})
	if err != nil {
		issues = append(issues, err)
	}
	return errors.Join(issues...)
}

func (n *Node) validateKind(path string) []error {
	var issues []error
	switch n.Kind {
	case KindTask:
		if n.Task == nil || n.Task.Action == nil {
			issues = append(issues, fmt.Errorf("%s: task action is required", path))
		} else if n.Task.Action.Service == "" || n.Task.Action.Method == "" {
			issues = append(issues, fmt.Errorf("%s: task service and method are required", path))
		}
	case KindChain, KindParallel:
		if len(n.Nodes) == 0 {
			issues = append(issues, fmt.Errorf("%s: %s requires at least one node", path, n.Kind))
		}
		seen := map[string]bool{}
		for _, child := range n.Nodes {
			if child == nil {
				issues = append(issues, fmt.Errorf("%s: nil child", path))
				continue
			}
			if seen[child.Name] {
				issues = append(issues, fmt.Errorf("%s: duplicate child name %q", path, child.Name))
			}
			seen[child.Name] = true
		}
	case KindMap:
		if n.Map == nil || n.Map.Template == nil {
			issues = append(issues, fmt.Errorf("%s: map template is required", path))
		} else {
			if n.Map.Items == "" {
				issues = append(issues, fmt.Errorf("%s: map items expression is required", path))
			}
			if n.Map.MaxConcurrency < 0 {
				issues = append(issues, fmt.Errorf("%s: map maxConcurrency must not be negative", path))
			}
		}
	case KindChoice:
		if n.Choice == nil || (len(n.Choice.Rules) == 0 && n.Choice.Default == nil) {
			issues = append(issues, fmt.Errorf("%s: choice requires rules or default", path))
			break
		}
		for i, rule := range n.Choice.Rules {
			switch {
			case rule == nil || rule.Next == nil:
				issues = append(issues, fmt.Errorf("%s: rule[%d] next node is required", path, i))
			case rule.Variable == "":
				issues = append(issues, fmt.Errorf("%s: rule[%d] variable is required", path, i))
			case !evaluator.Operator(rule.Operator).Valid():
				issues = append(issues, fmt.Errorf("%s: rule[%d] unsupported operator %q", path, i, rule.Operator))
			}
		}
	case KindGuard:
		if n.Guard == nil || n.Guard.Body == nil {
			issues = append(issues, fmt.Errorf("%s: guard body is required", path))
		}
	case KindFail:
		if n.Fail == nil || n.Fail.Error == "" {
			issues = append(issues, fmt.Errorf("%s: fail error kind is required", path))
		}
	case KindSucceed:
	default:
		issues = append(issues, fmt.Errorf("%s: unsupported node kind %q", path, n.Kind))
	}
	return issues
}
