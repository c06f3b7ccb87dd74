package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/lakeflow/model/failure"
	"gopkg.in/yaml.v3"
)

func TestNode_Validate(t *testing.T) {
	cleanup := func() *Node {
		return NewTask("cleanup", "storage", "cleanup", map[string]interface{}{"bucket": "b"})
	}
	testCases := []struct {
		name     string
		node     *Node
		hasError bool
	}{
		{
			name: "valid chain",
			node: NewGuard("guard", "p", NewChain("main", cleanup(), NewMap("letters", "{letters}", 5, cleanup()))),
		},
		{
			name:     "duplicate sibling",
			node:     NewChain("main", cleanup(), cleanup()),
			hasError: true,
		},
		{
			name:     "missing method",
			node:     NewTask("t", "query", "", nil),
			hasError: true,
		},
		{
			name:     "negative concurrency",
			node:     NewMap("m", "{items}", -1, cleanup()),
			hasError: true,
		},
		{
			name:     "invalid operator",
			node:     NewChoice("c", nil, When("x", "like", "1", NewSucceed("ok"))),
			hasError: true,
		},
		{
			name:     "empty parallel",
			node:     NewParallel("p"),
			hasError: true,
		},
		{
			name:     "fail without kind",
			node:     NewFail("f", "", ""),
			hasError: true,
		},
		{
			name: "valid choice",
			node: NewChoice("c", NewFail("bad", failure.RowCountMismatch, ""), WhenRef("a", "eq", "b", NewSucceed("ok"))),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.node.Validate()
			if tc.hasError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNode_WalkSharedNode(t *testing.T) {
	shared := NewSucceed("ok")
	node := NewChain("main", shared, shared)
	assert.Error(t, node.Walk(func(string, int, *Node) error { return nil }))
}

func TestNode_Paths(t *testing.T) {
	node := NewChain("main",
		NewTask("cleanup", "storage", "cleanup", nil),
		NewMap("letters", "{letters}", 0, NewTask("query", "query", "submit", nil).WithBlocking("1m")),
	)
	var paths []string
	require.NoError(t, node.Walk(func(path string, _ int, _ *Node) error {
		paths = append(paths, path)
		return nil
	}))
	assert.Equal(t, []string{"main", "main/cleanup", "main/letters", "main/letters/query"}, paths)
	assert.Len(t, node.Tasks(), 2)
}

func TestNode_YAML(t *testing.T) {
	data := []byte(`
name: main
kind: chain
nodes:
  - name: location
    kind: task
    task:
      action:
        service: catalog
        method: location
        input:
          database: dc_data_baker
          table: addressbase_cleaned_raw
      assign:
        addressbase_source: "{result.location}"
  - name: letters
    kind: map
    map:
      items: "{letters}"
      maxConcurrency: 26
      seed:
        first_letter: "{item}"
      template:
        name: query
        kind: task
        task:
          blocking: true
          timeout: 2m
          action:
            service: query
            method: submit
`)
	node := &Node{}
	require.NoError(t, yaml.Unmarshal(data, node))
	require.NoError(t, node.Validate())
	assert.Equal(t, KindChain, node.Kind)
	assert.Equal(t, "{result.location}", node.Nodes[0].Task.Assign["addressbase_source"])
	assert.Equal(t, "dc_data_baker", node.Nodes[0].Task.Action.Input.(map[string]interface{})["database"])
	assert.Equal(t, 26, node.Nodes[1].Map.MaxConcurrency)
	assert.True(t, node.Nodes[1].Map.Template.Task.Blocking)
	assert.Equal(t, "item", node.Nodes[1].Map.Key())
}
