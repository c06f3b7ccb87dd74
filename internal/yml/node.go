package yml

import (
	"github.com/viant/toolbox"
	"gopkg.in/yaml.v3"
)

type (
	Node yaml.Node
)

// Lookup returns value node of a mapping key or nil
func (n *Node) Lookup(name string) *Node {
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		return (*Node)(n.Content[0]).Lookup(name)
	}
	if n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == name {
			return (*Node)(n.Content[i+1])
		}
	}
	return nil
}

func (n *Node) Items(callback func(index int, node *Node) error) error {
	for i := 0; i < len(n.Content); i++ {
		if err := callback(i, (*Node)(n.Content[i])); err != nil {
			return err
		}
	}
	return nil
}

func (n *Node) Pairs(callback func(key string, node *Node) error) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := callback(n.Content[i].Value, (*Node)(n.Content[i+1])); err != nil {
			return err
		}
	}
	return nil
}

// Expand rewrites every scalar value (mapping keys excluded) with fn
func (n *Node) Expand(fn func(value string) string) {
	switch n.Kind {
	case yaml.ScalarNode:
		n.Value = fn(n.Value)
	case yaml.MappingNode:
		_ = n.Pairs(func(_ string, node *Node) error {
			node.Expand(fn)
			return nil
		})
	case yaml.DocumentNode, yaml.SequenceNode:
		_ = n.Items(func(_ int, node *Node) error {
			node.Expand(fn)
			return nil
		})
	}
}

// Decode decodes node into dest
func (n *Node) Decode(dest interface{}) error {
	return (*yaml.Node)(n).Decode(dest)
}

// Interface converts node into plain go values
func (n *Node) Interface() interface{} {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return (*Node)(n.Content[0]).Interface()
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!str":
			return n.Value
		case "!!bool":
			return toolbox.AsBoolean(n.Value)
		case "!!null":
			return nil
		case "!!float":
			return toolbox.AsFloat(n.Value)
		case "!!int":
			return toolbox.AsInt(n.Value)
		default:
			return n.Value
		}
	case yaml.MappingNode:
		var aMap = make(map[string]interface{})
		_ = n.Pairs(func(key string, node *Node) error {
			aMap[key] = node.Interface()
			return nil
		})
		return aMap
	case yaml.SequenceNode:
		var aSlice = make([]interface{}, 0, len(n.Content))
		_ = n.Items(func(_ int, node *Node) error {
			aSlice = append(aSlice, node.Interface())
			return nil
		})
		return aSlice
	case yaml.AliasNode:
		if n.Alias != nil {
			return (*Node)(n.Alias).Interface()
		}
	}
	return nil
}

// Parse parses YAML document
func Parse(data []byte) (*Node, error) {
	root := &yaml.Node{}
	if err := yaml.Unmarshal(data, root); err != nil {
		return nil, err
	}
	return (*Node)(root), nil
}
