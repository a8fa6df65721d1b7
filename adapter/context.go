package adapter

import (
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Property is a single key/value entry of a Context.
type Property struct {
	Key   string
	Value any
}

// Context is a nested set of flags attached to a suite or test by its adapter.
// Values are bool, a nested Context, or anything else the adapter sent; only
// booleans ever turn into tags. Property order is the order of the source
// document.
type Context []Property

// Get returns the value stored under key.
func (c Context) Get(key string) (any, bool) {
	for _, p := range c {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// UnmarshalJSON decodes an object while keeping its key order, which
// encoding/json would lose by going through a map.
func (c *Context) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)
	if res.Type == gjson.Null {
		return nil
	}
	if !res.IsObject() {
		return errors.Errorf("context must be an object, got %q", res.Raw)
	}
	*c = contextFromJSON(res)
	return nil
}

func contextFromJSON(obj gjson.Result) Context {
	ctx := Context{}
	obj.ForEach(func(key, value gjson.Result) bool {
		ctx = append(ctx, Property{Key: key.String(), Value: valueFromJSON(value)})
		return true
	})
	return ctx
}

func valueFromJSON(v gjson.Result) any {
	switch {
	case v.IsObject():
		return contextFromJSON(v)
	case v.Type == gjson.True, v.Type == gjson.False:
		return v.Bool()
	case v.Type == gjson.Null:
		return nil
	default:
		return v.Value()
	}
}

// UnmarshalYAML decodes a mapping node in document order.
func (c *Context) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("context must be a mapping (line %d)", node.Line)
	}
	ctx, err := contextFromYAML(node)
	if err != nil {
		return err
	}
	*c = ctx
	return nil
}

func contextFromYAML(node *yaml.Node) (Context, error) {
	ctx := Context{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		v, err := valueFromYAML(val)
		if err != nil {
			return nil, errors.Wrapf(err, "context key %q", key.Value)
		}
		ctx = append(ctx, Property{Key: key.Value, Value: v})
	}
	return ctx, nil
}

func valueFromYAML(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.MappingNode:
		return contextFromYAML(node)
	case yaml.AliasNode:
		return valueFromYAML(node.Alias)
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}
