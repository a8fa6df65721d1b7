package adapter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// rawNode is the on-disk shape shared by the JSON and YAML formats.
type rawNode struct {
	Type        Kind      `json:"type" yaml:"type"`
	ID          string    `json:"id" yaml:"id"`
	Label       string    `json:"label" yaml:"label"`
	File        string    `json:"file,omitempty" yaml:"file,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Tooltip     string    `json:"tooltip,omitempty" yaml:"tooltip,omitempty"`
	Context     Context   `json:"context,omitempty" yaml:"context,omitempty"`
	Skipped     bool      `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Children    []rawNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Load reads a description tree from a .json, .yaml or .yml file.
func Load(path string) (*SuiteInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read test description")
	}
	suite, err := Parse(data, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return suite, nil
}

// Parse decodes a description tree. The format is a file extension; anything
// other than .yaml or .yml is treated as JSON.
func Parse(data []byte, format string) (*SuiteInfo, error) {
	var root rawNode
	switch format {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, errors.Wrap(err, "decode yaml")
		}
	default:
		if err := json.Unmarshal(data, &root); err != nil {
			return nil, errors.Wrap(err, "decode json")
		}
	}

	if root.Type == "" {
		root.Type = KindSuite
	}
	if root.Type != KindSuite {
		return nil, errors.Errorf("root node %q must be a suite", root.ID)
	}

	seen := make(map[string]struct{})
	info, err := root.build("", seen)
	if err != nil {
		return nil, err
	}
	return info.(*SuiteInfo), nil
}

// build converts n and its children. A node without an id gets its label
// path, e.g. "root/math/add".
func (n rawNode) build(parentID string, seen map[string]struct{}) (Info, error) {
	if n.ID == "" {
		if n.Label == "" {
			return nil, errors.New("node has neither id nor label")
		}
		n.ID = n.Label
		if parentID != "" {
			n.ID = parentID + "/" + n.Label
		}
	}
	if _, dup := seen[n.ID]; dup {
		return nil, errors.Errorf("duplicate id %q", n.ID)
	}
	seen[n.ID] = struct{}{}

	label := n.Label
	if label == "" {
		label = n.ID
	}

	kind := n.Type
	if kind == "" {
		kind = KindTest
		if len(n.Children) > 0 {
			kind = KindSuite
		}
	}

	switch kind {
	case KindTest:
		if len(n.Children) > 0 {
			return nil, errors.Errorf("test %q cannot have children", n.ID)
		}
		return &TestInfo{
			ID:          n.ID,
			Label:       label,
			File:        n.File,
			Description: n.Description,
			Tooltip:     n.Tooltip,
			Context:     n.Context,
			Skipped:     n.Skipped,
		}, nil

	case KindSuite:
		suite := &SuiteInfo{
			ID:          n.ID,
			Label:       label,
			File:        n.File,
			Description: n.Description,
			Tooltip:     n.Tooltip,
			Context:     n.Context,
			Children:    make([]Info, 0, len(n.Children)),
		}
		for _, c := range n.Children {
			child, err := c.build(n.ID, seen)
			if err != nil {
				return nil, err
			}
			suite.Children = append(suite.Children, child)
		}
		return suite, nil

	default:
		return nil, errors.Errorf("node %q has unknown type %q", n.ID, kind)
	}
}
