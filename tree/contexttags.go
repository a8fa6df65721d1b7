package tree

import (
	"strings"

	"github.com/jesspatton/testexplorer/adapter"
)

// CreateContextTags flattens a context into newline-separated tags, one per
// true flag, named by the key path joined with "_". {a: {b: true}, d: true}
// becomes "a_b\nd". The bool is false only for a nil context.
func CreateContextTags(ctx adapter.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	var tags []string
	collectContextTags(&tags, "", ctx)
	return strings.Join(tags, "\n"), true
}

func collectContextTags(tags *[]string, prefix string, ctx adapter.Context) {
	for _, p := range ctx {
		name := prefix + p.Key
		switch v := p.Value.(type) {
		case adapter.Context:
			collectContextTags(tags, name+"_", v)
		case bool:
			if v {
				*tags = append(*tags, name)
			}
		}
	}
}
