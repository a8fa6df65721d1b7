package adapter

import "github.com/jesspatton/testexplorer/filesystem"

// FromFileTree turns a workspace walk into a description tree: directories
// become suites and matched files become tests. Paths double as ids.
func FromFileTree(root *filesystem.Node) *SuiteInfo {
	if root == nil {
		return &SuiteInfo{ID: "root", Label: "Tests"}
	}
	return suiteFromDir(root)
}

func suiteFromDir(dir *filesystem.Node) *SuiteInfo {
	suite := &SuiteInfo{
		ID:       dir.Path,
		Label:    dir.Name,
		Tooltip:  dir.Path,
		Children: make([]Info, 0, len(dir.Children)),
	}
	for _, child := range dir.Children {
		if child.IsDir {
			suite.Children = append(suite.Children, suiteFromDir(child))
			continue
		}
		suite.Children = append(suite.Children, &TestInfo{
			ID:      child.Path,
			Label:   child.Name,
			File:    child.Path,
			Tooltip: child.Path,
		})
	}
	return suite
}
