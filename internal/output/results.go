package output

import "github.com/mj1618/desktop-uia/internal/model"

// TreeResult is the nested rendering of a GetTree result.
type TreeResult struct {
	Window      int64             `yaml:"window,omitempty" json:"window,omitempty"`
	Tree        []model.TreeNode  `yaml:"tree"             json:"tree"`
	Diagnostics model.Diagnostics `yaml:"diagnostics"      json:"diagnostics"`
}

// NewTreeResult rebuilds the hierarchy of a depth-annotated result.
func NewTreeResult(window int64, res *model.QueryResult) TreeResult {
	return TreeResult{
		Window:      window,
		Tree:        model.NestElements(res.Elements),
		Diagnostics: res.Diagnostics,
	}
}

// WindowList is the output of the windows command.
type WindowList struct {
	Windows []model.Window `yaml:"windows" json:"windows"`
}
