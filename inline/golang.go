package inline

import (
	"go/ast"
	"go/parser"
	"go/token"

	"golang.org/x/tools/go/ast/inspector"
)

// goLocator finds selector calls spanning a line using the go parser, unparsable files
// fall back to the text locator
type goLocator struct{}

func (goLocator) locate(location string, src []byte, lines lineIndex, line int) ([]*call, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, location, src, parser.SkipObjectResolution)
	if err != nil {
		return textLocator{}.locate(location, src, lines, line)
	}
	var result []*call
	offset := func(pos token.Pos) int { return fset.Position(pos).Offset }
	in := inspector.New([]*ast.File{file})
	in.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(node ast.Node) {
		callExpr := node.(*ast.CallExpr)
		selector, ok := callExpr.Fun.(*ast.SelectorExpr)
		if !ok {
			return
		}
		name := selector.Sel.Name
		if _, ok := forms[name]; !ok {
			return
		}
		nameLine := fset.Position(selector.Sel.Pos()).Line
		if line < nameLine || line > fset.Position(callExpr.Rparen).Line {
			return
		}
		result = append(result, &call{
			name:      name,
			line:      nameLine,
			nameStart: offset(selector.Sel.Pos()),
			nameEnd:   offset(selector.Sel.End()),
			argsStart: offset(callExpr.Lparen) + 1,
			argsEnd:   offset(callExpr.Rparen),
		})
	})
	return result, nil
}
