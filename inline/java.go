package inline

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// javaLocator finds method invocations spanning a line in a tree-sitter java tree
type javaLocator struct{}

func (javaLocator) locate(location string, src []byte, _ lineIndex, line int) ([]*call, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %v: %w", location, err)
	}
	var result []*call
	visitNodes(tree.RootNode(), "method_invocation", func(node *sitter.Node) {
		nameNode := node.ChildByFieldName("name")
		argsNode := node.ChildByFieldName("arguments")
		if nameNode == nil || argsNode == nil {
			return
		}
		name := nameNode.Content(src)
		if _, ok := forms[name]; !ok {
			return
		}
		nameLine := int(nameNode.StartPoint().Row) + 1
		if line < nameLine || line > int(argsNode.EndPoint().Row)+1 {
			return
		}
		result = append(result, &call{
			name:      name,
			line:      nameLine,
			nameStart: int(nameNode.StartByte()),
			nameEnd:   int(nameNode.EndByte()),
			argsStart: int(argsNode.StartByte()) + 1,
			argsEnd:   int(argsNode.EndByte()) - 1,
		})
	})
	return result, nil
}

// visitNodes calls fn for every named node of nodeType in preorder
func visitNodes(node *sitter.Node, nodeType string, fn func(node *sitter.Node)) {
	if node == nil {
		return
	}
	if node.Type() == nodeType {
		fn(node)
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		visitNodes(node.NamedChild(i), nodeType, fn)
	}
}
