package inline

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/groovy"
	"github.com/smacker/go-tree-sitter/kotlin"
	"github.com/smacker/go-tree-sitter/scala"
)

// argumentsLocator finds `.name(args)` calls by the parenthesized argument list nodes of a
// tree-sitter grammar, the call name is the identifier right before the list
type argumentsLocator struct {
	language  func() *sitter.Language
	arguments string // node type of an argument list
}

var (
	kotlinLocator = argumentsLocator{language: kotlin.GetLanguage, arguments: "value_arguments"}
	scalaLocator  = argumentsLocator{language: scala.GetLanguage, arguments: "arguments"}
	groovyLocator = argumentsLocator{language: groovy.GetLanguage, arguments: "argument_list"}
)

func (l argumentsLocator) locate(location string, src []byte, lines lineIndex, line int) ([]*call, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(l.language())
	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %v: %w", location, err)
	}
	var result []*call
	visitNodes(tree.RootNode(), l.arguments, func(node *sitter.Node) {
		start, end := int(node.StartByte()), int(node.EndByte())
		if end-start < 2 || src[start] != '(' || src[end-1] != ')' {
			return
		}
		nameEnd := start
		for nameEnd > 0 && (src[nameEnd-1] == ' ' || src[nameEnd-1] == '\t') {
			nameEnd--
		}
		nameStart := nameEnd
		for nameStart > 0 && isIdentPart(src[nameStart-1]) {
			nameStart--
		}
		name := string(src[nameStart:nameEnd])
		if _, ok := forms[name]; !ok || !precededByDot(src, nameStart) {
			return
		}
		nameLine := lines.lineOf(nameStart)
		if line < nameLine || line > int(node.EndPoint().Row)+1 {
			return
		}
		result = append(result, &call{
			name:      name,
			line:      nameLine,
			nameStart: nameStart,
			nameEnd:   nameEnd,
			argsStart: start + 1,
			argsEnd:   end - 1,
		})
	})
	return result, nil
}
