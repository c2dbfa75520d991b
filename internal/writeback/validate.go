package writeback

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/inferara/infs/internal/watfmt"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// ValidationError contains structured information about a syntax error.
type ValidationError struct {
	FilePath string
	Line     uint32 // 0-indexed
	Column   uint32 // 0-indexed
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line+1, e.Column+1, e.Message)
}

// Validate checks content for syntax errors before it is written back.
// WAT sources are parsed strictly by watfmt, Go sources by tree-sitter.
// Files of any other kind pass through (returns nil).
func Validate(content []byte, filePath string) error {
	switch {
	case IsWAT(filePath):
		return validateWAT(content, filePath)
	case strings.HasSuffix(filePath, ".go"):
		return validateGo(content, filePath)
	default:
		return nil
	}
}

func validateWAT(content []byte, filePath string) error {
	_, err := watfmt.Parse(string(content), true)
	if err == nil {
		return nil
	}
	var synErr *watfmt.SyntaxError
	if !errors.As(err, &synErr) {
		return err
	}
	line, col := position(content, synErr.Offset)
	return &ValidationError{
		FilePath: filePath,
		Line:     line,
		Column:   col,
		Message:  synErr.Message,
	}
}

func validateGo(content []byte, filePath string) error {
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return fmt.Errorf("tree-sitter parse failed for %s: %w", filePath, err)
	}

	root := tree.RootNode()
	if root == nil {
		return fmt.Errorf("tree-sitter returned nil root for %s", filePath)
	}
	if !root.HasError() {
		return nil
	}

	// Walk tree to find first ERROR node for a useful error message
	if errNode := findFirstError(root); errNode != nil {
		return &ValidationError{
			FilePath: filePath,
			Line:     errNode.StartPoint().Row,
			Column:   errNode.StartPoint().Column,
			Message:  "syntax error in AST",
		}
	}
	return &ValidationError{FilePath: filePath, Message: "AST contains errors"}
}

// findFirstError does a depth-first search for the first ERROR node.
func findFirstError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			if found := findFirstError(child); found != nil {
				return found
			}
		}
	}
	return nil
}

// position converts a byte offset into a 0-indexed line and byte column.
func position(content []byte, offset int) (line, col uint32) {
	if offset > len(content) {
		offset = len(content)
	}
	for _, b := range content[:offset] {
		if b == '\n' {
			line++
			col = 0
			continue
		}
		col++
	}
	return line, col
}
