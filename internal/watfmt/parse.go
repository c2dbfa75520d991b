package watfmt

import (
	"fmt"
	"strings"
)

// NodeKind distinguishes atoms from lists.
type NodeKind int

const (
	AtomNode NodeKind = iota
	ListNode
)

// Node is one element of the parsed tree. Each list owns its children.
type Node struct {
	Kind     NodeKind
	Text     string // atoms only
	Children []Node // lists only
	Offset   int
}

// IsList reports whether n is a list node.
func (n Node) IsList() bool { return n.Kind == ListNode }

// Head returns the text of the first child when it is an atom.
func (n Node) Head() (string, bool) {
	if n.Kind != ListNode || len(n.Children) == 0 || n.Children[0].Kind != AtomNode {
		return "", false
	}
	return n.Children[0].Text, true
}

// SyntaxError reports malformed input found by a strict parse.
type SyntaxError struct {
	Offset  int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Message)
}

// Parse tokenizes and parses text into its top-level nodes. In lenient mode
// (strict == false) it never fails: a stray ")" becomes the atom ")" and an
// unclosed list ends at end of input. In strict mode the first such problem,
// or an unterminated string, is returned as a *SyntaxError.
func Parse(text string, strict bool) ([]Node, error) {
	p := &parser{tokens: Tokenize(text), strict: strict}
	return p.all()
}

type parser struct {
	tokens []Token
	strict bool
}

func (p *parser) all() ([]Node, error) {
	var nodes []Node
	for i := 0; i < len(p.tokens); {
		n, next, err := p.node(i)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
		i = next
	}
	return nodes, nil
}

func (p *parser) node(i int) (Node, int, error) {
	if i >= len(p.tokens) {
		return Node{Kind: AtomNode}, i, nil
	}
	tok := p.tokens[i]
	switch tok.Kind {
	case LParen:
		list := Node{Kind: ListNode, Offset: tok.Offset}
		i++
		for {
			if i >= len(p.tokens) {
				if p.strict {
					return Node{}, i, &SyntaxError{Offset: tok.Offset, Message: "unclosed list"}
				}
				return list, i, nil
			}
			if p.tokens[i].Kind == RParen {
				return list, i + 1, nil
			}
			child, next, err := p.node(i)
			if err != nil {
				return Node{}, next, err
			}
			list.Children = append(list.Children, child)
			i = next
		}
	case RParen:
		if p.strict {
			return Node{}, i, &SyntaxError{Offset: tok.Offset, Message: "unexpected )"}
		}
		return Node{Kind: AtomNode, Text: ")", Offset: tok.Offset}, i + 1, nil
	default:
		if p.strict && unterminated(tok.Text) {
			return Node{}, i, &SyntaxError{Offset: tok.Offset, Message: "unterminated string"}
		}
		return Node{Kind: AtomNode, Text: tok.Text, Offset: tok.Offset}, i + 1, nil
	}
}

func unterminated(atom string) bool {
	return strings.HasPrefix(atom, `"`) && (len(atom) == 1 || !strings.HasSuffix(atom, `"`))
}
