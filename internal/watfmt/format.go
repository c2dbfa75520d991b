package watfmt

import "strings"

const indentUnit = "  "

// Format re-lays out S-expression text. A single top-level form is returned
// as formatted, without a trailing newline; otherwise every form is followed
// by a newline. Format is idempotent: Format(Format(t)) == Format(t).
func Format(text string) string {
	nodes, _ := Parse(text, false)
	if len(nodes) == 1 {
		return formatNode(nodes[0], 0)
	}
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(formatNode(n, 0))
		b.WriteByte('\n')
	}
	return b.String()
}

func indent(level int) string {
	return strings.Repeat(indentUnit, level)
}

func isFlat(n Node) bool {
	if n.Kind == AtomNode {
		return true
	}
	for _, c := range n.Children {
		if !isFlat(c) {
			return false
		}
	}
	return true
}

// isInlineSignature matches the clauses kept on a func header line.
func isInlineSignature(n Node) bool {
	head, ok := n.Head()
	return ok && (head == "export" || head == "param" || head == "result")
}

func isQuantifier(head string) bool {
	switch head {
	case "forall", "exists", "assume", "unique":
		return true
	}
	return false
}

// isOpcode reports whether token starts a new instruction line. Name
// references, string literals and integer literals are operands.
func isOpcode(token string) bool {
	if token == "" {
		return true
	}
	switch token[0] {
	case '$', '"':
		return false
	case '+', '-':
		return !allDigits(token[1:])
	}
	return !allDigits(token)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func formatInline(n Node) string {
	if n.Kind == AtomNode {
		return n.Text
	}
	parts := make([]string, len(n.Children))
	for i, c := range n.Children {
		parts[i] = formatInline(c)
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func formatNode(n Node, level int) string {
	if n.Kind == AtomNode {
		return n.Text
	}
	if len(n.Children) == 0 {
		return "()"
	}

	var b strings.Builder
	if head, ok := n.Head(); ok {
		switch {
		case head == "module":
			b.WriteString("(module")
			for _, c := range n.Children[1:] {
				b.WriteByte('\n')
				b.WriteString(indent(level + 1))
				b.WriteString(formatNode(c, level+1))
			}
			closeList(&b, level)
			return b.String()
		case head == "func":
			b.WriteString("(func")
			i := 1
			for ; i < len(n.Children); i++ {
				c := n.Children[i]
				if c.Kind == ListNode && !isInlineSignature(c) {
					break
				}
				b.WriteByte(' ')
				b.WriteString(formatInline(c))
			}
			b.WriteString(formatInstructions(n.Children[i:], level+1))
			closeList(&b, level)
			return b.String()
		case isQuantifier(head):
			b.WriteByte('(')
			b.WriteString(head)
			b.WriteString(formatInstructions(n.Children[1:], level+1))
			closeList(&b, level)
			return b.String()
		}
	}

	if isFlat(n) {
		return formatInline(n)
	}
	b.WriteByte('(')
	b.WriteString(formatNode(n.Children[0], level+1))
	for _, c := range n.Children[1:] {
		b.WriteByte('\n')
		b.WriteString(indent(level + 1))
		b.WriteString(formatNode(c, level+1))
	}
	closeList(&b, level)
	return b.String()
}

func closeList(b *strings.Builder, level int) {
	b.WriteByte('\n')
	b.WriteString(indent(level))
	b.WriteByte(')')
}

// formatInstructions lays out a func or quantifier body: each opcode starts
// a line and keeps its literal and reference operands, lists get their own
// line.
func formatInstructions(nodes []Node, level int) string {
	var b strings.Builder
	for i := 0; i < len(nodes); {
		n := nodes[i]
		b.WriteByte('\n')
		b.WriteString(indent(level))
		if n.Kind == ListNode {
			b.WriteString(formatNode(n, level))
			i++
			continue
		}
		b.WriteString(n.Text)
		i++
		if !isOpcode(n.Text) {
			continue
		}
		for i < len(nodes) && nodes[i].Kind == AtomNode && !isOpcode(nodes[i].Text) {
			b.WriteByte(' ')
			b.WriteString(nodes[i].Text)
			i++
		}
	}
	return b.String()
}
