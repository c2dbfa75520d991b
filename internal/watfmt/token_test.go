package watfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func atomTexts(tokens []Token) []string {
	var out []string
	for _, t := range tokens {
		switch t.Kind {
		case Atom:
			out = append(out, t.Text)
		default:
			out = append(out, t.Kind.String())
		}
	}
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"whitespace only", " \t\n ", nil},
		{"parens split atoms", "(a(b)c)", []string{"(", "a", "(", "b", ")", "c", ")"}},
		{"quoted string is one atom", `(data "hello world")`, []string{"(", "data", `"hello world"`, ")"}},
		{"unterminated string runs to eof", `(data "abc (x)`, []string{"(", "data", `"abc (x)`}},
		{"quote inside a run does not split", `a"b c`, []string{`a"b`, "c"}},
		{"unicode whitespace separates", "a\u2003b\u00a0c", []string{"a", "b", "c"}},
		{"non-ascii atoms", "(λ →)", []string{"(", "λ", "→", ")"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, atomTexts(Tokenize(tt.input)))
		})
	}
}

func TestTokenize_Offsets(t *testing.T) {
	tokens := Tokenize("(λ x)")
	offsets := make([]int, len(tokens))
	for i, tok := range tokens {
		offsets[i] = tok.Offset
	}
	assert.Equal(t, []int{0, 1, 4, 5}, offsets)
}
