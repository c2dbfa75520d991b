package watfmt

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind classifies a lexical token.
type TokenKind int

const (
	LParen TokenKind = iota
	RParen
	Atom
)

func (k TokenKind) String() string {
	switch k {
	case LParen:
		return "("
	case RParen:
		return ")"
	default:
		return "atom"
	}
}

// Token is one lexical unit. Text is set for atoms only; Offset is the byte
// offset of the token's first character in the input.
type Token struct {
	Kind   TokenKind
	Text   string
	Offset int
}

// Tokenize splits text into parens and atoms. Quoted strings are a single
// atom, copied verbatim through the closing quote (or end of input when the
// quote is never closed). No escape processing is done.
func Tokenize(text string) []Token {
	var tokens []Token
	for i := 0; i < len(text); {
		c, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case unicode.IsSpace(c):
			i += size
		case c == '(':
			tokens = append(tokens, Token{Kind: LParen, Offset: i})
			i++
		case c == ')':
			tokens = append(tokens, Token{Kind: RParen, Offset: i})
			i++
		case c == '"':
			j := i + 1
			if end := strings.IndexByte(text[j:], '"'); end >= 0 {
				j += end + 1
			} else {
				j = len(text)
			}
			tokens = append(tokens, Token{Kind: Atom, Text: text[i:j], Offset: i})
			i = j
		default:
			j := i + size
			for j < len(text) {
				r, n := utf8.DecodeRuneInString(text[j:])
				if isDelimiter(r) {
					break
				}
				j += n
			}
			tokens = append(tokens, Token{Kind: Atom, Text: text[i:j], Offset: i})
			i = j
		}
	}
	return tokens
}

func isDelimiter(r rune) bool {
	return unicode.IsSpace(r) || r == '(' || r == ')'
}
