package frontend

import "strings"

// Grammar holds a collection of helper methods for classifying runes and
// keywords for the mathvm language
type Grammar struct {
	Operators       []string
	PunctuatorRunes []rune
	Keywords        []string
}

func newGrammar() *Grammar {
	return &Grammar{
		Operators: []string{
			"+", "-", "*", "/", "%",
			"=", "+=", "-=",
			"==", "!=", "<", "<=", ">", ">=",
			"!", "&&", "||",
			"..",
		},
		PunctuatorRunes: []rune{'(', ')', '{', '}', ',', ';'},
		Keywords: []string{
			"function",
			"return",
			"if",
			"else",
			"while",
			"for",
			"in",
			"print",
			"println",
			"int",
			"double",
			"string",
			"void",
			"true",
			"false",
		},
	}
}

func (g *Grammar) isWhitespace(r rune) (matches bool) {
	return (r <= ' ')
}

func (g *Grammar) isAlphabetical(r rune) (matches bool) {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func (g *Grammar) isNumeric(r rune) (matches bool) {
	return (r >= '0' && r <= '9')
}

// isOperatorPrefix returns true if the given string is the start of at least
// one operator recognized by the Grammar. The lexer uses this to glue operator
// runes together by maximal munch
func (g *Grammar) isOperatorPrefix(s string) (matches bool) {
	for _, op := range g.Operators {
		if strings.HasPrefix(op, s) {
			return true
		}
	}

	return false
}

// isOperator returns true if the given string is exactly one of the Grammar's
// operators
func (g *Grammar) isOperator(s string) (matches bool) {
	for _, op := range g.Operators {
		if op == s {
			return true
		}
	}

	return false
}

// isPunctuatorRune returns true if a given rune is included in the Grammar's list
// of valid punctuation runes
func (g *Grammar) isPunctuatorRune(r rune) (matches bool) {
	for i, l := 0, len(g.PunctuatorRunes); i < l; i++ {
		if g.PunctuatorRunes[i] == r {
			return true
		}
	}

	return false
}

// isKeyword returns true if a given string is included in the Grammar's list
// of valid keywords
func (g *Grammar) isKeyword(s string) (matches bool) {
	for i, l := 0, len(g.Keywords); i < l; i++ {
		if g.Keywords[i] == s {
			return true
		}
	}

	return false
}
