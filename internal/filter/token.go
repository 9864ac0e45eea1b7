package filter

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind classifies a lexical token of the filter language.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokWord
	TokString
	TokComma
	TokLParen
	TokRParen
	TokOp
)

// Token is a lexical token with its byte offset in the source string.
type Token struct {
	Kind TokenKind
	Text string
	Pos  int
}

const wordBreak = ",()=<>'\""

// Tokenize splits a filter string into tokens. The final token is always TokEOF.
func Tokenize(s string) ([]Token, error) {
	var toks []Token
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case r == ',':
			toks = append(toks, Token{Kind: TokComma, Text: ",", Pos: i})
			i++
		case r == '(':
			toks = append(toks, Token{Kind: TokLParen, Text: "(", Pos: i})
			i++
		case r == ')':
			toks = append(toks, Token{Kind: TokRParen, Text: ")", Pos: i})
			i++
		case r == '=':
			toks = append(toks, Token{Kind: TokOp, Text: "=", Pos: i})
			i++
		case r == '<' || r == '>':
			op := string(r)
			if i+1 < len(s) && s[i+1] == '=' {
				op += "="
			}
			toks = append(toks, Token{Kind: TokOp, Text: op, Pos: i})
			i += len(op)
		case r == '\'' || r == '"':
			end := strings.IndexRune(s[i+1:], r)
			if end < 0 {
				return nil, &SyntaxError{Pos: i, Token: s[i:], Msg: "unterminated string"}
			}
			toks = append(toks, Token{Kind: TokString, Text: s[i+1 : i+1+end], Pos: i})
			i += end + 2
		default:
			start := i
			for i < len(s) {
				r, size := utf8.DecodeRuneInString(s[i:])
				if unicode.IsSpace(r) || strings.ContainsRune(wordBreak, r) {
					break
				}
				i += size
			}
			toks = append(toks, Token{Kind: TokWord, Text: s[start:i], Pos: start})
		}
	}
	return append(toks, Token{Kind: TokEOF, Pos: len(s)}), nil
}
