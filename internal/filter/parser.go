package filter

import (
	"regexp"
	"strings"
)

var reserved = []string{"WHERE", "AND", "OR", "NOT"}

// Parse compiles a filter string of the form "selection [WHERE expr]".
func Parse(s string) (*Filter, error) {
	toks, err := Tokenize(s)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	sel, err := p.parseSelection()
	if err != nil {
		return nil, err
	}
	f := &Filter{Source: s, Selection: sel}

	if p.keyword("WHERE") {
		p.next()
		where, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		f.Where = where
	}

	if t := p.peek(); t.Kind != TokEOF {
		return nil, syntaxErr(t, "unexpected token")
	}
	return f, nil
}

type parser struct {
	toks []Token
	pos  int
}

func (p *parser) peek() Token { return p.peekAt(0) }

func (p *parser) peekAt(n int) Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() Token {
	t := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) keyword(kw string) bool {
	t := p.peek()
	return t.Kind == TokWord && strings.EqualFold(t.Text, kw)
}

// call reports whether the next tokens open a call to fn.
func (p *parser) call(fn string) bool {
	return p.keyword(fn) && p.peekAt(1).Kind == TokLParen
}

func (p *parser) expect(kind TokenKind, what string) (Token, error) {
	t := p.next()
	if t.Kind != kind {
		return t, syntaxErr(t, "expected "+what)
	}
	return t, nil
}

func (p *parser) parseSelection() (Selection, error) {
	if t := p.peek(); t.Kind == TokWord && t.Text == "*" {
		p.next()
		return Selection{All: true}, nil
	}

	var fields []string
	for {
		t, err := p.parseField("field list")
		if err != nil {
			return Selection{}, err
		}
		// A single quoted string may carry the whole comma separated list.
		if t.Kind == TokString && strings.Contains(t.Text, ",") {
			for _, f := range strings.Split(t.Text, ",") {
				if f = strings.TrimSpace(f); f != "" {
					fields = append(fields, f)
				}
			}
		} else {
			fields = append(fields, t.Text)
		}
		if p.peek().Kind != TokComma {
			return Selection{Fields: fields}, nil
		}
		p.next()
	}
}

func (p *parser) parseField(what string) (Token, error) {
	t := p.next()
	switch t.Kind {
	case TokString:
		if strings.TrimSpace(t.Text) == "" {
			return t, syntaxErr(t, "empty field name in "+what)
		}
		return t, nil
	case TokWord:
		if isReserved(t.Text) {
			return t, syntaxErr(t, "expected field name in "+what)
		}
		return t, nil
	default:
		return t, syntaxErr(t, "expected field name in "+what)
	}
}

func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.keyword("AND"):
			p.next()
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left = &And{Left: left, Right: right}
		case p.keyword("OR"):
			p.next()
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left = &Or{Left: left, Right: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseTerm() (Expr, error) {
	switch {
	case p.peek().Kind == TokLParen:
		p.next()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil
	case p.call(FuncRegex):
		return p.parseCall("")
	case p.call(FuncSplit):
		return p.parseCall("")
	case p.call(FuncRef):
		return nil, syntaxErr(p.peek(), "REF must be assigned to a variable")
	}

	field, err := p.parseField("condition")
	if err != nil {
		return nil, err
	}

	opTok := p.next()
	var op Operator
	switch {
	case opTok.Kind == TokOp:
		op = Operator(opTok.Text)
	case opTok.Kind == TokWord && strings.EqualFold(opTok.Text, "NOT"):
		op = OpNot
	default:
		return nil, syntaxErr(opTok, "expected operator after field")
	}

	if op == OpEq && field.Kind == TokWord && (p.call(FuncRef) || p.call(FuncSplit)) {
		if strings.ContainsAny(field.Text, ".:") {
			return nil, syntaxErr(field, "invalid variable name")
		}
		return p.parseCall(field.Text)
	}

	c := &Comparison{Field: field.Text, Op: op}
	lit := p.next()
	switch {
	case lit.Kind == TokString:
		c.Value = lit.Text
	case lit.Kind == TokWord && strings.EqualFold(lit.Text, "EMPTY"):
		if op != OpEq && op != OpNot {
			return nil, syntaxErr(lit, "EMPTY needs '=' or NOT")
		}
		c.Empty = true
	case lit.Kind == TokWord && !isReserved(lit.Text):
		c.Value = lit.Text
	default:
		return nil, syntaxErr(lit, "expected value after operator")
	}
	return c, nil
}

// parseCall parses NAME "(" args ")" with the function name as the next token.
func (p *parser) parseCall(variable string) (*FunctionCall, error) {
	name := p.next()
	fc := &FunctionCall{Name: strings.ToUpper(name.Text), Var: variable}
	if _, err := p.expect(TokLParen, "'('"); err != nil {
		return nil, err
	}

	if fc.Name == FuncRef && p.call(FuncSplit) {
		inner, err := p.parseCall("")
		if err != nil {
			return nil, err
		}
		fc.Inner = inner
	} else {
		field, err := p.parseField(fc.Name)
		if err != nil {
			return nil, err
		}
		fc.Field = field.Text
	}

	if fc.Name == FuncSplit || fc.Name == FuncRegex {
		if _, err := p.expect(TokComma, "','"); err != nil {
			return nil, err
		}
		arg := p.next()
		if arg.Kind != TokString && arg.Kind != TokWord {
			return nil, syntaxErr(arg, "expected "+fc.Name+" argument")
		}
		if arg.Text == "" {
			return nil, syntaxErr(arg, "empty "+fc.Name+" argument")
		}
		fc.Arg = arg.Text
		if fc.Name == FuncRegex {
			re, err := regexp.Compile(arg.Text)
			if err != nil {
				return nil, syntaxErr(arg, "invalid pattern: "+err.Error())
			}
			fc.re = re
		}
	}

	if _, err := p.expect(TokRParen, "')'"); err != nil {
		return nil, err
	}
	return fc, nil
}

func isReserved(word string) bool {
	for _, r := range reserved {
		if strings.EqualFold(word, r) {
			return true
		}
	}
	return false
}

func syntaxErr(t Token, msg string) *SyntaxError {
	return &SyntaxError{Pos: t.Pos, Token: t.Text, Msg: msg}
}
