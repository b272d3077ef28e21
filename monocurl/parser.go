package monocurl

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

type (
	prefixParseFn func() node
	infixParseFn  func(node) node
)

// parser turns one outline entry into compiled nodes. Identifiers are
// resolved against the compiler's symbol table while parsing.
type parser struct {
	c     *compiler
	l     *lexer
	entry *Entry

	curToken  Token
	peekToken Token

	err      error
	bodyUsed bool
	// lastSymbol is the symbol behind the most recent bare identifier, used
	// for compile-time call checks.
	lastSymbol *symbol

	prefixFns map[TokenType]prefixParseFn
	infixFns  map[TokenType]infixParseFn
}

func (c *compiler) newParser(entry *Entry) *parser {
	return c.newParserFor(entry, entry.Value)
}

func (c *compiler) newParserFor(entry *Entry, text string) *parser {
	p := &parser{c: c, l: newLexer(text, entry.Line), entry: entry}

	p.prefixFns = map[TokenType]prefixParseFn{
		tokenWord:    p.parseWord,
		tokenString:  p.parseStringLiteral,
		tokenChar:    p.parseCharLiteral,
		tokenLParen:  p.parseGroupedExpression,
		tokenLBrace:  p.parseBraceLiteral,
		tokenMinus:   p.parsePrefixExpression,
		tokenBang:    p.parsePrefixExpression,
		tokenIllegal: p.parseIllegal,
	}
	p.infixFns = map[TokenType]infixParseFn{
		tokenPlus:     p.parseInfixExpression,
		tokenMinus:    p.parseInfixExpression,
		tokenAsterisk: p.parseInfixExpression,
		tokenSlash:    p.parseInfixExpression,
		tokenPower:    p.parseInfixExpression,
		tokenEQ:       p.parseInfixExpression,
		tokenNotEQ:    p.parseInfixExpression,
		tokenLT:       p.parseInfixExpression,
		tokenLTE:      p.parseInfixExpression,
		tokenGT:       p.parseInfixExpression,
		tokenGTE:      p.parseInfixExpression,
		tokenAnd:      p.parseInfixExpression,
		tokenOr:       p.parseInfixExpression,
		tokenRange:    p.parseInfixExpression,
		tokenLParen:   p.parseCallExpression,
		tokenLBracket: p.parseIndexExpression,
		tokenDot:      p.parseMemberExpression,
	}

	p.curToken = p.l.NextToken()
	p.peekToken = p.l.NextToken()
	return p
}

func (p *parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// tokenAfterPeek lexes one token past peekToken without consuming it.
func (p *parser) tokenAfterPeek() Token {
	ahead := *p.l
	return ahead.NextToken()
}

func (p *parser) curIs(tt TokenType) bool {
	return p.curToken.Type == tt
}

func (p *parser) curIsWord(word string) bool {
	return p.curToken.Type == tokenWord && p.curToken.Literal == word
}

func (p *parser) atEnd() bool {
	return p.curToken.Type == tokenEOF
}

func (p *parser) addError(pos Position, format string, args ...any) {
	if p.err != nil {
		return
	}
	p.err = &CompileError{Pos: pos, Message: fmt.Sprintf(format, args...), Source: p.entry.Value}
}

func (p *parser) errorExpected(expected string) {
	p.addError(p.curToken.Pos, "expected %s, got %s", expected, tokenLabel(p.curToken))
}

func (p *parser) expect(tt TokenType) bool {
	if p.curToken.Type != tt {
		p.errorExpected(tokenLabel(Token{Type: tt, Literal: string(tt)}))
		return false
	}
	p.nextToken()
	return true
}

func (p *parser) expectEnd() bool {
	if p.err != nil {
		return false
	}
	switch {
	case p.curIs(tokenIllegal):
		p.addError(p.curToken.Pos, "%s", p.curToken.Literal)
		return false
	case !p.atEnd():
		p.addError(p.curToken.Pos, "unexpected %s", tokenLabel(p.curToken))
		return false
	}
	return true
}

// expectIdentifier consumes a word that may name a variable.
func (p *parser) expectIdentifier() (string, bool) {
	tok := p.curToken
	if tok.Type != tokenWord || !isIdentifier(tok.Literal) {
		p.errorExpected("identifier")
		return "", false
	}
	if isKeyword(tok.Literal) {
		p.addError(tok.Pos, "%s is a reserved word", tok.Literal)
		return "", false
	}
	p.nextToken()
	return tok.Literal, true
}

func tokenLabel(tok Token) string {
	switch tok.Type {
	case tokenEOF:
		return "end of line"
	case tokenIllegal:
		return "invalid token"
	case tokenWord:
		return fmt.Sprintf("%q", tok.Literal)
	case tokenString:
		return "string"
	case tokenChar:
		return "character"
	default:
		return "'" + string(tok.Type) + "'"
	}
}

const (
	precLowest = iota
	precOr
	precAnd
	precEquality
	precComparison
	precRange
	precSum
	precProduct
	precPower
	precCall
)

var precedences = map[TokenType]int{
	tokenOr:       precOr,
	tokenAnd:      precAnd,
	tokenEQ:       precEquality,
	tokenNotEQ:    precEquality,
	tokenLT:       precComparison,
	tokenLTE:      precComparison,
	tokenGT:       precComparison,
	tokenGTE:      precComparison,
	tokenRange:    precRange,
	tokenPlus:     precSum,
	tokenMinus:    precSum,
	tokenAsterisk: precProduct,
	tokenSlash:    precProduct,
	tokenPower:    precPower,
	tokenLParen:   precCall,
	tokenLBracket: precCall,
	tokenDot:      precCall,
}

func (p *parser) curPrecedence() int {
	if p.curIsWord("in") {
		return precComparison
	}
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return precLowest
}

func (p *parser) parseExpression(precedence int) node {
	if p.err != nil {
		return nil
	}
	var left node
	if p.curIsWord("sticky") {
		left = p.parsePrefixExpression()
	} else {
		prefix := p.prefixFns[p.curToken.Type]
		if prefix == nil {
			p.addError(p.curToken.Pos, "unexpected %s", tokenLabel(p.curToken))
			return nil
		}
		left = prefix()
	}

	for p.err == nil && precedence < p.curPrecedence() {
		if p.curIsWord("in") {
			p.nextToken()
			coll := p.parseExpression(precComparison)
			left = &containsNode{item: left, coll: coll}
			p.lastSymbol = nil
			continue
		}
		infix := p.infixFns[p.curToken.Type]
		if infix == nil {
			return left
		}
		left = infix(left)
	}
	return left
}

func (p *parser) parseIllegal() node {
	p.addError(p.curToken.Pos, "%s", p.curToken.Literal)
	return nil
}

// parsePrefixExpression handles unary minus, not and sticky. They bind
// looser than ** so -2 ** 2 is -(2 ** 2).
func (p *parser) parsePrefixExpression() node {
	op := p.curToken.Type
	if p.curIsWord("sticky") {
		op = "sticky"
	}
	p.nextToken()
	operand := p.parseExpression(precProduct)
	p.lastSymbol = nil
	return &unaryNode{op: op, operand: operand}
}

func (p *parser) parseInfixExpression(left node) node {
	op := p.curToken.Type
	precedence := p.curPrecedence()
	p.nextToken()
	if op == tokenPower {
		precedence--
	}
	right := p.parseExpression(precedence)
	p.lastSymbol = nil
	switch op {
	case tokenPlus:
		return &arithNode{op: opAdd, left: left, right: right}
	case tokenMinus:
		return &arithNode{op: opSubtract, left: left, right: right}
	case tokenAsterisk:
		return &arithNode{op: opMultiply, left: left, right: right}
	case tokenSlash:
		return &arithNode{op: opDivide, left: left, right: right}
	case tokenPower:
		return &arithNode{op: opPower, left: left, right: right}
	case tokenAnd:
		return &logicalNode{and: true, left: left, right: right}
	case tokenOr:
		return &logicalNode{left: left, right: right}
	case tokenRange:
		return &rangeNode{start: left, end: right}
	default:
		return &compareNode{op: op, left: left, right: right}
	}
}

func (p *parser) parseGroupedExpression() node {
	p.nextToken()
	expr := p.parseExpression(precLowest)
	if p.err == nil {
		p.expect(tokenRParen)
	}
	p.lastSymbol = nil
	return expr
}

func (p *parser) parseStringLiteral() node {
	text := p.curToken.Literal
	p.nextToken()
	p.lastSymbol = nil
	return &stringNode{text: text}
}

func (p *parser) parseCharLiteral() node {
	r, _ := utf8.DecodeRuneInString(p.curToken.Literal)
	p.nextToken()
	p.lastSymbol = nil
	return &literalNode{value: NewChar(r)}
}

// parseWord handles number runs, identifiers and labeled-argument calls.
func (p *parser) parseWord() node {
	tok := p.curToken
	first, _ := utf8.DecodeRuneInString(tok.Literal)
	if unicode.IsDigit(first) {
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.addError(tok.Pos, "invalid number literal %q", tok.Literal)
			return nil
		}
		p.nextToken()
		p.lastSymbol = nil
		return &literalNode{value: NewDouble(f)}
	}
	if isKeyword(tok.Literal) {
		p.addError(tok.Pos, "unexpected keyword %s", tok.Literal)
		return nil
	}
	if !isIdentifier(tok.Literal) {
		p.addError(tok.Pos, "invalid identifier %q", tok.Literal)
		return nil
	}
	if p.peekToken.Type == tokenColon && p.tokenAfterPeek().Type == tokenEOF {
		return p.parseFunctorCall()
	}
	p.nextToken()
	ref, s := p.c.reference(p, tok)
	p.lastSymbol = s
	return ref
}

// parseBraceLiteral parses {a, b}, {k: v}, {} and {:}. Mixing elements and
// pairs is rejected.
func (p *parser) parseBraceLiteral() node {
	open := p.curToken
	p.nextToken()
	p.lastSymbol = nil
	if p.curIs(tokenRBrace) {
		p.nextToken()
		return &vectorNode{}
	}
	if p.curIs(tokenColon) && p.peekToken.Type == tokenRBrace {
		p.nextToken()
		p.nextToken()
		return &mapNode{}
	}

	var elems, keys, values []node
	isMap := false
	for i := 0; p.err == nil; i++ {
		item := p.parseExpression(precLowest)
		if p.curIs(tokenColon) {
			if i > 0 && !isMap {
				p.addError(open.Pos, "ambiguous literal: mixes elements and key-value pairs")
				return nil
			}
			isMap = true
			p.nextToken()
			keys = append(keys, item)
			values = append(values, p.parseExpression(precLowest))
		} else {
			if isMap {
				p.addError(open.Pos, "ambiguous literal: mixes elements and key-value pairs")
				return nil
			}
			elems = append(elems, item)
		}
		if p.curIs(tokenComma) {
			p.nextToken()
			continue
		}
		p.expect(tokenRBrace)
		break
	}
	p.lastSymbol = nil
	if isMap {
		return &mapNode{keys: keys, values: values}
	}
	return &vectorNode{elems: elems}
}

func (p *parser) parseCallExpression(fn node) node {
	callee := p.lastSymbol
	open := p.curToken
	p.nextToken()
	var args []node
	for p.err == nil && !p.curIs(tokenRParen) {
		args = append(args, p.parseExpression(precLowest))
		if p.curIs(tokenComma) {
			p.nextToken()
			continue
		}
		if !p.curIs(tokenRParen) {
			p.errorExpected("',' or ')'")
		}
	}
	if p.err == nil {
		p.nextToken()
	}
	p.lastSymbol = nil
	if callee != nil && p.err == nil {
		p.c.checkCall(p, open, callee, len(args))
	}
	return &callNode{fn: fn, args: args}
}

func (p *parser) parseIndexExpression(base node) node {
	p.nextToken()
	key := p.parseExpression(precLowest)
	if p.err == nil {
		p.expect(tokenRBracket)
	}
	p.lastSymbol = nil
	return &indexNode{base: base, key: key}
}

func (p *parser) parseMemberExpression(base node) node {
	p.nextToken()
	name, ok := p.expectIdentifier()
	if !ok {
		return nil
	}
	p.lastSymbol = nil
	return &attrNode{base: base, name: name}
}

// parseFunctorCall handles "name:" at the end of an entry. The arguments
// come from the entry's indented block.
func (p *parser) parseFunctorCall() node {
	tok := p.curToken
	p.nextToken()
	p.nextToken()
	p.bodyUsed = true
	p.lastSymbol = nil
	return p.c.compileFunctorCall(p, tok)
}

// parseParams parses a parameter list up to end. Parameters are plain
// names, name& references, name(a, b) function-typed parameters, or
// [group: modeA(x), modeB(y)] mode groups.
func (p *parser) parseParams(end TokenType) *signature {
	sig := &signature{}
	seen := map[string]bool{}
	claim := func(name string, pos Position) {
		if seen[name] {
			p.addError(pos, "duplicate parameter %s", name)
		}
		seen[name] = true
	}
	nameList := func() []string {
		var names []string
		if !p.expect(tokenLParen) {
			return nil
		}
		for p.err == nil && !p.curIs(tokenRParen) {
			pos := p.curToken.Pos
			name, ok := p.expectIdentifier()
			if !ok {
				return nil
			}
			names = append(names, name)
			claim(name, pos)
			if p.curIs(tokenComma) {
				p.nextToken()
			} else if !p.curIs(tokenRParen) {
				p.errorExpected("',' or ')'")
			}
		}
		p.expect(tokenRParen)
		return names
	}

	for p.err == nil && !p.curIs(end) {
		pos := p.curToken.Pos
		if p.curIs(tokenLBracket) {
			p.nextToken()
			name, ok := p.expectIdentifier()
			if !ok || !p.expect(tokenColon) {
				return nil
			}
			claim(name, pos)
			prm := param{name: name, kind: paramGroup}
			modeNames := map[string]bool{}
			for p.err == nil {
				modePos := p.curToken.Pos
				mode, ok := p.expectIdentifier()
				if !ok {
					return nil
				}
				if modeNames[mode] {
					p.addError(modePos, "duplicate mode %s", mode)
				}
				modeNames[mode] = true
				prm.modes = append(prm.modes, paramMode{name: mode, params: nameList()})
				if !p.curIs(tokenComma) {
					break
				}
				p.nextToken()
			}
			p.expect(tokenRBracket)
			sig.params = append(sig.params, prm)
		} else {
			name, ok := p.expectIdentifier()
			if !ok {
				return nil
			}
			claim(name, pos)
			prm := param{name: name}
			switch {
			case p.curIs(tokenAmp):
				p.nextToken()
				prm.kind = paramReference
			case p.curIs(tokenLParen):
				prm.kind = paramFunction
				prm.args = nameList()
			}
			sig.params = append(sig.params, prm)
		}
		if p.curIs(tokenComma) {
			p.nextToken()
		} else if !p.curIs(end) {
			p.errorExpected("',' or '" + string(end) + "'")
		}
	}
	if p.err != nil {
		return nil
	}
	p.nextToken()
	return sig
}

// parseSignature parses a standalone parameter list such as "a, b&".
func parseSignature(text string) (*signature, error) {
	c := &compiler{}
	p := c.newParserFor(&Entry{Value: text}, text)
	sig := p.parseParams(tokenEOF)
	if p.err != nil {
		return nil, p.err
	}
	return sig, nil
}
