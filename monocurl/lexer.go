package monocurl

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// lexer produces tokens on demand from a single outline entry. Only the
// cursor is kept; tokens are never buffered beyond what the parser holds.
type lexer struct {
	input string
	line  int

	offset int
	width  int
	column int

	ch rune
}

func newLexer(input string, line int) *lexer {
	l := &lexer{input: input, line: line}
	l.readRune()
	return l
}

func (l *lexer) readRune() {
	if l.offset >= len(l.input) {
		l.width = 0
		l.ch = 0
		l.column++
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.offset:])
	l.width = w
	l.offset += w
	l.column++
	l.ch = r
}

func (l *lexer) peekRune() rune {
	if l.offset >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.offset:])
	return r
}

func (l *lexer) currentOffset() int {
	return l.offset - l.width
}

func (l *lexer) NextToken() Token {
	if msg := l.skipWhitespaceAndComments(); msg != "" {
		return Token{Type: tokenIllegal, Literal: msg, Pos: Position{Line: l.line, Column: l.column}, End: len(l.input)}
	}

	pos := Position{Line: l.line, Column: l.column}
	single := func(tt TokenType) Token {
		tok := Token{Type: tt, Literal: string(tt), Pos: pos}
		l.readRune()
		tok.End = l.currentOffset()
		return tok
	}
	double := func(tt TokenType) Token {
		l.readRune()
		return single(tt)
	}

	switch l.ch {
	case 0:
		return Token{Type: tokenEOF, Pos: pos, End: len(l.input)}
	case '+':
		if l.peekRune() == '=' {
			return double(tokenPlusAssign)
		}
		return single(tokenPlus)
	case '-':
		return single(tokenMinus)
	case '*':
		if l.peekRune() == '*' {
			return double(tokenPower)
		}
		return single(tokenAsterisk)
	case '/':
		return single(tokenSlash)
	case '(':
		return single(tokenLParen)
	case ')':
		return single(tokenRParen)
	case '{':
		return single(tokenLBrace)
	case '}':
		return single(tokenRBrace)
	case '[':
		return single(tokenLBracket)
	case ']':
		return single(tokenRBracket)
	case ',':
		return single(tokenComma)
	case '.':
		return single(tokenDot)
	case ':':
		if l.peekRune() == '<' {
			return double(tokenRange)
		}
		return single(tokenColon)
	case '!':
		if l.peekRune() == '=' {
			return double(tokenNotEQ)
		}
		return single(tokenBang)
	case '=':
		if l.peekRune() == '=' {
			return double(tokenEQ)
		}
		return single(tokenAssign)
	case '<':
		if l.peekRune() == '=' {
			return double(tokenLTE)
		}
		return single(tokenLT)
	case '>':
		if l.peekRune() == '=' {
			return double(tokenGTE)
		}
		return single(tokenGT)
	case '&':
		if l.peekRune() == '&' {
			return double(tokenAnd)
		}
		return single(tokenAmp)
	case '|':
		if l.peekRune() == '|' {
			return double(tokenOr)
		}
		return l.illegal(pos)
	case '"':
		literal, msg := l.readQuoted('"')
		if msg != "" {
			return Token{Type: tokenIllegal, Literal: msg, Pos: pos, End: l.currentOffset()}
		}
		return Token{Type: tokenString, Literal: literal, Pos: pos, End: l.currentOffset()}
	case '\'':
		literal, msg := l.readQuoted('\'')
		if msg == "" && utf8.RuneCountInString(literal) != 1 {
			msg = "character literal must hold exactly one character"
		}
		if msg != "" {
			return Token{Type: tokenIllegal, Literal: msg, Pos: pos, End: l.currentOffset()}
		}
		return Token{Type: tokenChar, Literal: literal, Pos: pos, End: l.currentOffset()}
	default:
		if isWordRune(l.ch) {
			literal := l.readWord()
			return Token{Type: tokenWord, Literal: literal, Pos: pos, End: l.currentOffset()}
		}
		return l.illegal(pos)
	}
}

func (l *lexer) illegal(pos Position) Token {
	tok := Token{Type: tokenIllegal, Literal: "unexpected character " + strconv.QuoteRune(l.ch), Pos: pos}
	l.readRune()
	tok.End = l.currentOffset()
	return tok
}

func (l *lexer) skipWhitespaceAndComments() string {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r':
			l.readRune()
		case l.ch == '/' && l.peekRune() == '*':
			l.readRune()
			l.readRune()
			for {
				if l.ch == 0 {
					return "unterminated comment"
				}
				if l.ch == '*' && l.peekRune() == '/' {
					l.readRune()
					l.readRune()
					break
				}
				l.readRune()
			}
		default:
			return ""
		}
	}
}

// readWord consumes an identifier or number run. A '.' only continues the
// run when it sits between digits of a run that began with a digit.
func (l *lexer) readWord() string {
	start := l.currentOffset()
	numeric := unicode.IsDigit(l.ch)
	for {
		l.readRune()
		if isWordRune(l.ch) {
			continue
		}
		if numeric && l.ch == '.' && unicode.IsDigit(l.peekRune()) {
			continue
		}
		break
	}
	return l.input[start:l.currentOffset()]
}

func (l *lexer) readQuoted(quote rune) (string, string) {
	var sb strings.Builder
	l.readRune()
	for {
		switch l.ch {
		case 0:
			return "", "unterminated literal"
		case quote:
			l.readRune()
			return sb.String(), ""
		case '\\':
			l.readRune()
			switch l.ch {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case '\\', '"', '\'':
				sb.WriteRune(l.ch)
			case 0:
				return "", "unterminated literal"
			default:
				return "", "invalid escape sequence \\" + string(l.ch)
			}
			l.readRune()
		default:
			sb.WriteRune(l.ch)
			l.readRune()
		}
	}
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isIdentifier(word string) bool {
	if word == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(word)
	if first != '_' && !unicode.IsLetter(first) {
		return false
	}
	for _, r := range word {
		if !isWordRune(r) {
			return false
		}
	}
	return true
}
