package monocurl

// TokenType identifies the lexical category of a token.
type TokenType string

const (
	tokenIllegal TokenType = "ILLEGAL"
	tokenEOF     TokenType = "EOF"

	// tokenWord is a bare identifier or number run. The lexer does not
	// decide which; the parser rejects malformed runs.
	tokenWord   TokenType = "WORD"
	tokenString TokenType = "STRING"
	tokenChar   TokenType = "CHAR"

	tokenAssign     TokenType = "="
	tokenPlusAssign TokenType = "+="
	tokenPlus       TokenType = "+"
	tokenMinus      TokenType = "-"
	tokenBang       TokenType = "!"
	tokenAsterisk   TokenType = "*"
	tokenPower      TokenType = "**"
	tokenSlash      TokenType = "/"
	tokenLT         TokenType = "<"
	tokenGT         TokenType = ">"
	tokenLTE        TokenType = "<="
	tokenGTE        TokenType = ">="
	tokenEQ         TokenType = "=="
	tokenNotEQ      TokenType = "!="
	tokenAnd        TokenType = "&&"
	tokenOr         TokenType = "||"
	tokenAmp        TokenType = "&"

	tokenComma    TokenType = ","
	tokenColon    TokenType = ":"
	tokenRange    TokenType = ":<"
	tokenDot      TokenType = "."
	tokenLParen   TokenType = "("
	tokenRParen   TokenType = ")"
	tokenLBrace   TokenType = "{"
	tokenRBrace   TokenType = "}"
	tokenLBracket TokenType = "["
	tokenRBracket TokenType = "]"
)

// Token captures lexical information for the parser.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
	// End is the byte offset just past the token.
	End int
}

// Position identifies a location inside a slide document. Line is 0-based
// and counts outline lines; Column is the 1-based rune column inside the
// line's text.
type Position struct {
	Line   int
	Column int
}

var keywords = map[string]bool{
	"let":    true,
	"var":    true,
	"tree":   true,
	"func":   true,
	"if":     true,
	"else":   true,
	"for":    true,
	"in":     true,
	"while":  true,
	"play":   true,
	"return": true,
	"sticky": true,
}

func isKeyword(word string) bool {
	return keywords[word]
}
