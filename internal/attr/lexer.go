package attr

const (
	errUnterminatedString = "Unexpected end of string"
	errNumberNonDigit     = "Number contains non-digit characters"
	errUnexpectedChar     = "Unexpected character"
)

// Lexer scans one attribute payload. The zero value is not usable; use Lex.
type Lexer struct {
	src string
	pos int // index of the next byte to consume
}

// Lex tokenizes src. The result always ends with an End or an Error token;
// nothing is produced after an Error.
func Lex(src string) []Token {
	l := &Lexer{src: src}
	var out []Token
	for {
		tok := l.next()
		out = append(out, tok)
		if tok.Type == End || tok.Type == Error {
			return out
		}
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\f' || c == '\n' || c == '\r' || c == '\t' || c == '\v'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isSeparator(c byte) bool {
	return c == ':' || c == ',' || c == '(' || c == ')' || c == '"'
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) && isSpace(l.src[l.pos]) {
		l.pos++
	}
}

func (l *Lexer) punct(t TokenType) Token {
	tok := Token{Type: t, Text: l.src[l.pos : l.pos+1], Offset: l.pos}
	l.pos++
	return tok
}

func (l *Lexer) next() Token {
	l.skipWhitespace()
	if l.pos >= len(l.src) {
		return Token{Type: End, Offset: l.pos}
	}

	switch c := l.src[l.pos]; {
	case c == ',':
		return l.punct(Comma)
	case c == ':':
		return l.punct(Colon)
	case c == '(':
		return l.punct(OpenParen)
	case c == ')':
		return l.punct(CloseParen)
	case c == '"':
		return l.scanString()
	case isDigit(c):
		return l.scanNumber()
	case isAlpha(c):
		return l.scanIdent()
	}
	return Token{Type: Error, Text: errUnexpectedChar, Offset: l.pos}
}

// scanString reads a double-quoted string; there are no escapes.
func (l *Lexer) scanString() Token {
	quote := l.pos
	l.pos++
	start := l.pos
	for l.pos < len(l.src) && l.src[l.pos] != '"' {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return Token{Type: Error, Text: errUnterminatedString, Offset: quote}
	}
	tok := Token{Type: String, Text: l.src[start:l.pos], Offset: quote}
	l.pos++
	return tok
}

// scanNumber consumes the maximal run of non-space, non-separator bytes.
// Any non-digit in the run makes the whole run an error at its start.
func (l *Lexer) scanNumber() Token {
	start := l.pos
	digits := true
	for l.pos < len(l.src) && !isSpace(l.src[l.pos]) && !isSeparator(l.src[l.pos]) {
		if !isDigit(l.src[l.pos]) {
			digits = false
		}
		l.pos++
	}
	if !digits {
		return Token{Type: Error, Text: errNumberNonDigit, Offset: start}
	}
	return Token{Type: Number, Text: l.src[start:l.pos], Offset: start}
}

func (l *Lexer) scanIdent() Token {
	start := l.pos
	for l.pos < len(l.src) && (isAlpha(l.src[l.pos]) || isDigit(l.src[l.pos])) {
		l.pos++
	}
	return Token{Type: Identifier, Text: l.src[start:l.pos], Offset: start}
}
