package attr

import "fmt"

// TokenType identifies the category of a lexed attribute token.
type TokenType int

const (
	Error TokenType = iota
	Identifier
	Number
	String
	OpenParen  // (
	CloseParen // )
	Colon      // :
	Comma      // ,
	End        // sentinel: end of input
)

var tokenTypeStrings = [...]string{
	Error:      "Error",
	Identifier: "Identifier",
	Number:     "Number",
	String:     "String",
	OpenParen:  "OpenParen",
	CloseParen: "CloseParen",
	Colon:      "Colon",
	Comma:      "Comma",
	End:        "End",
}

func (t TokenType) String() string {
	if t < 0 || int(t) >= len(tokenTypeStrings) {
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
	return tokenTypeStrings[t]
}

// Token is one lexeme of an attribute payload.
//
// Text is the lexeme without surrounding quotes for strings; for Error
// tokens it is the error message. Offset is the byte offset into the
// payload where the token (or the error) starts.
type Token struct {
	Type   TokenType
	Text   string
	Offset int
}

// Len is the length of the token text.
func (t Token) Len() int { return len(t.Text) }

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d", t.Type, t.Text, t.Offset)
}
