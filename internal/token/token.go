// Package token defines the lexeme classification produced by the scanner
// and consumed by the compiler. Tokens are immutable once produced.
package token

// Kind is the closed set of token classes this implementation recognizes.
type Kind int

const (
	// Structural
	LeftCurly Kind = iota
	RightCurly
	LeftParen
	RightParen
	LeftSquare
	RightSquare
	SingleQuote
	DoubleQuote
	Sigil
	Comma
	Semicolon
	Pound

	// Literals / identifiers
	Number
	String
	Identifier

	// Operators
	Plus
	Minus
	Star
	Slash
	Modulus
	Caret
	Bang
	GreaterThan
	LessThan
	GreaterEqual
	LessEqual
	DoubleEqual
	NotEqual
	Equals
	Incr
	Decr
	AddAssign
	SubAssign
	MulAssign
	DivAssign
	ModAssign
	PowAssign
	And
	Or
	NoMatch
	Tilde
	Pipe
	Question
	Colon
	Append

	// Keywords
	Begin
	End
	Break
	Continue
	Delete
	Do
	Else
	Exit
	For
	Function
	If
	In
	Next
	Print
	Printf
	Return
	While
	GetLine

	// Meta
	StringConcat
	Error
	Eof
)

// Keywords maps reserved identifier text to its keyword token kind.
var Keywords = map[string]Kind{
	"BEGIN":    Begin,
	"END":      End,
	"break":    Break,
	"continue": Continue,
	"delete":   Delete,
	"do":       Do,
	"else":     Else,
	"exit":     Exit,
	"for":      For,
	"function": Function,
	"if":       If,
	"in":       In,
	"next":     Next,
	"print":    Print,
	"printf":   Printf,
	"return":   Return,
	"while":    While,
	"GETLINE":  GetLine,
}

// Token is a single lexeme with its source coordinates.
type Token struct {
	Kind   Kind
	Lexeme string // original text; empty for synthetic/structural tokens
	Line   int
	Column int
}

func (t Token) String() string {
	if t.Lexeme != "" {
		return t.Lexeme
	}
	return kindNames[t.Kind]
}

var kindNames = map[Kind]string{
	LeftCurly: "{", RightCurly: "}", LeftParen: "(", RightParen: ")",
	LeftSquare: "[", RightSquare: "]", SingleQuote: "'", DoubleQuote: "\"",
	Sigil: "$", Comma: ",", Semicolon: ";", Pound: "#",
	Number: "number", String: "string", Identifier: "identifier",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Modulus: "%", Caret: "^",
	Bang: "!", GreaterThan: ">", LessThan: "<", GreaterEqual: ">=",
	LessEqual: "<=", DoubleEqual: "==", NotEqual: "!=", Equals: "=",
	Incr: "++", Decr: "--", AddAssign: "+=", SubAssign: "-=",
	MulAssign: "*=", DivAssign: "/=", ModAssign: "%=", PowAssign: "^=",
	And: "&&", Or: "||", NoMatch: "!~", Tilde: "~", Pipe: "|",
	Question: "?", Colon: ":", Append: ">>",
	Begin: "BEGIN", End: "END", Break: "break", Continue: "continue",
	Delete: "delete", Do: "do", Else: "else", Exit: "exit", For: "for",
	Function: "function", If: "if", In: "in", Next: "next", Print: "print",
	Printf: "printf", Return: "return", While: "while", GetLine: "GETLINE",
	StringConcat: "<concat>", Error: "<error>", Eof: "<eof>",
}
