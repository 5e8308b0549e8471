package compiler

import "github.com/kristofer/lumen/internal/lexer"

// Precedence orders lumen's expression grammar low to high, exactly as
// lumen's grammar lists it.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment // =
	PrecOr         // or
	PrecAnd        // and
	PrecEquality   // == !=
	PrecComparison // < > <= >=
	PrecTerm       // + -
	PrecFactor     // * /
	PrecUnary      // ! -
	PrecCall       // . ()
	PrecPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

var rules map[lexer.TokenKind]parseRule

func init() {
	rules = map[lexer.TokenKind]parseRule{
		lexer.TokenLeftParen:    {(*Compiler).grouping, (*Compiler).call, PrecCall},
		lexer.TokenDot:          {nil, (*Compiler).dot, PrecCall},
		lexer.TokenMinus:        {(*Compiler).unary, (*Compiler).binary, PrecTerm},
		lexer.TokenPlus:         {nil, (*Compiler).binary, PrecTerm},
		lexer.TokenSlash:        {nil, (*Compiler).binary, PrecFactor},
		lexer.TokenStar:         {nil, (*Compiler).binary, PrecFactor},
		lexer.TokenBang:         {(*Compiler).unary, nil, PrecNone},
		lexer.TokenBangEqual:    {nil, (*Compiler).binary, PrecEquality},
		lexer.TokenEqualEqual:   {nil, (*Compiler).binary, PrecEquality},
		lexer.TokenGreater:      {nil, (*Compiler).binary, PrecComparison},
		lexer.TokenGreaterEqual: {nil, (*Compiler).binary, PrecComparison},
		lexer.TokenLess:         {nil, (*Compiler).binary, PrecComparison},
		lexer.TokenLessEqual:    {nil, (*Compiler).binary, PrecComparison},
		lexer.TokenIdentifier:   {(*Compiler).variable, nil, PrecNone},
		lexer.TokenString:       {(*Compiler).stringLit, nil, PrecNone},
		lexer.TokenNumber:       {(*Compiler).number, nil, PrecNone},
		lexer.TokenAnd:          {nil, (*Compiler).and, PrecAnd},
		lexer.TokenOr:           {nil, (*Compiler).or, PrecOr},
		lexer.TokenFalse:        {(*Compiler).literal, nil, PrecNone},
		lexer.TokenTrue:         {(*Compiler).literal, nil, PrecNone},
		lexer.TokenNil:          {(*Compiler).literal, nil, PrecNone},
		lexer.TokenThis:         {(*Compiler).this, nil, PrecNone},
		lexer.TokenSuper:        {(*Compiler).super, nil, PrecNone},
	}
}

func (c *Compiler) getRule(kind lexer.TokenKind) parseRule {
	if r, ok := rules[kind]; ok {
		return r
	}
	return parseRule{nil, nil, PrecNone}
}
