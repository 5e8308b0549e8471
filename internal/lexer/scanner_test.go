package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextTokenPunctuationAndOperators(t *testing.T) {
	src := "(){},.-+;/* ! != = == < <= > >="
	want := []TokenKind{
		TokenLeftParen, TokenRightParen, TokenLeftBrace, TokenRightBrace,
		TokenComma, TokenDot, TokenMinus, TokenPlus, TokenSemicolon,
		TokenSlash, TokenStar, TokenBang, TokenBangEqual, TokenEqual,
		TokenEqualEqual, TokenLess, TokenLessEqual, TokenGreater, TokenGreaterEqual,
		TokenEOF,
	}

	s := New(src)
	for i, kind := range want {
		tok := s.NextToken()
		require.Equalf(t, kind, tok.Kind, "token %d", i)
	}
}

func TestNextTokenKeywordsAndIdentifiers(t *testing.T) {
	src := "and class else false for fun if nil or print return super this true var while orchid"
	s := New(src)

	for _, kw := range []TokenKind{
		TokenAnd, TokenClass, TokenElse, TokenFalse, TokenFor, TokenFun, TokenIf,
		TokenNil, TokenOr, TokenPrint, TokenReturn, TokenSuper, TokenThis,
		TokenTrue, TokenVar, TokenWhile,
	} {
		tok := s.NextToken()
		require.Equal(t, kw, tok.Kind)
	}

	tok := s.NextToken()
	require.Equal(t, TokenIdentifier, tok.Kind)
	require.Equal(t, "orchid", tok.Lexeme)
}

func TestNextTokenNumbers(t *testing.T) {
	s := New("123 3.14 0")
	for _, lex := range []string{"123", "3.14", "0"} {
		tok := s.NextToken()
		require.Equal(t, TokenNumber, tok.Kind)
		require.Equal(t, lex, tok.Lexeme)
	}
}

func TestNextTokenString(t *testing.T) {
	s := New(`"hello world"`)
	tok := s.NextToken()
	require.Equal(t, TokenString, tok.Kind)
	require.Equal(t, `"hello world"`, tok.Lexeme)
}

func TestNextTokenUnterminatedString(t *testing.T) {
	s := New(`"never closes`)
	tok := s.NextToken()
	require.Equal(t, TokenError, tok.Kind)
	require.Equal(t, "unterminated string", tok.Lexeme)
}

func TestNextTokenTracksLines(t *testing.T) {
	s := New("var a = 1;\nvar b = 2;")
	var last Token
	for {
		tok := s.NextToken()
		if tok.Kind == TokenEOF {
			break
		}
		last = tok
	}
	require.Equal(t, 2, last.Line)
}

func TestNextTokenSkipsLineComments(t *testing.T) {
	s := New("// a comment\nvar")
	tok := s.NextToken()
	require.Equal(t, TokenVar, tok.Kind)
	require.Equal(t, 2, tok.Line)
}

func TestNextTokenUnexpectedCharacter(t *testing.T) {
	s := New("@")
	tok := s.NextToken()
	require.Equal(t, TokenError, tok.Kind)
}
