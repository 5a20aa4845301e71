package lexer

import (
	rerrors "mercator-hq/matchgram/pkg/rule/errors"
	"mercator-hq/matchgram/pkg/rule/token"
)

// Stream is the output of the lexer: the rule text as runes and two
// parallel slices of token kinds and their spans. The last token is always
// token.EOF, positioned at the end of the input.
type Stream struct {
	Input     []rune
	Tokens    []token.Kind
	Positions []token.Position
}

// Len returns the number of tokens, EOF included.
func (s *Stream) Len() int {
	return len(s.Tokens)
}

// Kind returns the kind of the token at index i. Indexes past the end read
// as token.EOF.
func (s *Stream) Kind(i int) token.Kind {
	if i < 0 || i >= len(s.Tokens) {
		return token.EOF
	}
	return s.Tokens[i]
}

// Position returns the span of the token at index i.
func (s *Stream) Position(i int) (token.Position, error) {
	if i < 0 || i >= len(s.Positions) {
		return token.Position{}, rerrors.NewTokenError(rerrors.MissingTokenPosition, s.Kind(i), i)
	}
	return s.Positions[i], nil
}

// Column returns the 1-based column of the token at index i. A missing
// position reports the column just past the end of the input.
func (s *Stream) Column(i int) int {
	pos, err := s.Position(i)
	if err != nil {
		return len(s.Input) + 1
	}
	return pos.Column()
}

// Text returns the lexeme of the data-carrying token at index i.
func (s *Stream) Text(i int) (string, error) {
	pos, err := s.Position(i)
	if err != nil {
		return "", err
	}
	if !s.Kind(i).HasData() {
		return "", rerrors.NewTokenError(rerrors.MissingTokenData, s.Kind(i), i)
	}
	if pos.Begin < 0 || pos.End > len(s.Input) || pos.Begin > pos.End {
		return "", rerrors.NewTokenError(rerrors.MissingTokenPosition, s.Kind(i), i)
	}
	return string(s.Input[pos.Begin:pos.End]), nil
}

// Lexemes renders every token as it appears in the input. Delimiters render
// as themselves and EOF as "EOF".
func (s *Stream) Lexemes() []string {
	out := make([]string, len(s.Tokens))
	for i, kind := range s.Tokens {
		if kind.HasData() {
			text, err := s.Text(i)
			if err == nil {
				out[i] = text
				continue
			}
		}
		out[i] = kind.String()
	}
	return out
}
