package rule

import (
	stderrors "errors"

	"mercator-hq/matchgram/pkg/message"
	rerrors "mercator-hq/matchgram/pkg/rule/errors"
	"mercator-hq/matchgram/pkg/rule/lexer"
	"mercator-hq/matchgram/pkg/rule/matcher"
	"mercator-hq/matchgram/pkg/rule/parser"
	"mercator-hq/matchgram/pkg/rule/registry"
)

// Matcher is a compiled rule.
type Matcher = matcher.Matcher

type options struct {
	registry *registry.Registry
	source   string
}

// Option configures Compile.
type Option func(*options)

// WithRegistry compiles against reg instead of registry.Default().
func WithRegistry(reg *registry.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// WithSource names where the rule text came from. The name prefixes error
// messages.
func WithSource(source string) Option {
	return func(o *options) {
		o.source = source
	}
}

// Compile lexes and parses text into a Matcher. A failure is always an
// *errors.Error with the offending line rendered into its Context.
func Compile(text string, opts ...Option) (*Matcher, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = defaultRegistry
	}

	stream, err := lexer.Tokenize(text)
	if err != nil {
		return nil, annotate(err, text, o.source)
	}
	m, err := parser.New(o.registry).Parse(stream)
	if err != nil {
		return nil, annotate(err, text, o.source)
	}
	return m, nil
}

// MustCompile is like Compile but panics on error. It is intended for rules
// that are constants in Go source.
func MustCompile(text string, opts ...Option) *Matcher {
	m, err := Compile(text, opts...)
	if err != nil {
		panic("rule: Compile(" + text + "): " + err.Error())
	}
	return m
}

// Match compiles text and evaluates it against msg.
func Match(text string, msg *message.Message) (bool, error) {
	m, err := Compile(text)
	if err != nil {
		return false, err
	}
	return m.Match(msg)
}

// MatchJSON compiles text and evaluates it against a JSON-encoded message.
// A decoding failure is reported as an errors.JSON error.
func MatchJSON(text string, data []byte) (bool, error) {
	m, err := Compile(text)
	if err != nil {
		return false, err
	}
	msg, err := message.Decode(data)
	if err != nil {
		return false, rerrors.NewJSONError(err)
	}
	return m.Match(msg)
}

var defaultRegistry = registry.Default()

func annotate(err error, text, source string) error {
	var e *rerrors.Error
	if !stderrors.As(err, &e) {
		return err
	}
	e.Source = source
	return rerrors.WithContext(e, text)
}
