package natsbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"mercator-hq/matchgram/pkg/config"
	"mercator-hq/matchgram/pkg/message"
	"mercator-hq/matchgram/pkg/ruleset"
	"mercator-hq/matchgram/pkg/telemetry/logging"
	"mercator-hq/matchgram/pkg/telemetry/tracing"
)

// Source is the evidence source of verdicts produced from the bus.
const Source = "nats"

// VersionHeader carries the rule set version on published verdicts.
const VersionHeader = "Matchgram-Version"

const (
	maxReconnects = -1
	reconnectWait = 2 * time.Second
	drainTimeout  = 10 * time.Second
)

// Evaluator evaluates a message against the loaded rules.
type Evaluator interface {
	Evaluate(ctx context.Context, msg *message.Message) *ruleset.Verdict
}

// Recorder receives every verdict produced from the bus.
type Recorder interface {
	RecordVerdict(ctx context.Context, source string, msg *message.Message, v *ruleset.Verdict) error
}

// Publisher sends messages; *nats.Conn implements it.
type Publisher interface {
	PublishMsg(m *nats.Msg) error
}

// Envelope is what the bus publishes for each evaluated message.
type Envelope struct {
	MessageID int64            `json:"message_id"`
	ChatID    int64            `json:"chat_id,omitempty"`
	Verdict   *ruleset.Verdict `json:"verdict,omitempty"`
	Error     string           `json:"error,omitempty"`
}

// Options configures a Bus. Evaluator is required.
type Options struct {
	Config    config.NATSConfig
	Evaluator Evaluator
	Recorder  Recorder
	Validator *message.Validator
	Tracer    *tracing.Tracer
	Logger    *logging.Logger
}

// Bus consumes messages from a NATS subject through a queue group,
// evaluates them and publishes the verdicts.
type Bus struct {
	cfg       config.NATSConfig
	evaluator Evaluator
	recorder  Recorder
	validator *message.Validator
	tracer    *tracing.Tracer
	logger    *logging.Logger

	mu   sync.Mutex
	conn *nats.Conn
	pub  Publisher
	sub  *nats.Subscription
}

// New creates a bus. Nothing is connected until Connect.
func New(opts Options) *Bus {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	cfg := opts.Config
	if cfg.URL == "" {
		cfg.URL = config.DefaultNATSURL
	}
	if cfg.Subject == "" {
		cfg.Subject = config.DefaultNATSSubject
	}
	return &Bus{
		cfg:       cfg,
		evaluator: opts.Evaluator,
		recorder:  opts.Recorder,
		validator: opts.Validator,
		tracer:    opts.Tracer,
		logger:    logger.Component("natsbus"),
	}
}

func (b *Bus) connectionOptions() []nats.Option {
	return []nats.Option{
		nats.Name("matchgram"),
		nats.MaxReconnects(maxReconnects),
		nats.ReconnectWait(reconnectWait),
		nats.DrainTimeout(drainTimeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				b.logger.Warn("Disconnected from NATS", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			b.logger.Info("Reconnected to NATS", "url", c.ConnectedUrl())
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			b.logger.Error("NATS async error", "subject", subject, "error", err)
		}),
	}
}

// Connect dials the server and subscribes to the configured subject.
func (b *Bus) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conn, err := nats.Connect(b.cfg.URL, b.connectionOptions()...)
	if err != nil {
		return fmt.Errorf("connect to NATS at %s: %w", b.cfg.URL, err)
	}
	if err := b.Attach(conn); err != nil {
		conn.Close()
		return err
	}
	return nil
}

// Attach subscribes on an existing connection.
func (b *Bus) Attach(conn *nats.Conn) error {
	sub, err := conn.QueueSubscribe(b.cfg.Subject, b.cfg.Queue, func(m *nats.Msg) {
		b.Handle(context.Background(), m)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.cfg.Subject, err)
	}

	b.mu.Lock()
	b.conn = conn
	b.pub = conn
	b.sub = sub
	b.mu.Unlock()

	b.logger.Info("Subscribed to NATS",
		"url", conn.ConnectedUrl(),
		"subject", b.cfg.Subject,
		"queue", b.cfg.Queue,
		"verdict_subject", b.cfg.VerdictSubject,
	)
	return nil
}

// Run blocks until ctx is cancelled and then drains the connection so
// messages already delivered are still evaluated.
func (b *Bus) Run(ctx context.Context) error {
	<-ctx.Done()
	return b.Close()
}

// Close drains and closes the connection.
func (b *Bus) Close() error {
	b.mu.Lock()
	conn := b.conn
	b.conn = nil
	b.sub = nil
	b.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Drain(); err != nil {
		conn.Close()
		return fmt.Errorf("drain NATS connection: %w", err)
	}
	b.logger.Info("NATS connection drained")
	return nil
}

// HealthCheck fails when the connection is down.
func (b *Bus) HealthCheck(context.Context) error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return errors.New("nats not connected")
	}
	if !conn.IsConnected() {
		return fmt.Errorf("nats connection %s", conn.Status())
	}
	return nil
}

// Handle evaluates one delivered message. A request with a reply subject
// always gets an answer; the verdict subject only gets matches unless
// PublishMisses is set.
func (b *Bus) Handle(ctx context.Context, m *nats.Msg) {
	if m.Header != nil {
		ctx = tracing.Extract(ctx, http.Header(m.Header))
	}
	ctx, span := b.tracer.Start(ctx, "natsbus.handle")
	span.SetAttributes(tracing.AttrSource.String(Source))

	env, err := b.evaluate(ctx, m.Data)
	if err != nil {
		b.logger.WarnContext(ctx, "Discarding undecodable message", "subject", m.Subject, "error", err)
		env = &Envelope{Error: err.Error()}
	}

	if m.Reply != "" {
		if perr := b.publish(ctx, m.Reply, env); perr != nil {
			b.logger.ErrorContext(ctx, "Failed to reply", "reply", m.Reply, "error", perr)
		}
	}
	if env.Verdict != nil && b.cfg.VerdictSubject != "" && (env.Verdict.IsMatch() || b.cfg.PublishMisses) {
		if perr := b.publish(ctx, b.cfg.VerdictSubject, env); perr != nil {
			b.logger.ErrorContext(ctx, "Failed to publish verdict", "subject", b.cfg.VerdictSubject, "error", perr)
			err = errors.Join(err, perr)
		}
	}
	tracing.End(span, err)
}

func (b *Bus) evaluate(ctx context.Context, data []byte) (*Envelope, error) {
	var (
		msg *message.Message
		err error
	)
	if b.validator != nil {
		msg, err = b.validator.DecodeValid(data)
	} else {
		msg, err = message.Decode(data)
	}
	if err != nil {
		return nil, err
	}

	verdict := b.evaluator.Evaluate(ctx, msg)
	if b.recorder != nil {
		if rerr := b.recorder.RecordVerdict(ctx, Source, msg, verdict); rerr != nil {
			b.logger.WarnContext(ctx, "Failed to record evidence", "error", rerr)
		}
	}

	env := &Envelope{MessageID: msg.MessageID, Verdict: verdict}
	if msg.Chat != nil {
		env.ChatID = msg.Chat.ID
	}
	return env, nil
}

func (b *Bus) publish(ctx context.Context, subject string, env *Envelope) error {
	b.mu.Lock()
	pub := b.pub
	b.mu.Unlock()
	if pub == nil {
		return errors.New("nats not connected")
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode verdict: %w", err)
	}
	out := nats.NewMsg(subject)
	out.Data = data
	if env.Verdict != nil {
		out.Header.Set(VersionHeader, env.Verdict.Version)
	}
	tracing.Inject(ctx, http.Header(out.Header))
	return pub.PublishMsg(out)
}
