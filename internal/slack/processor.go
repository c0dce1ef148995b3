package slack

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultReactionDelay = 300 * time.Millisecond

// Poster is the subset of the Slack client used to reply.
type Poster interface {
	PostMessage(ctx context.Context, channel, text, threadTS string) (string, error)
	AddProcessingReaction(ctx context.Context, channel, ts string) error
	RemoveProcessingReaction(ctx context.Context, channel, ts string) error
}

// Answerer turns a question into the reply text.
type Answerer interface {
	Handle(ctx context.Context, question string) (string, error)
}

// Message is an inbound user message, normalized from message and
// app_mention events.
type Message struct {
	Channel         string
	User            string
	Text            string
	TimeStamp       string
	ThreadTimeStamp string
	// HasFiles is set for uploads and file shares.
	HasFiles  bool
	IsChannel bool
}

func (m Message) threadTS() string {
	if m.ThreadTimeStamp != "" {
		return m.ThreadTimeStamp
	}
	return m.TimeStamp
}

// Processor processes Slack messages and generates responses
type Processor struct {
	poster        Poster
	answerer      Answerer
	log           *slog.Logger
	botUserID     string
	reactionDelay time.Duration
}

type ProcessorOption func(*Processor)

// WithReactionDelay sets the pause between posting a reply and removing the
// processing reaction.
func WithReactionDelay(d time.Duration) ProcessorOption {
	return func(p *Processor) { p.reactionDelay = d }
}

func WithBotUserID(id string) ProcessorOption {
	return func(p *Processor) { p.botUserID = id }
}

func NewProcessor(poster Poster, answerer Answerer, log *slog.Logger, opts ...ProcessorOption) *Processor {
	p := &Processor{
		poster:        poster,
		answerer:      answerer,
		log:           log,
		reactionDelay: defaultReactionDelay,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ProcessMessage answers a single message. It never returns an error: every
// failure ends in a fixed reply to the user.
func (p *Processor) ProcessMessage(ctx context.Context, msg Message, eventID string) {
	startTime := time.Now()
	requestID := uuid.NewString()
	log := p.log.With("request_id", requestID, "channel", msg.Channel, "message_ts", msg.TimeStamp, "event_id", eventID)

	if msg.HasFiles {
		log.Info("non-text message received", "user", msg.User)
		p.reply(ctx, log, msg, textOnlyText, "non_text")
		return
	}

	txt := strings.TrimSpace(msg.Text)
	if msg.IsChannel {
		txt = removeMention(txt, p.botUserID)
	}

	if txt == "" {
		p.reply(ctx, log, msg, emptyQueryText, "empty")
		return
	}
	if isStartCommand(txt) {
		p.reply(ctx, log, msg, welcomeText, "welcome")
		return
	}

	log.Info("answering question", "user", msg.User, "text", txt)

	defer func() {
		MessageProcessingDuration.WithLabelValues("question").Observe(time.Since(startTime).Seconds())
	}()

	// The reaction stands in for a typing indicator.
	if err := p.poster.AddProcessingReaction(ctx, msg.Channel, msg.TimeStamp); err != nil {
		SlackAPIErrorsTotal.WithLabelValues("add_reaction").Inc()
	}

	kind := "answer"
	answer, err := p.answerer.Handle(ctx, txt)
	if err != nil {
		log.Error("failed to answer question", "text", txt, "error", err)
		answer = apologyText
		kind = "apology"
	}

	posted := p.reply(ctx, log, msg, answer, kind)

	if posted && p.reactionDelay > 0 {
		select {
		case <-time.After(p.reactionDelay):
		case <-ctx.Done():
		}
	}
	if err := p.poster.RemoveProcessingReaction(ctx, msg.Channel, msg.TimeStamp); err != nil {
		SlackAPIErrorsTotal.WithLabelValues("remove_reaction").Inc()
	}
}

func (p *Processor) reply(ctx context.Context, log *slog.Logger, msg Message, text, kind string) bool {
	ts, err := p.poster.PostMessage(ctx, msg.Channel, text, msg.threadTS())
	if err != nil {
		SlackAPIErrorsTotal.WithLabelValues("post_message").Inc()
		MessagesPostedTotal.WithLabelValues("error", kind).Inc()
		log.Error("failed to post reply", "kind", kind, "error", err)
		return false
	}
	MessagesPostedTotal.WithLabelValues("success", kind).Inc()
	log.Info("reply posted", "kind", kind, "reply_ts", ts)
	return true
}
