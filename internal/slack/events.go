package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/jellydator/ttlcache/v3"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

const seenMessagesTTL = time.Hour

// MessageProcessor answers one normalized message.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, msg Message, eventID string)
}

// EventHandler filters and deduplicates Slack events and hands accepted
// messages to a bounded worker pool.
type EventHandler struct {
	// workCtx is not cancelled by the NewEventHandler context.
	workCtx    context.Context
	cancelWork context.CancelFunc
	processor  MessageProcessor
	log        *slog.Logger
	botUserID  string

	seen     *ttlcache.Cache[string, struct{}]
	pool     pond.Pool
	stopping atomic.Bool
}

// NewEventHandler builds a handler whose in-flight messages keep the values of
// ctx but not its cancellation; use CancelInFlight to abort them.
func NewEventHandler(ctx context.Context, processor MessageProcessor, log *slog.Logger, botUserID string, workers int) *EventHandler {
	if workers <= 0 {
		workers = defaultWorkers
	}
	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	return &EventHandler{
		workCtx:    workCtx,
		cancelWork: cancelWork,
		processor:  processor,
		log:        log,
		botUserID:  botUserID,
		seen: ttlcache.New(
			ttlcache.WithTTL[string, struct{}](seenMessagesTTL),
			ttlcache.WithDisableTouchOnHit[string, struct{}](),
		),
		pool: pond.NewPool(workers),
	}
}

// StartCleanup runs expiry of the dedup cache until ctx is done.
func (h *EventHandler) StartCleanup(ctx context.Context) {
	go h.seen.Start()
	go func() {
		<-ctx.Done()
		h.seen.Stop()
	}()
}

// StopAcceptingNew rejects further events and returns a function that blocks
// until in-flight messages finish.
func (h *EventHandler) StopAcceptingNew() func() {
	h.stopping.Store(true)
	return func() {
		h.pool.StopAndWait()
		h.cancelWork()
	}
}

// CancelInFlight cancels the context of messages still being processed.
func (h *EventHandler) CancelInFlight() {
	h.cancelWork()
}

// HandleEvent dispatches a callback event. It reports whether a message was
// submitted for processing.
func (h *EventHandler) HandleEvent(e slackevents.EventsAPIEvent, eventID string) bool {
	EventsReceivedTotal.WithLabelValues(e.Type, e.InnerEvent.Type).Inc()
	if e.Type != slackevents.CallbackEvent {
		return false
	}

	var msg Message
	switch ev := e.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		if ev.ChannelType != "im" {
			// Channel traffic arrives as app_mention.
			MessagesIgnoredTotal.WithLabelValues("not_dm").Inc()
			return false
		}
		if ev.BotID != "" || (h.botUserID != "" && ev.User == h.botUserID) {
			MessagesIgnoredTotal.WithLabelValues("bot").Inc()
			return false
		}
		hasFiles := ev.SubType == "file_share" ||
			(ev.Message != nil && (ev.Message.Upload || len(ev.Message.Files) > 0))
		if ev.SubType != "" && !hasFiles {
			MessagesIgnoredTotal.WithLabelValues("subtype").Inc()
			return false
		}
		msg = Message{
			Channel:         ev.Channel,
			User:            ev.User,
			Text:            ev.Text,
			TimeStamp:       ev.TimeStamp,
			ThreadTimeStamp: ev.ThreadTimeStamp,
			HasFiles:        hasFiles,
		}
	case *slackevents.AppMentionEvent:
		if ev.BotID != "" {
			MessagesIgnoredTotal.WithLabelValues("bot").Inc()
			return false
		}
		msg = Message{
			Channel:         ev.Channel,
			User:            ev.User,
			Text:            ev.Text,
			TimeStamp:       ev.TimeStamp,
			ThreadTimeStamp: ev.ThreadTimeStamp,
			IsChannel:       true,
		}
	default:
		return false
	}

	if h.stopping.Load() {
		MessagesIgnoredTotal.WithLabelValues("shutting_down").Inc()
		return false
	}

	messageKey := fmt.Sprintf("%s:%s", msg.Channel, msg.TimeStamp)
	if _, found := h.seen.GetOrSet(messageKey, struct{}{}); found {
		EventsDuplicateTotal.Inc()
		h.log.Info("skipping duplicate event", "message_key", messageKey, "event_id", eventID)
		return false
	}

	task := h.pool.Submit(func() {
		h.processor.ProcessMessage(h.workCtx, msg, eventID)
	})
	go func() {
		if err := task.Wait(); err != nil && !errors.Is(err, pond.ErrPoolStopped) {
			h.log.Error("message task failed", "message_key", messageKey, "error", err)
		}
	}()
	return true
}

// HandleSocketMode consumes socket mode events until ctx is done.
func (h *EventHandler) HandleSocketMode(ctx context.Context, client *socketmode.Client) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-client.Events:
			if !ok {
				return errors.New("socketmode event channel closed")
			}
			switch evt.Type {
			case socketmode.EventTypeConnecting:
				h.log.Info("socketmode: connecting")
			case socketmode.EventTypeConnected:
				h.log.Info("socketmode: connected")
			case socketmode.EventTypeConnectionError:
				h.log.Error("socketmode: connection error", "error", evt.Data)
			case socketmode.EventTypeEventsAPI:
				e, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok || evt.Request == nil {
					continue
				}
				client.Ack(*evt.Request)
				if evt.Request.RetryAttempt > 0 {
					h.log.Info("processing retried event", "envelope_id", evt.Request.EnvelopeID,
						"retry_attempt", evt.Request.RetryAttempt, "retry_reason", evt.Request.RetryReason)
				}
				h.HandleEvent(e, evt.Request.EnvelopeID)
			}
		}
	}
}

// HandleHTTP serves the Events API endpoint. Requests must carry a valid
// signature for signingSecret.
func (h *EventHandler) HandleHTTP(w http.ResponseWriter, r *http.Request, signingSecret string) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Error("failed to read request body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	verifier, err := slack.NewSecretsVerifier(r.Header, signingSecret)
	if err != nil {
		h.log.Warn("invalid Slack signature headers", "error", err)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if _, err := verifier.Write(body); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if err := verifier.Ensure(); err != nil {
		h.log.Warn("invalid Slack signature")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		h.log.Error("failed to parse event", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if event.Type == slackevents.URLVerification {
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		h.log.Info("responding to URL verification challenge")
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(challenge.Challenge))
		return
	}

	// Respond quickly to Slack (within 3 seconds)
	w.WriteHeader(http.StatusOK)

	var eventID string
	if cb, ok := event.Data.(*slackevents.EventsAPICallbackEvent); ok {
		eventID = cb.EventID
	}
	h.HandleEvent(event, eventID)
}
