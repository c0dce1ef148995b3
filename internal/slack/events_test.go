package slack

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/stretchr/testify/require"
)

type recordingProcessor struct {
	mu       sync.Mutex
	messages []Message
	done     chan struct{}
}

func newRecordingProcessor() *recordingProcessor {
	return &recordingProcessor{done: make(chan struct{}, 64)}
}

func (r *recordingProcessor) ProcessMessage(_ context.Context, msg Message, _ string) {
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recordingProcessor) wait(t *testing.T, n int) []Message {
	t.Helper()
	for range n {
		select {
		case <-r.done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for message processing")
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

func callback(inner any, innerType string) slackevents.EventsAPIEvent {
	return slackevents.EventsAPIEvent{
		Type: slackevents.CallbackEvent,
		InnerEvent: slackevents.EventsAPIInnerEvent{
			Type: innerType,
			Data: inner,
		},
	}
}

func newTestHandler(t *testing.T, p MessageProcessor) *EventHandler {
	t.Helper()
	h := NewEventHandler(t.Context(), p, slog.Default(), "UBOT", 2)
	h.StartCleanup(t.Context())
	t.Cleanup(func() { h.StopAcceptingNew()() })
	return h
}

func TestVideolake_Slack_EventHandler_Filters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		event  slackevents.EventsAPIEvent
		accept bool
	}{
		{
			name:   "dm text",
			event:  callback(&slackevents.MessageEvent{ChannelType: "im", Channel: "D1", User: "U1", Text: "q", TimeStamp: "1.1"}, "message"),
			accept: true,
		},
		{
			name:   "dm file share",
			event:  callback(&slackevents.MessageEvent{ChannelType: "im", Channel: "D1", User: "U1", SubType: "file_share", TimeStamp: "1.2"}, "message"),
			accept: true,
		},
		{
			name: "dm attachment without subtype",
			event: callback(&slackevents.MessageEvent{ChannelType: "im", Channel: "D1", User: "U1", TimeStamp: "1.8",
				Message: &slack.Msg{Files: []slack.File{{ID: "F1", Name: "photo.jpg"}}}}, "message"),
			accept: true,
		},
		{
			name:   "app mention",
			event:  callback(&slackevents.AppMentionEvent{Channel: "C1", User: "U1", Text: "<@UBOT> q", TimeStamp: "1.3"}, "app_mention"),
			accept: true,
		},
		{
			name:  "channel message",
			event: callback(&slackevents.MessageEvent{ChannelType: "channel", Channel: "C1", User: "U1", Text: "q", TimeStamp: "1.4"}, "message"),
		},
		{
			name:  "bot message",
			event: callback(&slackevents.MessageEvent{ChannelType: "im", Channel: "D1", BotID: "B1", Text: "q", TimeStamp: "1.5"}, "message"),
		},
		{
			name:  "own message",
			event: callback(&slackevents.MessageEvent{ChannelType: "im", Channel: "D1", User: "UBOT", Text: "q", TimeStamp: "1.6"}, "message"),
		},
		{
			name:  "edit",
			event: callback(&slackevents.MessageEvent{ChannelType: "im", Channel: "D1", User: "U1", SubType: "message_changed", TimeStamp: "1.7"}, "message"),
		},
		{
			name:  "not a callback",
			event: slackevents.EventsAPIEvent{Type: slackevents.URLVerification},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := newRecordingProcessor()
			h := newTestHandler(t, p)
			require.Equal(t, tt.accept, h.HandleEvent(tt.event, "Ev1"))
			if tt.accept {
				p.wait(t, 1)
			}
		})
	}
}

func TestVideolake_Slack_EventHandler_NormalizesMessages(t *testing.T) {
	t.Parallel()

	p := newRecordingProcessor()
	h := newTestHandler(t, p)

	require.True(t, h.HandleEvent(callback(&slackevents.MessageEvent{
		ChannelType: "im", Channel: "D1", User: "U1", Text: "x", TimeStamp: "1.1", SubType: "file_share",
	}, "message"), "Ev1"))
	msgs := p.wait(t, 1)
	require.True(t, msgs[0].HasFiles)
	require.False(t, msgs[0].IsChannel)

	require.True(t, h.HandleEvent(callback(&slackevents.AppMentionEvent{
		Channel: "C1", User: "U1", Text: "<@UBOT> q", TimeStamp: "1.2", ThreadTimeStamp: "1.0",
	}, "app_mention"), "Ev2"))
	msgs = p.wait(t, 1)
	require.True(t, msgs[1].IsChannel)
	require.Equal(t, "1.0", msgs[1].ThreadTimeStamp)

	require.True(t, h.HandleEvent(callback(&slackevents.MessageEvent{
		ChannelType: "im", Channel: "D1", User: "U1", TimeStamp: "1.3",
		Message: &slack.Msg{Files: []slack.File{{ID: "F1"}}},
	}, "message"), "Ev3"))
	msgs = p.wait(t, 1)
	require.True(t, msgs[2].HasFiles)

	require.True(t, h.HandleEvent(callback(&slackevents.MessageEvent{
		ChannelType: "im", Channel: "D1", User: "U1", TimeStamp: "1.4",
		Message: &slack.Msg{Upload: true},
	}, "message"), "Ev4"))
	msgs = p.wait(t, 1)
	require.True(t, msgs[3].HasFiles)

	require.True(t, h.HandleEvent(callback(&slackevents.MessageEvent{
		ChannelType: "im", Channel: "D1", User: "U1", Text: "q", TimeStamp: "1.5",
		Message: &slack.Msg{Text: "q"},
	}, "message"), "Ev5"))
	msgs = p.wait(t, 1)
	require.False(t, msgs[4].HasFiles)
}

type blockingAnswerer struct {
	started chan struct{}
	release chan struct{}
	ctxErr  chan error
}

func newBlockingAnswerer() *blockingAnswerer {
	return &blockingAnswerer{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		ctxErr:  make(chan error, 1),
	}
}

func (b *blockingAnswerer) Handle(ctx context.Context, _ string) (string, error) {
	b.started <- struct{}{}
	<-b.release
	err := ctx.Err()
	b.ctxErr <- err
	if err != nil {
		return "", err
	}
	return "3", nil
}

func (b *blockingAnswerer) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-b.started:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the question to start")
	}
}

func TestVideolake_Slack_EventHandler_DrainSurvivesShutdownSignal(t *testing.T) {
	t.Parallel()

	parent, cancel := context.WithCancel(t.Context())
	poster := &fakePoster{}
	answerer := newBlockingAnswerer()
	h := NewEventHandler(parent, newTestProcessor(poster, answerer), slog.Default(), "UBOT", 2)

	require.True(t, h.HandleEvent(callback(&slackevents.MessageEvent{
		ChannelType: "im", Channel: "D1", User: "U1", Text: "Сколько всего видео?", TimeStamp: "1.1",
	}, "message"), "Ev1"))
	answerer.waitStarted(t)

	// SIGTERM arrives while the question is being answered.
	cancel()
	wait := h.StopAcceptingNew()
	close(answerer.release)
	wait()

	require.NoError(t, <-answerer.ctxErr)
	poster.mu.Lock()
	defer poster.mu.Unlock()
	require.Equal(t, []postedMessage{{Channel: "D1", Text: "3", ThreadTS: "1.1"}}, poster.posted)
}

func TestVideolake_Slack_EventHandler_CancelInFlight(t *testing.T) {
	t.Parallel()

	poster := &fakePoster{}
	answerer := newBlockingAnswerer()
	h := NewEventHandler(t.Context(), newTestProcessor(poster, answerer), slog.Default(), "UBOT", 2)

	require.True(t, h.HandleEvent(callback(&slackevents.MessageEvent{
		ChannelType: "im", Channel: "D1", User: "U1", Text: "q", TimeStamp: "1.1",
	}, "message"), "Ev1"))
	answerer.waitStarted(t)

	wait := h.StopAcceptingNew()
	h.CancelInFlight()
	close(answerer.release)
	wait()

	require.ErrorIs(t, <-answerer.ctxErr, context.Canceled)
	poster.mu.Lock()
	defer poster.mu.Unlock()
	require.Empty(t, poster.posted)
}

func TestVideolake_Slack_EventHandler_Deduplicates(t *testing.T) {
	t.Parallel()

	p := newRecordingProcessor()
	h := newTestHandler(t, p)

	ev := callback(&slackevents.MessageEvent{ChannelType: "im", Channel: "D1", User: "U1", Text: "q", TimeStamp: "1.1"}, "message")
	require.True(t, h.HandleEvent(ev, "Ev1"))
	require.False(t, h.HandleEvent(ev, "Ev1-retry"))
	require.Len(t, p.wait(t, 1), 1)
}

func TestVideolake_Slack_EventHandler_StopAcceptingNew(t *testing.T) {
	t.Parallel()

	p := newRecordingProcessor()
	h := NewEventHandler(t.Context(), p, slog.Default(), "UBOT", 2)

	require.True(t, h.HandleEvent(callback(&slackevents.MessageEvent{ChannelType: "im", Channel: "D1", User: "U1", Text: "q", TimeStamp: "1.1"}, "message"), ""))
	h.StopAcceptingNew()()
	require.Len(t, p.wait(t, 1), 1)

	require.False(t, h.HandleEvent(callback(&slackevents.MessageEvent{ChannelType: "im", Channel: "D1", User: "U1", Text: "q", TimeStamp: "1.2"}, "message"), ""))
}

func signedRequest(t *testing.T, secret, body string) *http.Request {
	t.Helper()
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	_, err := fmt.Fprintf(mac, "v0:%s:%s", ts, body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", "v0="+hex.EncodeToString(mac.Sum(nil)))
	return req
}

func TestVideolake_Slack_EventHandler_HTTP(t *testing.T) {
	t.Parallel()

	const secret = "signing-secret"

	t.Run("url verification", func(t *testing.T) {
		t.Parallel()
		h := newTestHandler(t, newRecordingProcessor())
		body := `{"token":"t","challenge":"abc123","type":"url_verification"}`

		rec := httptest.NewRecorder()
		h.HandleHTTP(rec, signedRequest(t, secret, body), secret)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "abc123", rec.Body.String())
	})

	t.Run("message event", func(t *testing.T) {
		t.Parallel()
		p := newRecordingProcessor()
		h := newTestHandler(t, p)
		body := `{
			"token": "t", "team_id": "T1", "api_app_id": "A1", "type": "event_callback", "event_id": "Ev123",
			"event": {"type": "message", "channel_type": "im", "channel": "D1", "user": "U1", "text": "Сколько видео?", "ts": "1700000000.000100"}
		}`

		rec := httptest.NewRecorder()
		h.HandleHTTP(rec, signedRequest(t, secret, body), secret)

		require.Equal(t, http.StatusOK, rec.Code)
		msgs := p.wait(t, 1)
		require.Equal(t, "Сколько видео?", msgs[0].Text)
		require.Equal(t, "D1", msgs[0].Channel)
	})

	t.Run("file upload without subtype", func(t *testing.T) {
		t.Parallel()
		p := newRecordingProcessor()
		h := newTestHandler(t, p)
		body := `{
			"token": "t", "team_id": "T1", "api_app_id": "A1", "type": "event_callback", "event_id": "Ev124",
			"event": {"type": "message", "channel_type": "im", "channel": "D1", "user": "U1", "text": "", "ts": "1700000000.000200",
				"upload": true, "files": [{"id": "F1", "name": "photo.jpg", "mimetype": "image/jpeg"}]}
		}`

		rec := httptest.NewRecorder()
		h.HandleHTTP(rec, signedRequest(t, secret, body), secret)

		require.Equal(t, http.StatusOK, rec.Code)
		msgs := p.wait(t, 1)
		require.True(t, msgs[0].HasFiles)
	})

	t.Run("bad signature", func(t *testing.T) {
		t.Parallel()
		h := newTestHandler(t, newRecordingProcessor())
		rec := httptest.NewRecorder()
		h.HandleHTTP(rec, signedRequest(t, "wrong-secret", `{"type":"url_verification","challenge":"x"}`), secret)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		t.Parallel()
		h := newTestHandler(t, newRecordingProcessor())
		rec := httptest.NewRecorder()
		h.HandleHTTP(rec, httptest.NewRequest(http.MethodGet, "/slack/events", nil), secret)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
