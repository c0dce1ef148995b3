package slack

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/slack-go/slack"
)

const processingReaction = "speech_balloon"

var mentionRegex = regexp.MustCompile(`<@([A-Z0-9]+)(?:\|[^>]+)?>`)

// Client wraps the Slack Web API calls the bot needs.
type Client struct {
	api *slack.Client
	log *slog.Logger
}

func NewClient(botToken, appToken string, log *slog.Logger) *Client {
	opts := []slack.Option{}
	if appToken != "" {
		opts = append(opts, slack.OptionAppLevelToken(appToken))
	}
	return &Client{
		api: slack.New(botToken, opts...),
		log: log,
	}
}

// Initialize resolves the bot's own user id.
func (c *Client) Initialize(ctx context.Context) (string, error) {
	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return "", fmt.Errorf("slack auth test failed: %w", err)
	}
	c.log.Info("slack: authenticated", "bot_user_id", resp.UserID, "team", resp.Team)
	return resp.UserID, nil
}

func (c *Client) API() *slack.Client {
	return c.api
}

// PostMessage posts text, threaded under threadTS when it is set, and returns
// the new message timestamp.
func (c *Client) PostMessage(ctx context.Context, channel, text, threadTS string) (string, error) {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	_, ts, err := c.api.PostMessageContext(ctx, channel, opts...)
	if err != nil {
		c.log.Error("slack: failed to post message", "channel", channel, "error", err)
		return "", err
	}
	return ts, nil
}

func (c *Client) AddProcessingReaction(ctx context.Context, channel, ts string) error {
	err := c.api.AddReactionContext(ctx, processingReaction, slack.NewRefToMessage(channel, ts))
	if err != nil {
		if strings.Contains(err.Error(), "missing_scope") {
			c.log.Error("slack: reactions:write scope is missing from the bot token", "channel", channel)
		} else {
			c.log.Warn("slack: failed to add reaction", "emoji", processingReaction, "channel", channel, "error", err)
		}
		return err
	}
	return nil
}

func (c *Client) RemoveProcessingReaction(ctx context.Context, channel, ts string) error {
	err := c.api.RemoveReactionContext(ctx, processingReaction, slack.NewRefToMessage(channel, ts))
	if err != nil {
		c.log.Debug("slack: failed to remove reaction (may not have been added)", "emoji", processingReaction, "error", err)
		return err
	}
	return nil
}

func removeMention(text, botUserID string) string {
	if botUserID == "" {
		return strings.TrimSpace(text)
	}
	out := mentionRegex.ReplaceAllStringFunc(text, func(m string) string {
		if sub := mentionRegex.FindStringSubmatch(m); len(sub) > 1 && sub[1] == botUserID {
			return ""
		}
		return m
	})
	return strings.TrimSpace(out)
}
