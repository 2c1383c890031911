package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/slack-go/slack"

	"reorderflow/internal/config"
	"reorderflow/internal/storage"
)

const threadKey = "notify.thread_ts"

// Gateway posts operational notifications. Long-running dispatch runs
// keep their messages in one thread so a resumed run continues the
// conversation instead of starting a new one.
type Gateway interface {
	StartThread(ctx context.Context, text string) error
	Post(ctx context.Context, text string) error
	ClearThread() error
	Mention() string
}

type SlackGateway struct {
	api      *slack.Client
	channel  string
	webhook  string
	mentions []string
	state    storage.StateStore
	joined   bool
}

func NewSlackGateway(cfg config.Config, mentions []string, state storage.StateStore) *SlackGateway {
	var api *slack.Client
	if cfg.SlackBotToken != "" {
		api = slack.New(cfg.SlackBotToken)
	}
	return &SlackGateway{
		api:      api,
		channel:  cfg.SlackChannelID,
		webhook:  cfg.SlackWebhookURL,
		mentions: mentions,
		state:    state,
	}
}

// Mention renders the configured user mentions, or empty when none.
func (g *SlackGateway) Mention() string {
	if len(g.mentions) == 0 {
		return ""
	}
	parts := make([]string, 0, len(g.mentions))
	for _, id := range g.mentions {
		parts = append(parts, fmt.Sprintf("<@%s>", id))
	}
	return strings.Join(parts, " ")
}

// StartThread posts a new top-level message and remembers its
// timestamp so later posts land in the same thread.
func (g *SlackGateway) StartThread(ctx context.Context, text string) error {
	ts, err := g.post(ctx, text, "")
	if err != nil {
		return err
	}
	if ts != "" {
		if err := g.state.Set(threadKey, ts); err != nil {
			log.Printf("[notify] failed to persist thread ts: %v", err)
		}
	}
	return nil
}

// Post sends into the saved thread when one exists, otherwise as a
// top-level message.
func (g *SlackGateway) Post(ctx context.Context, text string) error {
	var threadTS string
	if ts, ok, err := g.state.Get(threadKey); err == nil && ok {
		threadTS = ts
	}
	_, err := g.post(ctx, text, threadTS)
	return err
}

func (g *SlackGateway) ClearThread() error {
	return g.state.Delete(threadKey)
}

func (g *SlackGateway) post(ctx context.Context, text, threadTS string) (string, error) {
	if g.api == nil || g.channel == "" {
		return "", g.postWebhook(ctx, text)
	}

	g.ensureJoined(ctx)

	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}

	_, ts, err := g.api.PostMessageContext(ctx, g.channel, opts...)
	if err != nil {
		log.Printf("[notify] slack post failed: %v", err)
		if whErr := g.postWebhook(ctx, text); whErr == nil {
			return "", nil
		}
		return "", err
	}
	return ts, nil
}

func (g *SlackGateway) ensureJoined(ctx context.Context) {
	if g.joined {
		return
	}
	// Joining an already-joined channel is a no-op on the API side.
	if _, _, _, err := g.api.JoinConversationContext(ctx, g.channel); err != nil {
		log.Printf("[notify] join conversation: %v", err)
	}
	g.joined = true
}

func (g *SlackGateway) postWebhook(ctx context.Context, text string) error {
	if g.webhook == "" {
		return fmt.Errorf("no slack destination configured")
	}
	return slack.PostWebhookContext(ctx, g.webhook, &slack.WebhookMessage{Text: text})
}

// NopGateway swallows notifications; used when alerting is not
// configured and in tests.
type NopGateway struct{}

func (NopGateway) StartThread(ctx context.Context, text string) error { return nil }
func (NopGateway) Post(ctx context.Context, text string) error        { return nil }
func (NopGateway) ClearThread() error                                 { return nil }
func (NopGateway) Mention() string                                    { return "" }
