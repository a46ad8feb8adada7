package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/slack-go/slack"

	"github.com/amishk599/jobatlas/internal/model"
)

// Ensure SlackNotifier implements model.SyncNotifier.
var _ model.SyncNotifier = (*SlackNotifier)(nil)

const maxRetryAfter = 30 * time.Second

// SlackNotifier posts sync outcomes to a Slack channel via Incoming Webhooks.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlackNotifier returns a notifier that posts each sync report to Slack.
func NewSlackNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// NotifySync sends the report as one Block Kit message. A rate-limited post
// is retried once after the delay Slack asks for.
func (s *SlackNotifier) NotifySync(ctx context.Context, r model.SyncReport) error {
	msg := buildMessage(r)

	err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.httpClient, msg)
	var rl *slack.RateLimitedError
	if errors.As(err, &rl) {
		delay := min(max(rl.RetryAfter, 0), maxRetryAfter)
		s.logger.Warn("slack rate limited, retrying", "retry_after", delay)

		select {
		case <-ctx.Done():
			return fmt.Errorf("post to slack: %w", ctx.Err())
		case <-time.After(delay):
		}
		if err := slack.PostWebhookCustomHTTPContext(ctx, s.webhookURL, s.httpClient, msg); err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		s.logger.Info("slack message sent", "run_id", r.RunID, "retried", true)
		return nil
	}
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	s.logger.Info("slack message sent", "run_id", r.RunID)
	return nil
}

func buildMessage(r model.SyncReport) *slack.WebhookMessage {
	title := "✅ Sync completed"
	summary := fmt.Sprintf("Sync %s completed: %d postings", r.RunID, r.TotalProcessed)
	if !r.Success {
		title = "❌ Sync failed"
		summary = fmt.Sprintf("Sync %s failed: %s", r.RunID, r.Error)
	}

	mrkdwn := func(s string) *slack.TextBlockObject {
		return slack.NewTextBlockObject(slack.MarkdownType, s, false, false)
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, title, false, false)),
		slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			mrkdwn(fmt.Sprintf("*Source rows:*\n%d", r.TotalSource)),
			mrkdwn(fmt.Sprintf("*Cached:*\n%d", r.TotalProcessed)),
			mrkdwn(fmt.Sprintf("*Duplicates:*\n%d", r.Duplicates)),
			mrkdwn(fmt.Sprintf("*Duration:*\n%s", time.Duration(r.DurationMs)*time.Millisecond)),
		}, nil),
	}
	if r.Error != "" {
		blocks = append(blocks, slack.NewSectionBlock(mrkdwn("*Error:*\n```"+r.Error+"```"), nil, nil))
	}
	blocks = append(blocks,
		slack.NewContextBlock("", mrkdwn("run `"+r.RunID+"`")),
		slack.NewDividerBlock(),
	)

	return &slack.WebhookMessage{
		Text:   summary,
		Blocks: &slack.Blocks{BlockSet: blocks},
	}
}

// SendTestMessage sends a sample sync report to verify the integration works.
func SendTestMessage(ctx context.Context, n model.SyncNotifier) error {
	return n.NotifySync(ctx, model.SyncReport{
		Success:        true,
		RunID:          "test-run",
		TotalSource:    3,
		TotalProcessed: 2,
		Duplicates:     1,
		DurationMs:     1250,
	})
}
