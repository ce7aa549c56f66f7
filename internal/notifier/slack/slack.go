package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/prizeplay/internal/clock"
	"github.com/mauv0809/prizeplay/internal/notifier"
	"github.com/mauv0809/prizeplay/internal/prize"
	"github.com/mauv0809/prizeplay/internal/tournament"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	now       func() time.Time
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string) *Notifier {
	return NewNotifierWithAPI(slack.New(token), channelID)
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		now:       time.Now,
	}
}

func (s *Notifier) sendMessage(ctx context.Context, message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

// SendReminder posts the start reminder of a tournament.
func (s *Notifier) SendReminder(ctx context.Context, t *tournament.Tournament, startsIn time.Duration, dryRun bool) error {
	msg := s.formatReminder(t, startsIn)
	_, _, err := s.sendMessage(ctx, msg, dryRun)
	return err
}

// SendPrizeAwarded posts one credited prize.
func (s *Notifier) SendPrizeAwarded(ctx context.Context, t *tournament.Tournament, line prize.PayoutLine, dryRun bool) error {
	msg := s.formatPrizeAwarded(t, line)
	_, _, err := s.sendMessage(ctx, msg, dryRun)
	return err
}

// formatReminder creates the Slack message for a tournament about to start using Block Kit.
func (s *Notifier) formatReminder(t *tournament.Tournament, startsIn time.Duration) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", fmt.Sprintf("⏰ %s starts soon!", t.Name), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	// Show the start in the tournament's own zone.
	timeStr := fmt.Sprintf("%s %s", t.StartDate, t.StartTime)
	if start, err := t.StartsAt(); err == nil {
		timeStr = clock.NowIn(t.Timezone, start).Format("Monday 02 Jan, 15:04 MST")
	}
	minutes := int(startsIn.Round(time.Minute) / time.Minute)
	detailsText := fmt.Sprintf("Starts: %s\nIn: %d minute(s)", timeStr, minutes)
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", detailsText, true, false), nil, nil))

	if len(t.Participants) > 0 {
		mentions := make([]string, len(t.Participants))
		for i, p := range t.Participants {
			mentions[i] = fmt.Sprintf("• <@%s>", p)
		}
		playersText := "*Participants:*\n" + strings.Join(mentions, "\n")
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", playersText, false, false), nil, nil))
	}

	if t.TotalPool.IsPositive() {
		poolText := fmt.Sprintf("🏆 Prize pool: %s", t.TotalPool.StringFixed(2))
		blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", poolText, true, false)))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatPrizeAwarded creates the Slack message for a credited prize.
func (s *Notifier) formatPrizeAwarded(t *tournament.Tournament, line prize.PayoutLine) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", fmt.Sprintf("🏆 %s: prize awarded", t.Name), true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	winnerText := fmt.Sprintf("<@%s> won *%s*", line.ParticipantID, line.Amount.StringFixed(2))
	if line.Reason != "" {
		winnerText += fmt.Sprintf(" for %s", line.Reason)
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", winnerText, false, false), nil, nil))

	var contextElements []slack.MixedElement
	if line.Position > 0 {
		contextElements = append(contextElements, slack.NewTextBlockObject("plain_text", fmt.Sprintf("Position: %d", line.Position), true, false))
	}
	if line.Category != "" {
		contextElements = append(contextElements, slack.NewTextBlockObject("plain_text", fmt.Sprintf("Category: %s", line.Category), true, false))
	}
	if len(contextElements) > 0 {
		blocks = append(blocks, slack.NewContextBlock("", contextElements...))
	}

	return slack.NewBlockMessage(blocks...)
}
