package notify

import (
	"context"
	"fmt"

	slacklib "github.com/slack-go/slack"
)

// SlackAPI abstracts the subset of the Slack client used by SlackMessenger.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessage(channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// SlackMessenger delivers notifications as Slack direct messages.
type SlackMessenger struct {
	api SlackAPI
}

var _ Messenger = (*SlackMessenger)(nil) //nolint:gochecknoglobals // compile-time check

// NewSlackMessenger creates a SlackMessenger. In production api is
// slacklib.New(botToken).
func NewSlackMessenger(api SlackAPI) *SlackMessenger {
	return &SlackMessenger{api: api}
}

// SendNotification posts a DM to the Slack user id.
func (m *SlackMessenger) SendNotification(_ context.Context, externalID, text string) error {
	_, _, err := m.api.PostMessage(externalID, slacklib.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("notify.SlackMessenger.SendNotification: %w", err)
	}

	return nil
}
