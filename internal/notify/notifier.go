package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/fieldsuite/fieldops/internal/domain"
)

// ErrPlatformNotFound is returned when a messenger platform is not registered.
var ErrPlatformNotFound = errors.New("notify: platform not found") //nolint:gochecknoglobals // sentinel error

// Messenger delivers a direct message to an external account id.
type Messenger interface {
	SendNotification(ctx context.Context, externalID, message string) error
}

// Registry is a simple map-based messenger lookup.
type Registry struct {
	messengers map[string]Messenger
}

func NewRegistry() *Registry {
	return &Registry{messengers: make(map[string]Messenger)}
}

func (r *Registry) Register(platform string, m Messenger) {
	r.messengers[platform] = m
}

func (r *Registry) Get(platform string) (Messenger, bool) {
	m, ok := r.messengers[platform]
	return m, ok
}

// UserResolver looks up the user holding the messenger link.
type UserResolver interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.User, error)
}

// Notifier pushes assignment notifications to technicians through their
// linked messenger account. Users without a link degrade to a log line.
type Notifier struct {
	messengers *Registry
	users      UserResolver
}

func New(messengers *Registry, users UserResolver) *Notifier {
	return &Notifier{messengers: messengers, users: users}
}

// NotifyAssignment tells a user they were assigned a work order.
func (n *Notifier) NotifyAssignment(ctx context.Context, tenantID, userID uuid.UUID, message string) error {
	user, err := n.users.GetByID(ctx, tenantID, userID)
	if err != nil {
		return fmt.Errorf("notify.Notifier.NotifyAssignment: resolve user: %w", err)
	}

	if user.SlackID == "" {
		log.Debug().Str("user_id", userID.String()).Msg("notify: no messenger link, skipping")
		return nil
	}

	return n.notifyVia(ctx, "slack", user.SlackID, message)
}

func (n *Notifier) notifyVia(ctx context.Context, platform, externalID, message string) error {
	msg, ok := n.messengers.Get(platform)
	if !ok {
		return fmt.Errorf("notify.Notifier.notifyVia: platform %q: %w", platform, ErrPlatformNotFound)
	}

	if err := msg.SendNotification(ctx, externalID, message); err != nil {
		return fmt.Errorf("notify.Notifier.notifyVia: send: %w", err)
	}

	return nil
}
