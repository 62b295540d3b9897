package service

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// Identity event kinds as delivered by the provider.
const (
	IdentityCreated = "user.created"
	IdentityUpdated = "user.updated"
	IdentityDeleted = "user.deleted"
)

// IdentityEvent is one identity-provider lifecycle event. ClerkID is always
// required; Email and Username are required on create. The pointer fields
// are optional and nil means "not present in the event".
type IdentityEvent struct {
	Kind      string
	ClerkID   string
	Email     string
	Username  string
	FirstName *string
	LastName  *string
	PhotoURL  *string
}

// IdentityService applies identity lifecycle events to the local mirror.
// Delivery is at-least-once and possibly reordered, so every branch is
// written to be safe under duplicates.
type IdentityService interface {
	Apply(ctx context.Context, ev IdentityEvent) error
}

type identityService struct {
	userRepo repository.UserRepository
	logger   zerolog.Logger
}

// NewIdentityService creates an IdentityService with a scoped logger.
func NewIdentityService(userRepo repository.UserRepository, logger zerolog.Logger) IdentityService {
	return &identityService{
		userRepo: userRepo,
		logger:   logger.With().Str("service", "IdentityService").Logger(),
	}
}

func (s *identityService) Apply(ctx context.Context, ev IdentityEvent) error {
	if ev.ClerkID == "" {
		return errors.New("identity event missing clerk id")
	}
	switch ev.Kind {
	case IdentityCreated:
		return s.applyCreated(ctx, ev)
	case IdentityUpdated:
		return s.applyUpdated(ctx, ev)
	case IdentityDeleted:
		return s.applyDeleted(ctx, ev)
	default:
		return fmt.Errorf("unknown identity event kind: %s", ev.Kind)
	}
}

func (s *identityService) applyCreated(ctx context.Context, ev IdentityEvent) error {
	u := &model.User{
		ClerkID:  ev.ClerkID,
		Email:    ev.Email,
		Username: ev.Username,
	}
	if ev.FirstName != nil {
		u.FirstName = *ev.FirstName
	}
	if ev.LastName != nil {
		u.LastName = *ev.LastName
	}
	if ev.PhotoURL != nil {
		u.PhotoURL = *ev.PhotoURL
	}
	err := s.userRepo.CreateUser(ctx, u)
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrDuplicateKey) {
		// Replayed create, or a conflict on email/username with another user.
		// Only the former is absorbed: the user must already exist under this
		// clerk id for the event's intent to be satisfied.
		if _, gerr := s.userRepo.GetUserByClerkID(ctx, ev.ClerkID); gerr == nil {
			s.logger.Info().Str("clerk_id", ev.ClerkID).Msg("Duplicate create event, user already exists")
			return nil
		}
		return err
	}
	return err
}

func (s *identityService) applyUpdated(ctx context.Context, ev IdentityEvent) error {
	fields := repository.UserUpdate{
		FirstName: ev.FirstName,
		LastName:  ev.LastName,
		PhotoURL:  ev.PhotoURL,
	}
	if ev.Username != "" {
		fields.Username = &ev.Username
	}
	_, err := s.userRepo.UpdateUser(ctx, ev.ClerkID, fields)
	if errors.Is(err, repository.ErrNotFound) {
		// The update outran its create. Fabricating a user from partial data
		// would corrupt the mirror; report it and let the provider redeliver.
		s.logger.Warn().Str("clerk_id", ev.ClerkID).Msg("Update event arrived before create")
	}
	return err
}

func (s *identityService) applyDeleted(ctx context.Context, ev IdentityEvent) error {
	_, err := s.userRepo.DeleteUser(ctx, ev.ClerkID)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Info().Str("clerk_id", ev.ClerkID).Msg("Duplicate delete event, user already gone")
		return nil
	}
	return err
}
