package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/PabloGalante/healthai-agent/internal/domain"
	"github.com/PabloGalante/healthai-agent/internal/observability"
)

type Service struct {
	store domain.ProfileStore
}

func NewService(store domain.ProfileStore) *Service {
	return &Service{store: store}
}

// Get returns the user's profile. A user without one gets an empty profile.
func (s *Service) Get(ctx context.Context, userID domain.UserID) (*domain.Profile, error) {
	p, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.Profile{UserID: userID}, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the name and bio.
func (s *Service) Update(ctx context.Context, userID domain.UserID, fullName, bio string) (*domain.Profile, error) {
	p := &domain.Profile{
		UserID:   userID,
		FullName: strings.TrimSpace(fullName),
		Bio:      strings.TrimSpace(bio),
	}
	if err := s.store.SaveProfile(ctx, p); err != nil {
		observability.LoggerFromContext(ctx).Error("failed to save profile", "user_id", userID, "error", err)
		return nil, err
	}
	return p, nil
}
