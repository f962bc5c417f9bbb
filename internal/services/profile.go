package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"confcentral/internal/datastore"
	"confcentral/internal/domain"
)

type profileService struct {
	store          datastore.Store
	contextTimeout time.Duration
}

// NewProfileService creates a ProfileService backed by the given store.
func NewProfileService(store datastore.Store, timeout time.Duration) domain.ProfileService {
	return &profileService{store: store, contextTimeout: timeout}
}

// getOrCreateProfile loads the caller's profile, creating it on first access
// with a display name derived from the email local part.
func getOrCreateProfile(ctx context.Context, store datastore.Store, userID, email string) (*domain.Profile, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	e, err := store.Get(ctx, domain.ProfileKey(userID))
	if err == nil {
		return domain.ProfileFromEntity(e), nil
	}
	if !errors.Is(err, datastore.ErrNoSuchEntity) {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	displayName, _, _ := strings.Cut(email, "@")
	prof := &domain.Profile{
		UserID:       userID,
		DisplayName:  displayName,
		MainEmail:    email,
		TeeShirtSize: domain.ShirtNotSpecified,
	}
	if err := store.Put(ctx, prof.ToEntity()); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return prof, nil
}

func (s *profileService) GetProfile(ctx context.Context, userID, email string) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()
	return getOrCreateProfile(ctx, s.store, userID, email)
}

func (s *profileService) SaveProfile(ctx context.Context, userID, email string, form *domain.ProfileForm) (*domain.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	prof, err := getOrCreateProfile(ctx, s.store, userID, email)
	if err != nil {
		return nil, err
	}
	if form.DisplayName != "" {
		prof.DisplayName = form.DisplayName
	}
	if form.TeeShirtSize != "" {
		if !domain.ValidShirtSize(form.TeeShirtSize) {
			return nil, fmt.Errorf("%w: unknown tee shirt size %q", domain.ErrInvalidInput, form.TeeShirtSize)
		}
		prof.TeeShirtSize = form.TeeShirtSize
	}
	if err := s.store.Put(ctx, prof.ToEntity()); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return prof, nil
}
