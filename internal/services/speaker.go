package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"confcentral/internal/datastore"
	"confcentral/internal/domain"
)

type speakerService struct {
	store          datastore.Store
	cache          domain.Cache
	contextTimeout time.Duration
}

// NewSpeakerService creates a SpeakerService with the given store and cache.
func NewSpeakerService(store datastore.Store, cache domain.Cache, timeout time.Duration) domain.SpeakerService {
	return &speakerService{store: store, cache: cache, contextTimeout: timeout}
}

func (s *speakerService) CreateSpeaker(ctx context.Context, form *domain.SpeakerForm) (*domain.SpeakerOut, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	key := datastore.NameKey(domain.KindSpeaker, uuid.NewString(), nil)
	speaker, err := domain.NewSpeaker(key, form)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, speaker.ToEntity()); err != nil {
		return nil, fmt.Errorf("create speaker: %w", err)
	}
	return speaker.ToForm(), nil
}

func (s *speakerService) GetSpeaker(ctx context.Context, websafeKey string) (*domain.SpeakerOut, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	key, err := datastore.DecodeKey(websafeKey)
	if err != nil || key.Kind != domain.KindSpeaker {
		return nil, fmt.Errorf("%w: no speaker found with key: %s", domain.ErrNotFound, websafeKey)
	}
	e, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, fmt.Errorf("%w: no speaker found with key: %s", domain.ErrNotFound, websafeKey)
		}
		return nil, fmt.Errorf("get speaker: %w", err)
	}
	return domain.SpeakerFromEntity(e).ToForm(), nil
}

func (s *speakerService) GetFeaturedSpeaker(ctx context.Context, websafeConfKey string) (*domain.FeaturedSpeaker, error) {
	v, ok := s.cache.Get(domain.FeaturedSpeakerCacheKey(websafeConfKey))
	if !ok {
		return &domain.FeaturedSpeaker{}, nil
	}
	featured, ok := v.(*domain.FeaturedSpeaker)
	if !ok {
		return &domain.FeaturedSpeaker{}, nil
	}
	return featured, nil
}
