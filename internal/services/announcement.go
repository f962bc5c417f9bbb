package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"confcentral/internal/datastore"
	"confcentral/internal/domain"
)

// Conferences with 0 < seatsAvailable <= almostSoldOutSeats make the
// announcement.
const almostSoldOutSeats = int64(5)

type announcementService struct {
	store          datastore.Store
	cache          domain.Cache
	contextTimeout time.Duration
}

// NewAnnouncementService creates an AnnouncementService with the given store
// and cache.
func NewAnnouncementService(store datastore.Store, cache domain.Cache, timeout time.Duration) domain.AnnouncementService {
	return &announcementService{store: store, cache: cache, contextTimeout: timeout}
}

// Recompute queries the nearly-sold-out conferences and overwrites (or
// clears) the cached announcement. Both inequality filters target the same
// field, so a single store query serves them.
func (s *announcementService) Recompute(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	it, err := s.store.Run(ctx, datastore.Query{
		Kind: domain.KindConference,
		Filters: []datastore.Filter{
			{Field: "seatsAvailable", Op: datastore.OpGreater, Value: int64(0)},
			{Field: "seatsAvailable", Op: datastore.OpLessEqual, Value: almostSoldOutSeats},
		},
		Orders: []datastore.Order{{Field: "seatsAvailable"}, {Field: "name"}},
	})
	if err != nil {
		return "", fmt.Errorf("query almost sold out conferences: %w", err)
	}
	entities, err := datastore.All(it)
	if err != nil {
		return "", fmt.Errorf("query almost sold out conferences: %w", err)
	}

	if len(entities) == 0 {
		s.cache.Delete(domain.AnnouncementCacheKey)
		return "", nil
	}
	names := make([]string, 0, len(entities))
	for _, e := range entities {
		names = append(names, domain.ConferenceFromEntity(e).Name)
	}
	announcement := "Last chance to attend! The following conferences are nearly sold out: " +
		strings.Join(names, ", ")
	s.cache.Set(domain.AnnouncementCacheKey, announcement)
	return announcement, nil
}

func (s *announcementService) Get(ctx context.Context) string {
	v, ok := s.cache.Get(domain.AnnouncementCacheKey)
	if !ok {
		return ""
	}
	announcement, _ := v.(string)
	return announcement
}
