package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"confcentral/internal/datastore"
	"confcentral/internal/domain"
	"confcentral/internal/query"
)

type sessionService struct {
	store          datastore.Store
	queue          domain.TaskQueue
	contextTimeout time.Duration
}

// NewSessionService creates a SessionService with the given store and task
// queue.
func NewSessionService(store datastore.Store, queue domain.TaskQueue, timeout time.Duration) domain.SessionService {
	return &sessionService{store: store, queue: queue, contextTimeout: timeout}
}

func (s *sessionService) CreateSession(ctx context.Context, userID, websafeConfKey string, form *domain.SessionForm) (*domain.SessionOut, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	conf, err := getConference(ctx, s.store, websafeConfKey)
	if err != nil {
		return nil, err
	}
	if conf.OrganizerUserID != userID {
		return nil, fmt.Errorf("%w: only the owner can create a session for this conference", domain.ErrForbidden)
	}

	key, err := s.store.AllocateID(ctx, domain.KindSession, conf.Key)
	if err != nil {
		return nil, fmt.Errorf("allocate session id: %w", err)
	}
	sess, err := domain.NewSession(key, conf, form)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, sess.ToEntity()); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	if len(sess.SpeakerKeys) > 0 {
		if err := s.queue.Enqueue(ctx, domain.TaskCheckFeaturedSpeaker, map[string]string{
			"wsck":        websafeConfKey,
			"sessionName": sess.Name,
			"speakerKeys": strings.Join(sess.SpeakerKeys, ","),
		}); err != nil {
			return nil, fmt.Errorf("enqueue featured speaker check: %w", err)
		}
	}
	return sess.ToForm(), nil
}

func (s *sessionService) GetConferenceSessions(ctx context.Context, websafeConfKey string) ([]*domain.SessionOut, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	conf, err := getConference(ctx, s.store, websafeConfKey)
	if err != nil {
		return nil, err
	}
	return s.runSessionQuery(ctx, datastore.Query{
		Kind:     domain.KindSession,
		Ancestor: conf.Key,
		Orders:   []datastore.Order{{Field: "name"}},
	})
}

func (s *sessionService) GetConferenceSessionsByType(ctx context.Context, websafeConfKey, sessionType string) ([]*domain.SessionOut, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	conf, err := getConference(ctx, s.store, websafeConfKey)
	if err != nil {
		return nil, err
	}
	return s.runSessionQuery(ctx, datastore.Query{
		Kind:     domain.KindSession,
		Ancestor: conf.Key,
		Filters:  []datastore.Filter{{Field: "sessionType", Op: datastore.OpEqual, Value: sessionType}},
		Orders:   []datastore.Order{{Field: "name"}},
	})
}

// GetSessionsBySpeaker searches sessions across all conferences; speaker
// references are multi-valued, so this is an equality filter.
func (s *sessionService) GetSessionsBySpeaker(ctx context.Context, websafeSpeakerKey string) ([]*domain.SessionOut, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.runSessionQuery(ctx, datastore.Query{
		Kind:    domain.KindSession,
		Filters: []datastore.Filter{{Field: "speakerKeys", Op: datastore.OpEqual, Value: websafeSpeakerKey}},
		Orders:  []datastore.Order{{Field: "name"}},
	})
}

func (s *sessionService) QuerySessions(ctx context.Context, websafeConfKey string, filter domain.FilterSpec) ([]*domain.SessionOut, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	conf, err := getConference(ctx, s.store, websafeConfKey)
	if err != nil {
		return nil, err
	}
	it, err := query.Run(ctx, s.store, domain.KindSession, conf.Key, []domain.FilterSpec{filter}, query.SessionFields)
	if err != nil {
		return nil, err
	}
	entities, err := datastore.All(it)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	return sessionsOut(entities), nil
}

func (s *sessionService) DoubleQuerySessions(ctx context.Context, websafeConfKey string, first, second domain.FilterSpec) ([]*domain.SessionOut, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	conf, err := getConference(ctx, s.store, websafeConfKey)
	if err != nil {
		return nil, err
	}
	entities, err := query.RunDouble(ctx, s.store, domain.KindSession, conf.Key, first, second, query.SessionFields)
	if err != nil {
		return nil, err
	}
	return sessionsOut(entities), nil
}

// getSession resolves a websafe session key against the store.
func getSession(ctx context.Context, store datastore.Store, websafeKey string) (*domain.Session, error) {
	key, err := datastore.DecodeKey(websafeKey)
	if err != nil || key.Kind != domain.KindSession {
		return nil, fmt.Errorf("%w: no session found with key: %s", domain.ErrNotFound, websafeKey)
	}
	e, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, fmt.Errorf("%w: no session found with key: %s", domain.ErrNotFound, websafeKey)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return domain.SessionFromEntity(e), nil
}

// AddToWishlist appends the session to the profile's wishlist. The mutation
// touches the profile only, but still runs transactionally so a concurrent
// add cannot drop an entry.
func (s *sessionService) AddToWishlist(ctx context.Context, userID, email, websafeSessionKey string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := getOrCreateProfile(ctx, s.store, userID, email); err != nil {
		return false, err
	}
	if _, err := getSession(ctx, s.store, websafeSessionKey); err != nil {
		return false, err
	}

	err := s.store.RunInTransaction(ctx, func(tx datastore.Tx) error {
		e, err := tx.Get(domain.ProfileKey(userID))
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		prof := domain.ProfileFromEntity(e)
		for _, k := range prof.SessionWishlistKeys {
			if k == websafeSessionKey {
				return fmt.Errorf("%w: this session is already in the wishlist", domain.ErrConflict)
			}
		}
		prof.SessionWishlistKeys = append(prof.SessionWishlistKeys, websafeSessionKey)
		return tx.Put(prof.ToEntity())
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *sessionService) RemoveFromWishlist(ctx context.Context, userID, email, websafeSessionKey string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := getOrCreateProfile(ctx, s.store, userID, email); err != nil {
		return false, err
	}

	present := false
	err := s.store.RunInTransaction(ctx, func(tx datastore.Tx) error {
		present = false
		e, err := tx.Get(domain.ProfileKey(userID))
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		prof := domain.ProfileFromEntity(e)
		kept := prof.SessionWishlistKeys[:0]
		for _, k := range prof.SessionWishlistKeys {
			if k == websafeSessionKey {
				present = true
				continue
			}
			kept = append(kept, k)
		}
		if !present {
			return nil
		}
		prof.SessionWishlistKeys = kept
		return tx.Put(prof.ToEntity())
	})
	if err != nil {
		return false, err
	}
	return present, nil
}

func (s *sessionService) GetSessionsInWishlist(ctx context.Context, userID, email string) ([]*domain.SessionOut, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	prof, err := getOrCreateProfile(ctx, s.store, userID, email)
	if err != nil {
		return nil, err
	}
	keys := make([]*datastore.Key, 0, len(prof.SessionWishlistKeys))
	for _, wssk := range prof.SessionWishlistKeys {
		key, err := datastore.DecodeKey(wssk)
		if err != nil {
			return nil, fmt.Errorf("decode wishlist key: %w", err)
		}
		keys = append(keys, key)
	}
	entities, err := s.store.GetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get wishlist sessions: %w", err)
	}
	out := make([]*domain.SessionOut, 0, len(entities))
	for _, e := range entities {
		if e == nil {
			continue
		}
		out = append(out, domain.SessionFromEntity(e).ToForm())
	}
	return out, nil
}

// GetConferenceSpeakers returns the distinct speakers referenced by a
// conference's sessions, in first-reference order.
func (s *sessionService) GetConferenceSpeakers(ctx context.Context, websafeConfKey string) ([]*domain.SpeakerOut, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	conf, err := getConference(ctx, s.store, websafeConfKey)
	if err != nil {
		return nil, err
	}
	it, err := s.store.Run(ctx, datastore.Query{
		Kind:     domain.KindSession,
		Ancestor: conf.Key,
		Orders:   []datastore.Order{{Field: "name"}},
	})
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	entities, err := datastore.All(it)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}

	seen := make(map[string]struct{})
	var speakerKeys []*datastore.Key
	for _, e := range entities {
		for _, wsk := range domain.SessionFromEntity(e).SpeakerKeys {
			if _, ok := seen[wsk]; ok {
				continue
			}
			seen[wsk] = struct{}{}
			key, err := datastore.DecodeKey(wsk)
			if err != nil {
				continue
			}
			speakerKeys = append(speakerKeys, key)
		}
	}
	speakers, err := s.store.GetMulti(ctx, speakerKeys)
	if err != nil {
		return nil, fmt.Errorf("get speakers: %w", err)
	}
	out := make([]*domain.SpeakerOut, 0, len(speakers))
	for _, e := range speakers {
		if e == nil {
			continue
		}
		out = append(out, domain.SpeakerFromEntity(e).ToForm())
	}
	return out, nil
}

func (s *sessionService) runSessionQuery(ctx context.Context, q datastore.Query) ([]*domain.SessionOut, error) {
	it, err := s.store.Run(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	entities, err := datastore.All(it)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	return sessionsOut(entities), nil
}

func sessionsOut(entities []*datastore.Entity) []*domain.SessionOut {
	out := make([]*domain.SessionOut, 0, len(entities))
	for _, e := range entities {
		out = append(out, domain.SessionFromEntity(e).ToForm())
	}
	return out
}
