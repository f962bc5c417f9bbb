package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"confcentral/internal/datastore"
	"confcentral/internal/domain"
	"confcentral/internal/query"
)

type conferenceService struct {
	store          datastore.Store
	queue          domain.TaskQueue
	contextTimeout time.Duration
}

// NewConferenceService creates a ConferenceService with the given store and
// task queue.
func NewConferenceService(store datastore.Store, queue domain.TaskQueue, timeout time.Duration) domain.ConferenceService {
	return &conferenceService{store: store, queue: queue, contextTimeout: timeout}
}

// getConference resolves a websafe conference key against the store.
func getConference(ctx context.Context, store datastore.Store, websafeKey string) (*domain.Conference, error) {
	key, err := datastore.DecodeKey(websafeKey)
	if err != nil || key.Kind != domain.KindConference {
		return nil, fmt.Errorf("%w: no conference found with key: %s", domain.ErrNotFound, websafeKey)
	}
	e, err := store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, fmt.Errorf("%w: no conference found with key: %s", domain.ErrNotFound, websafeKey)
		}
		return nil, fmt.Errorf("get conference: %w", err)
	}
	return domain.ConferenceFromEntity(e), nil
}

func (s *conferenceService) CreateConference(ctx context.Context, userID, email string, form *domain.ConferenceForm) (*domain.ConferenceOut, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	prof, err := getOrCreateProfile(ctx, s.store, userID, email)
	if err != nil {
		return nil, err
	}

	key, err := s.store.AllocateID(ctx, domain.KindConference, prof.Key())
	if err != nil {
		return nil, fmt.Errorf("allocate conference id: %w", err)
	}
	conf, err := domain.NewConference(key, userID, form)
	if err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, conf.ToEntity()); err != nil {
		return nil, fmt.Errorf("create conference: %w", err)
	}

	// Confirmation email is side-effect work; failures there must not fail
	// the create.
	if err := s.queue.Enqueue(ctx, domain.TaskSendConfirmationEmail, map[string]string{
		"email":          email,
		"conferenceName": conf.Name,
		"conferenceInfo": fmt.Sprintf("%s (%s, %s - %s)", conf.Name, conf.City,
			domain.FormatDate(conf.StartDate), domain.FormatDate(conf.EndDate)),
	}); err != nil {
		return nil, fmt.Errorf("enqueue confirmation email: %w", err)
	}
	return conf.ToForm(prof.DisplayName), nil
}

func (s *conferenceService) UpdateConference(ctx context.Context, userID, websafeKey string, form *domain.ConferenceForm) (*domain.ConferenceOut, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if userID == "" {
		return nil, domain.ErrUnauthorized
	}

	var updated *domain.Conference
	err := s.store.RunInTransaction(ctx, func(tx datastore.Tx) error {
		key, err := datastore.DecodeKey(websafeKey)
		if err != nil || key.Kind != domain.KindConference {
			return fmt.Errorf("%w: no conference found with key: %s", domain.ErrNotFound, websafeKey)
		}
		e, err := tx.Get(key)
		if err != nil {
			if errors.Is(err, datastore.ErrNoSuchEntity) {
				return fmt.Errorf("%w: no conference found with key: %s", domain.ErrNotFound, websafeKey)
			}
			return fmt.Errorf("get conference: %w", err)
		}
		conf := domain.ConferenceFromEntity(e)
		if conf.OrganizerUserID != userID {
			return fmt.Errorf("%w: only the owner can update the conference", domain.ErrForbidden)
		}
		if err := conf.ApplyUpdate(form); err != nil {
			return err
		}
		updated = conf
		return tx.Put(conf.ToEntity())
	})
	if err != nil {
		return nil, err
	}

	return updated.ToForm(s.organizerName(ctx, userID)), nil
}

func (s *conferenceService) GetConference(ctx context.Context, websafeKey string) (*domain.ConferenceOut, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	conf, err := getConference(ctx, s.store, websafeKey)
	if err != nil {
		return nil, err
	}
	return conf.ToForm(s.organizerName(ctx, conf.OrganizerUserID)), nil
}

// organizerName is best effort: a missing organizer profile yields "".
func (s *conferenceService) organizerName(ctx context.Context, organizerUserID string) string {
	e, err := s.store.Get(ctx, domain.ProfileKey(organizerUserID))
	if err != nil {
		return ""
	}
	return domain.ProfileFromEntity(e).DisplayName
}

func (s *conferenceService) QueryConferences(ctx context.Context, filters []domain.FilterSpec) ([]*domain.ConferenceOut, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	it, err := query.Run(ctx, s.store, domain.KindConference, nil, filters, query.ConferenceFields)
	if err != nil {
		return nil, err
	}
	entities, err := datastore.All(it)
	if err != nil {
		return nil, fmt.Errorf("query conferences: %w", err)
	}

	confs := make([]*domain.Conference, 0, len(entities))
	organizerKeys := make([]*datastore.Key, 0, len(entities))
	for _, e := range entities {
		conf := domain.ConferenceFromEntity(e)
		confs = append(confs, conf)
		organizerKeys = append(organizerKeys, domain.ProfileKey(conf.OrganizerUserID))
	}

	// Fetch organizer display names in one multi-get.
	organizers, err := s.store.GetMulti(ctx, organizerKeys)
	if err != nil {
		return nil, fmt.Errorf("get organizers: %w", err)
	}
	names := make(map[string]string, len(organizers))
	for _, e := range organizers {
		if e != nil {
			prof := domain.ProfileFromEntity(e)
			names[prof.UserID] = prof.DisplayName
		}
	}

	out := make([]*domain.ConferenceOut, 0, len(confs))
	for _, conf := range confs {
		out = append(out, conf.ToForm(names[conf.OrganizerUserID]))
	}
	return out, nil
}

func (s *conferenceService) GetConferencesCreated(ctx context.Context, userID, email string) ([]*domain.ConferenceOut, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	prof, err := getOrCreateProfile(ctx, s.store, userID, email)
	if err != nil {
		return nil, err
	}
	it, err := s.store.Run(ctx, datastore.Query{
		Kind:     domain.KindConference,
		Ancestor: prof.Key(),
		Orders:   []datastore.Order{{Field: "name"}},
	})
	if err != nil {
		return nil, fmt.Errorf("query created conferences: %w", err)
	}
	entities, err := datastore.All(it)
	if err != nil {
		return nil, fmt.Errorf("query created conferences: %w", err)
	}
	out := make([]*domain.ConferenceOut, 0, len(entities))
	for _, e := range entities {
		out = append(out, domain.ConferenceFromEntity(e).ToForm(prof.DisplayName))
	}
	return out, nil
}

func (s *conferenceService) GetConferencesToAttend(ctx context.Context, userID, email string) ([]*domain.ConferenceOut, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	prof, err := getOrCreateProfile(ctx, s.store, userID, email)
	if err != nil {
		return nil, err
	}
	keys := make([]*datastore.Key, 0, len(prof.ConferenceKeysToAttend))
	for _, wsck := range prof.ConferenceKeysToAttend {
		key, err := datastore.DecodeKey(wsck)
		if err != nil {
			return nil, fmt.Errorf("decode attend key: %w", err)
		}
		keys = append(keys, key)
	}
	entities, err := s.store.GetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get conferences to attend: %w", err)
	}

	out := make([]*domain.ConferenceOut, 0, len(entities))
	for _, e := range entities {
		if e == nil {
			// Conference deleted but registration remains; skip the entry.
			continue
		}
		conf := domain.ConferenceFromEntity(e)
		out = append(out, conf.ToForm(s.organizerName(ctx, conf.OrganizerUserID)))
	}
	return out, nil
}

// Register appends the conference key to the profile's attend list and
// decrements seatsAvailable, atomically across the two entity groups.
func (s *conferenceService) Register(ctx context.Context, userID, email, websafeKey string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	// Ensure the profile exists before entering the transaction so the lazy
	// create does not run inside it.
	if _, err := getOrCreateProfile(ctx, s.store, userID, email); err != nil {
		return false, err
	}

	err := s.store.RunInTransaction(ctx, func(tx datastore.Tx) error {
		prof, conf, err := registrationState(tx, userID, websafeKey)
		if err != nil {
			return err
		}
		for _, k := range prof.ConferenceKeysToAttend {
			if k == websafeKey {
				return fmt.Errorf("%w: you have already registered for this conference", domain.ErrConflict)
			}
		}
		if conf.SeatsAvailable <= 0 {
			return fmt.Errorf("%w: there are no seats available", domain.ErrConflict)
		}
		prof.ConferenceKeysToAttend = append(prof.ConferenceKeysToAttend, websafeKey)
		conf.SeatsAvailable--
		if err := tx.Put(prof.ToEntity()); err != nil {
			return err
		}
		return tx.Put(conf.ToEntity())
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Unregister removes the conference key from the attend list and returns the
// seat. A user who was never registered gets a false result, not an error.
func (s *conferenceService) Unregister(ctx context.Context, userID, email, websafeKey string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := getOrCreateProfile(ctx, s.store, userID, email); err != nil {
		return false, err
	}

	registered := false
	err := s.store.RunInTransaction(ctx, func(tx datastore.Tx) error {
		registered = false
		prof, conf, err := registrationState(tx, userID, websafeKey)
		if err != nil {
			return err
		}
		kept := prof.ConferenceKeysToAttend[:0]
		for _, k := range prof.ConferenceKeysToAttend {
			if k == websafeKey {
				registered = true
				continue
			}
			kept = append(kept, k)
		}
		if !registered {
			return nil
		}
		prof.ConferenceKeysToAttend = kept
		// If maxAttendees was lowered after this user registered, returning
		// the seat must not push seatsAvailable past the cap.
		if conf.SeatsAvailable < conf.MaxAttendees {
			conf.SeatsAvailable++
		}
		if err := tx.Put(prof.ToEntity()); err != nil {
			return err
		}
		return tx.Put(conf.ToEntity())
	})
	if err != nil {
		return false, err
	}
	return registered, nil
}

// registrationState loads the profile and conference a registration
// transaction mutates.
func registrationState(tx datastore.Tx, userID, websafeKey string) (*domain.Profile, *domain.Conference, error) {
	key, err := datastore.DecodeKey(websafeKey)
	if err != nil || key.Kind != domain.KindConference {
		return nil, nil, fmt.Errorf("%w: no conference found with key: %s", domain.ErrNotFound, websafeKey)
	}
	confEntity, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, nil, fmt.Errorf("%w: no conference found with key: %s", domain.ErrNotFound, websafeKey)
		}
		return nil, nil, fmt.Errorf("get conference: %w", err)
	}
	profEntity, err := tx.Get(domain.ProfileKey(userID))
	if err != nil {
		return nil, nil, fmt.Errorf("get profile: %w", err)
	}
	return domain.ProfileFromEntity(profEntity), domain.ConferenceFromEntity(confEntity), nil
}
