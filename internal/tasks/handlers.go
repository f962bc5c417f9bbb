package tasks

import (
	"context"
	"fmt"
	"strings"

	"confcentral/internal/datastore"
	"confcentral/internal/domain"
)

// NewConfirmationEmailHandler sends the conference creation confirmation.
func NewConfirmationEmailHandler(emailService domain.EmailService) Handler {
	return func(ctx context.Context, task domain.Task) error {
		return emailService.SendConferenceConfirmation(ctx, &domain.ConferenceConfirmationEmailData{
			Email:          task.Params["email"],
			ConferenceName: task.Params["conferenceName"],
			ConferenceInfo: task.Params["conferenceInfo"],
		})
	}
}

// NewFeaturedSpeakerHandler checks whether any speaker of a just-created
// session now appears in more than one session of the conference, and if so
// caches the (speaker name, session name) tuple for that conference.
func NewFeaturedSpeakerHandler(store datastore.Store, cache domain.Cache) Handler {
	return func(ctx context.Context, task domain.Task) error {
		wsck := task.Params["wsck"]
		confKey, err := datastore.DecodeKey(wsck)
		if err != nil {
			return fmt.Errorf("decode conference key: %w", err)
		}

		it, err := store.Run(ctx, datastore.Query{
			Kind:     domain.KindSession,
			Ancestor: confKey,
		})
		if err != nil {
			return fmt.Errorf("query conference sessions: %w", err)
		}
		entities, err := datastore.All(it)
		if err != nil {
			return fmt.Errorf("query conference sessions: %w", err)
		}
		counts := make(map[string]int)
		for _, e := range entities {
			for _, wsk := range domain.SessionFromEntity(e).SpeakerKeys {
				counts[wsk]++
			}
		}

		for _, wsk := range strings.Split(task.Params["speakerKeys"], ",") {
			if wsk == "" || counts[wsk] <= 1 {
				continue
			}
			speakerKey, err := datastore.DecodeKey(wsk)
			if err != nil {
				continue
			}
			e, err := store.Get(ctx, speakerKey)
			if err != nil {
				continue
			}
			cache.Set(domain.FeaturedSpeakerCacheKey(wsck), &domain.FeaturedSpeaker{
				SpeakerName: domain.SpeakerFromEntity(e).Name,
				SessionName: task.Params["sessionName"],
			})
			return nil
		}
		return nil
	}
}
