package merge

import (
	"context"
	"time"

	"github.com/agentstation/utc"

	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/media"
)

// playable carries the scalar delegation and the image and url maps shared
// by every playable merged entity.
type playable[T media.Playable] struct {
	entity[T]
	images *CollectionMap[media.Image, *MergedImage]
	urls   *CollectionMap[media.Url, *MergedUrl]
}

func (p *playable[T]) init(self media.Item, config *Config, first T, accept func(T) error) error {
	if err := p.entity.init(self, config, first, accept); err != nil {
		return err
	}
	p.images = bind(&p.entity, NewCollectionMap("images", config, imageDispatch(config)), media.PropTotalImageCount,
		func(s T) media.Collection[media.Image] { return s.Images() })
	p.urls = bind(&p.entity, NewCollectionMap("urls", config, urlDispatch(config)), media.PropTotalUrlCount,
		func(s T) media.Collection[media.Url] { return s.Urls() })
	return nil
}

// Name returns the name of the preferred source.
func (p *playable[T]) Name() string { return p.Preferred().Name() }

// Description returns the description of the preferred source.
func (p *playable[T]) Description() string { return p.Preferred().Description() }

// Duration returns the duration of the preferred source.
func (p *playable[T]) Duration() time.Duration { return p.Preferred().Duration() }

// PlaybackState returns the playback state of the preferred source.
func (p *playable[T]) PlaybackState() media.PlaybackState { return p.Preferred().PlaybackState() }

// LastPlayed returns when the preferred source was last played.
func (p *playable[T]) LastPlayed() utc.Time { return p.Preferred().LastPlayed() }

// AddedAt returns when the preferred source was added.
func (p *playable[T]) AddedAt() utc.Time { return p.Preferred().AddedAt() }

// Images implements media.Playable.
func (p *playable[T]) Images() media.Collection[media.Image] { return p.images }

// Urls implements media.Playable.
func (p *playable[T]) Urls() media.Collection[media.Url] { return p.urls }

// ImageMap returns the merged images with their concrete type.
func (p *playable[T]) ImageMap() *CollectionMap[media.Image, *MergedImage] { return p.images }

// UrlMap returns the merged urls with their concrete type.
func (p *playable[T]) UrlMap() *CollectionMap[media.Url, *MergedUrl] { return p.urls }

// TotalImageCount sums the image counts of every ranked source.
func (p *playable[T]) TotalImageCount() int { return p.images.Count() }

// TotalUrlCount sums the url counts of every ranked source.
func (p *playable[T]) TotalUrlCount() int { return p.urls.Count() }

// Play starts playback on the preferred source.
func (p *playable[T]) Play(ctx context.Context) error { return p.Preferred().Play(ctx) }

// Pause pauses playback on the preferred source.
func (p *playable[T]) Pause(ctx context.Context) error { return p.Preferred().Pause(ctx) }

// ChangeName renames every source in parallel.
func (p *playable[T]) ChangeName(ctx context.Context, name string) error {
	return fanout(ctx, p.Sources(), func(ctx context.Context, s T) error {
		return s.ChangeName(ctx, name)
	})
}

// ChangeDescription updates the description of every source in parallel.
func (p *playable[T]) ChangeDescription(ctx context.Context, description string) error {
	return fanout(ctx, p.Sources(), func(ctx context.Context, s T) error {
		return s.ChangeDescription(ctx, description)
	})
}

// ChangeDuration updates the duration of every source in parallel.
func (p *playable[T]) ChangeDuration(ctx context.Context, duration time.Duration) error {
	return fanout(ctx, p.Sources(), func(ctx context.Context, s T) error {
		return s.ChangeDuration(ctx, duration)
	})
}

// shape returns a source check requiring items to implement S.
func shape[T media.Item, S any](what string) func(T) error {
	return func(item T) error {
		if _, ok := any(item).(S); !ok {
			return errors.NewValidationError("source", item.Kind().String(), "is not "+what)
		}
		return nil
	}
}
