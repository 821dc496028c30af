package merge

import (
	"context"

	"github.com/agentstation/strix/pkg/errors"
	"github.com/agentstation/strix/pkg/media"
)

// MergedImage wraps one provider image. Images never compare equal, so a
// merged image always has a single source.
type MergedImage struct {
	entity[media.Image]
}

var _ media.Image = (*MergedImage)(nil)

// NewMergedImage wraps first.
func NewMergedImage(config *Config, first media.Image) (*MergedImage, error) {
	i := &MergedImage{}
	if err := i.init(i, config, first, nil); err != nil {
		return nil, err
	}
	return i, nil
}

func (i *MergedImage) URI() string     { return i.Preferred().URI() }
func (i *MergedImage) Width() float64  { return i.Preferred().Width() }
func (i *MergedImage) Height() float64 { return i.Preferred().Height() }

// MergedUrl presents equal provider links as one.
type MergedUrl struct {
	entity[media.Url]
}

var _ media.Url = (*MergedUrl)(nil)

// NewMergedUrl wraps first.
func NewMergedUrl(config *Config, first media.Url) (*MergedUrl, error) {
	u := &MergedUrl{}
	if err := u.init(u, config, first, nil); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *MergedUrl) Label() string          { return u.Preferred().Label() }
func (u *MergedUrl) Href() string           { return u.Preferred().Href() }
func (u *MergedUrl) UrlType() media.UrlType { return u.Preferred().UrlType() }

// MergedGenre presents equal provider genres as one.
type MergedGenre struct {
	entity[media.Genre]
}

var _ media.Genre = (*MergedGenre)(nil)

// NewMergedGenre wraps first.
func NewMergedGenre(config *Config, first media.Genre) (*MergedGenre, error) {
	g := &MergedGenre{}
	if err := g.init(g, config, first, nil); err != nil {
		return nil, err
	}
	return g, nil
}

// Name returns the genre name.
func (g *MergedGenre) Name() string { return g.Preferred().Name() }

// MergedUserProfile wraps the user profile of one core. Profiles are never
// merged: AddSource always fails.
type MergedUserProfile struct {
	entity[media.UserProfile]
	images *CollectionMap[media.Image, *MergedImage]
	urls   *CollectionMap[media.Url, *MergedUrl]
}

var (
	_ media.UserProfile         = (*MergedUserProfile)(nil)
	_ Merged[media.UserProfile] = (*MergedUserProfile)(nil)
)

// NewMergedUserProfile wraps profile.
func NewMergedUserProfile(config *Config, profile media.UserProfile) (*MergedUserProfile, error) {
	u := &MergedUserProfile{}
	if err := u.init(u, config, profile, nil); err != nil {
		return nil, err
	}
	u.images = bind(&u.entity, NewCollectionMap("profile images", config, imageDispatch(config)), media.PropTotalImageCount,
		func(s media.UserProfile) media.Collection[media.Image] { return s.Images() })
	u.urls = bind(&u.entity, NewCollectionMap("profile urls", config, urlDispatch(config)), media.PropTotalUrlCount,
		func(s media.UserProfile) media.Collection[media.Url] { return s.Urls() })
	return u, nil
}

// AddSource is not supported on user profiles.
func (u *MergedUserProfile) AddSource(context.Context, media.UserProfile) error {
	return errors.NewNotSupportedError("merge", media.KindUserProfile.String())
}

// DisplayName returns the display name of the profile.
func (u *MergedUserProfile) DisplayName() string { return u.Preferred().DisplayName() }

// Email returns the email of the profile.
func (u *MergedUserProfile) Email() string { return u.Preferred().Email() }

// Region returns the region of the profile.
func (u *MergedUserProfile) Region() string { return u.Preferred().Region() }

// Images implements media.UserProfile.
func (u *MergedUserProfile) Images() media.Collection[media.Image] { return u.images }

// Urls implements media.UserProfile.
func (u *MergedUserProfile) Urls() media.Collection[media.Url] { return u.urls }

// ImageMap returns the merged images with their concrete type.
func (u *MergedUserProfile) ImageMap() *CollectionMap[media.Image, *MergedImage] { return u.images }

// UrlMap returns the merged urls with their concrete type.
func (u *MergedUserProfile) UrlMap() *CollectionMap[media.Url, *MergedUrl] { return u.urls }
