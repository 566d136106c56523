package usecase

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/armstrong/internal/domain"
	"github.com/phenrril/armstrong/internal/jsonfield"
)

// DefaultSocialChannels are the social_links keys the admin form edits.
var DefaultSocialChannels = []string{"whatsapp", "instagram", "telegram", "facebook", "youtube"}

type CompanyUC struct {
	Company domain.CompanyInfoRepo

	Channels      []string
	ChannelLimits map[string]int
}

type CompanyInfoInput struct {
	Phone       string `json:"phone" validate:"required,max=20"`
	Email       string `json:"email" validate:"required,max=254"`
	Address     string `json:"address" validate:"required,max=255"`
	SocialLinks any    `json:"social_links" validate:"required"`
}

// CompanyInfoForm is the admin form: one text field per social channel.
type CompanyInfoForm struct {
	Phone    string            `json:"phone" validate:"required,max=20"`
	Email    string            `json:"email" validate:"required,email,max=254"`
	Address  string            `json:"address" validate:"required,max=255"`
	Channels map[string]string `json:"channels"`
}

// Replace discards the stored company info and writes in.
func (uc *CompanyUC) Replace(ctx context.Context, in CompanyInfoInput) (*domain.CompanyInfo, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	links, err := jsonfield.ParseObject(in.SocialLinks)
	if err != nil {
		return nil, malformed("social_links", err)
	}
	c := &domain.CompanyInfo{Phone: in.Phone, Email: in.Email, Address: in.Address}
	if c.SocialLinks, err = storeJSON("social_links", links); err != nil {
		return nil, err
	}
	if err := uc.Company.Replace(ctx, c); err != nil {
		return nil, err
	}
	log.Info().Int("social_links", len(links)).Msg("company info replaced")
	return c, nil
}

func (uc *CompanyUC) Get(ctx context.Context) (*domain.CompanyInfo, error) {
	return uc.Company.Get(ctx)
}

// AdminSave builds social_links from the channel fields, omitting blank ones.
func (uc *CompanyUC) AdminSave(ctx context.Context, f CompanyInfoForm) (*domain.CompanyInfo, error) {
	if err := check(f); err != nil {
		return nil, err
	}
	channels := pick(f.Channels, uc.channels())
	if err := checkLengths(channels, uc.ChannelLimits); err != nil {
		return nil, err
	}
	links := jsonfield.Encode(channels)
	c := &domain.CompanyInfo{Phone: f.Phone, Email: f.Email, Address: f.Address}
	var err error
	if c.SocialLinks, err = storeJSON("social_links", links); err != nil {
		return nil, err
	}
	if err := uc.Company.Replace(ctx, c); err != nil {
		return nil, err
	}
	log.Info().Int("social_links", len(links)).Msg("company info saved from admin")
	return c, nil
}

// FormFor decodes stored company info into editable admin fields.
func (uc *CompanyUC) FormFor(c *domain.CompanyInfo) CompanyInfoForm {
	if c == nil {
		return CompanyInfoForm{Channels: map[string]string{}}
	}
	return CompanyInfoForm{
		Phone:    c.Phone,
		Email:    c.Email,
		Address:  c.Address,
		Channels: pick(jsonfield.StringMap(jsonfield.Decode(c.SocialLinks, jsonfield.Object)), uc.channels()),
	}
}

func (uc *CompanyUC) channels() []string {
	if len(uc.Channels) == 0 {
		return DefaultSocialChannels
	}
	return uc.Channels
}
