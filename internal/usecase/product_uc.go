package usecase

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/armstrong/internal/domain"
	"github.com/phenrril/armstrong/internal/jsonfield"
)

// DefaultProductAttributes are the attribute keys the admin form edits.
var DefaultProductAttributes = []string{"brand", "model", "color", "size", "weight", "material", "country", "article"}

type ProductUC struct {
	Products domain.ProductRepo
	Uploader *ImageUploader

	// AttributeKeys are the curated attribute keys owned by the admin form.
	AttributeKeys   []string
	AttributeLimits map[string]int
}

// ProductInput is the catalog API create payload. Attributes and Images
// carry caller input as received: JSON text or already structured values.
type ProductInput struct {
	Title          string          `json:"title" validate:"required,max=255"`
	Guarantee      string          `json:"guarantee" validate:"required,max=50"`
	Region         string          `json:"region" validate:"required,max=100"`
	PriceRetail    *int            `json:"price_retail" validate:"required"`
	PriceWholesale *int            `json:"price_wholesale" validate:"required"`
	PriceBulk      *int            `json:"price_bulk" validate:"required"`
	Description    string          `json:"description" validate:"required"`
	Attributes     any             `json:"attributes" validate:"required"`
	Images         any             `json:"images" validate:"required"`
	Uploads        []domain.Upload `json:"-"`
}

// ProductForm is what staff submit from the admin console.
type ProductForm struct {
	Title          string            `json:"title" validate:"required,max=255"`
	Description    string            `json:"description" validate:"required"`
	Guarantee      string            `json:"guarantee" validate:"required,max=50"`
	Region         string            `json:"region" validate:"required,max=100"`
	PriceRetail    *int              `json:"price_retail" validate:"required"`
	PriceWholesale *int              `json:"price_wholesale" validate:"required"`
	PriceBulk      *int              `json:"price_bulk" validate:"required"`
	Attributes     map[string]string `json:"attributes"`
	Uploads        []domain.Upload   `json:"-"`
}

func (uc *ProductUC) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := check(in); err != nil {
		return nil, err
	}
	attrs, err := jsonfield.ParseObject(in.Attributes)
	if err != nil {
		return nil, malformed("attributes", err)
	}
	images, err := jsonfield.ParseStringList(in.Images)
	if err != nil {
		return nil, malformed("images", err)
	}
	added, err := uc.Uploader.Store(ctx, in.Uploads)
	if err != nil {
		return nil, err
	}
	images = append(images, added...)

	p := &domain.Product{
		Title:          in.Title,
		Guarantee:      in.Guarantee,
		Region:         in.Region,
		PriceRetail:    *in.PriceRetail,
		PriceWholesale: *in.PriceWholesale,
		PriceBulk:      *in.PriceBulk,
		Description:    in.Description,
	}
	if p.Attributes, err = storeJSON("attributes", attrs); err != nil {
		return nil, err
	}
	if p.Images, err = storeJSON("images", images); err != nil {
		return nil, err
	}
	if err := uc.Products.Create(ctx, p); err != nil {
		return nil, err
	}
	log.Info().Uint("product_id", p.ID).Int("images", len(images)).Msg("product created")
	return p, nil
}

func (uc *ProductUC) List(ctx context.Context) ([]domain.Product, error) {
	return uc.Products.List(ctx)
}

func (uc *ProductUC) Get(ctx context.Context, id uint) (*domain.Product, error) {
	if id == 0 {
		return nil, domain.ErrNotFound
	}
	return uc.Products.FindByID(ctx, id)
}

func (uc *ProductUC) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return domain.ErrNotFound
	}
	return uc.Products.Delete(ctx, id)
}

// AddImages stores the uploads and appends their paths to the product's images.
// The column is only touched once every file has been written.
func (uc *ProductUC) AddImages(ctx context.Context, id uint, files []domain.Upload) (*domain.Product, error) {
	if _, err := uc.Get(ctx, id); err != nil {
		return nil, err
	}
	paths, err := uc.Uploader.Store(ctx, files)
	if err != nil {
		return nil, err
	}
	return uc.Products.AppendImages(ctx, id, paths)
}

// AdminSave creates (id == 0) or updates a product from the admin form.
// Curated attribute keys are rewritten from the form, other keys survive;
// uploads are appended to the existing images.
func (uc *ProductUC) AdminSave(ctx context.Context, id uint, f ProductForm) (*domain.Product, error) {
	if err := check(f); err != nil {
		return nil, err
	}
	submitted := pick(f.Attributes, uc.attributeKeys())
	if err := checkLengths(submitted, uc.AttributeLimits); err != nil {
		return nil, err
	}

	p := &domain.Product{}
	if id != 0 {
		existing, err := uc.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		p = existing
	}

	attrs := jsonfield.MergeObject(jsonfield.Decode(p.Attributes, jsonfield.Object), uc.attributeKeys(), submitted)
	var err error
	if p.Attributes, err = storeJSON("attributes", attrs); err != nil {
		return nil, err
	}

	added, err := uc.Uploader.Store(ctx, f.Uploads)
	if err != nil {
		return nil, err
	}
	if len(added) > 0 || id == 0 {
		images := jsonfield.StringList(jsonfield.Decode(p.Images, jsonfield.Array))
		if p.Images, err = storeJSON("images", append(images, added...)); err != nil {
			return nil, err
		}
	}

	p.Title = f.Title
	p.Description = f.Description
	p.Guarantee = f.Guarantee
	p.Region = f.Region
	p.PriceRetail = *f.PriceRetail
	p.PriceWholesale = *f.PriceWholesale
	p.PriceBulk = *f.PriceBulk

	if id == 0 {
		err = uc.Products.Create(ctx, p)
	} else {
		err = uc.Products.Save(ctx, p)
	}
	if err != nil {
		return nil, err
	}
	log.Info().Uint("product_id", p.ID).Int("uploaded", len(added)).Msg("product saved from admin")
	return p, nil
}

func (uc *ProductUC) attributeKeys() []string {
	if len(uc.AttributeKeys) == 0 {
		return DefaultProductAttributes
	}
	return uc.AttributeKeys
}

func pick(values map[string]string, keys []string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k] = values[k]
	}
	return out
}
