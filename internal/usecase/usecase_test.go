package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/armstrong/internal/adapters/repo/memory"
	"github.com/phenrril/armstrong/internal/domain"
	"github.com/phenrril/armstrong/internal/jsonfield"
)

// fakeStorage records saved names and fails on the failAt-th file (1-based).
type fakeStorage struct {
	saved  []string
	failAt int
}

func (s *fakeStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if s.failAt > 0 && len(s.saved)+1 == s.failAt {
		return "", errors.New("disk full")
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	s.saved = append(s.saved, name)
	return "/uploads/" + name, nil
}

func upload(name, body string) domain.Upload {
	return domain.Upload{
		Filename: name,
		Size:     int64(len(body)),
		Open:     func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(body)), nil },
	}
}

func intp(n int) *int { return &n }

func newProductUC(st domain.FileStorage) *ProductUC {
	return &ProductUC{Products: memory.NewProductRepo(), Uploader: &ImageUploader{Storage: st}}
}

func validProduct() ProductInput {
	return ProductInput{
		Title:          "Drill",
		Guarantee:      "1y",
		Region:         "EU",
		PriceRetail:    intp(100),
		PriceWholesale: intp(90),
		PriceBulk:      intp(80),
		Description:    "cordless",
		Attributes:     `{"color":"red"}`,
		Images:         `["/uploads/a.png"]`,
	}
}

func TestUploaderSkipsEmptyFilesAndKeepsOrder(t *testing.T) {
	st := &fakeStorage{}
	u := &ImageUploader{Storage: st}

	paths, err := u.Store(context.Background(), []domain.Upload{
		upload("b.png", "bbb"),
		{Filename: "empty.png"},
		upload("c.png", "ccc"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/b.png", "/uploads/c.png"}, paths)
}

func TestUploaderAbortsOnFirstFailure(t *testing.T) {
	st := &fakeStorage{failAt: 2}
	u := &ImageUploader{Storage: st}

	paths, err := u.Store(context.Background(), []domain.Upload{
		upload("1.png", "x"), upload("2.png", "y"), upload("3.png", "z"),
	})
	var ue *domain.UploadIOError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "2.png", ue.File)
	assert.Equal(t, []string{"/uploads/1.png"}, paths)
	assert.Equal(t, []string{"1.png"}, st.saved, "third file must not be attempted")
}

func TestUploaderStoreOneRejectsEmpty(t *testing.T) {
	u := &ImageUploader{Storage: &fakeStorage{}}
	_, err := u.StoreOne(context.Background(), domain.Upload{Filename: "x.png"})
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestProductCreateAppendsUploadsAfterSubmittedImages(t *testing.T) {
	uc := newProductUC(&fakeStorage{})
	in := validProduct()
	in.Uploads = []domain.Upload{upload("b.png", "1"), upload("c.png", "2")}

	p, err := uc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t,
		[]string{"/uploads/a.png", "/uploads/b.png", "/uploads/c.png"},
		jsonfield.StringList(jsonfield.Decode(p.Images, jsonfield.Array)))
	assert.Equal(t, map[string]string{"color": "red"}, jsonfield.StringMap(jsonfield.Decode(p.Attributes, jsonfield.Object)))
}

func TestProductCreateValidation(t *testing.T) {
	ctx := context.Background()
	uc := newProductUC(&fakeStorage{})

	cases := map[string]func(*ProductInput){
		"blank title":          func(in *ProductInput) { in.Title = "" },
		"missing price":        func(in *ProductInput) { in.PriceBulk = nil },
		"attributes not json":  func(in *ProductInput) { in.Attributes = "{broken" },
		"attributes is a list": func(in *ProductInput) { in.Attributes = `["a"]` },
		"images is an object":  func(in *ProductInput) { in.Images = `{"a":1}` },
		"title too long":       func(in *ProductInput) { in.Title = strings.Repeat("x", 256) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validProduct()
			mutate(&in)
			_, err := uc.Create(ctx, in)
			var ve *domain.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}

	list, err := uc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestProductCreateUploadFailureLeavesNoRow(t *testing.T) {
	ctx := context.Background()
	uc := newProductUC(&fakeStorage{failAt: 1})
	in := validProduct()
	in.Uploads = []domain.Upload{upload("b.png", "1")}

	_, err := uc.Create(ctx, in)
	var ue *domain.UploadIOError
	require.ErrorAs(t, err, &ue)

	list, err := uc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestProductAddImagesFailureKeepsColumn(t *testing.T) {
	ctx := context.Background()
	st := &fakeStorage{}
	uc := newProductUC(st)
	p, err := uc.Create(ctx, validProduct())
	require.NoError(t, err)

	st.failAt = 2
	_, err = uc.AddImages(ctx, p.ID, []domain.Upload{upload("x.png", "1"), upload("y.png", "2")})
	require.Error(t, err)

	got, err := uc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"/uploads/a.png"}, jsonfield.StringList(jsonfield.Decode(got.Images, jsonfield.Array)))
}

func TestProductAddImagesMissing(t *testing.T) {
	uc := newProductUC(&fakeStorage{})
	_, err := uc.AddImages(context.Background(), 42, []domain.Upload{upload("x.png", "1")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductAdminSaveMergesCuratedAttributes(t *testing.T) {
	ctx := context.Background()
	uc := newProductUC(&fakeStorage{})
	in := validProduct()
	in.Attributes = `{"color":"red","voltage":"18V"}`
	p, err := uc.Create(ctx, in)
	require.NoError(t, err)

	saved, err := uc.AdminSave(ctx, p.ID, ProductForm{
		Title: "Drill 2", Description: "d", Guarantee: "2y", Region: "EU",
		PriceRetail: intp(1), PriceWholesale: intp(2), PriceBulk: intp(3),
		Attributes: map[string]string{"color": "", "brand": "Acme", "bogus": "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Drill 2", saved.Title)
	assert.Equal(t,
		map[string]string{"brand": "Acme", "voltage": "18V"},
		jsonfield.StringMap(jsonfield.Decode(saved.Attributes, jsonfield.Object)))
	assert.Equal(t, []string{"/uploads/a.png"}, jsonfield.StringList(jsonfield.Decode(saved.Images, jsonfield.Array)))
}

func TestProductAdminSaveAttributeLimit(t *testing.T) {
	uc := newProductUC(&fakeStorage{})
	uc.AttributeLimits = map[string]int{"brand": 3}
	_, err := uc.AdminSave(context.Background(), 0, ProductForm{
		Title: "t", Description: "d", Guarantee: "g", Region: "r",
		PriceRetail: intp(1), PriceWholesale: intp(1), PriceBulk: intp(1),
		Attributes: map[string]string{"brand": "toolong"},
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "brand", ve.Field)
}

func TestBlogAdminSaveAppendsUploads(t *testing.T) {
	ctx := context.Background()
	uc := &BlogUC{Posts: memory.NewBlogPostRepo(), Uploader: &ImageUploader{Storage: &fakeStorage{}}}
	post, err := uc.Create(ctx, BlogPostInput{Title: "Hi", Content: "body", Images: `["/uploads/a.png"]`})
	require.NoError(t, err)

	saved, err := uc.AdminSave(ctx, post.ID, BlogPostForm{Title: "Hi", Content: "new", Uploads: []domain.Upload{upload("b.png", "1")}})
	require.NoError(t, err)
	assert.Equal(t, "new", saved.Content)
	assert.Equal(t, []string{"/uploads/a.png", "/uploads/b.png"}, jsonfield.StringList(jsonfield.Decode(saved.Images, jsonfield.Array)))
}

func TestCompanyReplaceAndAdminSave(t *testing.T) {
	ctx := context.Background()
	uc := &CompanyUC{Company: memory.NewCompanyInfoRepo()}

	_, err := uc.Get(ctx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Replace(ctx, CompanyInfoInput{Phone: "1", Email: "a@b.c", Address: "x", SocialLinks: `{"vk":"v"}`})
	require.NoError(t, err)

	_, err = uc.Replace(ctx, CompanyInfoInput{Phone: "1", Email: "a@b.c", Address: "x", SocialLinks: `[1,2]`})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "social_links", ve.Field)

	_, err = uc.AdminSave(ctx, CompanyInfoForm{
		Phone: "2", Email: "c@d.e", Address: "y",
		Channels: map[string]string{"whatsapp": "+1", "instagram": "  ", "vk": "dropped"},
	})
	require.NoError(t, err)

	c, err := uc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", c.Phone)
	form := uc.FormFor(c)
	assert.Equal(t, "+1", form.Channels["whatsapp"])
	assert.Equal(t, "", form.Channels["instagram"])
	assert.Equal(t, map[string]string{"whatsapp": "+1"}, jsonfield.StringMap(jsonfield.Decode(c.SocialLinks, jsonfield.Object)))
}

func TestCompanyAdminSaveRejectsBadEmail(t *testing.T) {
	uc := &CompanyUC{Company: memory.NewCompanyInfoRepo()}
	_, err := uc.AdminSave(context.Background(), CompanyInfoForm{Phone: "1", Email: "nope", Address: "x"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email", ve.Field)
}

func TestReviewCreateStampsOnceAndEditKeepsTimestamp(t *testing.T) {
	ctx := context.Background()
	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	uc := &ReviewUC{Reviews: memory.NewReviewRepo(), Now: func() time.Time { return stamp }}

	rv, err := uc.Create(ctx, ReviewInput{Name: "Ann", Review: "Great"})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, rv.CreatedAt.Location())
	assert.True(t, rv.CreatedAt.Equal(stamp))

	uc.Now = func() time.Time { return stamp.Add(time.Hour) }
	edited, err := uc.AdminSave(ctx, rv.ID, ReviewInput{Name: "Ann", Review: "Good"})
	require.NoError(t, err)
	assert.Equal(t, "Good", edited.Review)
	assert.True(t, edited.CreatedAt.Equal(stamp))
}

func TestRequestLifecycle(t *testing.T) {
	ctx := context.Background()
	uc := &RequestUC{Requests: memory.NewRequestRepo()}

	_, err := uc.Create(ctx, RequestInput{Name: "Bob", Phone: "", Comment: "call me"})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "phone", ve.Field)

	req, err := uc.Create(ctx, RequestInput{Name: "Bob", Phone: "123", Comment: "call me"})
	require.NoError(t, err)
	require.NoError(t, uc.Delete(ctx, req.ID))
	assert.ErrorIs(t, uc.Delete(ctx, req.ID), domain.ErrNotFound)
	_, err = uc.Get(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
