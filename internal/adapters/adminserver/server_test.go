package adminserver

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/armstrong/internal/adapters/repo/memory"
	"github.com/phenrril/armstrong/internal/adapters/storage/localfs"
	"github.com/phenrril/armstrong/internal/config"
	"github.com/phenrril/armstrong/internal/jsonfield"
	"github.com/phenrril/armstrong/internal/usecase"
)

type fixture struct {
	h        http.Handler
	company  *usecase.CompanyUC
	products *usecase.ProductUC
	blog     *usecase.BlogUC
	requests *usecase.RequestUC
	reviews  *usecase.ReviewUC
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tmpl, err := ParseTemplates(false)
	require.NoError(t, err)

	site := config.DefaultAdmin()
	dir := t.TempDir()
	up := &usecase.ImageUploader{Storage: localfs.New(dir, "/uploads/")}
	f := &fixture{
		company: &usecase.CompanyUC{
			Company:       memory.NewCompanyInfoRepo(),
			Channels:      config.Keys(site.SocialChannels),
			ChannelLimits: config.Limits(site.SocialChannels),
		},
		products: &usecase.ProductUC{
			Products:        memory.NewProductRepo(),
			Uploader:        up,
			AttributeKeys:   config.Keys(site.ProductAttributes),
			AttributeLimits: config.Limits(site.ProductAttributes),
		},
		blog:     &usecase.BlogUC{Posts: memory.NewBlogPostRepo(), Uploader: up},
		requests: &usecase.RequestUC{Requests: memory.NewRequestRepo()},
		reviews:  &usecase.ReviewUC{Reviews: memory.NewReviewRepo()},
	}
	f.h = New(tmpl, site, f.company, f.products, f.blog, f.requests, f.reviews, Options{UploadDir: dir, MediaURL: "/uploads/"})
	return f
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (f *fixture) post(t *testing.T, path string, vals url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	return rec
}

func productValues() url.Values {
	return url.Values{
		"title":           {"Drill"},
		"description":     {"cordless"},
		"guarantee":       {"1y"},
		"region":          {"EU"},
		"price_retail":    {"100"},
		"price_wholesale": {"90"},
		"price_bulk":      {"80"},
		"attr_brand":      {"Acme"},
		"attr_color":      {""},
	}
}

func TestIndexRenders(t *testing.T) {
	f := newFixture(t)
	rec := f.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Админ панель Armstrong")
	assert.Contains(t, body, "/export/products?format=xlsx")
}

func TestCompanyInfoForm(t *testing.T) {
	f := newFixture(t)

	rec := f.get(t, "/company-info")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="social_whatsapp"`)

	rec = f.post(t, "/company-info", url.Values{
		"phone": {"+7 900"}, "email": {"info@armstrong.ru"}, "address": {"Moscow"},
		"social_whatsapp": {"https://wa.me/7900"}, "social_telegram": {" "},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/company-info", rec.Header().Get("Location"))

	c, err := f.company.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"whatsapp": "https://wa.me/7900"},
		jsonfield.StringMap(jsonfield.Decode(c.SocialLinks, jsonfield.Object)))

	rec = f.get(t, "/company-info")
	assert.Contains(t, rec.Body.String(), `value="https://wa.me/7900"`)
}

func TestCompanyInfoFormRejectsBadEmail(t *testing.T) {
	f := newFixture(t)
	rec := f.post(t, "/company-info", url.Values{"phone": {"1"}, "email": {"nope"}, "address": {"x"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "email")

	_, err := f.company.Get(context.Background())
	assert.Error(t, err)
}

func TestProductCreateAndEditKeepsExtraAttributes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	n := func(v int) *int { return &v }
	p, err := f.products.Create(ctx, usecase.ProductInput{
		Title: "Saw", Guarantee: "1y", Region: "EU", Description: "d",
		PriceRetail: n(1), PriceWholesale: n(1), PriceBulk: n(1),
		Attributes: `{"color":"red","voltage":"18V"}`, Images: `["/uploads/a.png"]`,
	})
	require.NoError(t, err)

	rec := f.get(t, "/products/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "voltage: 18V")
	assert.Contains(t, rec.Body.String(), `src="/uploads/a.png"`)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range productValues() {
		require.NoError(t, mw.WriteField(k, vs[0]))
	}
	fw, err := mw.CreateFormFile("upload_images", "b.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/products/1", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = httptest.NewRecorder()
	f.h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	got, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Drill", got.Title)
	assert.Equal(t, map[string]string{"brand": "Acme", "voltage": "18V"},
		jsonfield.StringMap(jsonfield.Decode(got.Attributes, jsonfield.Object)))
	assert.Equal(t, []string{"/uploads/a.png", "/uploads/b.png"},
		jsonfield.StringList(jsonfield.Decode(got.Images, jsonfield.Array)))
}

func TestProductNewValidation(t *testing.T) {
	f := newFixture(t)
	vals := productValues()
	vals.Set("price_bulk", "lots")
	rec := f.post(t, "/products/new", vals)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "price_bulk")

	vals = productValues()
	vals.Set("attr_brand", strings.Repeat("x", 101))
	rec = f.post(t, "/products/new", vals)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = f.post(t, "/products/new", productValues())
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/products/1", rec.Header().Get("Location"))
}

func TestDeleteRedirectsAndMissingIs404(t *testing.T) {
	f := newFixture(t)
	_, err := f.requests.Create(context.Background(), usecase.RequestInput{Name: "Bob", Phone: "1", Comment: "c"})
	require.NoError(t, err)

	rec := f.get(t, "/requests/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bob")

	rec = f.post(t, "/requests/1/delete", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/requests", rec.Header().Get("Location"))

	for _, path := range []string{"/requests/1/delete", "/products/5/delete", "/blog-posts/5/delete", "/reviews/5/delete"} {
		assert.Equal(t, http.StatusNotFound, f.post(t, path, nil).Code, path)
	}
}

func TestReviewEditKeepsCreatedAt(t *testing.T) {
	f := newFixture(t)
	stamp := time.Date(2024, 3, 4, 5, 6, 0, 0, time.UTC)
	f.reviews.Now = func() time.Time { return stamp }

	rec := f.post(t, "/reviews/new", url.Values{"name": {"Ann"}, "review": {"Great"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	f.reviews.Now = func() time.Time { return stamp.Add(48 * time.Hour) }
	rec = f.post(t, "/reviews/1", url.Values{"name": {"Ann"}, "review": {"Fine"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rv, err := f.reviews.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Fine", rv.Review)
	assert.True(t, rv.CreatedAt.Equal(stamp))

	rec = f.get(t, "/reviews")
	assert.Contains(t, rec.Body.String(), "2024-03-04 05:06")
}

func TestBlogPostNewWithoutImages(t *testing.T) {
	f := newFixture(t)
	rec := f.post(t, "/blog-posts/new", url.Values{"title": {"Hello"}, "content": {"World"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	post, err := f.blog.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []any{}, jsonfield.Decode(post.Images, jsonfield.Array))
}

func TestExportDownload(t *testing.T) {
	f := newFixture(t)
	_, err := f.requests.Create(context.Background(), usecase.RequestInput{Name: "Bob", Phone: "1", Comment: "c"})
	require.NoError(t, err)

	rec := f.get(t, "/export/requests?format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "requests-")
	assert.Equal(t, "id,name,phone,comment\n1,Bob,1,c\n", rec.Body.String())

	assert.Equal(t, http.StatusUnprocessableEntity, f.get(t, "/export/requests?format=pdf").Code)
	assert.Equal(t, http.StatusUnprocessableEntity, f.get(t, "/export/orders").Code)
}

func TestProductFormBodyLimit(t *testing.T) {
	f := newFixture(t)
	tmpl, err := ParseTemplates(false)
	require.NoError(t, err)
	h := New(tmpl, config.DefaultAdmin(), f.company, f.products, f.blog, f.requests, f.reviews, Options{MaxUploadBytes: 1024})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range productValues() {
		require.NoError(t, mw.WriteField(k, vs[0]))
	}
	fw, err := mw.CreateFormFile("upload_images", "big.png")
	require.NoError(t, err)
	_, _ = fw.Write(bytes.Repeat([]byte("x"), 64<<10))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/products/new", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	list, err := f.products.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}
