// Package adminserver is the staff console: server-rendered forms over the
// same use cases the catalog API runs on.
package adminserver

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/armstrong/internal/adapters/httpserver"
	"github.com/phenrril/armstrong/internal/config"
	"github.com/phenrril/armstrong/internal/domain"
	"github.com/phenrril/armstrong/internal/export"
	"github.com/phenrril/armstrong/internal/jsonfield"
	"github.com/phenrril/armstrong/internal/usecase"
)

type Options struct {
	UploadDir      string
	MediaURL       string
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

type Server struct {
	mux      *http.ServeMux
	tmpl     *template.Template
	site     config.Admin
	company  *usecase.CompanyUC
	products *usecase.ProductUC
	blog     *usecase.BlogUC
	requests *usecase.RequestUC
	reviews  *usecase.ReviewUC
	exporter *export.Exporter
	opts     Options
	now      func() time.Time
}

func New(tmpl *template.Template, site config.Admin, c *usecase.CompanyUC, p *usecase.ProductUC, b *usecase.BlogUC, rq *usecase.RequestUC, rv *usecase.ReviewUC, opts Options) http.Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 25 << 20
	}
	s := &Server{
		mux: http.NewServeMux(), tmpl: tmpl, site: site,
		company: c, products: p, blog: b, requests: rq, reviews: rv,
		exporter: &export.Exporter{Products: p, Blog: b, Requests: rq, Reviews: rv},
		opts:     opts,
		now:      time.Now,
	}
	s.routes()
	return httpserver.Chain(s.mux,
		httpserver.Timeout(opts.RequestTimeout),
		httpserver.Recovery,
		httpserver.Logging,
		httpserver.RequestID,
	)
}

func (s *Server) routes() {
	if s.opts.UploadDir != "" && strings.HasPrefix(s.opts.MediaURL, "/") {
		s.mux.Handle("GET "+s.opts.MediaURL, http.StripPrefix(s.opts.MediaURL, http.FileServer(http.Dir(s.opts.UploadDir))))
	}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)

	s.mux.HandleFunc("GET /company-info", s.handleCompanyForm)
	s.mux.HandleFunc("POST /company-info", s.handleCompanySave)

	s.mux.HandleFunc("GET /products", s.handleProducts)
	s.mux.HandleFunc("GET /products/new", s.handleProductNew)
	s.mux.HandleFunc("POST /products/new", s.handleProductCreate)
	s.mux.HandleFunc("GET /products/{id}", s.handleProductEdit)
	s.mux.HandleFunc("POST /products/{id}", s.handleProductUpdate)
	s.mux.HandleFunc("POST /products/{id}/delete", s.handleProductDelete)

	s.mux.HandleFunc("GET /blog-posts", s.handleBlogPosts)
	s.mux.HandleFunc("GET /blog-posts/new", s.handleBlogPostNew)
	s.mux.HandleFunc("POST /blog-posts/new", s.handleBlogPostCreate)
	s.mux.HandleFunc("GET /blog-posts/{id}", s.handleBlogPostEdit)
	s.mux.HandleFunc("POST /blog-posts/{id}", s.handleBlogPostUpdate)
	s.mux.HandleFunc("POST /blog-posts/{id}/delete", s.handleBlogPostDelete)

	s.mux.HandleFunc("GET /requests", s.handleRequests)
	s.mux.HandleFunc("GET /requests/{id}", s.handleRequest)
	s.mux.HandleFunc("POST /requests/{id}/delete", s.handleRequestDelete)

	s.mux.HandleFunc("GET /reviews", s.handleReviews)
	s.mux.HandleFunc("GET /reviews/new", s.handleReviewNew)
	s.mux.HandleFunc("POST /reviews/new", s.handleReviewCreate)
	s.mux.HandleFunc("GET /reviews/{id}", s.handleReviewEdit)
	s.mux.HandleFunc("POST /reviews/{id}", s.handleReviewUpdate)
	s.mux.HandleFunc("POST /reviews/{id}/delete", s.handleReviewDelete)

	s.mux.HandleFunc("GET /export/{kind}", s.handleExport)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data map[string]any) {
	data["Site"] = s.site
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log.Error().Err(err).Str("tpl", name).Msg("render")
		http.Error(w, "tpl", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// fail answers a non-form error with a plain text status page.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := httpserver.StatusFor(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Str("request_id", httpserver.RequestIDFrom(r.Context())).Msg("admin request failed")
		http.Error(w, "internal error", code)
		return
	}
	http.Error(w, err.Error(), code)
}

// formError reports whether err should be shown on the form instead of failing the request.
func formError(err error) bool {
	var ve *domain.ValidationError
	return errors.As(err, &ve)
}

func (s *Server) seeOther(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

type section struct {
	Kind   string
	Label  string
	Count  int
	Export bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	company := 0
	if _, err := s.company.Get(ctx); err == nil {
		company = 1
	} else if !errors.Is(err, domain.ErrNotFound) {
		s.fail(w, r, err)
		return
	}
	products, err := s.products.List(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	posts, err := s.blog.List(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	requests, err := s.requests.List(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	reviews, err := s.reviews.List(ctx)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, http.StatusOK, "admin_index.html", map[string]any{
		"Title": s.site.IndexTitle,
		"Sections": []section{
			{Kind: "company-info", Label: "Информация о компании", Count: company},
			{Kind: "products", Label: "Товары", Count: len(products), Export: true},
			{Kind: "blog-posts", Label: "Блог", Count: len(posts), Export: true},
			{Kind: "requests", Label: "Заявки", Count: len(requests), Export: true},
			{Kind: "reviews", Label: "Отзывы", Count: len(reviews), Export: true},
		},
	})
}

// --- company info ---

func (s *Server) handleCompanyForm(w http.ResponseWriter, r *http.Request) {
	c, err := s.company.Get(r.Context())
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.fail(w, r, err)
		return
	}
	s.companyPage(w, http.StatusOK, s.company.FormFor(c), "")
}

func (s *Server) handleCompanySave(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}
	f := usecase.CompanyInfoForm{
		Phone:    strings.TrimSpace(r.FormValue("phone")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		Address:  strings.TrimSpace(r.FormValue("address")),
		Channels: prefixed(r, "social_", config.Keys(s.site.SocialChannels)),
	}
	if _, err := s.company.AdminSave(r.Context(), f); err != nil {
		if formError(err) {
			s.companyPage(w, http.StatusUnprocessableEntity, f, err.Error())
			return
		}
		s.fail(w, r, err)
		return
	}
	s.seeOther(w, r, "/company-info")
}

func (s *Server) companyPage(w http.ResponseWriter, status int, f usecase.CompanyInfoForm, msg string) {
	s.render(w, status, "admin_company.html", map[string]any{
		"Title":    "Информация о компании",
		"Form":     f,
		"Channels": fieldsOf(s.site.SocialChannels, "social_", f.Channels),
		"Error":    msg,
	})
}

// --- products ---

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	list, err := s.products.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, http.StatusOK, "admin_products.html", map[string]any{"Title": "Товары", "Products": list})
}

func (s *Server) handleProductNew(w http.ResponseWriter, r *http.Request) {
	s.productPage(w, http.StatusOK, "/products/new", usecase.ProductForm{}, nil, "")
}

func (s *Server) handleProductEdit(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProduct(w, r)
	if !ok {
		return
	}
	attrs := jsonfield.StringMap(jsonfield.Decode(p.Attributes, jsonfield.Object))
	f := usecase.ProductForm{
		Title:          p.Title,
		Description:    p.Description,
		Guarantee:      p.Guarantee,
		Region:         p.Region,
		PriceRetail:    &p.PriceRetail,
		PriceWholesale: &p.PriceWholesale,
		PriceBulk:      &p.PriceBulk,
		Attributes:     attrs,
	}
	s.productPage(w, http.StatusOK, "/products/"+strconv.FormatUint(uint64(p.ID), 10), f, p, "")
}

func (s *Server) handleProductCreate(w http.ResponseWriter, r *http.Request) {
	s.saveProduct(w, r, nil)
}

func (s *Server) handleProductUpdate(w http.ResponseWriter, r *http.Request) {
	p, ok := s.loadProduct(w, r)
	if !ok {
		return
	}
	s.saveProduct(w, r, p)
}

func (s *Server) saveProduct(w http.ResponseWriter, r *http.Request, existing *domain.Product) {
	var id uint
	action := "/products/new"
	if existing != nil {
		id = existing.ID
		action = "/products/" + strconv.FormatUint(uint64(id), 10)
	}
	if err := s.parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}
	f := usecase.ProductForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: r.FormValue("description"),
		Guarantee:   strings.TrimSpace(r.FormValue("guarantee")),
		Region:      strings.TrimSpace(r.FormValue("region")),
		Attributes:  prefixed(r, "attr_", config.Keys(s.site.ProductAttributes)),
		Uploads:     httpserver.FormUploads(r, "upload_images"),
	}
	var err error
	if f.PriceRetail, err = formInt(r, "price_retail"); err == nil {
		f.PriceWholesale, err = formInt(r, "price_wholesale")
	}
	if err == nil {
		f.PriceBulk, err = formInt(r, "price_bulk")
	}
	if err == nil {
		var saved *domain.Product
		if saved, err = s.products.AdminSave(r.Context(), id, f); err == nil {
			s.seeOther(w, r, "/products/"+strconv.FormatUint(uint64(saved.ID), 10))
			return
		}
	}
	if formError(err) {
		s.productPage(w, http.StatusUnprocessableEntity, action, f, existing, err.Error())
		return
	}
	s.fail(w, r, err)
}

func (s *Server) handleProductDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpserver.PathID(r)
	if err == nil {
		err = s.products.Delete(r.Context(), id)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.seeOther(w, r, "/products")
}

func (s *Server) loadProduct(w http.ResponseWriter, r *http.Request) (*domain.Product, bool) {
	id, err := httpserver.PathID(r)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	p, err := s.products.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return p, true
}

func (s *Server) productPage(w http.ResponseWriter, status int, action string, f usecase.ProductForm, p *domain.Product, msg string) {
	title := "Новый товар"
	var images []string
	extra := map[string]string{}
	if p != nil {
		title = p.Title
		images = jsonfield.StringList(jsonfield.Decode(p.Images, jsonfield.Array))
		curated := map[string]bool{}
		for _, k := range config.Keys(s.site.ProductAttributes) {
			curated[k] = true
		}
		for k, v := range jsonfield.StringMap(jsonfield.Decode(p.Attributes, jsonfield.Object)) {
			if !curated[k] {
				extra[k] = v
			}
		}
	}
	s.render(w, status, "admin_product_form.html", map[string]any{
		"Title":      title,
		"Action":     action,
		"Form":       f,
		"Attributes": fieldsOf(s.site.ProductAttributes, "attr_", f.Attributes),
		"Extra":      extra,
		"Images":     images,
		"Error":      msg,
	})
}

// --- blog posts ---

func (s *Server) handleBlogPosts(w http.ResponseWriter, r *http.Request) {
	list, err := s.blog.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, http.StatusOK, "admin_blog_posts.html", map[string]any{"Title": "Блог", "Posts": list})
}

func (s *Server) handleBlogPostNew(w http.ResponseWriter, r *http.Request) {
	s.blogPage(w, http.StatusOK, "/blog-posts/new", usecase.BlogPostForm{}, nil, "")
}

func (s *Server) handleBlogPostEdit(w http.ResponseWriter, r *http.Request) {
	post, ok := s.loadBlogPost(w, r)
	if !ok {
		return
	}
	f := usecase.BlogPostForm{Title: post.Title, Content: post.Content}
	s.blogPage(w, http.StatusOK, "/blog-posts/"+strconv.FormatUint(uint64(post.ID), 10), f, post, "")
}

func (s *Server) handleBlogPostCreate(w http.ResponseWriter, r *http.Request) {
	s.saveBlogPost(w, r, nil)
}

func (s *Server) handleBlogPostUpdate(w http.ResponseWriter, r *http.Request) {
	post, ok := s.loadBlogPost(w, r)
	if !ok {
		return
	}
	s.saveBlogPost(w, r, post)
}

func (s *Server) saveBlogPost(w http.ResponseWriter, r *http.Request, existing *domain.BlogPost) {
	var id uint
	action := "/blog-posts/new"
	if existing != nil {
		id = existing.ID
		action = "/blog-posts/" + strconv.FormatUint(uint64(id), 10)
	}
	if err := s.parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}
	f := usecase.BlogPostForm{
		Title:   strings.TrimSpace(r.FormValue("title")),
		Content: r.FormValue("content"),
		Uploads: httpserver.FormUploads(r, "upload_images"),
	}
	post, err := s.blog.AdminSave(r.Context(), id, f)
	if err != nil {
		if formError(err) {
			s.blogPage(w, http.StatusUnprocessableEntity, action, f, existing, err.Error())
			return
		}
		s.fail(w, r, err)
		return
	}
	s.seeOther(w, r, "/blog-posts/"+strconv.FormatUint(uint64(post.ID), 10))
}

func (s *Server) handleBlogPostDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpserver.PathID(r)
	if err == nil {
		err = s.blog.Delete(r.Context(), id)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.seeOther(w, r, "/blog-posts")
}

func (s *Server) loadBlogPost(w http.ResponseWriter, r *http.Request) (*domain.BlogPost, bool) {
	id, err := httpserver.PathID(r)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	post, err := s.blog.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return post, true
}

func (s *Server) blogPage(w http.ResponseWriter, status int, action string, f usecase.BlogPostForm, post *domain.BlogPost, msg string) {
	title := "Новая запись"
	var images []string
	if post != nil {
		title = post.Title
		images = jsonfield.StringList(jsonfield.Decode(post.Images, jsonfield.Array))
	}
	s.render(w, status, "admin_blog_form.html", map[string]any{
		"Title":  title,
		"Action": action,
		"Form":   f,
		"Images": images,
		"Error":  msg,
	})
}

// --- requests (read-only) ---

func (s *Server) handleRequests(w http.ResponseWriter, r *http.Request) {
	list, err := s.requests.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, http.StatusOK, "admin_requests.html", map[string]any{"Title": "Заявки", "Requests": list})
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	id, err := httpserver.PathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	req, err := s.requests.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, http.StatusOK, "admin_request.html", map[string]any{"Title": "Заявка №" + strconv.FormatUint(uint64(req.ID), 10), "Request": req})
}

func (s *Server) handleRequestDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpserver.PathID(r)
	if err == nil {
		err = s.requests.Delete(r.Context(), id)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.seeOther(w, r, "/requests")
}

// --- reviews ---

func (s *Server) handleReviews(w http.ResponseWriter, r *http.Request) {
	list, err := s.reviews.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, http.StatusOK, "admin_reviews.html", map[string]any{"Title": "Отзывы", "Reviews": list})
}

func (s *Server) handleReviewNew(w http.ResponseWriter, r *http.Request) {
	s.reviewPage(w, http.StatusOK, "/reviews/new", usecase.ReviewInput{}, nil, "")
}

func (s *Server) handleReviewEdit(w http.ResponseWriter, r *http.Request) {
	id, err := httpserver.PathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	rv, err := s.reviews.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.reviewPage(w, http.StatusOK, "/reviews/"+strconv.FormatUint(uint64(rv.ID), 10), usecase.ReviewInput{Name: rv.Name, Review: rv.Review}, rv, "")
}

func (s *Server) handleReviewCreate(w http.ResponseWriter, r *http.Request) {
	s.saveReview(w, r, 0)
}

func (s *Server) handleReviewUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := httpserver.PathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.saveReview(w, r, id)
}

func (s *Server) saveReview(w http.ResponseWriter, r *http.Request, id uint) {
	if err := s.parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}
	in := usecase.ReviewInput{Name: strings.TrimSpace(r.FormValue("name")), Review: r.FormValue("review")}
	rv, err := s.reviews.AdminSave(r.Context(), id, in)
	if err != nil {
		if formError(err) {
			action := "/reviews/new"
			if id != 0 {
				action = "/reviews/" + strconv.FormatUint(uint64(id), 10)
			}
			s.reviewPage(w, http.StatusUnprocessableEntity, action, in, nil, err.Error())
			return
		}
		s.fail(w, r, err)
		return
	}
	s.seeOther(w, r, "/reviews/"+strconv.FormatUint(uint64(rv.ID), 10))
}

func (s *Server) handleReviewDelete(w http.ResponseWriter, r *http.Request) {
	id, err := httpserver.PathID(r)
	if err == nil {
		err = s.reviews.Delete(r.Context(), id)
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.seeOther(w, r, "/reviews")
}

func (s *Server) reviewPage(w http.ResponseWriter, status int, action string, in usecase.ReviewInput, rv *domain.Review, msg string) {
	title := "Новый отзыв"
	var created *time.Time
	if rv != nil {
		title = rv.Name
		created = &rv.CreatedAt
	}
	s.render(w, status, "admin_review_form.html", map[string]any{
		"Title":     title,
		"Action":    action,
		"Form":      in,
		"CreatedAt": created,
		"Error":     msg,
	})
}

// --- export ---

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := s.exporter.Export(r.Context(), &buf, kind, format); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename="+export.FileName(kind, format, s.now()))
	_, _ = buf.WriteTo(w)
}

// --- form helpers ---

func (s *Server) parseForm(r *http.Request) error {
	return httpserver.ParseForm(r, s.opts.MaxUploadBytes)
}

type field struct {
	Name   string
	Label  string
	Help   string
	MaxLen int
	Value  string
}

func fieldsOf(defs []config.Field, prefix string, values map[string]string) []field {
	out := make([]field, 0, len(defs))
	for _, d := range defs {
		label := d.Label
		if label == "" {
			label = d.Key
		}
		out = append(out, field{Name: prefix + d.Key, Label: label, Help: d.Help, MaxLen: d.MaxLen, Value: values[d.Key]})
	}
	return out
}

// prefixed collects the form fields named prefix+key for each key.
func prefixed(r *http.Request, prefix string, keys []string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		out[k] = strings.TrimSpace(r.FormValue(prefix + k))
	}
	return out
}

// formInt returns nil for a blank field.
func formInt(r *http.Request, key string) (*int, error) {
	text := strings.TrimSpace(r.FormValue(key))
	if text == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return nil, domain.Invalid(key, "value is not a valid integer")
	}
	return &n, nil
}


