package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/armstrong/internal/domain"
	"github.com/phenrril/armstrong/internal/usecase"
)

type Options struct {
	UploadDir       string
	MediaURL        string
	MaxUploadBytes  int64
	RequestTimeout  time.Duration
	RateLimitPerMin int
	TrustProxy      bool
	CORSOrigins     []string
	// Ping reports store health for GET /health. Nil means always healthy.
	Ping func(context.Context) error
}

// Server is the catalog REST API consumed by the storefront.
type Server struct {
	mux      *http.ServeMux
	company  *usecase.CompanyUC
	products *usecase.ProductUC
	blog     *usecase.BlogUC
	requests *usecase.RequestUC
	reviews  *usecase.ReviewUC
	uploader *usecase.ImageUploader
	opts     Options
}

func New(c *usecase.CompanyUC, p *usecase.ProductUC, b *usecase.BlogUC, rq *usecase.RequestUC, rv *usecase.ReviewUC, up *usecase.ImageUploader, opts Options) http.Handler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 25 << 20
	}
	s := &Server{mux: http.NewServeMux(), company: c, products: p, blog: b, requests: rq, reviews: rv, uploader: up, opts: opts}
	s.routes()
	return Chain(s.mux,
		Timeout(opts.RequestTimeout),
		RateLimit(opts.RateLimitPerMin, opts.TrustProxy),
		CORS(opts.CORSOrigins),
		Recovery,
		Logging,
		RequestID,
	)
}

func (s *Server) routes() {
	if s.opts.UploadDir != "" && strings.HasPrefix(s.opts.MediaURL, "/") {
		s.mux.Handle("GET "+s.opts.MediaURL, http.StripPrefix(s.opts.MediaURL, http.FileServer(http.Dir(s.opts.UploadDir))))
	}

	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /upload-image", s.handleUploadImage)

	s.mux.HandleFunc("POST /company-info", s.handleCompanyInfoReplace)
	s.mux.HandleFunc("GET /company-info", s.handleCompanyInfoGet)

	s.mux.HandleFunc("POST /add-product", s.handleProductCreate)
	s.mux.HandleFunc("GET /products", s.handleProductList)
	s.mux.HandleFunc("GET /products/{id}", s.handleProductGet)
	s.mux.HandleFunc("DELETE /products/{id}", s.handleProductDelete)
	s.mux.HandleFunc("POST /products/{id}/images", s.handleProductImages)

	s.mux.HandleFunc("POST /add-blog-post", s.handleBlogPostCreate)
	s.mux.HandleFunc("GET /blog-posts", s.handleBlogPostList)
	s.mux.HandleFunc("GET /blog-posts/{id}", s.handleBlogPostGet)
	s.mux.HandleFunc("DELETE /blog-posts/{id}", s.handleBlogPostDelete)
	s.mux.HandleFunc("POST /blog-posts/{id}/images", s.handleBlogPostImages)

	s.mux.HandleFunc("POST /add-request", s.handleRequestCreate)
	s.mux.HandleFunc("GET /requests", s.handleRequestList)
	s.mux.HandleFunc("GET /requests/{id}", s.handleRequestGet)
	s.mux.HandleFunc("DELETE /requests/{id}", s.handleRequestDelete)

	s.mux.HandleFunc("POST /add-review", s.handleReviewCreate)
	s.mux.HandleFunc("GET /reviews", s.handleReviewList)
	s.mux.HandleFunc("GET /reviews/{id}", s.handleReviewGet)
	s.mux.HandleFunc("DELETE /reviews/{id}", s.handleReviewDelete)
}

var statusOK = map[string]any{"status": "ok"}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"message": "API is running"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ping != nil {
		if err := s.opts.Ping(r.Context()); err != nil {
			log.Warn().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	p, err := readPayload(r, s.opts.MaxUploadBytes)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	files := p.uploads("file")
	if len(files) == 0 {
		fail(w, r, domain.Invalid("file", "%v", errNoFile), "")
		return
	}
	path, err := s.uploader.StoreOne(r.Context(), files[0])
	if err != nil {
		fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"path": path})
}

// --- company info ---

func (s *Server) handleCompanyInfoReplace(w http.ResponseWriter, r *http.Request) {
	p, err := readPayload(r, s.opts.MaxUploadBytes)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	in := usecase.CompanyInfoInput{
		Phone:       p.str("phone"),
		Email:       p.str("email"),
		Address:     p.str("address"),
		SocialLinks: p.raw("social_links"),
	}
	if _, err := s.company.Replace(r.Context(), in); err != nil {
		fail(w, r, err, "Company info")
		return
	}
	writeJSON(w, http.StatusOK, statusOK)
}

func (s *Server) handleCompanyInfoGet(w http.ResponseWriter, r *http.Request) {
	c, err := s.company.Get(r.Context())
	if err != nil {
		fail(w, r, err, "Company info")
		return
	}
	writeJSON(w, http.StatusOK, companyInfoOf(c))
}

// --- products ---

func (s *Server) handleProductCreate(w http.ResponseWriter, r *http.Request) {
	p, err := readPayload(r, s.opts.MaxUploadBytes)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	in := usecase.ProductInput{
		Title:       p.str("title"),
		Guarantee:   p.str("guarantee"),
		Region:      p.str("region"),
		Description: p.str("description"),
		Attributes:  p.raw("attributes"),
		Images:      p.raw("images"),
		Uploads:     p.uploads("upload_images"),
	}
	for _, f := range []struct {
		key string
		dst **int
	}{
		{"price_retail", &in.PriceRetail},
		{"price_wholesale", &in.PriceWholesale},
		{"price_bulk", &in.PriceBulk},
	} {
		if *f.dst, err = p.integer(f.key); err != nil {
			fail(w, r, err, "")
			return
		}
	}
	prod, err := s.products.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err, "Product")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "product_id": prod.ID})
}

func (s *Server) handleProductList(w http.ResponseWriter, r *http.Request) {
	list, err := s.products.List(r.Context())
	if err != nil {
		fail(w, r, err, "Product")
		return
	}
	writeJSON(w, http.StatusOK, mapAll(list, productOf))
}

func (s *Server) handleProductGet(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	p, err := s.products.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err, "Product")
		return
	}
	writeJSON(w, http.StatusOK, productOf(p))
}

func (s *Server) handleProductDelete(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	if err := s.products.Delete(r.Context(), id); err != nil {
		fail(w, r, err, "Product")
		return
	}
	writeJSON(w, http.StatusOK, statusOK)
}

func (s *Server) handleProductImages(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	p, err := readPayload(r, s.opts.MaxUploadBytes)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	prod, err := s.products.AddImages(r.Context(), id, p.uploads("upload_images", "file"))
	if err != nil {
		fail(w, r, err, "Product")
		return
	}
	writeJSON(w, http.StatusOK, productOf(prod))
}

// --- blog posts ---

func (s *Server) handleBlogPostCreate(w http.ResponseWriter, r *http.Request) {
	p, err := readPayload(r, s.opts.MaxUploadBytes)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	post, err := s.blog.Create(r.Context(), usecase.BlogPostInput{
		Title:   p.str("title"),
		Content: p.str("content"),
		Images:  p.raw("images"),
		Uploads: p.uploads("upload_images"),
	})
	if err != nil {
		fail(w, r, err, "Blog post")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "blog_post_id": post.ID})
}

func (s *Server) handleBlogPostList(w http.ResponseWriter, r *http.Request) {
	list, err := s.blog.List(r.Context())
	if err != nil {
		fail(w, r, err, "Blog post")
		return
	}
	writeJSON(w, http.StatusOK, mapAll(list, blogPostOf))
}

func (s *Server) handleBlogPostGet(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	post, err := s.blog.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err, "Blog post")
		return
	}
	writeJSON(w, http.StatusOK, blogPostOf(post))
}

func (s *Server) handleBlogPostDelete(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	if err := s.blog.Delete(r.Context(), id); err != nil {
		fail(w, r, err, "Blog post")
		return
	}
	writeJSON(w, http.StatusOK, statusOK)
}

func (s *Server) handleBlogPostImages(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	p, err := readPayload(r, s.opts.MaxUploadBytes)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	post, err := s.blog.AddImages(r.Context(), id, p.uploads("upload_images", "file"))
	if err != nil {
		fail(w, r, err, "Blog post")
		return
	}
	writeJSON(w, http.StatusOK, blogPostOf(post))
}

// --- requests ---

func (s *Server) handleRequestCreate(w http.ResponseWriter, r *http.Request) {
	p, err := readPayload(r, s.opts.MaxUploadBytes)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	req, err := s.requests.Create(r.Context(), usecase.RequestInput{
		Name:    p.str("name"),
		Phone:   p.str("phone"),
		Comment: p.str("comment"),
	})
	if err != nil {
		fail(w, r, err, "Request")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "request_id": req.ID})
}

func (s *Server) handleRequestList(w http.ResponseWriter, r *http.Request) {
	list, err := s.requests.List(r.Context())
	if err != nil {
		fail(w, r, err, "Request")
		return
	}
	writeJSON(w, http.StatusOK, mapAll(list, requestOf))
}

func (s *Server) handleRequestGet(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	req, err := s.requests.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err, "Request")
		return
	}
	writeJSON(w, http.StatusOK, requestOf(req))
}

func (s *Server) handleRequestDelete(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	if err := s.requests.Delete(r.Context(), id); err != nil {
		fail(w, r, err, "Request")
		return
	}
	writeJSON(w, http.StatusOK, statusOK)
}

// --- reviews ---

func (s *Server) handleReviewCreate(w http.ResponseWriter, r *http.Request) {
	p, err := readPayload(r, s.opts.MaxUploadBytes)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	rv, err := s.reviews.Create(r.Context(), usecase.ReviewInput{Name: p.str("name"), Review: p.str("review")})
	if err != nil {
		fail(w, r, err, "Review")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "review_id": rv.ID})
}

func (s *Server) handleReviewList(w http.ResponseWriter, r *http.Request) {
	list, err := s.reviews.List(r.Context())
	if err != nil {
		fail(w, r, err, "Review")
		return
	}
	writeJSON(w, http.StatusOK, mapAll(list, reviewOf))
}

func (s *Server) handleReviewGet(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	rv, err := s.reviews.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err, "Review")
		return
	}
	writeJSON(w, http.StatusOK, reviewOf(rv))
}

func (s *Server) handleReviewDelete(w http.ResponseWriter, r *http.Request) {
	id, err := PathID(r)
	if err != nil {
		fail(w, r, err, "")
		return
	}
	if err := s.reviews.Delete(r.Context(), id); err != nil {
		fail(w, r, err, "Review")
		return
	}
	writeJSON(w, http.StatusOK, statusOK)
}
