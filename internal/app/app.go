package app

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phenrril/armstrong/internal/adapters/adminserver"
	"github.com/phenrril/armstrong/internal/adapters/httpserver"
	"github.com/phenrril/armstrong/internal/adapters/repo/memory"
	"github.com/phenrril/armstrong/internal/adapters/repo/postgres"
	"github.com/phenrril/armstrong/internal/adapters/storage/localfs"
	"github.com/phenrril/armstrong/internal/config"
	"github.com/phenrril/armstrong/internal/domain"
	"github.com/phenrril/armstrong/internal/export"
	"github.com/phenrril/armstrong/internal/usecase"
)

type App struct {
	Cfg  config.Config
	DB   *gorm.DB // nil with the memory driver
	Tmpl *template.Template

	Storage   *localfs.Storage
	Uploader  *usecase.ImageUploader
	CompanyUC *usecase.CompanyUC
	ProductUC *usecase.ProductUC
	BlogUC    *usecase.BlogUC
	RequestUC *usecase.RequestUC
	ReviewUC  *usecase.ReviewUC
	Exporter  *export.Exporter
}

type repos struct {
	company  domain.CompanyInfoRepo
	products domain.ProductRepo
	posts    domain.BlogPostRepo
	requests domain.RequestRepo
	reviews  domain.ReviewRepo
}

// OpenDB connects to Postgres with cfg.DSN. It returns nil for the memory driver.
func OpenDB(cfg config.Config) (*gorm.DB, error) {
	if cfg.DBDriver == "memory" {
		return nil, nil
	}
	level := logger.Warn
	if cfg.IsDev() {
		level = logger.Info
	}
	db, err := gorm.Open(pgdriver.Open(cfg.DSN), &gorm.Config{Logger: logger.Default.LogMode(level)})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

func NewApp(cfg config.Config, db *gorm.DB) (*App, error) {
	var r repos
	if db != nil {
		r = repos{
			company:  postgres.NewCompanyInfoRepo(db),
			products: postgres.NewProductRepo(db),
			posts:    postgres.NewBlogPostRepo(db),
			requests: postgres.NewRequestRepo(db),
			reviews:  postgres.NewReviewRepo(db),
		}
	} else {
		log.Warn().Msg("using in-memory store, data is lost on exit")
		r = repos{
			company:  memory.NewCompanyInfoRepo(),
			products: memory.NewProductRepo(),
			posts:    memory.NewBlogPostRepo(),
			requests: memory.NewRequestRepo(),
			reviews:  memory.NewReviewRepo(),
		}
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}
	storage := localfs.New(cfg.UploadDir, cfg.MediaURL)
	uploader := &usecase.ImageUploader{Storage: storage}

	a := &App{Cfg: cfg, DB: db, Storage: storage, Uploader: uploader}
	a.CompanyUC = &usecase.CompanyUC{
		Company:       r.company,
		Channels:      config.Keys(cfg.Admin.SocialChannels),
		ChannelLimits: config.Limits(cfg.Admin.SocialChannels),
	}
	a.ProductUC = &usecase.ProductUC{
		Products:        r.products,
		Uploader:        uploader,
		AttributeKeys:   config.Keys(cfg.Admin.ProductAttributes),
		AttributeLimits: config.Limits(cfg.Admin.ProductAttributes),
	}
	a.BlogUC = &usecase.BlogUC{Posts: r.posts, Uploader: uploader}
	a.RequestUC = &usecase.RequestUC{Requests: r.requests}
	a.ReviewUC = &usecase.ReviewUC{Reviews: r.reviews}
	a.Exporter = &export.Exporter{Products: a.ProductUC, Blog: a.BlogUC, Requests: a.RequestUC, Reviews: a.ReviewUC}

	tmpl, err := adminserver.ParseTemplates(cfg.IsDev() && templatesOnDisk())
	if err != nil {
		return nil, fmt.Errorf("admin templates: %w", err)
	}
	a.Tmpl = tmpl
	return a, nil
}

func templatesOnDisk() bool {
	_, err := os.Stat("internal/views/admin")
	return err == nil
}

// Ping checks the database. The memory store is always reachable.
func (a *App) Ping(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (a *App) Migrate() error {
	if a.DB == nil {
		return nil
	}
	return postgres.Migrate(a.DB)
}

func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(a.CompanyUC, a.ProductUC, a.BlogUC, a.RequestUC, a.ReviewUC, a.Uploader, httpserver.Options{
		UploadDir:       a.Cfg.UploadDir,
		MediaURL:        a.Cfg.MediaURL,
		MaxUploadBytes:  a.Cfg.MaxUploadBytes,
		RequestTimeout:  a.Cfg.RequestTimeout,
		RateLimitPerMin: a.Cfg.RateLimitPerMin,
		TrustProxy:      a.Cfg.TrustProxy,
		CORSOrigins:     a.Cfg.CORSOrigins,
		Ping:            a.Ping,
	})
}

func (a *App) AdminHandler() http.Handler {
	return adminserver.New(a.Tmpl, a.Cfg.Admin, a.CompanyUC, a.ProductUC, a.BlogUC, a.RequestUC, a.ReviewUC, adminserver.Options{
		UploadDir:      a.Cfg.UploadDir,
		MediaURL:       a.Cfg.MediaURL,
		MaxUploadBytes: a.Cfg.MaxUploadBytes,
		RequestTimeout: a.Cfg.RequestTimeout,
	})
}
