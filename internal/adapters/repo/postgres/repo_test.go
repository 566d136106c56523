package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/datatypes"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/phenrril/armstrong/internal/domain"
	"github.com/phenrril/armstrong/internal/jsonfield"
)

// RepoSuite runs against a real database named by TEST_DB_DSN and is skipped otherwise.
type RepoSuite struct {
	suite.Suite
	db  *gorm.DB
	ctx context.Context
}

func TestRepoSuite(t *testing.T) {
	if os.Getenv("TEST_DB_DSN") == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	suite.Run(t, new(RepoSuite))
}

func (s *RepoSuite) SetupSuite() {
	s.ctx = context.Background()
	db, err := gorm.Open(pgdriver.Open(os.Getenv("TEST_DB_DSN")), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	s.Require().NoError(err)
	s.db = db
	s.Require().NoError(Migrate(db))
}

func (s *RepoSuite) SetupTest() {
	s.Require().NoError(s.db.Exec("TRUNCATE company_info, products, blog_posts, requests, reviews RESTART IDENTITY").Error)
}

func (s *RepoSuite) TestProductRoundTripAndAppend() {
	repo := NewProductRepo(s.db)
	attrs, _ := jsonfield.Marshal(map[string]any{"brand": "Acme", "Освещение": "Лампы"})
	images, _ := jsonfield.Marshal([]string{"/uploads/a.jpg"})
	p := &domain.Product{Title: "Lamp", Guarantee: "12 мес", Region: "Кыргызстан", PriceRetail: 100, PriceWholesale: 90, PriceBulk: 80, Description: "d", Attributes: attrs, Images: images}
	s.Require().NoError(repo.Create(s.ctx, p))
	s.Require().NotZero(p.ID)

	got, err := repo.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(map[string]any{"brand": "Acme", "Освещение": "Лампы"}, jsonfield.Decode(got.Attributes, jsonfield.Object))

	updated, err := repo.AppendImages(s.ctx, p.ID, []string{"/uploads/b.jpg", "/uploads/c.jpg"})
	s.Require().NoError(err)
	s.Equal([]string{"/uploads/a.jpg", "/uploads/b.jpg", "/uploads/c.jpg"}, jsonfield.StringList(jsonfield.Decode(updated.Images, jsonfield.Array)))

	s.Require().NoError(repo.Delete(s.ctx, p.ID))
	s.ErrorIs(repo.Delete(s.ctx, p.ID), domain.ErrNotFound)
	_, err = repo.FindByID(s.ctx, p.ID)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *RepoSuite) TestDoubleEncodedColumnStillDecodes() {
	repo := NewBlogPostRepo(s.db)
	post := &domain.BlogPost{Title: "t", Content: "c", Images: datatypes.JSON(`"[\"/uploads/x.jpg\"]"`)}
	s.Require().NoError(repo.Create(s.ctx, post))

	got, err := repo.FindByID(s.ctx, post.ID)
	s.Require().NoError(err)
	s.Equal([]any{"/uploads/x.jpg"}, jsonfield.Decode(got.Images, jsonfield.Array))
}

func (s *RepoSuite) TestCompanyInfoReplaceKeepsOneRow() {
	repo := NewCompanyInfoRepo(s.db)
	_, err := repo.Get(s.ctx)
	s.ErrorIs(err, domain.ErrNotFound)

	s.Require().NoError(repo.Replace(s.ctx, &domain.CompanyInfo{Phone: "1", Email: "a@b.kg", Address: "x"}))
	s.Require().NoError(repo.Replace(s.ctx, &domain.CompanyInfo{Phone: "2", Email: "c@d.kg", Address: "y"}))

	var count int64
	s.Require().NoError(s.db.Model(&domain.CompanyInfo{}).Count(&count).Error)
	s.EqualValues(1, count)

	got, err := repo.Get(s.ctx)
	s.Require().NoError(err)
	s.Equal("2", got.Phone)
}

func (s *RepoSuite) TestListKeepsInsertionOrder() {
	repo := NewReviewRepo(s.db)
	for _, n := range []string{"Ann", "Bob", "Cid"} {
		s.Require().NoError(repo.Create(s.ctx, &domain.Review{Name: n, Review: "ok"}))
	}
	list, err := repo.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal("Ann", list[0].Name)
	s.False(list[0].CreatedAt.IsZero())
}
