package httpserver

import (
	"time"

	"github.com/phenrril/armstrong/internal/domain"
	"github.com/phenrril/armstrong/internal/jsonfield"
)

// Response shapes. JSON columns always go through jsonfield.Decode so
// clients never see serialized text.

type companyInfoView struct {
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	SocialLinks any    `json:"social_links"`
}

type productView struct {
	ID             uint   `json:"id"`
	Title          string `json:"title"`
	Attributes     any    `json:"attributes"`
	Guarantee      string `json:"guarantee"`
	Region         string `json:"region"`
	PriceRetail    int    `json:"price_retail"`
	PriceWholesale int    `json:"price_wholesale"`
	PriceBulk      int    `json:"price_bulk"`
	Description    string `json:"description"`
	Images         any    `json:"images"`
}

type blogPostView struct {
	ID      uint   `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Images  any    `json:"images"`
}

type requestView struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Comment string `json:"comment"`
}

type reviewView struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Review    string `json:"review"`
	CreatedAt string `json:"created_at"`
}

func companyInfoOf(c *domain.CompanyInfo) companyInfoView {
	return companyInfoView{
		Phone:       c.Phone,
		Email:       c.Email,
		Address:     c.Address,
		SocialLinks: jsonfield.Decode(c.SocialLinks, jsonfield.Object),
	}
}

func productOf(p *domain.Product) productView {
	return productView{
		ID:             p.ID,
		Title:          p.Title,
		Attributes:     jsonfield.Decode(p.Attributes, jsonfield.Object),
		Guarantee:      p.Guarantee,
		Region:         p.Region,
		PriceRetail:    p.PriceRetail,
		PriceWholesale: p.PriceWholesale,
		PriceBulk:      p.PriceBulk,
		Description:    p.Description,
		Images:         jsonfield.Decode(p.Images, jsonfield.Array),
	}
}

func blogPostOf(p *domain.BlogPost) blogPostView {
	return blogPostView{ID: p.ID, Title: p.Title, Content: p.Content, Images: jsonfield.Decode(p.Images, jsonfield.Array)}
}

func requestOf(r *domain.Request) requestView {
	return requestView{ID: r.ID, Name: r.Name, Phone: r.Phone, Comment: r.Comment}
}

func reviewOf(r *domain.Review) reviewView {
	return reviewView{ID: r.ID, Name: r.Name, Review: r.Review, CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339Nano)}
}

func mapAll[T, V any](list []T, fn func(*T) V) []V {
	out := make([]V, 0, len(list))
	for i := range list {
		out = append(out, fn(&list[i]))
	}
	return out
}
