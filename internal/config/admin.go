package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Admin is the static admin console configuration: site titles and the
// discrete form fields that map onto the JSON columns.
type Admin struct {
	SiteHeader        string  `yaml:"site_header"`
	SiteTitle         string  `yaml:"site_title"`
	IndexTitle        string  `yaml:"index_title"`
	ProductAttributes []Field `yaml:"product_attributes"`
	SocialChannels    []Field `yaml:"social_channels"`
}

type Field struct {
	Key    string `yaml:"key"`
	Label  string `yaml:"label"`
	Help   string `yaml:"help"`
	MaxLen int    `yaml:"max_length"`
}

func DefaultAdmin() Admin {
	return Admin{
		SiteHeader: "Админ панель Armstrong",
		SiteTitle:  "Armstrong Admin",
		IndexTitle: "Добро пожаловать в админ панель",
		ProductAttributes: []Field{
			{Key: "brand", Label: "Бренд", Help: "Производитель товара", MaxLen: 100},
			{Key: "model", Label: "Модель", Help: "Модель товара", MaxLen: 100},
			{Key: "color", Label: "Цвет", Help: "Цвет товара", MaxLen: 50},
			{Key: "size", Label: "Размер", Help: "Размер товара", MaxLen: 50},
			{Key: "weight", Label: "Вес", Help: "Вес товара", MaxLen: 50},
			{Key: "material", Label: "Материал", Help: "Материал изготовления", MaxLen: 100},
			{Key: "country", Label: "Страна производства", Help: "Страна производства товара", MaxLen: 100},
			{Key: "article", Label: "Артикул", Help: "Артикул товара", MaxLen: 100},
		},
		SocialChannels: []Field{
			{Key: "whatsapp", Label: "WhatsApp", Help: "Ссылка на WhatsApp", MaxLen: 200},
			{Key: "instagram", Label: "Instagram", Help: "Ссылка на Instagram", MaxLen: 200},
			{Key: "telegram", Label: "Telegram", Help: "Ссылка на Telegram", MaxLen: 200},
			{Key: "facebook", Label: "Facebook", Help: "Ссылка на Facebook", MaxLen: 200},
			{Key: "youtube", Label: "YouTube", Help: "Ссылка на YouTube", MaxLen: 200},
		},
	}
}

// LoadAdmin overlays the YAML file at path on DefaultAdmin. Empty path means defaults.
func LoadAdmin(path string) (Admin, error) {
	a := DefaultAdmin()
	if path == "" {
		return a, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return a, fmt.Errorf("admin config: %w", err)
	}
	var file Admin
	if err := yaml.Unmarshal(b, &file); err != nil {
		return a, fmt.Errorf("admin config %s: %w", path, err)
	}
	if file.SiteHeader != "" {
		a.SiteHeader = file.SiteHeader
	}
	if file.SiteTitle != "" {
		a.SiteTitle = file.SiteTitle
	}
	if file.IndexTitle != "" {
		a.IndexTitle = file.IndexTitle
	}
	if len(file.ProductAttributes) > 0 {
		a.ProductAttributes = file.ProductAttributes
	}
	if len(file.SocialChannels) > 0 {
		a.SocialChannels = file.SocialChannels
	}
	for _, f := range append(append([]Field{}, a.ProductAttributes...), a.SocialChannels...) {
		if f.Key == "" {
			return a, fmt.Errorf("admin config %s: field without key", path)
		}
	}
	return a, nil
}

// Keys returns the field keys in declaration order.
func Keys(fields []Field) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Key)
	}
	return out
}

// Limits returns the max length per key, skipping unlimited fields.
func Limits(fields []Field) map[string]int {
	out := make(map[string]int, len(fields))
	for _, f := range fields {
		if f.MaxLen > 0 {
			out[f.Key] = f.MaxLen
		}
	}
	return out
}
