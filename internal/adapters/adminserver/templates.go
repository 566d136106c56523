package adminserver

import (
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/phenrril/armstrong/internal/jsonfield"
	"github.com/phenrril/armstrong/internal/views"
)

var funcMap = template.FuncMap{
	"img": func(u string) string {
		s := strings.TrimSpace(u)
		if s == "" {
			return s
		}
		if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") && !strings.HasPrefix(s, "/") {
			s = "/" + s
		}
		return strings.ReplaceAll(s, " ", "%20")
	},
	"deref": func(n *int) string {
		if n == nil {
			return ""
		}
		return strconv.Itoa(*n)
	},
	"preview": func(s string, n int) string {
		r := []rune(s)
		if len(r) <= n {
			return s
		}
		return string(r[:n]) + "..."
	},
	"images": func(raw []byte) []string {
		return jsonfield.StringList(jsonfield.Decode(raw, jsonfield.Array))
	},
	"date": func(v any) string {
		switch t := v.(type) {
		case time.Time:
			return t.UTC().Format("2006-01-02 15:04")
		case *time.Time:
			if t != nil {
				return t.UTC().Format("2006-01-02 15:04")
			}
		}
		return ""
	},
}

// ParseTemplates loads the admin templates. In dev they are read from disk so
// edits show up on restart without a rebuild.
func ParseTemplates(dev bool) (*template.Template, error) {
	if dev {
		return template.New("admin").Funcs(funcMap).ParseGlob("internal/views/admin/*.html")
	}
	return template.New("admin").Funcs(funcMap).ParseFS(views.FS, "admin/*.html")
}
