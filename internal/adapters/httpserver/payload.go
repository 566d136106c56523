package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/phenrril/armstrong/internal/domain"
)

// payload is a request body read as either form fields or a JSON object,
// exposed through the same field names.
type payload struct {
	form  url.Values
	json  map[string]json.RawMessage
	files map[string][]*multipart.FileHeader
}

func readPayload(r *http.Request, maxBytes int64) (*payload, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var m map[string]json.RawMessage
		if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBytes)).Decode(&m); err != nil {
			return nil, bodyError(err, "invalid JSON")
		}
		return &payload{json: m}, nil
	}
	if err := ParseForm(r, maxBytes); err != nil {
		return nil, err
	}
	if r.MultipartForm != nil {
		return &payload{form: r.MultipartForm.Value, files: r.MultipartForm.File}, nil
	}
	return &payload{form: r.PostForm}, nil
}

// ParseForm parses a urlencoded or multipart body. The whole body, files
// included, is capped at maxBytes.
func ParseForm(r *http.Request, maxBytes int64) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes)
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxBytes); err != nil {
			return bodyError(err, "invalid multipart form")
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return bodyError(err, "invalid form")
	}
	return nil
}

func bodyError(err error, msg string) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return fmt.Errorf("request body exceeds %d bytes: %w", mbe.Limit, mbe)
	}
	return domain.Invalid("body", "%s: %v", msg, err)
}

// str returns a scalar text field. JSON strings are unquoted, other JSON
// scalars are kept as their literal text.
func (p *payload) str(key string) string {
	if p.json != nil {
		raw, ok := p.json[key]
		if !ok {
			return ""
		}
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
		if string(raw) == "null" {
			return ""
		}
		return string(raw)
	}
	return p.form.Get(key)
}

// integer returns nil when the field is absent and a ValidationError when it
// is present but not an integer.
func (p *payload) integer(key string) (*int, error) {
	text := strings.TrimSpace(p.str(key))
	if text == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return nil, domain.Invalid(key, "value is not a valid integer")
	}
	return &n, nil
}

// raw returns a nested field as received: a string for forms, the raw JSON
// for JSON bodies, nil when absent.
func (p *payload) raw(key string) any {
	if p.json != nil {
		v, ok := p.json[key]
		if !ok || string(v) == "null" {
			return nil
		}
		return v
	}
	if _, ok := p.form[key]; !ok {
		return nil
	}
	return p.form.Get(key)
}

// uploads normalizes single and multiple file submissions under keys into one list.
func (p *payload) uploads(keys ...string) []domain.Upload {
	var out []domain.Upload
	for _, k := range keys {
		out = append(out, toUploads(p.files[k])...)
	}
	return out
}

func toUploads(fhs []*multipart.FileHeader) []domain.Upload {
	out := make([]domain.Upload, 0, len(fhs))
	for _, fh := range fhs {
		fh := fh
		out = append(out, domain.Upload{
			Filename: fh.Filename,
			Size:     fh.Size,
			Open:     func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return out
}

// FormUploads returns the files posted under key once ParseForm has run.
func FormUploads(r *http.Request, key string) []domain.Upload {
	if r.MultipartForm == nil {
		return nil
	}
	return toUploads(r.MultipartForm.File[key])
}

// PathID reads the {id} path segment.
func PathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, domain.Invalid("id", "value is not a valid integer")
	}
	return uint(id), nil
}

var errNoFile = errors.New("no file in request")
