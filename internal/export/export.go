// Package export renders catalog tables as CSV or XLSX for staff.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/xuri/excelize/v2"

	"github.com/phenrril/armstrong/internal/domain"
	"github.com/phenrril/armstrong/internal/jsonfield"
	"github.com/phenrril/armstrong/internal/usecase"
)

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

// Kinds lists the exportable tables.
var Kinds = []string{"products", "blog-posts", "requests", "reviews"}

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", XLSX:
		return XLSX, nil
	case CSV:
		return CSV, nil
	}
	return "", domain.Invalid("format", "unsupported export format %q", s)
}

func (f Format) ContentType() string {
	if f == CSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func FileName(kind string, f Format, now time.Time) string {
	return fmt.Sprintf("%s-%s.%s", kind, now.UTC().Format("20060102-150405"), f)
}

type ProductRow struct {
	ID             uint   `csv:"id"`
	Title          string `csv:"title"`
	Guarantee      string `csv:"guarantee"`
	Region         string `csv:"region"`
	PriceRetail    int    `csv:"price_retail"`
	PriceWholesale int    `csv:"price_wholesale"`
	PriceBulk      int    `csv:"price_bulk"`
	Attributes     string `csv:"attributes"`
	Images         string `csv:"images"`
	Description    string `csv:"description"`
}

type BlogPostRow struct {
	ID      uint   `csv:"id"`
	Title   string `csv:"title"`
	Content string `csv:"content"`
	Images  string `csv:"images"`
}

type RequestRow struct {
	ID      uint   `csv:"id"`
	Name    string `csv:"name"`
	Phone   string `csv:"phone"`
	Comment string `csv:"comment"`
}

type ReviewRow struct {
	ID        uint   `csv:"id"`
	Name      string `csv:"name"`
	Review    string `csv:"review"`
	CreatedAt string `csv:"created_at"`
}

// Exporter reads a table through the use cases and writes it out.
type Exporter struct {
	Products *usecase.ProductUC
	Blog     *usecase.BlogUC
	Requests *usecase.RequestUC
	Reviews  *usecase.ReviewUC
}

func (e *Exporter) Export(ctx context.Context, w io.Writer, kind string, f Format) error {
	rows, err := e.rows(ctx, kind)
	if err != nil {
		return err
	}
	switch f {
	case CSV:
		return WriteCSV(w, rows)
	case XLSX:
		return WriteXLSX(w, kind, rows)
	}
	return domain.Invalid("format", "unsupported export format %q", f)
}

func (e *Exporter) rows(ctx context.Context, kind string) (any, error) {
	switch kind {
	case "products":
		list, err := e.Products.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]ProductRow, 0, len(list))
		for _, p := range list {
			out = append(out, ProductRow{
				ID: p.ID, Title: p.Title, Guarantee: p.Guarantee, Region: p.Region,
				PriceRetail: p.PriceRetail, PriceWholesale: p.PriceWholesale, PriceBulk: p.PriceBulk,
				Attributes:  attributesText(p.Attributes),
				Images:      imagesText(p.Images),
				Description: p.Description,
			})
		}
		return out, nil
	case "blog-posts":
		list, err := e.Blog.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]BlogPostRow, 0, len(list))
		for _, p := range list {
			out = append(out, BlogPostRow{ID: p.ID, Title: p.Title, Content: p.Content, Images: imagesText(p.Images)})
		}
		return out, nil
	case "requests":
		list, err := e.Requests.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]RequestRow, 0, len(list))
		for _, r := range list {
			out = append(out, RequestRow{ID: r.ID, Name: r.Name, Phone: r.Phone, Comment: r.Comment})
		}
		return out, nil
	case "reviews":
		list, err := e.Reviews.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]ReviewRow, 0, len(list))
		for _, r := range list {
			out = append(out, ReviewRow{ID: r.ID, Name: r.Name, Review: r.Review, CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339)})
		}
		return out, nil
	}
	return nil, domain.Invalid("kind", "unknown export %q", kind)
}

// attributesText renders attributes as "key: value" lines in key order.
func attributesText(raw []byte) string {
	m := jsonfield.StringMap(jsonfield.Decode(raw, jsonfield.Object))
	lines := make([]string, 0, len(m))
	for _, k := range jsonfield.SortedKeys(m) {
		lines = append(lines, k+": "+m[k])
	}
	return strings.Join(lines, "\n")
}

func imagesText(raw []byte) string {
	return strings.Join(jsonfield.StringList(jsonfield.Decode(raw, jsonfield.Array)), "\n")
}

// WriteCSV writes a slice of row structs with a header line. An empty slice
// still gets its header.
func WriteCSV(w io.Writer, rows any) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(rows); err != nil {
		return fmt.Errorf("encode csv header: %w", err)
	}
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// integerColumns returns the csv names of the integer fields of a row slice.
func integerColumns(rows any) map[string]bool {
	typ := reflect.TypeOf(rows)
	for typ.Kind() == reflect.Pointer || typ.Kind() == reflect.Slice || typ.Kind() == reflect.Array {
		typ = typ.Elem()
	}
	out := map[string]bool{}
	if typ.Kind() != reflect.Struct {
		return out
	}
	for i := 0; i < typ.NumField(); i++ {
		fld := typ.Field(i)
		name, _, _ := strings.Cut(fld.Tag.Get("csv"), ",")
		if name == "" || name == "-" {
			continue
		}
		switch fld.Type.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			out[name] = true
		}
	}
	return out
}

// WriteXLSX writes rows to a single sheet named after kind. Columns backed by
// integer fields are stored as numbers, everything else stays text.
func WriteXLSX(w io.Writer, kind string, rows any) error {
	ints := integerColumns(rows)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return err
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		return fmt.Errorf("read back csv: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := kind
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return err
	}
	var numeric []bool
	for i, rec := range records {
		if i == 0 {
			numeric = make([]bool, len(rec))
			for j, name := range rec {
				numeric[j] = ints[name]
			}
		}
		cells := make([]any, len(rec))
		for j, v := range rec {
			cells[j] = v
			if i > 0 && numeric[j] {
				if n, err := strconv.Atoi(v); err == nil {
					cells[j] = n
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return err
		}
	}
	if len(records) > 0 {
		if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return err
		}
	}
	_, err = f.WriteTo(w)
	return err
}
