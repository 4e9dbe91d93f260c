// Package transfer moves whole catalogs in and out of files. JSON matches the
// stored layout; CSV and YAML are for spreadsheets and hand-written fixtures.
package transfer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/catalog-editor/internal/domain"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

var ErrUnknownFormat = errors.New("unknown transfer format")

func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case FormatJSON, FormatCSV, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, raw)
	}
}

// FormatFromPath guesses the format from the file extension and falls back
// to JSON.
func FormatFromPath(path string) Format {
	if f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), ".")); err == nil {
		return f
	}
	return FormatJSON
}

// record is the flat row layout shared by CSV and YAML.
type record struct {
	ID          int64   `csv:"id" yaml:"id,omitempty"`
	Title       string  `csv:"title" yaml:"title"`
	Price       float64 `csv:"price" yaml:"price"`
	Image       string  `csv:"image" yaml:"image"`
	Category    string  `csv:"category" yaml:"category"`
	Description string  `csv:"description" yaml:"description,omitempty"`
}

func toRecords(products []domain.Product) []*record {
	out := make([]*record, 0, len(products))
	for _, p := range products {
		out = append(out, &record{
			ID:          p.ID,
			Title:       p.Title,
			Price:       p.Price,
			Image:       p.Image,
			Category:    p.Category,
			Description: p.Description,
		})
	}
	return out
}

func fromRecords(rows []*record) []domain.Product {
	out := make([]domain.Product, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		out = append(out, domain.Product{
			ID:          r.ID,
			Title:       r.Title,
			Price:       r.Price,
			Image:       r.Image,
			Category:    r.Category,
			Description: r.Description,
		})
	}
	return out
}

// Export writes products in insertion order.
func Export(w io.Writer, format Format, products []domain.Product) error {
	if products == nil {
		products = []domain.Product{}
	}
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(products)
	case FormatCSV:
		return gocsv.Marshal(toRecords(products), w)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(toRecords(products)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Import decodes products. Fields are not validated here; the catalog
// service validates every item before writing.
func Import(r io.Reader, format Format) ([]domain.Product, error) {
	switch format {
	case FormatJSON:
		var products []domain.Product
		if err := json.NewDecoder(r).Decode(&products); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		if products == nil {
			products = []domain.Product{}
		}
		return products, nil
	case FormatCSV:
		var rows []*record
		if err := gocsv.Unmarshal(r, &rows); err != nil {
			if errors.Is(err, gocsv.ErrEmptyCSVFile) {
				return []domain.Product{}, nil
			}
			return nil, fmt.Errorf("decode csv: %w", err)
		}
		return fromRecords(rows), nil
	case FormatYAML:
		var rows []*record
		if err := yaml.NewDecoder(r).Decode(&rows); err != nil {
			if errors.Is(err, io.EOF) {
				return []domain.Product{}, nil
			}
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
		return fromRecords(rows), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
