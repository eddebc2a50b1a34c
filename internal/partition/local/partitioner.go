// Package local partitions PDFs in-process. Text is extracted page by page
// with ledongthuc/pdf and split into typed elements; pdfcpu optionally
// validates the document first.
package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/JakeFAU/pdfingest/internal/element"
	"github.com/JakeFAU/pdfingest/internal/hash/sha256"
	"github.com/JakeFAU/pdfingest/internal/pipeline"
)

const defaultContentType = "application/pdf"

// ErrEmptyDocument is returned for zero-length input.
var ErrEmptyDocument = errors.New("empty document")

var disableConfigDir sync.Once

// Options tunes the partitioner.
type Options struct {
	// Validate runs pdfcpu relaxed validation before extraction.
	Validate bool
	// Languages is copied into every element's metadata.
	Languages []string
}

// Partitioner implements pipeline.Partitioner without external services.
type Partitioner struct {
	opts   Options
	hasher *sha256.Hasher
	logger *zap.Logger
}

// New constructs a Partitioner.
func New(opts Options, logger *zap.Logger) *Partitioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts.Languages) == 0 {
		opts.Languages = []string{"eng"}
	}
	if opts.Validate {
		// pdfcpu otherwise writes a config directory under the user's home.
		disableConfigDir.Do(api.DisableConfigDir)
	}
	return &Partitioner{opts: opts, hasher: sha256.New(), logger: logger}
}

// Partition extracts elements in reading order.
func (p *Partitioner) Partition(ctx context.Context, in pipeline.PartitionInput) ([]element.Value, error) {
	if len(in.Data) == 0 {
		return nil, ErrEmptyDocument
	}
	if p.opts.Validate {
		if err := validate(in.Data); err != nil {
			return nil, err
		}
	}
	pages, err := extractPages(ctx, in.Data)
	if err != nil {
		return nil, err
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	elements := make([]element.Value, 0)
	for i, text := range pages {
		pageNumber := i + 1
		for _, b := range segment(text) {
			elements = append(elements, p.newElement(b, in.Filename, contentType, pageNumber, len(elements)))
		}
	}
	p.logger.Debug("pdf partitioned",
		zap.String("filename", in.Filename),
		zap.Int("pages", len(pages)),
		zap.Int("elements", len(elements)),
	)
	return elements, nil
}

func (p *Partitioner) newElement(b block, filename, contentType string, page, index int) element.Value {
	languages := make([]element.Value, len(p.opts.Languages))
	for i, lang := range p.opts.Languages {
		languages[i] = element.String(lang)
	}
	return element.Object(
		element.F("type", element.String(b.Type)),
		element.F("element_id", element.String(p.hasher.ElementID(b.Type, b.Text, filename, page, index))),
		element.F("text", element.String(b.Text)),
		element.F("metadata", element.Object(
			element.F("filename", element.String(filename)),
			element.F("filetype", element.String(contentType)),
			element.F("page_number", element.Int(int64(page))),
			element.F("languages", element.List(languages...)),
		)),
	)
}

func validate(data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validate pdf: %v", r)
		}
	}()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return fmt.Errorf("validate pdf: %w", err)
	}
	return nil
}

// extractPages returns the text of every page with one line per baseline;
// unreadable pages yield an empty string so page numbers stay aligned.
func extractPages(ctx context.Context, data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("read pdf: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	n := reader.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages = append(pages, pageText(reader.Page(i)))
	}
	return pages, nil
}

func pageText(page pdf.Page) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()
	if page.V.IsNull() {
		return ""
	}
	return strings.Join(pageLines(page.Content().Text), "\n")
}
