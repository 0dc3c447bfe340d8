package spaarnelanden

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"github.com/02loveslollipop/spaarnelanden-watcher/services/watcher/internal/models"
)

const (
	scriptTag = "script"
	// The container model is assigned in the eleventh inline script.
	scriptIndex = 10
)

var containerModelPattern = regexp.MustCompile(`var oContainerModel =(.*])`)

// Extractor locates the oContainerModel assignment inside a page and decodes
// its array literal.
type Extractor struct {
	Tag     string
	Index   int
	Pattern *regexp.Regexp
}

// DefaultExtractor matches the current layout of the Spaarnelanden page.
func DefaultExtractor() Extractor {
	return Extractor{Tag: scriptTag, Index: scriptIndex, Pattern: containerModelPattern}
}

// Extract parses the HTML page and returns the raw container entries.
// All failures wrap ErrExtraction.
func (e Extractor) Extract(r io.Reader) ([]models.RawContainer, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %w", ErrExtraction, err)
	}

	elements := doc.Find(e.Tag)
	if elements.Length() <= e.Index {
		return nil, fmt.Errorf("%w: page has %d <%s> elements, need index %d", ErrExtraction, elements.Length(), e.Tag, e.Index)
	}

	return e.ExtractText(elements.Eq(e.Index).Text())
}

// ExtractText runs the marker pattern over script text and decodes the
// captured array.
func (e Extractor) ExtractText(text string) ([]models.RawContainer, error) {
	match := e.Pattern.FindStringSubmatch(text)
	if len(match) < 2 {
		return nil, fmt.Errorf("%w: marker %q not found", ErrExtraction, e.Pattern.String())
	}

	var containers []models.RawContainer
	if err := json.Unmarshal([]byte(match[1]), &containers); err != nil {
		return nil, fmt.Errorf("%w: decode container model: %w", ErrExtraction, err)
	}

	return containers, nil
}
