// Package pdf implements the redaction engine: it stamps opaque rectangles
// over caller-specified page regions and re-serializes the document.
//
// The guarantee is visual occlusion at the rendering layer. The engine does
// NOT strip the text runs or object streams underneath a stamped region, so
// the underlying content may still be extractable from the output bytes.
// Deployments that need true content removal must post-process the output
// accordingly.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/dmitrijs2005/securedoc/internal/common"
	"github.com/dmitrijs2005/securedoc/internal/logging"
	"github.com/dmitrijs2005/securedoc/internal/server/models"
)

// Engine applies redaction areas to PDF documents.
type Engine struct {
	conf   *model.Configuration
	logger logging.Logger
}

// NewEngine returns an Engine using relaxed validation, which accepts the
// slightly out-of-spec documents real-world scanners produce.
func NewEngine(l logging.Logger) *Engine {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Engine{conf: conf, logger: l.With("module", "redaction_engine")}
}

// PageCount parses b and returns its page count. A parse failure is
// reported as common.ErrMalformedDocument.
func (e *Engine) PageCount(b []byte) (int, error) {
	n, err := api.PageCount(bytes.NewReader(b), e.conf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrMalformedDocument, err)
	}
	return n, nil
}

// Apply stamps one opaque rectangle per area, in input order, and returns
// the re-serialized document. Areas whose pageNumber exceeds the page count
// are skipped with a warning; they never fail the operation. Any parse or
// serialize failure aborts the whole operation so that a partial result can
// never be persisted.
//
// Caller coordinates use a top-left origin; PDF uses bottom-left, so the
// vertical coordinate is flipped against the page height.
func (e *Engine) Apply(b []byte, areas []models.RedactionArea) ([]byte, error) {
	ctx := context.Background()

	pageCount, err := api.PageCount(bytes.NewReader(b), e.conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedDocument, err)
	}
	dims, err := api.PageDims(bytes.NewReader(b), e.conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedDocument, err)
	}

	stamps := map[int][]*model.Watermark{}
	applied := 0

	for i, area := range areas {
		if area.PageNumber < 1 || area.PageNumber > pageCount {
			e.logger.Warn(ctx, "skipping redaction area, page does not exist",
				"area", i+1, "page", area.PageNumber, "pages", pageCount)
			continue
		}

		pageHeight := dims[area.PageNumber-1].Height
		nativeY := pageHeight - area.Y - area.Height

		box, err := e.rectangleStamp(area.Width, area.Height, area.X, nativeY)
		if err != nil {
			return nil, err
		}
		stamps[area.PageNumber] = append(stamps[area.PageNumber], box)

		if area.Description != "" {
			label, err := e.labelStamp(area, nativeY)
			if err != nil {
				return nil, err
			}
			stamps[area.PageNumber] = append(stamps[area.PageNumber], label)
		}
		applied++
	}

	if applied == 0 {
		// Nothing to stamp: all areas referenced missing pages. The
		// document is returned unchanged.
		return b, nil
	}

	var out bytes.Buffer
	if err := api.AddWatermarksSliceMap(bytes.NewReader(b), &out, stamps, e.conf); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedDocument, err)
	}
	return out.Bytes(), nil
}

// rectangleStamp builds an opaque black image stamp of exactly w x h points
// anchored at (x, y) in PDF coordinates (bottom-left origin).
func (e *Engine) rectangleStamp(w, h, x, y float64) (*model.Watermark, error) {
	img := image.NewRGBA(image.Rect(0, 0, int(math.Ceil(w)), int(math.Ceil(h))))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encoding stamp image: %v", common.ErrInternal, err)
	}

	desc := fmt.Sprintf("position:bl, offset:%.2f %.2f, scalefactor:1 abs, rotation:0, opacity:1", x, y)
	wm, err := api.ImageWatermarkForReader(&buf, desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("%w: building stamp: %v", common.ErrInternal, err)
	}
	return wm, nil
}

// labelStamp builds the small contrasting label rendered inside a stamped
// rectangle for audit readability. Cosmetic only.
func (e *Engine) labelStamp(area models.RedactionArea, nativeY float64) (*model.Watermark, error) {
	text := fmt.Sprintf("[REDACTED: %s]", area.Description)
	desc := fmt.Sprintf(
		"fontname:Helvetica, points:8, position:bl, offset:%.2f %.2f, scalefactor:1 abs, rotation:0, fillcolor:#ffffff",
		area.X+5, nativeY+area.Height/2)
	wm, err := api.TextWatermark(text, desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("%w: building label: %v", common.ErrInternal, err)
	}
	return wm, nil
}
