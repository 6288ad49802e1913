package models

import (
	"fmt"

	"github.com/dmitrijs2005/securedoc/internal/common"
)

// RedactionArea is one caller-specified rectangle on one page marked for
// irreversible occlusion. Coordinates are in the page's native coordinate
// space with origin top-left; the engine converts to the PDF bottom-left
// convention when stamping.
type RedactionArea struct {
	PageNumber    int     `json:"pageNumber"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	RedactionCode string  `json:"redactionCode"`
	Description   string  `json:"description,omitempty"`
}

// Validate checks the field-level invariants. Page existence is checked by
// the engine against the actual document.
func (a RedactionArea) Validate() error {
	if a.PageNumber < 1 {
		return fmt.Errorf("%w: pageNumber must be positive, got %d", common.ErrInvalidInput, a.PageNumber)
	}
	if a.X < 0 || a.Y < 0 {
		return fmt.Errorf("%w: area origin must be non-negative, got (%v, %v)", common.ErrInvalidInput, a.X, a.Y)
	}
	if a.Width <= 0 || a.Height <= 0 {
		return fmt.Errorf("%w: area dimensions must be positive, got %vx%v", common.ErrInvalidInput, a.Width, a.Height)
	}
	return nil
}
