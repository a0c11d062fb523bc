// Package pagination computes offset/limit windows and the next/previous
// cursors returned with every list response.
package pagination

import (
	"fmt"

	"github.com/imrishuroy/go-catalog-orders/internal/validation"
)

const (
	DefaultLimit  = 10
	DefaultOffset = 0

	// NoPage marks a missing next or previous page.
	NoPage = -1
)

// Params is the requested window. Limit must be positive and Offset non-negative.
type Params struct {
	Limit  int
	Offset int
}

// Default returns the window used when the client sends no paging parameters.
func Default() Params {
	return Params{Limit: DefaultLimit, Offset: DefaultOffset}
}

// Validate rejects windows the cursor arithmetic is not defined for.
// maxLimit <= 0 disables the upper bound.
func (p Params) Validate(maxLimit int) error {
	fields := map[string]string{}
	if p.Limit <= 0 {
		fields["limit"] = "must be greater than 0"
	} else if maxLimit > 0 && p.Limit > maxLimit {
		fields["limit"] = fmt.Sprintf("must be less than or equal to %d", maxLimit)
	}
	if p.Offset < 0 {
		fields["offset"] = "must be greater than or equal to 0"
	}
	if len(fields) > 0 {
		return &validation.Error{Fields: fields}
	}
	return nil
}

// Page holds the cursors of a window. Next and Previous are offsets or NoPage.
type Page struct {
	Next     int `json:"next"`
	Limit    int `json:"limit"`
	Previous int `json:"previous"`
}

// Compute derives the cursors from the total number of matches. An offset past
// the end is not special-cased: Next is NoPage and Previous still steps back.
func Compute(total int, p Params) Page {
	page := Page{Next: NoPage, Limit: p.Limit, Previous: NoPage}
	// compared without adding so an offset near MaxInt cannot wrap
	if p.Offset < total-p.Limit {
		page.Next = p.Offset + p.Limit
	}
	if p.Offset > 0 {
		page.Previous = max(p.Offset-p.Limit, 0)
	}
	return page
}

// Envelope is the {data, page} shape of every list response.
type Envelope[T any] struct {
	Data []T `json:"data"`
	Page Page `json:"page"`
}

// NewEnvelope wraps a window of results. A nil data slice is replaced with an
// empty one so it encodes as [] rather than null.
func NewEnvelope[T any](data []T, total int, p Params) Envelope[T] {
	if data == nil {
		data = []T{}
	}
	return Envelope[T]{Data: data, Page: Compute(total, p)}
}
