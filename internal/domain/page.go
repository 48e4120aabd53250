package domain

import "math"

const (
	DefaultPageSize = 10
	MinPageSize     = 10
	MaxPageSize     = 30
)

// PageRequest selects a zero-based page of a listing.
type PageRequest struct {
	Page int
	Size int
}

// NewPageRequest returns the first page with the default size.
func NewPageRequest() PageRequest {
	return PageRequest{Page: 0, Size: DefaultPageSize}
}

// Validate enforces page >= 0 and size within [MinPageSize, MaxPageSize].
func (p PageRequest) Validate() error {
	verr := &ValidationError{}
	if p.Page < 0 {
		verr.Add("page", "must be greater than or equal to 0")
	}
	if p.Size < MinPageSize || p.Size > MaxPageSize {
		verr.Add("pageSize", "must be between 10 and 30")
	}
	return verr.OrNil()
}

// Offset is the number of items preceding this page, saturating at math.MaxInt
// so a huge page number reads as past the end instead of overflowing.
func (p PageRequest) Offset() int {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	if p.Page > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Page * p.Size
}

// Page is a slice of an ordered listing plus the totals needed to walk the rest of it.
type Page[T any] struct {
	Content          []T  `json:"content"`
	TotalElements    int  `json:"totalElements"`
	TotalPages       int  `json:"totalPages"`
	Number           int  `json:"number"`
	Size             int  `json:"size"`
	NumberOfElements int  `json:"numberOfElements"`
	First            bool `json:"first"`
	Last             bool `json:"last"`
	Empty            bool `json:"empty"`
}

func NewPage[T any](items []T, req PageRequest, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = (total + req.Size - 1) / req.Size
	}
	return Page[T]{
		Content:          items,
		TotalElements:    total,
		TotalPages:       totalPages,
		Number:           req.Page,
		Size:             req.Size,
		NumberOfElements: len(items),
		First:            req.Page == 0,
		Last:             req.Page >= totalPages-1,
		Empty:            len(items) == 0,
	}
}
