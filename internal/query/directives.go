package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Sort is the direction of the createdAt sort stage. SortNone means no sort
// stage is emitted and the store's natural order applies.
type Sort int8

const (
	SortNone       Sort = 0
	SortAscending  Sort = 1
	SortDescending Sort = -1
)

// Page selects a window of the result set. Index is zero based.
type Page struct {
	Index int64
	Size  int64
}

// Skip returns the number of documents to skip before the page starts.
func (p Page) Skip() int64 {
	return p.Index * p.Size
}

// Directives is the normalized paging, sorting and projection intent of a
// request.
type Directives struct {
	Sort  Sort
	Short bool
	Page  *Page
}

// query parameter names
const (
	ParamSort  = "sortByCreatedAt"
	ParamShort = "short"
	ParamPage  = "page"
	ParamLimit = "limit"
)

// ParseDirectives reads sortByCreatedAt, short, page and limit from the query
// string. Malformed values are treated as absent.
func ParseDirectives(values url.Values) Directives {
	return Directives{
		Sort:  parseSort(values.Get(ParamSort)),
		Short: parseBool(values.Get(ParamShort)),
		Page:  parsePage(values.Get(ParamPage), values.Get(ParamLimit)),
	}
}

func parseSort(raw string) Sort {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "asc", "ascending", "1":
		return SortAscending
	case "desc", "descending", "-1":
		return SortDescending
	default:
		return SortNone
	}
}

func parseBool(raw string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return b
}

// parsePage returns nil unless limit is a positive integer.
func parsePage(rawPage, rawLimit string) *Page {
	size, err := strconv.ParseInt(strings.TrimSpace(rawLimit), 10, 64)
	if err != nil || size <= 0 {
		return nil
	}

	index, err := strconv.ParseInt(strings.TrimSpace(rawPage), 10, 64)
	if err != nil || index < 0 {
		index = 0
	}
	if index > math.MaxInt64/size {
		index = math.MaxInt64 / size
	}

	return &Page{Index: index, Size: size}
}
