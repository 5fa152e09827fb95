package pagination

const (
	// DefaultSize is the page size the commerce API uses when none is requested.
	DefaultSize = 10
	// MaxSize caps how many rows a single page may request.
	MaxSize = 100
)

// Params holds zero-based page pagination inputs.
type Params struct {
	Page int
	Size int
}

// Normalize clamps page to >= 0 and size into (0, MaxSize].
func Normalize(p Params) Params {
	return Params{Page: NormalizePage(p.Page), Size: NormalizeSize(p.Size)}
}

// NormalizePage clamps negative pages to the first page.
func NormalizePage(page int) int {
	if page < 0 {
		return 0
	}
	return page
}

// NormalizeSize enforces the default and maximum page sizes.
func NormalizeSize(size int) int {
	if size <= 0 {
		return DefaultSize
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

// Page is the envelope the commerce API returns for paged listings.
type Page struct {
	Number        int   `json:"pageNumber"`
	Size          int   `json:"pageSize"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// HasNext reports whether another page follows this one.
func (p Page) HasNext() bool {
	return p.Number+1 < p.TotalPages
}
