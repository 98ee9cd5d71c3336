// Package table projects record lists into searched, sorted and paginated views.
package table

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultPageSize is used when a view is configured without a page size.
const DefaultPageSize = 10

// Direction is a sort order.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts "asc" and "desc"; anything else is ascending.
func ParseDirection(s string) Direction {
	if strings.EqualFold(s, "desc") {
		return Desc
	}
	return Asc
}

// Column describes one displayed field.
type Column[T any] struct {
	Key         string
	Label       string
	DisableSort bool
	Render      func(T) string // nil renders the raw field
}

// Config describes a table view over records of type T.
type Config[T any] struct {
	Columns      []Column[T]
	SearchFields []string
	PageSize     int
	Field        FieldFunc[T]  // nil uses Lookup
	Language     language.Tag // collation language, English when unset
}

// Filter keeps the records for which any of fields contains query,
// case-insensitively. An empty query keeps everything.
func Filter[T any](records []T, query string, fields []string, field FieldFunc[T]) []T {
	if query == "" {
		return slices.Clone(records)
	}
	field = orLookup(field)
	q := strings.ToLower(query)
	out := make([]T, 0, len(records))
	for _, r := range records {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(Stringify(field(r, f))), q) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Sort orders records by the string form of key using tag's collation.
// Equal keys keep their input order. An empty key returns the input order.
func Sort[T any](records []T, key string, dir Direction, field FieldFunc[T], tag language.Tag) []T {
	out := slices.Clone(records)
	if key == "" {
		return out
	}
	field = orLookup(field)

	type keyed struct {
		rec T
		key string
	}
	ks := make([]keyed, len(out))
	for i, r := range out {
		ks[i] = keyed{rec: r, key: Stringify(field(r, key))}
	}
	coll := collate.New(tag)
	slices.SortStableFunc(ks, func(a, b keyed) int {
		c := coll.CompareString(a.key, b.key)
		if dir == Desc {
			return -c
		}
		return c
	})
	for i := range ks {
		out[i] = ks[i].rec
	}
	return out
}

// Paginate returns page (zero-based) of size records. Pages outside the data
// are empty.
func Paginate[T any](records []T, page, size int) []T {
	if size <= 0 {
		size = DefaultPageSize
	}
	// Checked before multiplying so page*size cannot overflow.
	if page < 0 || page >= TotalPages(len(records), size) {
		return []T{}
	}
	start := page * size
	end := start + min(size, len(records)-start)
	return slices.Clone(records[start:end])
}

// TotalPages is ceil(n/size).
func TotalPages(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if n <= 0 {
		return 0
	}
	return (n-1)/size + 1
}

func orLookup[T any](f FieldFunc[T]) FieldFunc[T] {
	if f != nil {
		return f
	}
	return func(r T, key string) any { return Lookup(r, key) }
}

// Page is one rendered slice of a view.
type Page[T any] struct {
	Rows       []T       `json:"rows"`
	Index      int       `json:"page"`
	Size       int       `json:"page_size"`
	Total      int       `json:"total"`
	TotalPages int       `json:"total_pages"`
	Query      string    `json:"query,omitempty"`
	SortKey    string    `json:"sort,omitempty"`
	Direction  Direction `json:"-"`
}

// Summary reads "Showing a-b of n", or "No data found." for an empty page.
func (p Page[T]) Summary() string {
	if len(p.Rows) == 0 {
		return "No data found."
	}
	first := p.Index*p.Size + 1
	return fmt.Sprintf("Showing %d-%d of %d", first, first+len(p.Rows)-1, p.Total)
}

// View holds the transient state of one table: query, sort and page.
type View[T any] struct {
	cfg     Config[T]
	query   string
	sortKey string
	dir     Direction
	page    int
}

// New returns a view with no query, no sort and the first page selected.
func New[T any](cfg Config[T]) *View[T] {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Language == language.Und {
		cfg.Language = language.English
	}
	cfg.Field = orLookup(cfg.Field)
	return &View[T]{cfg: cfg}
}

// Columns returns the configured columns.
func (v *View[T]) Columns() []Column[T] { return v.cfg.Columns }

// SetQuery changes the search text and returns to the first page.
func (v *View[T]) SetQuery(q string) {
	v.query = q
	v.page = 0
}

// Query returns the search text.
func (v *View[T]) Query() string { return v.query }

// ToggleSort selects key as the sort column. Selecting the current column
// flips the direction, a new column sorts ascending. Unknown and unsortable
// columns are ignored.
func (v *View[T]) ToggleSort(key string) {
	if !v.sortable(key) {
		return
	}
	if key == v.sortKey {
		if v.dir == Asc {
			v.dir = Desc
		} else {
			v.dir = Asc
		}
		return
	}
	v.sortKey = key
	v.dir = Asc
}

// SetSort selects key and direction directly. Unsortable keys clear the sort.
func (v *View[T]) SetSort(key string, dir Direction) {
	if !v.sortable(key) {
		v.sortKey, v.dir = "", Asc
		return
	}
	v.sortKey, v.dir = key, dir
}

// Sort returns the active sort column and direction.
func (v *View[T]) Sort() (string, Direction) { return v.sortKey, v.dir }

// SetPage selects a zero-based page.
func (v *View[T]) SetPage(p int) { v.page = max(p, 0) }

// Page returns the selected page index.
func (v *View[T]) Page() int { return v.page }

func (v *View[T]) sortable(key string) bool {
	for _, c := range v.cfg.Columns {
		if c.Key == key {
			return !c.DisableSort
		}
	}
	return false
}

// Apply runs filter, sort and paginate over records, in that order.
func (v *View[T]) Apply(records []T) Page[T] {
	filtered := Filter(records, v.query, v.cfg.SearchFields, v.cfg.Field)
	sorted := Sort(filtered, v.sortKey, v.dir, v.cfg.Field, v.cfg.Language)
	return Page[T]{
		Rows:       Paginate(sorted, v.page, v.cfg.PageSize),
		Index:      v.page,
		Size:       v.cfg.PageSize,
		Total:      len(sorted),
		TotalPages: TotalPages(len(sorted), v.cfg.PageSize),
		Query:      v.query,
		SortKey:    v.sortKey,
		Direction:  v.dir,
	}
}

// Cell renders one column of a record.
func (v *View[T]) Cell(c Column[T], record T) string {
	if c.Render != nil {
		return c.Render(record)
	}
	return Stringify(v.cfg.Field(record, c.Key))
}
