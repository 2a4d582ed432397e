package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
)

// Filter operations understood by the admin API.
const (
	OpEqual    = "eq"
	OpNotEqual = "ne"
	OpLike     = "like"
)

// Filter restricts a list to rows whose field matches value.
type Filter struct {
	Name      string `json:"name"`
	Operation string `json:"operation"`
	Value     string `json:"value"`
}

// Order sorts a list by a field.
type Order struct {
	Name      string `json:"name"`
	Direction string `json:"direction"`
}

// ListParams is the fingerprint of a list request: it is both the query
// string sent to the API and the discriminator of the cached page.
type ListParams struct {
	Filters []Filter
	Orders  []Order
	Page    int
	PerPage int
	Keyword string
}

// Values encodes the params in the admin API's bracket notation. Filters or
// orders missing a part are skipped without renumbering the rest, and zero
// page/perPage and an empty keyword are omitted.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	for i, f := range p.Filters {
		if f.Name == "" || f.Operation == "" {
			continue
		}
		v.Set(fmt.Sprintf("filters[%d][name]", i), f.Name)
		v.Set(fmt.Sprintf("filters[%d][operation]", i), f.Operation)
		v.Set(fmt.Sprintf("filters[%d][value]", i), f.Value)
	}
	for i, o := range p.Orders {
		if o.Name == "" || o.Direction == "" {
			continue
		}
		v.Set(fmt.Sprintf("orders[%d][name]", i), o.Name)
		v.Set(fmt.Sprintf("orders[%d][direction]", i), o.Direction)
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		v.Set("perPage", strconv.Itoa(p.PerPage))
	}
	if p.Keyword != "" {
		v.Set("keyword", p.Keyword)
	}
	return v
}

// Fingerprint is the canonical string form of Values. url.Values.Encode
// sorts keys, so equal params always produce equal fingerprints.
func (p ListParams) Fingerprint() string {
	return p.Values().Encode()
}

var bracketKey = regexp.MustCompile(`^(filters|orders)\[(\d+)\]\[(\w+)\]$`)

// ParseListParams decodes bracket-notation query values.
func ParseListParams(q url.Values) ListParams {
	filters := map[int]*Filter{}
	orders := map[int]*Order{}

	for key, vals := range q {
		m := bracketKey.FindStringSubmatch(key)
		if m == nil || len(vals) == 0 {
			continue
		}
		idx, _ := strconv.Atoi(m[2])
		val := vals[0]
		switch m[1] {
		case "filters":
			f := filters[idx]
			if f == nil {
				f = &Filter{}
				filters[idx] = f
			}
			switch m[3] {
			case "name":
				f.Name = val
			case "operation":
				f.Operation = val
			case "value":
				f.Value = val
			}
		case "orders":
			o := orders[idx]
			if o == nil {
				o = &Order{}
				orders[idx] = o
			}
			switch m[3] {
			case "name":
				o.Name = val
			case "direction":
				o.Direction = val
			}
		}
	}

	p := ListParams{Keyword: q.Get("keyword")}
	for _, idx := range sortedKeys(filters) {
		p.Filters = append(p.Filters, *filters[idx])
	}
	for _, idx := range sortedKeys(orders) {
		p.Orders = append(p.Orders, *orders[idx])
	}
	p.Page, _ = strconv.Atoi(q.Get("page"))
	p.PerPage, _ = strconv.Atoi(q.Get("perPage"))
	return p
}

func sortedKeys[T any](m map[int]T) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Page is one page of a server-paginated list.
type Page[T any] struct {
	Data    []T `json:"data"`
	Page    int `json:"page"`
	PerPage int `json:"perPage"`
	Total   int `json:"total"`
}
