package model

import (
	"math"
	"time"
)

// Tick is a value of a per-owner, per-book logical clock. Ticks start at 0
// and only ever grow.
type Tick int64

// OpenTick marks a version that has not been closed yet. It is larger than
// any tick a clock will hand out.
const OpenTick Tick = math.MaxInt64 / 4

// UncategorizedName is the category every section starts with.
const UncategorizedName = "Uncategorized"

// Owner is the account a ledger belongs to.
type Owner struct {
	Key         string    `json:"key"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Category groups items within one section. Categories are never deleted and
// are not versioned: a rename updates the display name in place while the
// key stays the same.
type Category struct {
	Name    string  `json:"name"`
	NameKey string  `json:"key"`
	Owner   string  `json:"owner"`
	Section Section `json:"section"`
}

// Item is one version of a logical item. A version is alive at tick t when
// CreatedAt <= t < ClosedAt. All versions of a logical item share OriginAt.
//
// CategoryName and CategoryKey are copied from the category when the version
// is written; renaming the category later does not touch them.
type Item struct {
	Name         string  `json:"name"         csv:"name"`
	NameKey      string  `json:"key"          csv:"-"`
	Amount       float64 `json:"amount"       csv:"amount"`
	CategoryName string  `json:"category"     csv:"category"`
	CategoryKey  string  `json:"categoryKey"  csv:"-"`
	Owner        string  `json:"owner"        csv:"-"`
	Section      Section `json:"section"      csv:"section"`
	CreatedAt    Tick    `json:"createdAt"    csv:"created_at"`
	OriginAt     Tick    `json:"originAt"     csv:"origin_at"`
	ClosedAt     Tick    `json:"closedAt"     csv:"closed_at"`
	IsClosed     bool    `json:"isClosed"     csv:"is_closed"`
}

// AliveAt reports whether this version is the live one at tick t.
func (it Item) AliveAt(t Tick) bool {
	return it.CreatedAt <= t && t < it.ClosedAt
}

// Signed returns the amount with the section's sign applied.
func (it Item) Signed() float64 {
	return it.Section.Sign() * it.Amount
}

// Listing is the content of one section at some point in time: every
// category of the section and the items alive at that point, in insertion
// order.
type Listing struct {
	Section    Section    `json:"section"`
	Categories []Category `json:"categories"`
	Items      []Item     `json:"items"`
}

// Total sums the amounts of the listed items.
func (l Listing) Total() float64 {
	var sum float64
	for _, it := range l.Items {
		sum += it.Amount
	}
	return sum
}

// ByCategory groups the listed items under their category key, following the
// order of l.Categories. Items whose category is no longer listed are
// appended under their own key.
func (l Listing) ByCategory() []CategoryGroup {
	index := make(map[string]int, len(l.Categories))
	groups := make([]CategoryGroup, 0, len(l.Categories))
	for _, c := range l.Categories {
		index[c.NameKey] = len(groups)
		groups = append(groups, CategoryGroup{Key: c.NameKey, Name: c.Name})
	}
	for _, it := range l.Items {
		i, ok := index[it.CategoryKey]
		if !ok {
			i = len(groups)
			index[it.CategoryKey] = i
			groups = append(groups, CategoryGroup{Key: it.CategoryKey, Name: it.CategoryName})
		}
		groups[i].Items = append(groups[i].Items, it)
		groups[i].Total += it.Amount
	}
	return groups
}

type CategoryGroup struct {
	Key   string  `json:"key"`
	Name  string  `json:"name"`
	Items []Item  `json:"items"`
	Total float64 `json:"total"`
}

// BookView is a whole book reconstructed at one tick.
type BookView struct {
	Book          Book    `json:"book"`
	AsOf          Tick    `json:"asOf"`
	Positive      Listing `json:"positive"`
	Negative      Listing `json:"negative"`
	PositiveTotal float64 `json:"positiveTotal"`
	NegativeTotal float64 `json:"negativeTotal"`
	Net           float64 `json:"net"`
}
