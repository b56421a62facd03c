package export

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/sakif/ledger/internal/model"
)

// ViewDocument is the YAML form of a book at one tick, grouped by section
// and category.
type ViewDocument struct {
	Book     model.Book        `yaml:"book"`
	AsOf     model.Tick        `yaml:"as_of"`
	Snapshot *model.Snapshot   `yaml:"snapshot,omitempty"`
	Sections []SectionDocument `yaml:"sections"`
	Net      float64           `yaml:"net"`
}

type SectionDocument struct {
	Section    model.Section      `yaml:"section"`
	Total      float64            `yaml:"total"`
	Categories []CategoryDocument `yaml:"categories"`
}

type CategoryDocument struct {
	Name  string         `yaml:"name"`
	Total float64        `yaml:"total"`
	Items []ItemDocument `yaml:"items,omitempty"`
}

type ItemDocument struct {
	Name      string     `yaml:"name"`
	Amount    float64    `yaml:"amount"`
	OriginAt  model.Tick `yaml:"origin_at"`
	CreatedAt model.Tick `yaml:"created_at"`
}

// NewViewDocument builds the document for view. snap is nil unless the view
// was rebuilt from a snapshot.
func NewViewDocument(view model.BookView, snap *model.Snapshot) ViewDocument {
	doc := ViewDocument{
		Book:     view.Book,
		AsOf:     view.AsOf,
		Snapshot: snap,
		Net:      view.Net,
	}
	for _, l := range []model.Listing{view.Positive, view.Negative} {
		sec := SectionDocument{Section: l.Section, Total: l.Total()}
		for _, g := range l.ByCategory() {
			cat := CategoryDocument{Name: g.Name, Total: g.Total}
			for _, it := range g.Items {
				cat.Items = append(cat.Items, ItemDocument{
					Name:      it.Name,
					Amount:    it.Amount,
					OriginAt:  it.OriginAt,
					CreatedAt: it.CreatedAt,
				})
			}
			sec.Categories = append(sec.Categories, cat)
		}
		doc.Sections = append(doc.Sections, sec)
	}
	return doc
}

func WriteViewYAML(w io.Writer, view model.BookView, snap *model.Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewViewDocument(view, snap)); err != nil {
		return fmt.Errorf("export: writing YAML: %w", err)
	}
	return enc.Close()
}
