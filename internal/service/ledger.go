package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/sakif/ledger/internal/apperror"
	"github.com/sakif/ledger/internal/model"
	"github.com/sakif/ledger/internal/repository"
)

// DefaultMaxItemName is the longest item name accepted, in characters.
const DefaultMaxItemName = 28

// CategoryStatus tells a caller of CreateCategory whether anything changed.
type CategoryStatus int

const (
	CategoryCreated CategoryStatus = iota + 1
	CategoryAlreadyExists
)

func (s CategoryStatus) String() string {
	switch s {
	case CategoryCreated:
		return "created"
	case CategoryAlreadyExists:
		return "already_exists"
	}
	return "unknown"
}

func (s CategoryStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *CategoryStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "created":
		*s = CategoryCreated
	case "already_exists":
		*s = CategoryAlreadyExists
	default:
		return fmt.Errorf("unknown category status %q", text)
	}
	return nil
}

type CategoryResult struct {
	Status   CategoryStatus `json:"status"`
	Category model.Category `json:"category"`
	// OriginalName is set when the requested name only matched the stable
	// key of a category that has since been renamed.
	OriginalName bool `json:"originalName,omitempty"`
}

// ItemChanges lists the fields an update replaces. Nil fields keep the
// value of the current version.
type ItemChanges struct {
	Name        *string  `json:"name,omitempty"`
	Amount      *float64 `json:"amount,omitempty"`
	CategoryKey *string  `json:"category,omitempty"`
}

// LedgerService owns categories and versioned items, and rebuilds a section
// or a whole book as of any tick.
type LedgerService struct {
	store       repository.Store
	clock       *Clock
	logger      *slog.Logger
	maxItemName int
}

type LedgerOption func(*LedgerService)

// WithMaxItemName overrides DefaultMaxItemName. Values below 1 are ignored.
func WithMaxItemName(n int) LedgerOption {
	return func(s *LedgerService) {
		if n > 0 {
			s.maxItemName = n
		}
	}
}

func NewLedgerService(store repository.Store, clock *Clock, logger *slog.Logger, opts ...LedgerOption) *LedgerService {
	s := &LedgerService{
		store:       store,
		clock:       clock,
		logger:      logger,
		maxItemName: DefaultMaxItemName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitOwner creates the owner, a clock at tick 0 for every book and an
// Uncategorized category in every section. It is safe to call again; it
// reports whether the owner was new.
func (s *LedgerService) InitOwner(ctx context.Context, owner, displayName string) (bool, error) {
	key := model.Key(owner)
	if key == "" {
		return false, apperror.ValidationFailed("owner", "owner is required")
	}
	if strings.TrimSpace(displayName) == "" {
		displayName = strings.TrimSpace(owner)
	}

	var created bool
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		created, err = tx.CreateOwner(ctx, &model.Owner{Key: key, DisplayName: strings.TrimSpace(displayName)})
		if err != nil {
			return err
		}
		for _, book := range model.Books {
			if err := tx.InitTimeline(ctx, key, book); err != nil {
				return err
			}
		}
		for _, section := range model.Sections {
			_, err := tx.CreateCategory(ctx, &model.Category{
				Name:    model.UncategorizedName,
				NameKey: model.Key(model.UncategorizedName),
				Owner:   key,
				Section: section,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to initialize owner", slog.String("owner", key), slog.String("error", err.Error()))
		return false, err
	}

	if created {
		s.logger.Info("owner initialized", slog.String("owner", key))
	}
	return created, nil
}

// CreateCategory adds a category to a section. Asking for a name that is
// already taken, by key or by display name, is not an error: the existing
// category is returned with CategoryAlreadyExists. Keys survive renames, so
// a category's first name stays taken after it is renamed.
func (s *LedgerService) CreateCategory(ctx context.Context, owner string, section model.Section, name string) (*CategoryResult, error) {
	if err := validateSection(section); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "category name is required")
	}

	var result CategoryResult
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		existing, err := tx.ListCategories(ctx, owner, section)
		if err != nil {
			return err
		}
		if c, ok := matchCategory(existing, name); ok {
			result = CategoryResult{
				Status:       CategoryAlreadyExists,
				Category:     c,
				OriginalName: model.Key(c.Name) != model.Key(name),
			}
			return nil
		}

		c := model.Category{Name: name, NameKey: model.Key(name), Owner: owner, Section: section}
		if _, err := tx.CreateCategory(ctx, &c); err != nil {
			return err
		}
		result = CategoryResult{Status: CategoryCreated, Category: c}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Status == CategoryCreated {
		s.logger.Info("category created",
			slog.String("owner", owner),
			slog.String("section", section.String()),
			slog.String("key", result.Category.NameKey),
		)
	}
	return &result, nil
}

// RenameCategory changes a category's display name. The key does not
// change, and items keep the category name they were written with.
func (s *LedgerService) RenameCategory(ctx context.Context, owner string, section model.Section, ref, newName string) (*model.Category, error) {
	if err := validateSection(section); err != nil {
		return nil, err
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, apperror.ValidationFailed("name", "category name is required")
	}

	var renamed model.Category
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		categories, err := tx.ListCategories(ctx, owner, section)
		if err != nil {
			return err
		}
		target, ok := matchCategory(categories, ref)
		if !ok {
			return apperror.NotFound("category", ref)
		}

		newKey := model.Key(newName)
		for _, c := range categories {
			if c.NameKey == target.NameKey {
				continue
			}
			if c.NameKey == newKey || model.Key(c.Name) == newKey {
				return apperror.Duplicate("category", newName)
			}
		}

		if err := tx.RenameCategory(ctx, owner, section, target.NameKey, newName); err != nil {
			return err
		}
		renamed = target
		renamed.Name = newName
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("category renamed",
		slog.String("owner", owner),
		slog.String("section", section.String()),
		slog.String("key", renamed.NameKey),
		slog.String("name", renamed.Name),
	)
	return &renamed, nil
}

// ListCategories returns the section's categories in creation order.
func (s *LedgerService) ListCategories(ctx context.Context, owner string, section model.Section) ([]model.Category, error) {
	if err := validateSection(section); err != nil {
		return nil, err
	}
	return s.store.ListCategories(ctx, owner, section)
}

// CreateItem adds a new logical item. Its first version is stamped with a
// fresh tick as both CreatedAt and OriginAt. An empty categoryRef files the
// item under Uncategorized.
func (s *LedgerService) CreateItem(ctx context.Context, owner string, section model.Section, name string, amount float64, categoryRef string) (*model.Item, error) {
	if err := validateSection(section); err != nil {
		return nil, err
	}
	name, err := s.validateItemName(name)
	if err != nil {
		return nil, err
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	if model.Key(categoryRef) == "" {
		categoryRef = model.UncategorizedName
	}

	var created model.Item
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		category, err := resolveCategory(ctx, tx, owner, section, categoryRef)
		if err != nil {
			return err
		}
		if err := checkOpenName(ctx, tx, owner, section, name, ""); err != nil {
			return err
		}

		tick, err := s.clock.within(tx).Advance(ctx, owner, section.Book())
		if err != nil {
			return err
		}
		created = model.Item{
			Name:         name,
			NameKey:      model.Key(name),
			Amount:       amount,
			CategoryName: category.Name,
			CategoryKey:  category.NameKey,
			Owner:        owner,
			Section:      section,
			CreatedAt:    tick,
			OriginAt:     tick,
			ClosedAt:     model.OpenTick,
		}
		return tx.InsertItem(ctx, &created)
	})
	if err != nil {
		s.logFailure("failed to create item", err, owner, section)
		return nil, err
	}

	s.logger.Info("item created",
		slog.String("owner", owner),
		slog.String("section", section.String()),
		slog.String("key", created.NameKey),
		slog.Int64("tick", int64(created.CreatedAt)),
	)
	return &created, nil
}

// OpenItem finds the live version of an item by name.
func (s *LedgerService) OpenItem(ctx context.Context, owner string, section model.Section, name string) (*model.Item, error) {
	if err := validateSection(section); err != nil {
		return nil, err
	}
	return s.store.GetOpenItem(ctx, owner, section, model.Key(name))
}

// UpdateItem replaces the live version of an item. In one transaction it
// closes current at tick t1 and inserts the new version at t2 > t1; the new
// version keeps current's OriginAt. current must still be the open version.
func (s *LedgerService) UpdateItem(ctx context.Context, current model.Item, changes ItemChanges) (*model.Item, error) {
	owner, section := current.Owner, current.Section
	if err := validateSection(section); err != nil {
		return nil, err
	}

	name := current.Name
	if changes.Name != nil {
		name = *changes.Name
	}
	name, err := s.validateItemName(name)
	if err != nil {
		return nil, err
	}
	amount := current.Amount
	if changes.Amount != nil {
		amount = *changes.Amount
	}
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	categoryRef := current.CategoryKey
	if changes.CategoryKey != nil {
		categoryRef = *changes.CategoryKey
	}

	var next model.Item
	err = s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		category, err := resolveCategory(ctx, tx, owner, section, categoryRef)
		if err != nil {
			return err
		}
		if err := checkOpenName(ctx, tx, owner, section, name, current.NameKey); err != nil {
			return err
		}

		clock := s.clock.within(tx)
		closedAt, err := clock.Advance(ctx, owner, section.Book())
		if err != nil {
			return err
		}
		if err := tx.CloseItem(ctx, owner, section, current.NameKey, current.CreatedAt, closedAt); err != nil {
			return err
		}
		createdAt, err := clock.Advance(ctx, owner, section.Book())
		if err != nil {
			return err
		}

		next = model.Item{
			Name:         name,
			NameKey:      model.Key(name),
			Amount:       amount,
			CategoryName: category.Name,
			CategoryKey:  category.NameKey,
			Owner:        owner,
			Section:      section,
			CreatedAt:    createdAt,
			OriginAt:     current.OriginAt,
			ClosedAt:     model.OpenTick,
		}
		return tx.InsertItem(ctx, &next)
	})
	if err != nil {
		s.logFailure("failed to update item", err, owner, section)
		return nil, err
	}

	s.logger.Info("item updated",
		slog.String("owner", owner),
		slog.String("section", section.String()),
		slog.String("key", next.NameKey),
		slog.Int64("origin", int64(next.OriginAt)),
		slog.Int64("tick", int64(next.CreatedAt)),
	)
	return &next, nil
}

// DeleteItem closes the live version at a fresh tick. Nothing is inserted,
// so the item disappears from every view at or after that tick.
func (s *LedgerService) DeleteItem(ctx context.Context, current model.Item) error {
	owner, section := current.Owner, current.Section
	if err := validateSection(section); err != nil {
		return err
	}

	var closedAt model.Tick
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		closedAt, err = s.clock.within(tx).Advance(ctx, owner, section.Book())
		if err != nil {
			return err
		}
		return tx.CloseItem(ctx, owner, section, current.NameKey, current.CreatedAt, closedAt)
	})
	if err != nil {
		s.logFailure("failed to delete item", err, owner, section)
		return err
	}

	s.logger.Info("item deleted",
		slog.String("owner", owner),
		slog.String("section", section.String()),
		slog.String("key", current.NameKey),
		slog.Int64("tick", int64(closedAt)),
	)
	return nil
}

// ListOpen returns the section as it is now.
func (s *LedgerService) ListOpen(ctx context.Context, owner string, section model.Section) (*model.Listing, error) {
	if err := validateSection(section); err != nil {
		return nil, err
	}
	categories, err := s.store.ListCategories(ctx, owner, section)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListOpenItems(ctx, owner, section)
	if err != nil {
		return nil, err
	}
	return &model.Listing{Section: section, Categories: categories, Items: items}, nil
}

// Reconstruct returns the section as it was at asOf: the items whose
// versions satisfy created_at <= asOf < closed_at, in insertion order.
// Categories are not versioned and are listed as they are now.
func (s *LedgerService) Reconstruct(ctx context.Context, owner string, section model.Section, asOf model.Tick) (*model.Listing, error) {
	if err := validateSection(section); err != nil {
		return nil, err
	}
	if asOf < 0 {
		return nil, apperror.ValidationFailed("at", "tick must not be negative")
	}
	categories, err := s.store.ListCategories(ctx, owner, section)
	if err != nil {
		return nil, err
	}
	items, err := s.store.ListItemsAsOf(ctx, owner, section, asOf)
	if err != nil {
		return nil, err
	}
	return &model.Listing{Section: section, Categories: categories, Items: items}, nil
}

// View reconstructs both sections of a book at asOf.
func (s *LedgerService) View(ctx context.Context, owner string, book model.Book, asOf model.Tick) (*model.BookView, error) {
	if err := validateBook(book); err != nil {
		return nil, err
	}
	posSection, negSection := book.Sections()

	positive, err := s.Reconstruct(ctx, owner, posSection, asOf)
	if err != nil {
		return nil, err
	}
	negative, err := s.Reconstruct(ctx, owner, negSection, asOf)
	if err != nil {
		return nil, err
	}

	view := &model.BookView{
		Book:          book,
		AsOf:          asOf,
		Positive:      *positive,
		Negative:      *negative,
		PositiveTotal: positive.Total(),
		NegativeTotal: negative.Total(),
	}
	view.Net = view.PositiveTotal - view.NegativeTotal
	return view, nil
}

// ViewCurrent is View at the book's current tick.
func (s *LedgerService) ViewCurrent(ctx context.Context, owner string, book model.Book) (*model.BookView, error) {
	if err := validateBook(book); err != nil {
		return nil, err
	}
	tick, err := s.clock.Peek(ctx, owner, book)
	if err != nil {
		return nil, err
	}
	return s.View(ctx, owner, book, tick)
}

// History returns every version in the section, grouped by logical item
// (origin) and ordered by creation within each group.
func (s *LedgerService) History(ctx context.Context, owner string, section model.Section) ([]model.Item, error) {
	if err := validateSection(section); err != nil {
		return nil, err
	}
	return s.store.ListItemHistory(ctx, owner, section)
}

// ItemHistory returns the versions of the logical item that started at
// originAt.
func (s *LedgerService) ItemHistory(ctx context.Context, owner string, section model.Section, originAt model.Tick) ([]model.Item, error) {
	if err := validateSection(section); err != nil {
		return nil, err
	}
	versions, err := s.store.ListItemVersions(ctx, owner, section, originAt)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, apperror.NotFound("item", fmt.Sprintf("origin %d", originAt))
	}
	return versions, nil
}

func (s *LedgerService) validateItemName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("name", "item name is required")
	}
	if utf8.RuneCountInString(name) > s.maxItemName {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("item name must be %d characters or less", s.maxItemName))
	}
	return name, nil
}

func (s *LedgerService) logFailure(msg string, err error, owner string, section model.Section) {
	if apperror.IsRecoverable(err) {
		return
	}
	s.logger.Error(msg,
		slog.String("owner", owner),
		slog.String("section", section.String()),
		slog.String("error", err.Error()),
	)
}

func validateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return apperror.ValidationFailed("amount", "amount must be a finite number")
	}
	if amount < 0 {
		return apperror.ValidationFailed("amount", "amount must not be negative")
	}
	return nil
}

func validateSection(section model.Section) error {
	if _, err := model.ParseSection(string(section)); err != nil {
		return apperror.ValidationFailed("section", err.Error())
	}
	return nil
}

func validateBook(book model.Book) error {
	if _, err := model.ParseBook(string(book)); err != nil {
		return apperror.ValidationFailed("book", err.Error())
	}
	return nil
}

// matchCategory finds a category by key first, then by display name.
func matchCategory(categories []model.Category, ref string) (model.Category, bool) {
	key := model.Key(ref)
	for _, c := range categories {
		if c.NameKey == key {
			return c, true
		}
	}
	for _, c := range categories {
		if model.Key(c.Name) == key {
			return c, true
		}
	}
	return model.Category{}, false
}

func resolveCategory(ctx context.Context, store repository.CategoryRepository, owner string, section model.Section, ref string) (model.Category, error) {
	if model.Key(ref) == "" {
		return model.Category{}, apperror.ValidationFailed("category", "category is required")
	}
	categories, err := store.ListCategories(ctx, owner, section)
	if err != nil {
		return model.Category{}, err
	}
	c, ok := matchCategory(categories, ref)
	if !ok {
		return model.Category{}, apperror.NotFound("category", ref)
	}
	return c, nil
}

// checkOpenName rejects name when another open item in the section already
// uses its key. exceptKey is the key of the item being replaced, if any.
func checkOpenName(ctx context.Context, store repository.ItemRepository, owner string, section model.Section, name, exceptKey string) error {
	key := model.Key(name)
	if key == exceptKey {
		return nil
	}
	_, err := store.GetOpenItem(ctx, owner, section, key)
	switch {
	case err == nil:
		return apperror.DuplicateName("name", name)
	case errors.Is(err, apperror.ErrNotFound):
		return nil
	default:
		return err
	}
}
