// Package model defines the ledger's data structures: books and their
// sections, categories, versioned items, snapshots and the read-side views
// built from them.
package model

import (
	"fmt"
	"strings"
)

// Book is an independent ledger with its own logical clock.
type Book string

const (
	BookBalance Book = "balance"
	BookBudget  Book = "budget"
)

// Books lists every book an owner has, in display order.
var Books = []Book{BookBalance, BookBudget}

// ParseBook resolves a book name, case-insensitively.
func ParseBook(s string) (Book, error) {
	switch Book(Key(s)) {
	case BookBalance:
		return BookBalance, nil
	case BookBudget:
		return BookBudget, nil
	}
	return "", fmt.Errorf("unknown book %q (want balance or budget)", s)
}

// Sections returns the positive and the negative section of the book.
func (b Book) Sections() (positive, negative Section) {
	if b == BookBudget {
		return SectionIncome, SectionExpense
	}
	return SectionAsset, SectionLiability
}

func (b Book) String() string { return string(b) }

// Section partitions a book. Categories and items live in exactly one section.
type Section string

const (
	SectionAsset     Section = "asset"
	SectionLiability Section = "liability"
	SectionIncome    Section = "income"
	SectionExpense   Section = "expense"
)

// Sections lists every section across all books.
var Sections = []Section{SectionAsset, SectionLiability, SectionIncome, SectionExpense}

func ParseSection(s string) (Section, error) {
	key := Key(s)
	for _, sec := range Sections {
		if string(sec) == key {
			return sec, nil
		}
	}
	return "", fmt.Errorf("unknown section %q", s)
}

// Book returns the book the section belongs to.
func (s Section) Book() Book {
	if s == SectionIncome || s == SectionExpense {
		return BookBudget
	}
	return BookBalance
}

// Sign is +1 for sections that add to net worth and -1 for those that subtract.
func (s Section) Sign() float64 {
	if s == SectionLiability || s == SectionExpense {
		return -1
	}
	return 1
}

// Label is the plural heading used in listings, e.g. "Assets".
func (s Section) Label() string {
	switch s {
	case SectionAsset:
		return "Assets"
	case SectionLiability:
		return "Liabilities"
	case SectionIncome:
		return "Income"
	case SectionExpense:
		return "Expenses"
	}
	return string(s)
}

func (s Section) String() string { return string(s) }

// Key normalizes a user-entered name for uniqueness checks.
// "  Checking " and "checking" share the key "checking".
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
