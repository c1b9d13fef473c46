package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryAccessories Category = "Accessories"
	CategoryClothing    Category = "Clothing"
	CategoryBooks       Category = "Books"
	CategoryBags        Category = "Bags"
	CategoryJewelry     Category = "Jewelry"
	CategoryDocuments   Category = "Documents"
	CategoryOther       Category = "Other"
)

var Categories = []Category{
	CategoryElectronics,
	CategoryAccessories,
	CategoryClothing,
	CategoryBooks,
	CategoryBags,
	CategoryJewelry,
	CategoryDocuments,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type ItemKind string

const (
	KindLost  ItemKind = "lost"
	KindFound ItemKind = "found"
)

type LostStatus string

const (
	LostStatusOpen     LostStatus = "open"
	LostStatusClaimed  LostStatus = "claimed"
	LostStatusResolved LostStatus = "resolved"
	LostStatusReturned LostStatus = "returned"
)

// Active reports whether the lost report is still waiting for its owner.
func (s LostStatus) Active() bool {
	return s == LostStatusOpen || s == LostStatusClaimed
}

type FoundStatus string

const (
	FoundStatusAvailable FoundStatus = "available"
	FoundStatusClaimed   FoundStatus = "claimed"
	FoundStatusArchived  FoundStatus = "archived"
	FoundStatusReturned  FoundStatus = "returned"
)

func (s FoundStatus) Active() bool {
	return s == FoundStatusAvailable || s == FoundStatusClaimed
}

// Item holds the fields shared by lost and found reports.
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Location    string    `json:"location"`
	Image       string    `json:"image,omitempty"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	UserEmail   string    `json:"user_email"`
	UserPhone   string    `json:"user_phone"`
	Features    *Features `json:"ai_analysis,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Scorable reports whether the item carries the text needed for comparison.
func (i Item) Scorable() bool {
	return strings.TrimSpace(i.Title) != "" && strings.TrimSpace(i.Description) != ""
}

func (i Item) Validate() error {
	switch {
	case strings.TrimSpace(i.ID) == "":
		return WrapError(ErrInvalidInput, "validate item", errors.New("id is required"))
	case utf8.RuneCountInString(i.Title) > MaxTitleLength:
		return WrapError(ErrInvalidInput, "validate item", errors.New("title exceeds 100 characters"))
	case utf8.RuneCountInString(i.Description) > MaxDescriptionLength:
		return WrapError(ErrInvalidInput, "validate item", errors.New("description exceeds 500 characters"))
	case i.Category != "" && !i.Category.Valid():
		return WrapError(ErrInvalidInput, "validate item", fmt.Errorf("unknown category %q", i.Category))
	}
	return nil
}

type LostItem struct {
	Item
	DateLost time.Time  `json:"date_lost"`
	Status   LostStatus `json:"status"`
}

type FoundItem struct {
	Item
	DateFound time.Time   `json:"date_found"`
	Status    FoundStatus `json:"status"`
}

// ItemFilter narrows item set lookups. Empty fields match everything.
type ItemFilter struct {
	Categories []Category
	UserID     string
	ActiveOnly bool
	Limit      int
}
