package matching

import (
	"time"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
)

var day0 = time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)

func lostPhone() domain.LostItem {
	return domain.LostItem{
		Item: domain.Item{
			ID:          "lost-1",
			Title:       "Black iPhone 14 Pro",
			Description: "black iphone with blue case, lost in library",
			Category:    domain.CategoryElectronics,
			Location:    "Library Building A",
			UserID:      "user-a",
		},
		DateLost: day0,
		Status:   domain.LostStatusOpen,
	}
}

func foundPhone() domain.FoundItem {
	return domain.FoundItem{
		Item: domain.Item{
			ID:          "found-1",
			Title:       "iPhone found",
			Description: "black phone, blue case, found near library",
			Category:    domain.CategoryElectronics,
			Location:    "Library Building A",
			UserID:      "user-b",
		},
		DateFound: day0.Add(48 * time.Hour),
		Status:    domain.FoundStatusAvailable,
	}
}

func foundTextbook() domain.FoundItem {
	return domain.FoundItem{
		Item: domain.Item{
			ID:          "found-2",
			Title:       "Calculus Textbook",
			Description: "Red hardcover calculus textbook, 3rd edition",
			Category:    domain.CategoryBooks,
			Location:    "Engineering Hall",
			UserID:      "user-c",
		},
		DateFound: day0.Add(60 * 24 * time.Hour),
		Status:    domain.FoundStatusAvailable,
	}
}
