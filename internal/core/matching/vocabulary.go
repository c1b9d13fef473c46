package matching

import "github.com/kirillkom/lostfound-matcher/internal/core/domain"

var colorKeywords = []string{
	"black", "white", "red", "blue", "green", "yellow", "purple", "pink", "orange",
	"brown", "gray", "grey", "silver", "gold", "metallic", "navy", "maroon",
	"beige", "cream", "tan", "burgundy", "teal", "turquoise", "coral",
}

var objectKeywords = []string{
	"phone", "iphone", "android", "tablet", "laptop", "computer", "watch",
	"wallet", "bag", "backpack", "purse", "key", "keys", "headphones",
	"charger", "cable", "book", "notebook", "pen", "pencil", "jewelry",
	"ring", "necklace", "earrings", "glasses", "sunglasses", "hat",
	"shirt", "jacket", "hoodie", "pants", "shoes", "sneakers",
}

var brandKeywords = []string{
	"apple", "iphone", "samsung", "google", "microsoft", "sony", "nike",
	"adidas", "louis vuitton", "gucci", "prada", "coach",
	"dell", "hp", "lenovo", "asus", "acer", "canon", "nikon",
	"rolex", "casio", "fossil", "tissot",
}

// conditionFamilies is checked in order; the first family with a hit wins.
var conditionFamilies = []struct {
	condition domain.Condition
	keywords  []string
}{
	{domain.ConditionExcellent, []string{"new", "mint", "perfect"}},
	{domain.ConditionGood, []string{"good", "fine"}},
	{domain.ConditionFair, []string{"fair", "worn"}},
	{domain.ConditionPoor, []string{"poor", "damaged"}},
}

var categoryKeywords = map[domain.Category][]string{
	domain.CategoryElectronics: {"phone", "computer", "laptop", "tablet", "device", "electronic"},
	domain.CategoryAccessories: {"watch", "bag", "wallet", "purse", "belt"},
	domain.CategoryClothing:    {"shirt", "pants", "jacket", "dress", "clothing"},
	domain.CategoryBooks:       {"book", "notebook", "textbook", "magazine"},
	domain.CategoryBags:        {"bag", "backpack", "purse", "luggage"},
	domain.CategoryJewelry:     {"ring", "necklace", "earrings", "bracelet", "jewelry"},
	domain.CategoryDocuments:   {"id", "license", "passport", "document", "paper"},
	domain.CategoryOther:       {},
}

var commonAreas = []string{"library", "cafeteria", "gym", "parking", "park", "hall", "building"}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {}, "all": {},
	"can": {}, "had": {}, "her": {}, "was": {}, "one": {}, "our": {}, "out": {}, "day": {},
	"get": {}, "has": {}, "him": {}, "his": {}, "how": {}, "man": {}, "new": {}, "now": {},
	"old": {}, "see": {}, "two": {}, "way": {}, "who": {}, "boy": {}, "did": {}, "its": {},
	"let": {}, "put": {}, "say": {}, "she": {}, "too": {}, "use": {},
}
