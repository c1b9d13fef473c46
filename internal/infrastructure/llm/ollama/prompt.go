package ollama

import (
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
)

func buildMatchPrompt(lost domain.LostItem, found domain.FoundItem, withImages bool) string {
	var b strings.Builder
	b.WriteString(`You are a product matching system for a campus lost and found office.
Decide whether the two reports below describe the same physical item.
`)
	if withImages {
		b.WriteString("The first attached image belongs to the lost report, the second to the found report.\n")
	}

	writeItem(&b, "LOST ITEM", lost.Item, lost.DateLost)
	writeItem(&b, "FOUND ITEM", found.Item, found.DateFound)

	b.WriteString(`
Weigh category, brand and model, colors and design, condition, serial numbers or
other identifiers, how close the dates are, and how close the locations are.

Return strict JSON with exactly these keys, no markdown:
{
  "matchScore": <number 0-100>,
  "similarities": [<matching features>],
  "differences": [<notable differences>],
  "confidence": "<high|medium|low>",
  "productDetails": {
    "brand": "<brand or empty>",
    "model": "<model or empty>",
    "color": "<color or empty>",
    "condition": "<condition assessment>",
    "uniqueIdentifiers": [<serial numbers or marks>]
  },
  "recommendation": "<one sentence>"
}

Scoring guide: 90-100 very likely the same item, 70-89 probably the same,
50-69 possible match, below 50 unlikely.
`)
	return b.String()
}

func writeItem(b *strings.Builder, heading string, item domain.Item, date time.Time) {
	dateText := "unknown"
	if !date.IsZero() {
		dateText = date.Format(time.DateOnly)
	}
	fmt.Fprintf(b, "\n%s:\n- Title: %s\n- Description: %s\n- Category: %s\n- Location: %s\n- Date: %s\n",
		heading, item.Title, item.Description, item.Category, item.Location, dateText)
}

// imagePayload strips a data URL prefix and leaves raw base64.
func imagePayload(image string) string {
	image = strings.TrimSpace(image)
	if strings.HasPrefix(image, "data:") {
		if idx := strings.Index(image, ","); idx >= 0 {
			return image[idx+1:]
		}
	}
	return image
}
