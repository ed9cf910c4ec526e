// Package guardrail renders the constraint block handed to a downstream
// summarizer. The block is built from catalog-validated symptoms only.
package guardrail

import (
	"fmt"
	"strings"

	"github.com/rcliao/symptom-catalog/internal/model"
)

// Header opens every constraint block.
const Header = "VALIDATED SYMPTOMS EXTRACTED:"

// Item is one symptom the summarizer may mention.
type Item struct {
	Name     string `json:"name" yaml:"name"`
	Code     string `json:"code" yaml:"code"`
	Category string `json:"category" yaml:"category"`
}

// Items returns the validated symptoms of r as (name, code, category) triples.
// Unknown mentions are never included.
func Items(r model.ExtractionResult) []Item {
	items := make([]Item, 0, len(r.Validated))
	for _, v := range r.Validated {
		items = append(items, Item{Name: v.Name, Code: v.Code, Category: v.Category})
	}
	return items
}

// Block renders the constraint block for r.
func Block(r model.ExtractionResult) string {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteByte('\n')

	items := Items(r)
	if len(items) == 0 {
		b.WriteString("- none detected\n\n")
		b.WriteString("Do NOT report any symptoms. State that no validated symptoms were identified.\n")
		return b.String()
	}
	for _, it := range items {
		fmt.Fprintf(&b, "- %s (Code: %s, Category: %s)\n", it.Name, it.Code, it.Category)
	}
	b.WriteString("\nYou MUST ONLY reference the symptoms listed above. ")
	b.WriteString("Do NOT infer, add or rename symptoms that are not in this list.\n")
	return b.String()
}
