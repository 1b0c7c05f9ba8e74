// Package news holds the article domain types and the keyword categorizer.
package news

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Category is the topical tag assigned to an article at persist time.
type Category string

const (
	CategoryPower Category = "power-outage"
	CategoryWater Category = "water-outage"
	CategoryOther Category = "other"
)

// Article is a persisted, deduplicated news record.
// ExternalID is the source site's own article identifier and the sole dedupe key.
type Article struct {
	ID         int64
	ExternalID int64
	Title      string
	Link       string
	Content    string
	Category   Category
	Date       time.Time
	CreatedAt  time.Time
}

// Candidate is a not-yet-verified article record parsed from the listing page.
// It lives for one tick and never persists.
type Candidate struct {
	ExternalID int64
	Title      string
	Link       string
	Date       time.Time
}

// Keywords are the categorizer stems. Matching is substring-based and
// case-insensitive; power is checked before water, first match wins.
type Keywords struct {
	Power []string `yaml:"power"`
	Water []string `yaml:"water"`
}

// DefaultKeywords returns the built-in stems for the municipal outage notices.
func DefaultKeywords() Keywords {
	return Keywords{
		Power: []string{"электроснабжен", "электроэнерг", "электричеств"},
		Water: []string{"водоснабжен", "водоотведен", "водопровод"},
	}
}

// LoadKeywords reads stems from a YAML file. A missing file is not an error:
// the built-in defaults are returned instead.
func LoadKeywords(path string) (Keywords, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultKeywords(), nil
		}
		return Keywords{}, fmt.Errorf("open keywords config: %w", err)
	}
	defer f.Close()

	var kw Keywords
	if err := yaml.NewDecoder(f).Decode(&kw); err != nil {
		return Keywords{}, fmt.Errorf("decode keywords config: %w", err)
	}
	if len(kw.Power) == 0 {
		kw.Power = DefaultKeywords().Power
	}
	if len(kw.Water) == 0 {
		kw.Water = DefaultKeywords().Water
	}
	return kw, nil
}

// Categorize maps a title to a category tag.
func (k Keywords) Categorize(title string) Category {
	t := strings.ToLower(title)
	if containsAny(t, k.Power) {
		return CategoryPower
	}
	if containsAny(t, k.Water) {
		return CategoryWater
	}
	return CategoryOther
}

func containsAny(text string, stems []string) bool {
	for _, s := range stems {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

// FormatNotification builds the webhook message body: title, the possibly
// shortened content, a note when it was shortened, and the canonical link.
func FormatNotification(a Article, text string, shortened bool) string {
	var b strings.Builder
	b.WriteString("📰 " + a.Title + "\n")
	if text != "" {
		b.WriteString("\n" + text + "\n")
	}
	if shortened {
		b.WriteString("\n✂️ Текст сокращён, полная версия по ссылке.\n")
	}
	b.WriteString("\n📎 " + a.Link)
	return b.String()
}
