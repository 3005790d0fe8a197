// Package activity scores geographic entities against a corpus of news
// items by case-insensitive keyword matching.
package activity

import "time"

// TextItem is one headline from a news collaborator. Items are immutable
// once handed to a refresh cycle.
type TextItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	Link      string    `json:"link"`
	Timestamp time.Time `json:"timestamp"`
	IsAlert   bool      `json:"isAlert"`
}

// Tier is a discrete severity derived from a score. The vocabulary depends
// on the entity kind.
type Tier string

const (
	TierLow      Tier = "low"
	TierMedium   Tier = "medium"
	TierElevated Tier = "elevated"
	TierHigh     Tier = "high"
	TierCritical Tier = "critical"
)

// ParseTier maps a catalog severity string to a Tier, defaulting to low.
func ParseTier(s string) Tier {
	switch Tier(s) {
	case TierMedium, TierElevated, TierHigh, TierCritical:
		return Tier(s)
	}
	return TierLow
}

// Score is the result for one entity in one refresh cycle.
type Score struct {
	EntityID string     `json:"entityId"`
	Score    int        `json:"score"`
	Tier     Tier       `json:"tier"`
	Matched  []TextItem `json:"matched"`
	// MatchCount is the number of corpus items that matched, before the cap.
	MatchCount int `json:"matchCount"`
}
