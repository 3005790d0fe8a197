package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sudorandom/situation-map/pkg/activity"
	"github.com/sudorandom/situation-map/pkg/utils"
)

// ParseCorpus decodes a JSON array of news items, or an object holding one
// under "items". Items without a title are dropped.
func ParseCorpus(r io.Reader) ([]activity.TextItem, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)

	var items []activity.TextItem
	if len(data) > 0 && data[0] == '{' {
		var wrapped struct {
			Items []activity.TextItem `json:"items"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return nil, fmt.Errorf("decode corpus: %w", err)
		}
		items = wrapped.Items
	} else if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}

	out := items[:0]
	for i, it := range items {
		if it.Title == "" {
			continue
		}
		if it.ID == "" {
			it.ID = fmt.Sprintf("item_%d", i)
		}
		out = append(out, it)
	}
	return out, nil
}

// FetchCorpus reads a corpus from a URL or a local path.
func FetchCorpus(ctx context.Context, location string) ([]activity.TextItem, error) {
	rc, err := utils.GetCachedReader(ctx, location, false, "[Corpus]")
	if err != nil {
		return nil, fmt.Errorf("fetch corpus: %w", err)
	}
	defer func() { _ = rc.Close() }()
	return ParseCorpus(rc)
}
