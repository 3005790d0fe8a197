package activity

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Entity is anything scored against the corpus.
type Entity struct {
	ID       string
	Keywords []string
	Policy   *Policy
	// Severity is the catalog tier used by static policies.
	Severity Tier
}

// Index holds one automaton over the keywords of a set of entities. It is
// safe for concurrent use.
type Index struct {
	entities []Entity
	matcher  *ahocorasick.Matcher
	keywords []string
	// owners maps a keyword position to the entities that carry it.
	owners [][]int
}

// NewIndex builds the automaton. Keywords are lowercased and trimmed, empty
// ones are dropped, and a keyword repeated within one entity counts once.
// Entities without a policy are scored as hotspots.
func NewIndex(entities []Entity) *Index {
	idx := &Index{entities: make([]Entity, len(entities))}
	copy(idx.entities, entities)
	positions := make(map[string]int)
	for i, e := range idx.entities {
		if e.Policy == nil {
			idx.entities[i].Policy = HotspotPolicy
		}
		seen := make(map[string]struct{}, len(e.Keywords))
		for _, kw := range e.Keywords {
			kw = normalizeKeyword(kw)
			if kw == "" {
				continue
			}
			if _, dup := seen[kw]; dup {
				continue
			}
			seen[kw] = struct{}{}
			pos, ok := positions[kw]
			if !ok {
				pos = len(idx.keywords)
				positions[kw] = pos
				idx.keywords = append(idx.keywords, kw)
				idx.owners = append(idx.owners, nil)
			}
			idx.owners[pos] = append(idx.owners[pos], i)
		}
	}
	if len(idx.keywords) > 0 {
		idx.matcher = ahocorasick.NewStringMatcher(idx.keywords)
	}
	return idx
}

func normalizeKeyword(kw string) string {
	return strings.ToLower(strings.TrimSpace(kw))
}

// Score evaluates every entity against corpus. Every entity gets an entry,
// including those with no matches. Matched items keep corpus order.
func (idx *Index) Score(corpus []TextItem) map[string]Score {
	alerts := 0
	for _, item := range corpus {
		if item.IsAlert {
			alerts++
		}
	}

	scores := make([]int, len(idx.entities))
	matchCounts := make([]int, len(idx.entities))
	matched := make([][]TextItem, len(idx.entities))
	hitsPerEntity := make([]int, len(idx.entities))

	if idx.matcher != nil {
		var touched []int
		for _, item := range corpus {
			title := strings.ToLower(item.Title)
			if title == "" {
				continue
			}
			touched = touched[:0]
			for _, pos := range idx.matcher.MatchThreadSafe([]byte(title)) {
				for _, ei := range idx.owners[pos] {
					if hitsPerEntity[ei] == 0 {
						touched = append(touched, ei)
					}
					hitsPerEntity[ei]++
				}
			}
			for _, ei := range touched {
				p := idx.entities[ei].Policy
				switch p.Accumulation {
				case PerKeyword:
					scores[ei] += hitsPerEntity[ei]
				default:
					scores[ei]++
				}
				if item.IsAlert {
					scores[ei] += p.MatchAlertBonus
				}
				matchCounts[ei]++
				if len(matched[ei]) < p.MatchCap {
					matched[ei] = append(matched[ei], item)
				}
				hitsPerEntity[ei] = 0
			}
		}
	}

	out := make(map[string]Score, len(idx.entities))
	for i, e := range idx.entities {
		score := scores[i] + alerts*e.Policy.CorpusAlertBonus
		out[e.ID] = Score{
			EntityID:   e.ID,
			Score:      score,
			Tier:       e.Policy.TierFor(score, e.Severity),
			Matched:    matched[i],
			MatchCount: matchCounts[i],
		}
	}
	return out
}

// ScoreEntities is a one-shot helper: build an index and score corpus.
func ScoreEntities(entities []Entity, corpus []TextItem) map[string]Score {
	return NewIndex(entities).Score(corpus)
}
