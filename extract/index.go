package extract

import (
	"cmp"
	"slices"

	"golang.org/x/exp/constraints"

	"github.com/marcus-crane/boostboard/models"
)

// Index maps each podcast to the distinct episode names boosted on it
type Index map[string]map[string]struct{}

// BuildIndex groups boosts by podcast. Every podcast gets an entry even when
// all of its episode names are empty and includeEmpty is off.
func BuildIndex(boosts []models.Boost, includeEmpty bool) Index {
	index := make(Index)
	for _, boost := range boosts {
		episodes, ok := index[boost.Podcast]
		if !ok {
			episodes = make(map[string]struct{})
			index[boost.Podcast] = episodes
		}
		if boost.Episode == "" && !includeEmpty {
			continue
		}
		episodes[boost.Episode] = struct{}{}
	}
	return index
}

// Podcasts returns the distinct podcast names in ascending order
func (idx Index) Podcasts() []string {
	return sortedKeys(idx)
}

// Episodes returns the episode names for a podcast in ascending order
func (idx Index) Episodes(podcast string) []string {
	return sortedKeys(idx[podcast])
}

func sortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func descending[T constraints.Ordered](a, b T) int {
	return cmp.Compare(b, a)
}
