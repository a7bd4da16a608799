package extract

import (
	"slices"
	"strings"

	"github.com/marcus-crane/boostboard/models"
)

// IsRealMessage matches the dashboard's "Only Messages" rule. Some apps send
// a lone "." or "-" when the listener didn't type anything.
func IsRealMessage(message string) bool {
	msg := strings.TrimSpace(message)
	return msg != "" && msg != "." && msg != "-"
}

// Summarize totals boosts overall and per podcast, biggest podcast first
func Summarize(boosts []models.Boost) models.Summary {
	summary := models.Summary{Podcasts: []models.PodcastTotal{}}
	totals := map[string]*models.PodcastTotal{}

	for _, boost := range boosts {
		summary.Boosts++
		summary.Sats += boost.Value
		if IsRealMessage(boost.Message) {
			summary.Messages++
		}

		total, ok := totals[boost.Podcast]
		if !ok {
			total = &models.PodcastTotal{Podcast: boost.Podcast}
			totals[boost.Podcast] = total
		}
		total.Boosts++
		total.Sats += boost.Value
	}

	for _, podcast := range sortedKeys(totals) {
		summary.Podcasts = append(summary.Podcasts, *totals[podcast])
	}
	slices.SortStableFunc(summary.Podcasts, func(a, b models.PodcastTotal) int {
		return descending(a.Sats, b.Sats)
	})

	return summary
}
