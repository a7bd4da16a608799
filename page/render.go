package page

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/marcus-crane/boostboard/models"
	"github.com/marcus-crane/boostboard/shared"
)

var (
	//go:embed assets/dashboard.html
	dashboardSkeleton string

	//go:embed assets/view.js
	viewScript string

	//go:embed assets/app.js
	appScript string
)

var dashboard = NewTemplate(dashboardSkeleton)

type Options struct {
	Title string
	// GroupBoosts merges message-less boosts from the same listener when the page loads
	GroupBoosts bool
	// IncludeEmptyEpisodes offers a blank episode in the episode filter
	IncludeEmptyEpisodes bool
}

func DefaultOptions() Options {
	return Options{
		Title:       shared.DEFAULT_PAGE_TITLE,
		GroupBoosts: true,
	}
}

// viewOptions is what the page script sees as `viewOptions`
type viewOptions struct {
	GroupBoosts          bool `json:"groupBoosts"`
	IncludeEmptyEpisodes bool `json:"includeEmptyEpisodes"`
}

// Render builds the complete dashboard. Nothing is written to disk so a
// failure here never leaves a half-written page behind.
func Render(boosts []models.Boost, podcasts []string, opts Options) (string, error) {
	if boosts == nil {
		boosts = []models.Boost{}
	}
	boostsJSON, err := json.Marshal(boosts)
	if err != nil {
		return "", errors.Wrap(err, "could not serialise boosts")
	}
	optionsJSON, err := json.Marshal(viewOptions{
		GroupBoosts:          opts.GroupBoosts,
		IncludeEmptyEpisodes: opts.IncludeEmptyEpisodes,
	})
	if err != nil {
		return "", errors.Wrap(err, "could not serialise view options")
	}

	title := opts.Title
	if title == "" {
		title = shared.DEFAULT_PAGE_TITLE
	}

	return fill(dashboard, map[string]string{
		"title":           html.EscapeString(title),
		"podcast_options": PodcastOptions(podcasts),
		"boosts_json":     string(boostsJSON),
		"view_options":    string(optionsJSON),
		"view_script":     viewScript,
		"app_script":      appScript,
	})
}

func fill(t *Template, values map[string]string) (string, error) {
	if err := t.Validate(values); err != nil {
		return "", errors.Wrap(err, "dashboard template does not match its values")
	}
	return t.Substitute(values)
}

// PodcastOptions renders one <option> per podcast. Names go in verbatim.
func PodcastOptions(podcasts []string) string {
	options := make([]string, 0, len(podcasts))
	for _, podcast := range podcasts {
		options = append(options, fmt.Sprintf(`<option value="%s">%s</option>`, podcast, podcast))
	}
	return strings.Join(options, "\n")
}

// Write replaces whatever is at path with the rendered page
func Write(path string, page string) error {
	if err := os.WriteFile(path, []byte(page), 0644); err != nil {
		return errors.Wrapf(err, "could not write dashboard to %s", path)
	}
	return nil
}
