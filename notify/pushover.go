package notify

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/gregdel/pushover"
	"github.com/pkg/errors"

	"github.com/marcus-crane/boostboard/models"
)

const (
	messageTitle = "Boosts dashboard updated"
	topPodcasts  = 3
)

type Notifier interface {
	Notify(summary models.Summary, outputPath string) error
}

type Pushover struct {
	app       *pushover.Pushover
	recipient *pushover.Recipient
}

func NewPushover(token, recipient string) *Pushover {
	return &Pushover{
		app:       pushover.New(token),
		recipient: pushover.NewRecipient(recipient),
	}
}

func (p *Pushover) Notify(summary models.Summary, outputPath string) error {
	message := &pushover.Message{
		Message:   FormatMessage(summary, outputPath),
		Title:     messageTitle,
		Timestamp: time.Now().Unix(),
	}
	if _, err := p.app.SendMessage(message, p.recipient); err != nil {
		return errors.Wrap(err, "could not send pushover notification")
	}
	return nil
}

// FormatMessage describes a run in a few lines, biggest podcasts first
func FormatMessage(summary models.Summary, outputPath string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s for %s sats, %s\n",
		english.Plural(summary.Boosts, "boost", ""),
		humanize.Commaf(summary.Sats),
		english.Plural(summary.Messages, "message", ""),
	)

	for i, total := range summary.Podcasts {
		if i == topPodcasts {
			more := len(summary.Podcasts) - topPodcasts
			fmt.Fprintf(&b, "...and %d more %s\n", more, english.PluralWord(more, "podcast", ""))
			break
		}
		name := total.Podcast
		if name == "" {
			name = "(unknown podcast)"
		}
		fmt.Fprintf(&b, "%s: %s sats from %s\n", name, humanize.Commaf(total.Sats), english.Plural(total.Boosts, "boost", ""))
	}

	if outputPath != "" {
		fmt.Fprintf(&b, "Written to %s", outputPath)
	}

	return truncate(strings.TrimRight(b.String(), "\n"), pushover.MessageMaxLength)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}
