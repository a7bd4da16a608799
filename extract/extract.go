package extract

import (
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/marcus-crane/boostboard/models"
	"github.com/marcus-crane/boostboard/shared"
)

type Options struct {
	// IncludeEmptyEpisodes keeps boosts without an episode name in the index.
	// The page derives its own episode options, so the server-side episode
	// sets only feed diagnostics.
	IncludeEmptyEpisodes bool
}

// Stats counts what happened to each invoice in an export. None of it ends
// up on the page, it is purely diagnostic.
type Stats struct {
	Seen       int
	Unreadable int // invoice record itself could not be decoded
	Qualifying int // paid keysend invoices
	Malformed  int // qualifying, but the description was not usable metadata
	Extracted  int
}

type Result struct {
	Boosts []models.Boost
	Index  Index
	Stats  Stats
}

// Extract turns every paid keysend invoice with readable metadata into a
// Boost, newest first. Bad records and malformed metadata are skipped and
// counted. A boost whose amount can't be parsed fails the whole export.
func Extract(export *models.InvoiceExport, opts Options) (Result, error) {
	var stats Stats
	boosts := []models.Boost{}

	for i, raw := range export.Invoices {
		stats.Seen++

		var invoice models.Invoice
		if err := json.Unmarshal(raw, &invoice); err != nil {
			stats.Unreadable++
			slog.Debug("Skipping unreadable invoice",
				slog.Int("index", i),
				slog.String("error", err.Error()),
			)
			continue
		}

		if !Qualifies(invoice) {
			continue
		}
		stats.Qualifying++

		meta, err := ParseMetadata(invoice.Description)
		if err != nil {
			stats.Malformed++
			slog.Debug("Skipping boost with malformed metadata",
				slog.String("label", invoice.Label),
				slog.String("error", err.Error()),
			)
			continue
		}

		boost, err := NewBoost(invoice, meta)
		if err != nil {
			return Result{}, err
		}
		boosts = append(boosts, boost)
	}

	SortNewestFirst(boosts)
	stats.Extracted = len(boosts)

	return Result{
		Boosts: boosts,
		Index:  BuildIndex(boosts, opts.IncludeEmptyEpisodes),
		Stats:  stats,
	}, nil
}

// Qualifies reports whether an invoice is a settled keysend payment
func Qualifies(invoice models.Invoice) bool {
	return strings.HasPrefix(invoice.Label, shared.KEYSEND_LABEL_PREFIX) &&
		invoice.Status == shared.INVOICE_STATUS_PAID
}

// ParseMetadata strips the first "keysend: " marker wherever it appears and
// decodes the rest as a JSON object.
func ParseMetadata(description string) (models.BoostMetadata, error) {
	var meta models.BoostMetadata
	payload := strings.Replace(description, shared.KEYSEND_DESCRIPTION_MARKER, "", 1)
	if strings.TrimSpace(payload) == "null" {
		return meta, errors.New("description is not boost metadata: null")
	}
	if err := json.Unmarshal([]byte(payload), &meta); err != nil {
		return meta, errors.Wrap(err, "description is not boost metadata")
	}
	return meta, nil
}

func NewBoost(invoice models.Invoice, meta models.BoostMetadata) (models.Boost, error) {
	amount, err := invoice.AmountReceivedMsat.Msat()
	if err != nil {
		return models.Boost{}, errors.Wrapf(err, "invoice %s has an unusable amount", invoice.Label)
	}
	return models.Boost{
		Timestamp: invoice.PaidAt,
		Podcast:   meta.Podcast.String(),
		Episode:   meta.Episode.String(),
		Sender:    meta.SenderName.String(),
		Message:   meta.Message.String(),
		Value:     amount.Sats(),
	}, nil
}

// SortNewestFirst orders by timestamp descending, keeping export order on ties
func SortNewestFirst(boosts []models.Boost) {
	slices.SortStableFunc(boosts, func(a, b models.Boost) int {
		return descending(a.Timestamp, b.Timestamp)
	})
}
