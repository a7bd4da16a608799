package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// InvoiceExport is the top level of a `lightning-cli listinvoices` dump.
// Invoices are kept raw so that one odd record can't sink the whole export.
type InvoiceExport struct {
	Invoices []json.RawMessage `json:"invoices"`
}

type Invoice struct {
	Label              string  `json:"label"`
	Status             string  `json:"status"`
	PaidAt             int64   `json:"paid_at"`
	AmountReceivedMsat RawMsat `json:"amount_received_msat"`
	Description        string  `json:"description"`
	PaymentHash        string  `json:"payment_hash"`
}

// BoostMetadata is the Podcasting 2.0 TLV record embedded in a keysend
// invoice description. Only the fields we display are decoded.
type BoostMetadata struct {
	Podcast    LooseString `json:"podcast"`
	Episode    LooseString `json:"episode"`
	SenderName LooseString `json:"sender_name"`
	Message    LooseString `json:"message"`
	Action     LooseString `json:"action"`
	AppName    LooseString `json:"app_name"`
}

// RawMsat holds the amount as exported. It is only parsed once an invoice is
// known to be a boost, so a bad amount elsewhere in the export is ignored.
type RawMsat json.RawMessage

func (r *RawMsat) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// Msat parses the amount. A missing amount is zero.
func (r RawMsat) Msat() (Msat, error) {
	var m Msat
	if len(r) == 0 {
		return m, nil
	}
	err := json.Unmarshal(r, &m)
	return m, err
}

// Msat is an amount in millisatoshis. Core Lightning has emitted it both as a
// JSON number and as a quoted integer string depending on version.
type Msat int64

func (m *Msat) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*m = 0
		return nil
	}

	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		// Quoted amounts must be whole millisatoshis, we never guess at "12.5"
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid msat amount %q: %w", s, err)
		}
		*m = Msat(v)
		return nil
	}

	if strings.ContainsAny(raw, ".eE") {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid msat amount %s: %w", raw, err)
		}
		*m = Msat(math.Trunc(f))
		return nil
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid msat amount %s: %w", raw, err)
	}
	*m = Msat(v)
	return nil
}

// Sats converts to satoshis without rounding, so 1999 msat is 1.999 sats
func (m Msat) Sats() float64 {
	return float64(m) / 1000
}

// LooseString accepts any JSON scalar. Podcast apps are not consistent about
// types in TLV records and a numeric episode name shouldn't drop the boost.
type LooseString string

func (s *LooseString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null":
		*s = ""
	case strings.HasPrefix(raw, `"`):
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = LooseString(v)
	case strings.HasPrefix(raw, "{"), strings.HasPrefix(raw, "["):
		return fmt.Errorf("expected a scalar, got %s", raw)
	default:
		*s = LooseString(raw)
	}
	return nil
}

func (s LooseString) String() string {
	return string(s)
}
