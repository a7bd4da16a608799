package extract

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/marcus-crane/boostboard/models"
)

func keysendInvoice(label, status string, paidAt int64, amount string, description string) json.RawMessage {
	desc, _ := json.Marshal(description)
	return json.RawMessage(fmt.Sprintf(
		`{"label":%q,"status":%q,"paid_at":%d,"amount_received_msat":%s,"description":%s}`,
		label, status, paidAt, amount, desc,
	))
}

func exportOf(invoices ...json.RawMessage) *models.InvoiceExport {
	return &models.InvoiceExport{Invoices: invoices}
}

func mustExtract(t *testing.T, export *models.InvoiceExport) Result {
	t.Helper()
	result, err := Extract(export, Options{})
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func TestExtract_ProducesBoostFromKeysendInvoice(t *testing.T) {
	t.Parallel()
	export := exportOf(keysendInvoice(
		"keysend-1", "paid", 1000, `"5000"`,
		`keysend: {"podcast":"P","episode":"E","sender_name":"S","message":"hi"}`,
	))
	want := []models.Boost{
		{Timestamp: 1000, Podcast: "P", Episode: "E", Sender: "S", Message: "hi", Value: 5.0},
	}
	got := mustExtract(t, export).Boosts
	if !cmp.Equal(want, got) {
		t.Error(cmp.Diff(want, got))
	}
}

func TestExtract_SkipsNonKeysendAndUnpaid(t *testing.T) {
	t.Parallel()
	desc := `keysend: {"podcast":"P","episode":"E","sender_name":"S","message":"hi"}`
	export := exportOf(
		keysendInvoice("invoice-1", "paid", 1, `"1000"`, desc),
		keysendInvoice("keysend-2", "unpaid", 2, `"1000"`, desc),
		keysendInvoice("keysend-3", "expired", 3, `"1000"`, desc),
		keysendInvoice("Keysend-4", "paid", 4, `"1000"`, desc),
		keysendInvoice("my-keysend-5", "paid", 5, `"1000"`, desc),
	)
	result := mustExtract(t, export)
	if len(result.Boosts) != 0 {
		t.Errorf("expected no boosts; got %+v", result.Boosts)
	}
	want := Stats{Seen: 5}
	if !cmp.Equal(want, result.Stats) {
		t.Error(cmp.Diff(want, result.Stats))
	}
}

func TestExtract_MalformedMetadataOnlyDropsThatInvoice(t *testing.T) {
	t.Parallel()
	good := `keysend: {"podcast":"P","episode":"E","sender_name":"S","message":"hi"}`
	export := exportOf(
		keysendInvoice("keysend-1", "paid", 100, `"1000"`, good),
		keysendInvoice("keysend-2", "paid", 200, `"1000"`, "keysend: {not json"),
		keysendInvoice("keysend-3", "paid", 300, `"1000"`, `keysend: "just a string"`),
		keysendInvoice("keysend-4", "paid", 400, `"1000"`, "keysend: null"),
		keysendInvoice("keysend-5", "paid", 500, `"1000"`, `keysend: {"podcast":{"name":"nested"}}`),
		keysendInvoice("keysend-6", "paid", 600, `"2000"`, good),
	)
	result := mustExtract(t, export)
	want := []models.Boost{
		{Timestamp: 600, Podcast: "P", Episode: "E", Sender: "S", Message: "hi", Value: 2},
		{Timestamp: 100, Podcast: "P", Episode: "E", Sender: "S", Message: "hi", Value: 1},
	}
	if !cmp.Equal(want, result.Boosts) {
		t.Error(cmp.Diff(want, result.Boosts))
	}
	wantStats := Stats{Seen: 6, Qualifying: 6, Malformed: 4, Extracted: 2}
	if !cmp.Equal(wantStats, result.Stats) {
		t.Error(cmp.Diff(wantStats, result.Stats))
	}
}

func TestExtract_MissingFieldsDefaultToEmpty(t *testing.T) {
	t.Parallel()
	export := exportOf(keysendInvoice("keysend-1", "paid", 42, `"21000"`, `keysend: {}`))
	want := []models.Boost{{Timestamp: 42, Value: 21}}
	got := mustExtract(t, export).Boosts
	if !cmp.Equal(want, got) {
		t.Error(cmp.Diff(want, got))
	}
}

func TestExtract_ScalarMetadataIsStringified(t *testing.T) {
	t.Parallel()
	export := exportOf(keysendInvoice("keysend-1", "paid", 42, `"1000"`,
		`keysend: {"podcast":"P","episode":217,"sender_name":null,"message":true}`))
	want := []models.Boost{{Timestamp: 42, Podcast: "P", Episode: "217", Message: "true", Value: 1}}
	got := mustExtract(t, export).Boosts
	if !cmp.Equal(want, got) {
		t.Error(cmp.Diff(want, got))
	}
}

func TestExtract_AmountConversion(t *testing.T) {
	t.Parallel()
	desc := `keysend: {"podcast":"P"}`
	tests := []struct {
		name    string
		amount  string
		want    []float64
		wantErr bool
	}{
		{"quoted integer", `"1999"`, []float64{1.999}, false},
		{"quoted with whitespace", `" 5000 "`, []float64{5}, false},
		{"bare integer", `21000`, []float64{21}, false},
		{"bare fraction truncates", `1999.9`, []float64{1.999}, false},
		{"missing amount", `null`, []float64{0}, false},
		{"quoted fraction is rejected", `"1999.9"`, nil, true},
		{"quoted unit suffix is rejected", `"5000msat"`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Extract(exportOf(keysendInvoice("keysend-1", "paid", 1, tt.amount, desc)), Options{})
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error; got %+v", result.Boosts)
				}
				if !strings.Contains(err.Error(), "keysend-1") {
					t.Errorf("expected the invoice label in %q", err.Error())
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			got := []float64{}
			for _, b := range result.Boosts {
				got = append(got, b.Value)
			}
			if !cmp.Equal(tt.want, got) {
				t.Error(cmp.Diff(tt.want, got))
			}
		})
	}
}

func TestExtract_BadAmountFailsOnlyForBoosts(t *testing.T) {
	t.Parallel()
	desc := `keysend: {"podcast":"P"}`

	// Invoices that aren't boosts never have their amount looked at
	result := mustExtract(t, exportOf(
		keysendInvoice("invoice-1", "paid", 1, `"12.5"`, desc),
		keysendInvoice("keysend-2", "unpaid", 2, `"12.5"`, desc),
		keysendInvoice("keysend-3", "paid", 3, `"12.5"`, "keysend: {not json"),
		keysendInvoice("keysend-4", "paid", 4, `"1000"`, desc),
	))
	want := Stats{Seen: 4, Qualifying: 2, Malformed: 1, Extracted: 1}
	if !cmp.Equal(want, result.Stats) {
		t.Error(cmp.Diff(want, result.Stats))
	}

	_, err := Extract(exportOf(
		keysendInvoice("keysend-1", "paid", 1, `"1000"`, desc),
		keysendInvoice("keysend-2", "paid", 2, `"12.5"`, desc),
	), Options{})
	if err == nil {
		t.Fatal("expected an error for a boost with a fractional quoted amount")
	}
	if !strings.Contains(err.Error(), "keysend-2") {
		t.Errorf("expected the invoice label in %q", err.Error())
	}
}

func TestExtract_UnreadableRecordIsCounted(t *testing.T) {
	t.Parallel()
	export := exportOf(
		json.RawMessage(`{"label":"keysend-1","status":"paid","paid_at":"yesterday","description":"keysend: {}"}`),
		json.RawMessage(`"not an invoice"`),
	)
	result := mustExtract(t, export)
	want := Stats{Seen: 2, Unreadable: 2}
	if !cmp.Equal(want, result.Stats) {
		t.Error(cmp.Diff(want, result.Stats))
	}
}

func TestExtract_SortsNewestFirstAndKeepsTies(t *testing.T) {
	t.Parallel()
	export := exportOf(
		keysendInvoice("keysend-1", "paid", 100, `"1000"`, `keysend: {"sender_name":"first"}`),
		keysendInvoice("keysend-2", "paid", 300, `"1000"`, `keysend: {"sender_name":"newest"}`),
		keysendInvoice("keysend-3", "paid", 100, `"1000"`, `keysend: {"sender_name":"second"}`),
		keysendInvoice("keysend-4", "paid", 200, `"1000"`, `keysend: {"sender_name":"middle"}`),
	)
	boosts := mustExtract(t, export).Boosts
	for i := 1; i < len(boosts); i++ {
		if boosts[i-1].Timestamp < boosts[i].Timestamp {
			t.Fatalf("boosts out of order at %d: %d before %d", i, boosts[i-1].Timestamp, boosts[i].Timestamp)
		}
	}
	want := []string{"newest", "middle", "first", "second"}
	got := []string{}
	for _, b := range boosts {
		got = append(got, b.Sender)
	}
	if !cmp.Equal(want, got) {
		t.Error(cmp.Diff(want, got))
	}
}

func TestParseMetadata_MarkerIsRemovedOnce(t *testing.T) {
	t.Parallel()
	meta, err := ParseMetadata(`keysend: {"message":"keysend: is how this got here"}`)
	if err != nil {
		t.Fatal(err)
	}
	if want := "keysend: is how this got here"; meta.Message.String() != want {
		t.Errorf("want %q; got %q", want, meta.Message)
	}

	// The marker is not anchored to the start
	meta, err = ParseMetadata(` keysend: {"podcast":"P"}`)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Podcast != "P" {
		t.Errorf("want podcast P; got %q", meta.Podcast)
	}

	// No marker at all is still fine
	if _, err := ParseMetadata(`{"podcast":"P"}`); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadExport_Fixture(t *testing.T) {
	t.Parallel()
	export, err := LoadExport("testdata/invoices.json")
	if err != nil {
		t.Fatal(err)
	}
	result := mustExtract(t, export)
	want := []models.Boost{
		{Timestamp: 3000, Podcast: "Podcast B", Episode: "Ep 9", Sender: "bob", Message: "", Value: 21},
		{Timestamp: 2500, Podcast: "Podcast A", Episode: "", Sender: "carol", Message: "great show", Value: 1.999},
		{Timestamp: 1000, Podcast: "Podcast A", Episode: "Ep 1", Sender: "alice", Message: "hi", Value: 5},
	}
	if !cmp.Equal(want, result.Boosts) {
		t.Error(cmp.Diff(want, result.Boosts))
	}
	wantStats := Stats{Seen: 7, Qualifying: 4, Malformed: 1, Extracted: 3}
	if !cmp.Equal(wantStats, result.Stats) {
		t.Error(cmp.Diff(wantStats, result.Stats))
	}
	wantPodcasts := []string{"Podcast A", "Podcast B"}
	if got := result.Index.Podcasts(); !cmp.Equal(wantPodcasts, got) {
		t.Error(cmp.Diff(wantPodcasts, got))
	}
}

func TestLoadExport_ByteOrderMark(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bom.json")
	content := "\xef\xbb\xbf" + `{"invoices":[]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	export, err := LoadExport(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(export.Invoices) != 0 {
		t.Errorf("expected empty invoices; got %d", len(export.Invoices))
	}
}

func TestReadExport_Failures(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		input   string
		missing bool
		badUTF8 bool
	}{
		{"no invoices field", `{"payments":[]}`, true, false},
		{"null invoices", `{"invoices":null}`, true, false},
		{"not json", `invoices: []`, false, false},
		{"top level array", `[{"label":"keysend"}]`, false, false},
		{"empty file", ``, false, false},
		{"invalid utf-8 in a description", `{"invoices":[{"label":"keysend-1","description":"keysend: {\"podcast\":\"P` + "\xff\xfe" + `\"}"}]}`, false, true},
		{"utf-16 byte order mark", "\xff\xfe{\x00}\x00", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadExport(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := errors.Is(err, ErrMissingInvoices); got != tt.missing {
				t.Errorf("errors.Is(err, ErrMissingInvoices) = %v; want %v (%v)", got, tt.missing, err)
			}
			if got := errors.Is(err, ErrInvalidUTF8); got != tt.badUTF8 {
				t.Errorf("errors.Is(err, ErrInvalidUTF8) = %v; want %v (%v)", got, tt.badUTF8, err)
			}
		})
	}
}

func TestLoadExport_InvalidUTF8(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "corrupt.json")
	content := `{"invoices":[{"label":"keysend-1","status":"paid","description":"keysend: {\"podcast\":\"P` + "\xff\xfe" + `\"}"}]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	export, err := LoadExport(path)
	if err == nil {
		t.Fatalf("expected an error; got %d invoices", len(export.Invoices))
	}
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Errorf("expected ErrInvalidUTF8; got %v", err)
	}
	if !strings.Contains(err.Error(), "corrupt.json") {
		t.Errorf("expected the path in %q", err.Error())
	}
}

func TestLoadExport_MissingFile(t *testing.T) {
	t.Parallel()
	_, err := LoadExport(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if !os.IsNotExist(errors.Cause(err)) {
		t.Errorf("expected a not-exist cause; got %v", err)
	}
}
