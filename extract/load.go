package extract

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/marcus-crane/boostboard/models"
)

var (
	ErrMissingInvoices = errors.New("export has no invoices field")
	ErrInvalidUTF8     = errors.New("export is not valid UTF-8")
)

// LoadExport reads a listinvoices dump from disk
func LoadExport(path string) (*models.InvoiceExport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open invoice export %s", path)
	}
	defer f.Close()

	export, err := ReadExport(f)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read invoice export %s", path)
	}
	return export, nil
}

// ReadExport decodes an export as strict UTF-8. A leading byte order mark,
// which some Windows editors add, is dropped.
func ReadExport(r io.Reader) (*models.InvoiceExport, error) {
	decoded := transform.NewReader(r, transform.Chain(
		encoding.UTF8Validator,
		unicode.BOMOverride(transform.Nop),
	))

	var export models.InvoiceExport
	if err := json.NewDecoder(decoded).Decode(&export); err != nil {
		if errors.Is(err, encoding.ErrInvalidUTF8) {
			return nil, ErrInvalidUTF8
		}
		return nil, errors.Wrap(err, "invalid JSON")
	}
	if export.Invoices == nil {
		return nil, ErrMissingInvoices
	}
	return &export, nil
}
