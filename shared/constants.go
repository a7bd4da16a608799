package shared

const (
	// Core Lightning labels spontaneous payments "keysend-<timestamp>-<n>"
	KEYSEND_LABEL_PREFIX = "keysend"
	// Prefixed to the description of keysend invoices that carry TLV metadata
	KEYSEND_DESCRIPTION_MARKER = "keysend: "

	INVOICE_STATUS_PAID = "paid"

	HTML_EXTENSION = ".html"

	DEFAULT_PAGE_TITLE = "Podcasting 2.0 Boosts Dashboard"
)
