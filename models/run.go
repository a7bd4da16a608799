package models

// Run is one invocation of the generator as recorded in the archive
type Run struct {
	ID           string  `db:"id"`
	CreatedAt    int64   `db:"created_at"`
	InputPath    string  `db:"input_path"`
	OutputPath   string  `db:"output_path"`
	InvoicesSeen int     `db:"invoices_seen"`
	Malformed    int     `db:"malformed"`
	Boosts       int     `db:"boosts"`
	TotalSats    float64 `db:"total_sats"`
}

// ArchivedBoost is a boost row in the archive
type ArchivedBoost struct {
	ID         string  `db:"id"`
	Timestamp  int64   `db:"timestamp"`
	Podcast    string  `db:"podcast"`
	Episode    string  `db:"episode"`
	Sender     string  `db:"sender"`
	Message    string  `db:"message"`
	Value      float64 `db:"value"`
	FirstRunID string  `db:"first_run_id"`
	LastRunID  string  `db:"last_run_id"`
}
