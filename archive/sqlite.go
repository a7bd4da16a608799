package archive

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/marcus-crane/boostboard/migrations"
	"github.com/marcus-crane/boostboard/models"

	_ "modernc.org/sqlite"
)

// Store keeps a history of generator runs and every boost they saw. The
// dashboard itself never reads it back.
type Store interface {
	ApplyMigrations() error
	RecordRun(run models.Run, boosts []models.Boost) error
	GetRuns() ([]models.Run, error)
	GetBoosts() ([]models.ArchivedBoost, error)
	Close() error
}

type SqliteStore struct {
	DB *sqlx.DB
}

func NewSqliteStore(dsn string) (Store, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open archive %s", dsn)
	}
	return &SqliteStore{
		DB: db,
	}, nil
}

func (s *SqliteStore) ApplyMigrations() error {
	goose.SetBaseFS(migrations.GetMigrations())
	goose.SetLogger(gooseLogger{})

	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		return err
	}

	if err := goose.Up(s.DB.DB, "."); err != nil {
		return errors.Wrap(err, "could not migrate archive")
	}

	return nil
}

// RecordRun stores a run and upserts its boosts in one transaction. A boost
// already seen by an earlier run keeps its first run and gets its last run
// bumped.
func (s *SqliteStore) RecordRun(run models.Run, boosts []models.Boost) error {
	tx, err := s.DB.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(
		`INSERT INTO runs (id, created_at, input_path, output_path, invoices_seen, malformed, boosts, total_sats)
		VALUES (:id, :created_at, :input_path, :output_path, :invoices_seen, :malformed, :boosts, :total_sats)`,
		run,
	)
	if err != nil {
		return errors.Wrapf(err, "could not record run %s", run.ID)
	}

	query := `
	INSERT INTO boosts (id, timestamp, podcast, episode, sender, message, value, first_run_id, last_run_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
	last_run_id = excluded.last_run_id
	`
	for _, boost := range boosts {
		_, err := tx.Exec(query,
			BoostID(boost),
			boost.Timestamp,
			boost.Podcast,
			boost.Episode,
			boost.Sender,
			boost.Message,
			boost.Value,
			run.ID,
			run.ID,
		)
		if err != nil {
			return errors.Wrapf(err, "could not archive boost from %s", boost.Sender)
		}
	}

	return tx.Commit()
}

func (s *SqliteStore) GetRuns() ([]models.Run, error) {
	runs := []models.Run{}
	if err := s.DB.Select(&runs, "SELECT id, created_at, input_path, output_path, invoices_seen, malformed, boosts, total_sats FROM runs ORDER BY created_at asc"); err != nil {
		return runs, err
	}
	return runs, nil
}

func (s *SqliteStore) GetBoosts() ([]models.ArchivedBoost, error) {
	boosts := []models.ArchivedBoost{}
	if err := s.DB.Select(&boosts, "SELECT id, timestamp, podcast, episode, sender, message, value, first_run_id, last_run_id FROM boosts ORDER BY timestamp desc"); err != nil {
		return boosts, err
	}
	return boosts, nil
}

func (s *SqliteStore) Close() error {
	return s.DB.Close()
}

// NewRun starts a run record with a fresh ID
func NewRun(inputPath, outputPath string, createdAt time.Time) models.Run {
	return models.Run{
		ID:         uuid.NewString(),
		CreatedAt:  createdAt.Unix(),
		InputPath:  inputPath,
		OutputPath: outputPath,
	}
}

// BoostID identifies a boost by its content, so re-running over an export
// that overlaps an earlier one doesn't archive the same boost twice.
func BoostID(boost models.Boost) string {
	hashString := fmt.Sprintf("%d-%s-%s-%s-%s-%g",
		boost.Timestamp,
		boost.Podcast,
		boost.Episode,
		boost.Sender,
		boost.Message,
		boost.Value,
	)
	return fmt.Sprintf("boost:%d", xxhash.Sum64String(hashString))
}
