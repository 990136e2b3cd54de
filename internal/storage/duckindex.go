package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/marcboeker/go-duckdb"
	"github.com/sirupsen/logrus"

	"github.com/kolam-koders/backend/internal/models"
)

const artifactColumns = `id, file_name, format, content_type, seed, width, height,
	num_motifs, instruction_count, size, created_at, url`

// DuckIndex persists artifact metadata in a DuckDB file so the recent list
// survives restarts.
type DuckIndex struct {
	db     *sql.DB
	dbPath string
}

// NewDuckIndex opens (or creates) the index database at dbPath. An empty
// path opens an in-memory database.
func NewDuckIndex(dbPath string, threads int) (*DuckIndex, error) {
	log := logrus.WithFields(logrus.Fields{"component": "duckindex", "path": dbPath})
	if threads < 1 {
		threads = 1
	}

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			fmt.Sprintf("PRAGMA threads=%d", threads),
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS artifacts (
			id VARCHAR PRIMARY KEY,
			file_name VARCHAR NOT NULL,
			format VARCHAR NOT NULL,
			content_type VARCHAR,
			seed VARCHAR,
			width INTEGER,
			height INTEGER,
			num_motifs INTEGER,
			instruction_count INTEGER,
			size BIGINT,
			created_at TIMESTAMP NOT NULL,
			url VARCHAR
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create artifacts table: %w", err)
	}

	log.Debug("artifact index opened")
	return &DuckIndex{db: db, dbPath: dbPath}, nil
}

func (d *DuckIndex) Put(info *models.ArtifactInfo) error {
	_, err := d.db.Exec(`INSERT OR REPLACE INTO artifacts (`+artifactColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		info.ID, info.FileName, info.Format, info.ContentType, info.Seed,
		info.Width, info.Height, info.NumMotifs, info.InstructionCount,
		info.Size, info.CreatedAt.UTC(), info.URL,
	)
	if err != nil {
		return fmt.Errorf("insert artifact %s: %w", info.ID, err)
	}
	return nil
}

func (d *DuckIndex) Get(id string) (*models.ArtifactInfo, error) {
	row := d.db.QueryRow(`SELECT `+artifactColumns+` FROM artifacts WHERE id = ?`, id)
	info, err := scanArtifact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query artifact %s: %w", id, err)
	}
	return info, nil
}

func (d *DuckIndex) List(limit int) ([]*models.ArtifactInfo, error) {
	query := `SELECT ` + artifactColumns + ` FROM artifacts ORDER BY created_at DESC, id`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return d.query(query, args...)
}

func (d *DuckIndex) Delete(id string) error {
	res, err := d.db.Exec(`DELETE FROM artifacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete artifact %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DuckIndex) OlderThan(cutoff time.Time) ([]*models.ArtifactInfo, error) {
	return d.query(`SELECT `+artifactColumns+` FROM artifacts
		WHERE created_at < ? ORDER BY created_at`, cutoff.UTC())
}

// Close closes the database connection.
func (d *DuckIndex) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

func (d *DuckIndex) query(query string, args ...interface{}) ([]*models.ArtifactInfo, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	list := make([]*models.ArtifactInfo, 0)
	for rows.Next() {
		info, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, info)
	}
	return list, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArtifact(row rowScanner) (*models.ArtifactInfo, error) {
	var (
		info        models.ArtifactInfo
		contentType sql.NullString
		seed        sql.NullString
		url         sql.NullString
	)
	err := row.Scan(
		&info.ID, &info.FileName, &info.Format, &contentType, &seed,
		&info.Width, &info.Height, &info.NumMotifs, &info.InstructionCount,
		&info.Size, &info.CreatedAt, &url,
	)
	if err != nil {
		return nil, err
	}
	info.ContentType = contentType.String
	info.Seed = seed.String
	info.URL = url.String
	info.CreatedAt = info.CreatedAt.UTC()
	return &info, nil
}
