package db

import (
	"database/sql"

	"github.com/hliu/keepsake/internal/errors"
	"github.com/hliu/keepsake/internal/record"
)

// Insert stores a new record and its image references in one transaction.
func Insert(db *sql.DB, r *record.Record) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO records (
			id, title, content, music_url, music_title,
			created_at, updated_at, seal_until, auto_destroy_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.Exec(query,
		r.ID, r.Title, r.Content, toNullString(r.MusicURL), toNullString(r.MusicTitle),
		r.CreatedAt, r.UpdatedAt, toNullInt64(r.SealUntil), toNullInt64(r.AutoDestroyAt),
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	if err := insertAssets(tx, r.ID, r.Images); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetByID retrieves a record by its ULID, including its ordered image
// references. No temporal evaluation happens here; callers apply
// record.StateAt before exposing the result.
func GetByID(db *sql.DB, id string) (*record.Record, error) {
	query := `
		SELECT id, title, content, music_url, music_title,
			created_at, updated_at, seal_until, auto_destroy_at
		FROM records
		WHERE id = ?
	`
	r, err := scanRecord(db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	r.Images, err = loadAssets(db, id)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Update applies mutable fields of r inside a single transaction, guarded
// against the row's current temporal state at `now`:
//   - absent row: NOT_FOUND
//   - auto_destroy_at <= now: row is destroyed here and NOT_FOUND returned
//   - seal_until > now: SEALED, row untouched
//
// On success updated_at is set to now, both in the database and on r.
func Update(db *sql.DB, r *record.Record, now int64) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	if err := guardMutable(tx, r.ID, now); err != nil {
		return err
	}

	query := `
		UPDATE records
		SET title = ?, content = ?, music_url = ?, music_title = ?, updated_at = ?
		WHERE id = ?
	`
	if _, err := tx.Exec(query,
		r.Title, r.Content, toNullString(r.MusicURL), toNullString(r.MusicTitle), now, r.ID,
	); err != nil {
		return errors.NewInternal(err)
	}

	if _, err := tx.Exec(`DELETE FROM record_assets WHERE record_id = ?`, r.ID); err != nil {
		return errors.NewInternal(err)
	}
	if err := insertAssets(tx, r.ID, r.Images); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}

	r.UpdatedAt = now
	return nil
}

// Seal sets the seal timestamps on a record, guarded like Update: sealing
// an already-sealed record fails with SEALED, and a destroyed record is
// removed and reported NOT_FOUND. updated_at advances to now.
func Seal(db *sql.DB, id string, cfg record.SealConfig, now int64) error {
	tx, err := db.Begin()
	if err != nil {
		return errors.NewInternal(err)
	}
	defer tx.Rollback()

	if err := guardMutable(tx, id, now); err != nil {
		return err
	}

	query := `
		UPDATE records
		SET seal_until = ?, auto_destroy_at = ?, updated_at = ?
		WHERE id = ?
	`
	if _, err := tx.Exec(query, toNullInt64(cfg.SealUntil), toNullInt64(cfg.AutoDestroyAt), now, id); err != nil {
		return errors.NewInternal(err)
	}

	if err := tx.Commit(); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Delete removes a record and its image references regardless of seal
// state. Deleting an absent id fails with NOT_FOUND so callers can detect
// double deletes.
func Delete(db *sql.DB, id string) error {
	result, err := db.Exec(`DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// List returns records ordered by created_at descending, plus the total
// count matching the same filter. Records past auto_destroy_at are always
// excluded; sealed records only appear when includeSealed is set.
func List(db *sql.DB, includeSealed bool, now int64, limit, offset int) ([]*record.Record, int, error) {
	filter := ` WHERE (auto_destroy_at IS NULL OR auto_destroy_at > ?)`
	args := []any{now}
	if !includeSealed {
		filter += ` AND (seal_until IS NULL OR seal_until <= ?)`
		args = append(args, now)
	}

	var total int
	if err := db.QueryRow(`SELECT COUNT(*) FROM records`+filter, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `
		SELECT id, title, content, music_url, music_title,
			created_at, updated_at, seal_until, auto_destroy_at
		FROM records` + filter + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`
	rows, err := db.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var records []*record.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	for _, r := range records {
		r.Images, err = loadAssets(db, r.ID)
		if err != nil {
			return nil, 0, err
		}
	}

	return records, total, nil
}

// ListAll returns every live record ordered by created_at descending,
// with assets loaded. Used by export.
func ListAll(db *sql.DB, now int64) ([]*record.Record, error) {
	query := `
		SELECT id, title, content, music_url, music_title,
			created_at, updated_at, seal_until, auto_destroy_at
		FROM records
		WHERE auto_destroy_at IS NULL OR auto_destroy_at > ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := db.Query(query, now)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var records []*record.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	for _, r := range records {
		r.Images, err = loadAssets(db, r.ID)
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}

// Exists reports whether a record row with the given id is present.
func Exists(db *sql.DB, id string) (bool, error) {
	var one int
	err := db.QueryRow(`SELECT 1 FROM records WHERE id = ? LIMIT 1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// DestroyExpired hard-deletes every record whose auto_destroy_at has
// passed. Image references go with the record rows (cascade). Returns the
// number of records destroyed.
func DestroyExpired(db *sql.DB, now int64) (int, error) {
	result, err := db.Exec(
		`DELETE FROM records WHERE auto_destroy_at IS NOT NULL AND auto_destroy_at <= ?`, now)
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return int(rowsAffected), nil
}

// guardMutable verifies inside tx that a record exists and is mutable at
// `now`. A destroyed record is deleted on the spot so no caller ever
// observes it again.
func guardMutable(tx *sql.Tx, id string, now int64) error {
	var sealUntil, autoDestroyAt sql.NullInt64
	err := tx.QueryRow(
		`SELECT seal_until, auto_destroy_at FROM records WHERE id = ?`, id,
	).Scan(&sealUntil, &autoDestroyAt)
	if err == sql.ErrNoRows {
		return errors.NewNotFound(id)
	}
	if err != nil {
		return errors.NewInternal(err)
	}

	if autoDestroyAt.Valid && autoDestroyAt.Int64 <= now {
		if _, err := tx.Exec(`DELETE FROM records WHERE id = ?`, id); err != nil {
			return errors.NewInternal(err)
		}
		if err := tx.Commit(); err != nil {
			return errors.NewInternal(err)
		}
		return errors.NewNotFound(id)
	}

	if sealUntil.Valid && now < sealUntil.Int64 {
		return errors.NewSealed(id, sealUntil.Int64)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanRecord.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord scans a single row into a Record struct (without assets).
func scanRecord(row scanner) (*record.Record, error) {
	var (
		r             record.Record
		musicURL      sql.NullString
		musicTitle    sql.NullString
		sealUntil     sql.NullInt64
		autoDestroyAt sql.NullInt64
	)

	err := row.Scan(
		&r.ID, &r.Title, &r.Content, &musicURL, &musicTitle,
		&r.CreatedAt, &r.UpdatedAt, &sealUntil, &autoDestroyAt,
	)
	if err != nil {
		return nil, err
	}

	r.MusicURL = fromNullString(musicURL)
	r.MusicTitle = fromNullString(musicTitle)
	r.SealUntil = fromNullInt64(sealUntil)
	r.AutoDestroyAt = fromNullInt64(autoDestroyAt)

	return &r, nil
}

// loadAssets returns a record's image URIs in display order.
func loadAssets(db *sql.DB, id string) ([]string, error) {
	rows, err := db.Query(
		`SELECT uri FROM record_assets WHERE record_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var images []string
	for rows.Next() {
		var uri string
		if err := rows.Scan(&uri); err != nil {
			return nil, errors.NewInternal(err)
		}
		images = append(images, uri)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return images, nil
}

// insertAssets writes image references with their positions.
func insertAssets(tx *sql.Tx, id string, images []string) error {
	for i, uri := range images {
		if _, err := tx.Exec(
			`INSERT INTO record_assets (record_id, position, uri) VALUES (?, ?, ?)`,
			id, i, uri,
		); err != nil {
			return errors.NewInternal(err)
		}
	}
	return nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// toNullInt64 converts a *int64 to sql.NullInt64.
func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// fromNullInt64 converts a sql.NullInt64 to *int64.
func fromNullInt64(nv sql.NullInt64) *int64 {
	if !nv.Valid {
		return nil
	}
	return &nv.Int64
}
