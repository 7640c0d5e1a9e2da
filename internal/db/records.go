package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Record is one stored entity of any resource. Data holds its fields
// without the id.
type Record struct {
	ID        int64
	Resource  string
	Data      map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Fields returns the record's data with "id" set.
func (r Record) Fields() map[string]any {
	out := make(map[string]any, len(r.Data)+1)
	for k, v := range r.Data {
		out[k] = v
	}
	out["id"] = r.ID
	return out
}

func scanRecord(scan func(dest ...any) error) (Record, error) {
	var r Record
	var data, createdAt, updatedAt string
	if err := scan(&r.ID, &r.Resource, &data, &createdAt, &updatedAt); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(data), &r.Data); err != nil {
		return Record{}, fmt.Errorf("failed to decode record %d: %w", r.ID, err)
	}
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		r.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		r.UpdatedAt = t
	}
	return r, nil
}

// ListRecords retrieves every record of a resource, oldest first.
func ListRecords(db *sql.DB, resource string) ([]Record, error) {
	query := `
		SELECT id, resource, data, created_at, updated_at
		FROM records
		WHERE resource = ?
		ORDER BY id
	`

	rows, err := db.Query(query, resource)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", resource, err)
	}
	defer rows.Close()

	results := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", resource, err)
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", resource, err)
	}

	return results, nil
}

// GetRecord retrieves a single record by ID.
func GetRecord(db *sql.DB, resource string, id int64) (Record, error) {
	query := `
		SELECT id, resource, data, created_at, updated_at
		FROM records
		WHERE resource = ? AND id = ?
	`

	r, err := scanRecord(db.QueryRow(query, resource, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("failed to get %s %d: %w", resource, id, err)
	}
	return r, nil
}

// InsertRecord stores a new record and returns it.
func InsertRecord(db *sql.DB, resource string, data map[string]any) (Record, error) {
	delete(data, "id")
	encoded, err := json.Marshal(data)
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode %s: %w", resource, err)
	}

	result, err := db.Exec(`INSERT INTO records (resource, data) VALUES (?, ?)`, resource, string(encoded))
	if err != nil {
		return Record{}, fmt.Errorf("failed to insert %s: %w", resource, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return Record{}, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return GetRecord(db, resource, id)
}

// UpdateRecord merges patch into the stored data and returns the result.
func UpdateRecord(db *sql.DB, resource string, id int64, patch map[string]any) (Record, error) {
	current, err := GetRecord(db, resource, id)
	if err != nil {
		return Record{}, err
	}
	delete(patch, "id")
	for k, v := range patch {
		current.Data[k] = v
	}

	encoded, err := json.Marshal(current.Data)
	if err != nil {
		return Record{}, fmt.Errorf("failed to encode %s: %w", resource, err)
	}

	query := `
		UPDATE records
		SET data = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
		WHERE resource = ? AND id = ?
	`
	if _, err := db.Exec(query, string(encoded), resource, id); err != nil {
		return Record{}, fmt.Errorf("failed to update %s %d: %w", resource, id, err)
	}

	return GetRecord(db, resource, id)
}

// DeleteRecord removes a record.
func DeleteRecord(db *sql.DB, resource string, id int64) error {
	result, err := db.Exec(`DELETE FROM records WHERE resource = ? AND id = ?`, resource, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", resource, id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete %s %d: %w", resource, id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountRecords returns how many records a resource has.
func CountRecords(db *sql.DB, resource string) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM records WHERE resource = ?`, resource).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", resource, err)
	}
	return n, nil
}
