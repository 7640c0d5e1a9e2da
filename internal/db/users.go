package db

import (
	"database/sql"
	"errors"
	"fmt"

	"welfaredesk/internal/model"
)

// UserRow is a stored account including its password hash.
type UserRow struct {
	model.User
	PasswordHash string
}

// InsertUser creates an account.
func InsertUser(db *sql.DB, u model.User, passwordHash string) (int64, error) {
	query := `
		INSERT INTO users (username, full_name, role, password_hash)
		VALUES (?, ?, ?, ?)
	`

	var fullName interface{}
	if u.FullName != "" {
		fullName = u.FullName
	}

	result, err := db.Exec(query, u.Username, fullName, string(u.Role), passwordHash)
	if err != nil {
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// GetUserByUsername looks an account up for login.
func GetUserByUsername(db *sql.DB, username string) (UserRow, error) {
	return getUser(db, `WHERE username = ?`, username)
}

// GetUser looks an account up by ID.
func GetUser(db *sql.DB, id int64) (UserRow, error) {
	return getUser(db, `WHERE id = ?`, id)
}

func getUser(db *sql.DB, where string, arg any) (UserRow, error) {
	query := `SELECT id, username, full_name, role, password_hash FROM users ` + where

	var u UserRow
	var fullName sql.NullString
	var role string
	err := db.QueryRow(query, arg).Scan(&u.ID, &u.Username, &fullName, &role, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return UserRow{}, ErrNotFound
	}
	if err != nil {
		return UserRow{}, fmt.Errorf("failed to get user: %w", err)
	}
	u.FullName = fullName.String
	u.Role = model.Role(role)
	return u, nil
}

// CountUsers returns the number of accounts.
func CountUsers(db *sql.DB) (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}
