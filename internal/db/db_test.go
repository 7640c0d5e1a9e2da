package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"welfaredesk/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestRecordLifecycle(t *testing.T) {
	conn := openTestDB(t)

	created, err := InsertRecord(conn, "wards", map[string]any{"ward_name": "North", "floor": "1"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "North", created.Data["ward_name"])

	updated, err := UpdateRecord(conn, "wards", created.ID, map[string]any{"floor": "2", "id": 999})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "North", updated.Data["ward_name"], "patch keeps untouched fields")
	assert.Equal(t, "2", updated.Data["floor"])
	assert.NotContains(t, updated.Data, "id")

	fields := updated.Fields()
	assert.Equal(t, created.ID, fields["id"])

	list, err := ListRecords(conn, "wards")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, DeleteRecord(conn, "wards", created.ID))
	_, err = GetRecord(conn, "wards", created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, DeleteRecord(conn, "wards", created.ID), ErrNotFound)
}

func TestRecordsAreScopedByResource(t *testing.T) {
	conn := openTestDB(t)

	bed, err := InsertRecord(conn, "beds", map[string]any{"bed_name": "B1"})
	require.NoError(t, err)
	_, err = InsertRecord(conn, "items", map[string]any{"name": "Gloves"})
	require.NoError(t, err)

	_, err = GetRecord(conn, "items", bed.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := CountRecords(conn, "beds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	empty, err := ListRecords(conn, "vendors")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUsers(t *testing.T) {
	conn := openTestDB(t)

	id, err := InsertUser(conn, model.User{Username: "amina", Role: model.RoleAccountant}, "hash")
	require.NoError(t, err)

	u, err := GetUserByUsername(conn, "amina")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, model.RoleAccountant, u.Role)
	assert.Equal(t, "hash", u.PasswordHash)
	assert.Empty(t, u.FullName)

	_, err = GetUser(conn, id+100)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = InsertUser(conn, model.User{Username: "amina", Role: model.RoleAdmin}, "x")
	assert.Error(t, err, "usernames are unique")

	_, err = InsertUser(conn, model.User{Username: "ghost", Role: "janitor"}, "x")
	assert.Error(t, err, "unknown roles are rejected")

	n, err := CountUsers(conn)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
