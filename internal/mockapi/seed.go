package mockapi

import (
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"welfaredesk/internal/db"
	"welfaredesk/internal/model"
)

// DemoAccount is a seeded login.
type DemoAccount struct {
	Username string
	Password string
	Role     model.Role
}

// DemoAccounts are created by Seed, one per role.
var DemoAccounts = []DemoAccount{
	{Username: "admin", Password: "admin123", Role: model.RoleAdmin},
	{Username: "manager", Password: "manager123", Role: model.RoleDialysisManager},
	{Username: "accountant", Password: "accountant123", Role: model.RoleAccountant},
	{Username: "staff", Password: "staff123", Role: model.RoleOfficeStaff},
}

// SeedOptions controls Seed.
type SeedOptions struct {
	// SkipData creates only the demo accounts.
	SkipData bool
	// HashCost defaults to bcrypt.DefaultCost; tests use bcrypt.MinCost.
	HashCost int
}

// Seed creates the demo accounts and sample records on an empty database.
// A database that already has users is left untouched.
func Seed(conn *sql.DB, opts SeedOptions) error {
	n, err := db.CountUsers(conn)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	cost := opts.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	for _, a := range DemoAccounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), cost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		u := model.User{Username: a.Username, FullName: a.Role.Label(), Role: a.Role}
		if _, err := db.InsertUser(conn, u, string(hash)); err != nil {
			return err
		}
	}

	if opts.SkipData {
		return nil
	}
	return seedRecords(conn)
}

func seedRecords(conn *sql.DB) error {
	insert := func(resource string, data map[string]any) (int64, error) {
		rec, err := db.InsertRecord(conn, resource, data)
		if err != nil {
			return 0, err
		}
		return rec.ID, nil
	}

	north, err := insert("wards", map[string]any{"ward_name": "North Wing", "floor": "1", "description": "Adult dialysis"})
	if err != nil {
		return err
	}
	south, err := insert("wards", map[string]any{"ward_name": "South Wing", "floor": "2", "description": "Paediatric unit"})
	if err != nil {
		return err
	}

	for i, w := range []int64{north, north, south} {
		if _, err := insert("beds", map[string]any{
			"bed_name": fmt.Sprintf("Bed %d", i+1), "ward": w, "is_occupied": i == 0, "notes": "",
		}); err != nil {
			return err
		}
	}

	m1, err := insert("machines", map[string]any{
		"machine_name": "Fresenius 4008S", "serial_number": "FR-1001", "ward": north,
		"status": "active", "last_maintenance": "2026-08-01", "next_maintenance": "2026-11-01",
	})
	if err != nil {
		return err
	}
	m2, err := insert("machines", map[string]any{
		"machine_name": "Nipro Surdial X", "serial_number": "NP-2002", "ward": south,
		"status": "maintenance", "last_maintenance": "2026-09-15", "next_maintenance": "2026-12-15",
	})
	if err != nil {
		return err
	}

	if _, err := insert("warnings", map[string]any{
		"machine": m2, "title": "Pressure alarm", "description": "Venous pressure alarm during session",
		"severity": "high", "is_resolved": false, "created_at": "2026-10-01T09:30:00Z",
	}); err != nil {
		return err
	}

	if _, err := insert("appointments", map[string]any{
		"patient_name": "Bilal Ahmed", "machine": m1, "scheduled_at": "2026-10-20T08:00:00Z",
		"status": "scheduled", "notes": "",
	}); err != nil {
		return err
	}
	if _, err := insert("dialysis-sessions", map[string]any{
		"patient_name": "Bilal Ahmed", "machine": m1, "session_date": "2026-10-13T08:00:00Z",
		"duration_minutes": 240, "status": "completed", "notes": "",
	}); err != nil {
		return err
	}
	if _, err := insert("dialysis-sessions", map[string]any{
		"patient_name": "Sara Iqbal", "machine": m1, "session_date": "2026-10-15T13:00:00Z",
		"duration_minutes": 210, "status": "scheduled", "notes": "Second weekly session",
	}); err != nil {
		return err
	}

	d1, err := insert("donors", map[string]any{"name": "Ayesha Khan", "phone": "0300-1234567", "email": "ayesha@example.org", "city": "Lahore", "donor_type": "individual"})
	if err != nil {
		return err
	}
	d2, err := insert("donors", map[string]any{"name": "Crescent Foundation", "phone": "042-111222", "email": "info@crescent.example", "city": "Karachi", "donor_type": "organization"})
	if err != nil {
		return err
	}

	donations := []map[string]any{
		{"donner": d1, "amount": 5000.0, "currency": "PKR", "purpose": "Zakat", "donation_type": "cash", "date": "2026-09-02T10:00:00Z"},
		{"donner": d2, "amount": 250000.0, "currency": "PKR", "purpose": "Machine fund", "donation_type": "bank_transfer", "date": "2026-09-20T14:30:00Z"},
		{"donner": d1, "amount": 100.0, "currency": "USD", "purpose": "General", "donation_type": "cheque", "date": "2026-10-05T11:15:00Z"},
	}
	for _, d := range donations {
		d["notes"] = ""
		if _, err := insert("donations", d); err != nil {
			return err
		}
	}

	v1, err := insert("vendors", map[string]any{"name": "MedSupply Co", "phone": "042-555000", "email": "sales@medsupply.example", "category": "Consumables"})
	if err != nil {
		return err
	}
	if _, err := insert("expenses", map[string]any{
		"vendor": v1, "category": "Consumables", "amount": 18000.0, "description": "Dialyzer filters",
		"date": "2026-09-28", "receipt": "",
	}); err != nil {
		return err
	}

	for _, item := range []map[string]any{
		{"name": "Dialyzer filter", "category": "Consumables", "quantity": 40, "unit": "pcs", "description": ""},
		{"name": "Saline 1L", "category": "Fluids", "quantity": 120, "unit": "bags", "description": ""},
	} {
		if _, err := insert("items", item); err != nil {
			return err
		}
	}
	return nil
}
