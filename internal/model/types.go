package model

// Entity is any record that carries a server-assigned identifier.
type Entity interface {
	GetID() int64
}

// Ward represents a hospital ward.
type Ward struct {
	ID          int64  `json:"id"`
	WardName    string `json:"ward_name"`
	Floor       string `json:"floor"`
	Description string `json:"description"`
}

func (w Ward) GetID() int64 { return w.ID }

// Bed represents a dialysis bed inside a ward.
type Bed struct {
	ID         int64  `json:"id"`
	BedName    string `json:"bed_name"`
	Ward       int64  `json:"ward"`
	WardName   string `json:"ward_name"`
	IsOccupied bool   `json:"is_occupied"`
	Notes      string `json:"notes"`
}

func (b Bed) GetID() int64 { return b.ID }

// Machine represents a dialysis machine.
type Machine struct {
	ID              int64  `json:"id"`
	MachineName     string `json:"machine_name"`
	SerialNumber    string `json:"serial_number"`
	Ward            *int64 `json:"ward"`
	WardName        string `json:"ward_name"`
	Status          string `json:"status"`           // active, maintenance, retired
	LastMaintenance string `json:"last_maintenance"` // YYYY-MM-DD
	NextMaintenance string `json:"next_maintenance"` // YYYY-MM-DD
}

func (m Machine) GetID() int64 { return m.ID }

// Warning represents a machine fault report.
type Warning struct {
	ID          int64  `json:"id"`
	Machine     int64  `json:"machine"`
	MachineName string `json:"machine_name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Severity    string `json:"severity"` // low, medium, high
	IsResolved  bool   `json:"is_resolved"`
	CreatedAt   string `json:"created_at"`
}

func (w Warning) GetID() int64 { return w.ID }

// WarningFix records the repair of a warning.
type WarningFix struct {
	ID           int64  `json:"id"`
	Warning      int64  `json:"warning"`
	WarningTitle string `json:"warning_title"`
	FixedBy      string `json:"fixed_by"`
	Notes        string `json:"notes"`
	FixedAt      string `json:"fixed_at"`
}

func (f WarningFix) GetID() int64 { return f.ID }

// Donor represents an individual or organization that donates.
type Donor struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	City      string `json:"city"`
	DonorType string `json:"donor_type"` // individual, organization
}

func (d Donor) GetID() int64 { return d.ID }

// Donation is a single donation received from a donor.
type Donation struct {
	ID           int64   `json:"id"`
	Donner       int64   `json:"donner"`
	DonnerName   string  `json:"donner_name"`
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	Purpose      string  `json:"purpose"`
	DonationType string  `json:"donation_type"` // cash, cheque, bank_transfer, in_kind
	Date         string  `json:"date"`          // RFC 3339 or YYYY-MM-DDTHH:MM
	Notes        string  `json:"notes"`
}

func (d Donation) GetID() int64 { return d.ID }

// Vendor is a supplier the organization pays.
type Vendor struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Category string `json:"category"`
}

func (v Vendor) GetID() int64 { return v.ID }

// Expense is a payment made to a vendor.
type Expense struct {
	ID          int64   `json:"id"`
	Vendor      *int64  `json:"vendor"`
	VendorName  string  `json:"vendor_name"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"` // YYYY-MM-DD
	Receipt     string  `json:"receipt"`
}

func (e Expense) GetID() int64 { return e.ID }

// Item is an inventory item.
type Item struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Quantity    int    `json:"quantity"`
	Unit        string `json:"unit"`
	Description string `json:"description"`
}

func (i Item) GetID() int64 { return i.ID }

// Appointment is a scheduled dialysis slot.
type Appointment struct {
	ID          int64  `json:"id"`
	PatientName string `json:"patient_name"`
	Machine     *int64 `json:"machine"`
	MachineName string `json:"machine_name"`
	ScheduledAt string `json:"scheduled_at"`
	Status      string `json:"status"` // scheduled, completed, cancelled
	Notes       string `json:"notes"`
}

func (a Appointment) GetID() int64 { return a.ID }

// DialysisSession is a treatment run on a machine.
type DialysisSession struct {
	ID              int64  `json:"id"`
	PatientName     string `json:"patient_name"`
	Machine         *int64 `json:"machine"`
	MachineName     string `json:"machine_name"`
	SessionDate     string `json:"session_date"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"` // scheduled, in_progress, completed, cancelled
	Notes           string `json:"notes"`
}

func (s DialysisSession) GetID() int64 { return s.ID }

// User is the minimal profile persisted with a session.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}
