package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"welfaredesk/internal/api"
	"welfaredesk/internal/filter"
	"welfaredesk/internal/model"
)

var donationFields = []Field{
	{Key: "donner", Label: "Donor", Kind: Ref, Required: true},
	{Key: "amount", Label: "Amount", Kind: Number, Required: true},
	{Key: "currency", Label: "Currency", Kind: Choice, Options: Choices("PKR", "USD")},
	{Key: "date", Label: "Date", Kind: DateTime, Required: true},
	{Key: "notes", Label: "Notes", Kind: Text},
}

func TestDefaultsNilSelection(t *testing.T) {
	assert.Empty(t, Defaults[model.Donation](donationFields, nil))
}

func TestDefaultsFromEntity(t *testing.T) {
	d := model.Donation{ID: 4, Donner: 12, Amount: 2500.5, Currency: "PKR", Date: "2024-03-05T09:30:45Z"}
	got := Defaults(donationFields, &d)
	assert.Equal(t, map[string]string{
		"donner":   "12",
		"amount":   "2500.5",
		"currency": "PKR",
		"date":     "2024-03-05T09:30",
		"notes":    "",
	}, got)
}

func TestDefaultsNullableAndDates(t *testing.T) {
	fields := []Field{
		{Key: "ward", Kind: Ref},
		{Key: "last_maintenance", Kind: Date},
		{Key: "next_maintenance", Kind: Date},
	}
	m := model.Machine{ID: 1, LastMaintenance: "2026-08-01T00:00:00Z", NextMaintenance: "soon"}
	got := Defaults(fields, &m)
	assert.Equal(t, "", got["ward"])
	assert.Equal(t, "2026-08-01", got["last_maintenance"])
	assert.Equal(t, "", got["next_maintenance"], "unparseable dates derive to empty")

	ward := int64(7)
	m.Ward = &ward
	assert.Equal(t, "7", Defaults(fields, &m)["ward"])
}

func TestDefaultsBoolAndFile(t *testing.T) {
	fields := []Field{{Key: "is_occupied", Kind: Bool}, {Key: "receipt", Kind: File}}
	assert.Equal(t, "true", Defaults(fields, &model.Bed{IsOccupied: true})["is_occupied"])
	assert.Equal(t, "", Defaults(fields, &model.Expense{Receipt: "/media/expenses/r.pdf"})["receipt"])
}

func TestNormalize(t *testing.T) {
	p, errs := Normalize(donationFields, map[string]string{
		"donner":   "12",
		"amount":   " 100.25 ",
		"currency": "USD",
		"date":     "2024-03-05T09:30:45Z",
	})
	assert.Empty(t, errs)
	assert.Equal(t, api.Payload{
		"donner":   int64(12),
		"amount":   100.25,
		"currency": "USD",
		"date":     "2024-03-05T09:30",
		"notes":    "",
	}, p)
}

func TestNormalizeErrors(t *testing.T) {
	_, errs := Normalize(donationFields, map[string]string{
		"amount":   "lots",
		"currency": "EUR",
		"date":     "yesterday",
	})
	assert.Equal(t, map[string]string{
		"donner":   ErrRequired,
		"amount":   "Enter a number.",
		"currency": "Select a valid choice.",
		"date":     "Use YYYY-MM-DDTHH:MM.",
	}, errs)
	assert.Equal(t,
		"donner: This field is required.; amount: Enter a number.; currency: Select a valid choice.; date: Use YYYY-MM-DDTHH:MM.",
		FormatErrors(donationFields, errs))
}

func TestNormalizeOptionalKinds(t *testing.T) {
	fields := []Field{
		{Key: "vendor", Kind: Ref},
		{Key: "is_occupied", Kind: Bool},
		{Key: "receipt", Kind: File},
		{Key: "quantity", Kind: Integer},
	}
	p, errs := Normalize(fields, map[string]string{"is_occupied": "yes", "receipt": "/tmp/r.pdf"})
	assert.Empty(t, errs)
	assert.Nil(t, p["vendor"])
	assert.Nil(t, p["quantity"])
	assert.Equal(t, true, p["is_occupied"])
	assert.Equal(t, api.File{Path: "/tmp/r.pdf"}, p["receipt"])

	p, _ = Normalize(fields, map[string]string{})
	assert.Equal(t, false, p["is_occupied"])
	assert.Equal(t, api.File{}, p["receipt"])
}

func TestRefOptionsAndWithOptions(t *testing.T) {
	donors := []model.Donor{{ID: 1, Name: "Ayesha"}, {ID: 2, Name: "Crescent"}}
	opts := RefOptions(donors, func(d model.Donor) int64 { return d.ID }, func(d model.Donor) string { return d.Name })
	assert.Equal(t, []filter.Option{{Value: "1", Label: "Ayesha"}, {Value: "2", Label: "Crescent"}}, opts)

	out := WithOptions(donationFields, "donner", opts)
	assert.Equal(t, opts, out[0].Options)
	assert.Nil(t, donationFields[0].Options, "input is not mutated")
}
