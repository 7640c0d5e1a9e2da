package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "PKR 1,250,000.00", FormatAmount(1250000, "PKR"))
	assert.Equal(t, "999.50", FormatAmount(999.5, ""))
	assert.Equal(t, "USD -1,000.10", FormatAmount(-1000.1, "USD"))
	assert.Equal(t, "0.00", FormatAmount(0, " "))
}

func TestFormatDates(t *testing.T) {
	assert.Equal(t, "Sep 20, 2026", FormatDate("2026-09-20"))
	assert.Equal(t, "Sep 20, 2026", FormatDate("2026-09-20T23:30:00+05:00"))
	assert.Equal(t, "—", FormatDate(""))
	assert.Equal(t, "soon", FormatDate("soon"))
	assert.Equal(t, "Oct 05, 2026 09:15", FormatDateTime("2026-10-05T09:15"))
}

func TestFormatDateHuman(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	cases := map[string]string{
		"2026-10-15":           "Today",
		"2026-10-14T08:00":     "Yesterday",
		"2026-10-16":           "Tomorrow",
		"2026-10-12":           "3d ago",
		"2026-10-18":           "in 3d",
		"2026-09-02":           "Sep 02",
		"2025-12-31T10:00:00Z": "Dec 31 '25",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatDateHuman(in, now), in)
	}
}

func TestSmallFormatters(t *testing.T) {
	id := int64(3)
	assert.Equal(t, "—", FormatOptionalID(nil, "Ward A"))
	assert.Equal(t, "Ward A", FormatOptionalID(&id, "Ward A"))
	assert.Equal(t, "#3", FormatOptionalID(&id, ""))
	assert.Equal(t, "Bank transfer", Humanize("bank_transfer"))
	assert.Equal(t, "Yes", FormatBool(true))
	assert.Equal(t, "Dialy...", TruncateString("Dialyzer filter", 8))
}
