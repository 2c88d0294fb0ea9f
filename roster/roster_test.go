package roster

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/tollwatch/models"
)

const rosterJSON = `[
  {"rego": " abc123 ", "renter": "Sam Lee", "paymentDay": "Monday", "rentAmount": 350, "phone": "+61 412 345 678"},
  {"rego": "XYZ9", "renter": "Jo", "paymentDay": "monday", "rentAmount": "275.50"},
  {"rego": "NORENTER", "paymentDay": "Tuesday"},
  {"renter": "No Rego", "paymentDay": "Tuesday"},
  {"rego": "NODAY", "renter": "Kim"},
  {"rego": 123456, "renter": "Numbers", "paymentDay": "Friday", "rentAmount": -5, "phone": null},
  "not an object",
  {"rego": "", "renter": "Blank", "paymentDay": "Friday"}
]`

func TestParse_NormalisesAndDropsIncomplete(t *testing.T) {
	entries, err := Parse([]byte(rosterJSON))
	require.NoError(t, err)

	assert.Equal(t, []models.VehicleEntry{
		{Rego: "ABC123", Renter: "Sam Lee", PaymentDay: "Monday", RentAmount: 350, Phone: "61412345678"},
		{Rego: "XYZ9", Renter: "Jo", PaymentDay: "monday", RentAmount: 275.5},
		{Rego: "123456", Renter: "Numbers", PaymentDay: "Friday"},
	}, entries)
}

func TestParse_YAML(t *testing.T) {
	entries, err := Parse([]byte(`
- rego: def456
  renter: Alex
  paymentDay: Sunday
  rentAmount: 400
`))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "DEF456", entries[0].Rego)
	assert.Equal(t, 400.0, entries[0].RentAmount)
}

func TestParse_NonSequenceIsStructural(t *testing.T) {
	for name, doc := range map[string]string{
		"object":  `{"vehicles": []}`,
		"scalar":  `"ABC123"`,
		"empty":   ``,
		"invalid": `[{"rego": `,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			var se *models.ScrapeError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, models.ErrCodeStructural, se.Code)
		})
	}
}

func TestParse_EmptySequence(t *testing.T) {
	entries, err := Parse([]byte(`[]`))
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "regos.json")
	require.NoError(t, os.WriteFile(path, []byte(rosterJSON), 0o600))

	entries, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrRosterNotFound)
}

func TestDueToday(t *testing.T) {
	entries, err := Parse([]byte(rosterJSON))
	require.NoError(t, err)
	loc, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)

	// Sunday 22:00 UTC is Monday morning in Sydney.
	now := time.Date(2025, time.March, 16, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, "Monday", Weekday(now, loc))

	due := DueToday(entries, now, loc)
	require.Len(t, due, 2)
	assert.Equal(t, "ABC123", due[0].Rego)
	assert.Equal(t, "XYZ9", due[1].Rego)

	assert.Empty(t, DueOn(entries, "Wednesday"))
	assert.Len(t, DueOn(entries, " FRIDAY "), 1)
}

func TestFind(t *testing.T) {
	entries := []models.VehicleEntry{{Rego: "ABC123", Renter: "Sam"}}

	e, ok := Find(entries, "abc123")
	assert.True(t, ok)
	assert.Equal(t, "Sam", e.Renter)

	_, ok = Find(entries, "ZZZ")
	assert.False(t, ok)
}
