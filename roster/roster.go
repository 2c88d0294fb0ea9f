// Package roster loads the vehicle roster and answers which vehicles are
// due on a given day.
//
// The roster is a JSON or YAML sequence of objects with the keys rego,
// renter, paymentDay, rentAmount and phone. A top-level value that is not
// a sequence is a structural error. Entries missing rego, renter or
// paymentDay are dropped without error.
package roster

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/use-agent/tollwatch/models"
)

// ErrRosterNotFound is returned when the roster file does not exist.
var ErrRosterNotFound = errors.New("roster file not found")

// rawEntry accepts loosely typed values: plates and amounts are often
// written as numbers.
type rawEntry struct {
	Rego       yaml.Node `yaml:"rego"`
	Renter     yaml.Node `yaml:"renter"`
	PaymentDay yaml.Node `yaml:"paymentDay"`
	RentAmount yaml.Node `yaml:"rentAmount"`
	Phone      yaml.Node `yaml:"phone"`
}

// Load reads and parses the roster at path.
func Load(path string) ([]models.VehicleEntry, error) {
	data, err := os.ReadFile(path) //nolint:gosec // roster path comes from configuration
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRosterNotFound, path)
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a roster document and normalises its entries.
func Parse(data []byte) ([]models.VehicleEntry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeStructural, "roster is not valid JSON or YAML", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.SequenceNode {
		return nil, models.NewScrapeError(models.ErrCodeStructural, "roster must be an array of vehicles", nil)
	}

	seq := doc.Content[0]
	entries := make([]models.VehicleEntry, 0, len(seq.Content))
	for i, item := range seq.Content {
		var raw rawEntry
		if item.Kind != yaml.MappingNode || item.Decode(&raw) != nil {
			slog.Debug("roster: skipping non-object entry", "index", i)
			continue
		}
		e := normalize(raw)
		if e.Rego == "" || e.Renter == "" || e.PaymentDay == "" {
			slog.Debug("roster: skipping incomplete entry", "index", i, "rego", e.Rego)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func normalize(raw rawEntry) models.VehicleEntry {
	return models.VehicleEntry{
		Rego:       strings.ToUpper(scalar(raw.Rego)),
		Renter:     scalar(raw.Renter),
		PaymentDay: scalar(raw.PaymentDay),
		RentAmount: amount(scalar(raw.RentAmount)),
		Phone:      digits(scalar(raw.Phone)),
	}
}

// scalar returns the trimmed text of a scalar node, or "" for anything
// else (missing keys, null, nested values).
func scalar(n yaml.Node) string {
	if n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return ""
	}
	return strings.TrimSpace(n.Value)
}

// amount parses a rent amount; missing, malformed and negative values
// become 0.
func amount(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimPrefix(s, "$"), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Weekday returns the weekday name of now in loc ("Monday".."Sunday").
func Weekday(now time.Time, loc *time.Location) string {
	return now.In(loc).Weekday().String()
}

// DueOn returns the entries whose payment day is day, compared without
// regard to case. Roster order is kept.
func DueOn(entries []models.VehicleEntry, day string) []models.VehicleEntry {
	day = strings.TrimSpace(day)
	due := []models.VehicleEntry{}
	for _, e := range entries {
		if strings.EqualFold(e.PaymentDay, day) {
			due = append(due, e)
		}
	}
	return due
}

// DueToday is DueOn for the weekday of now in loc.
func DueToday(entries []models.VehicleEntry, now time.Time, loc *time.Location) []models.VehicleEntry {
	return DueOn(entries, Weekday(now, loc))
}

// Find returns the entry for rego, case-insensitively.
func Find(entries []models.VehicleEntry, rego string) (models.VehicleEntry, bool) {
	rego = strings.TrimSpace(rego)
	for _, e := range entries {
		if strings.EqualFold(e.Rego, rego) {
			return e, true
		}
	}
	return models.VehicleEntry{}, false
}
