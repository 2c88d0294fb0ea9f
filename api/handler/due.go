package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/tollwatch/models"
	"github.com/use-agent/tollwatch/roster"
)

// RosterFunc loads the current roster. It is called per request so edits
// to the roster file are picked up without a restart.
type RosterFunc func() ([]models.VehicleEntry, error)

var weekdays = map[string]string{}

func init() {
	for d := time.Sunday; d <= time.Saturday; d++ {
		weekdays[strings.ToLower(d.String())] = d.String()
	}
}

// Due returns a handler for GET /api/v1/due?day=<Weekday>.
//
// Without day, today in loc is used.
func Due(load RosterFunc, loc *time.Location) gin.HandlerFunc {
	return func(c *gin.Context) {
		day := roster.Weekday(time.Now(), loc)
		if q := strings.TrimSpace(c.Query("day")); q != "" {
			canonical, ok := weekdays[strings.ToLower(q)]
			if !ok {
				respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, "day must be a weekday name such as Monday", nil))
				return
			}
			day = canonical
		}

		entries, err := load()
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.DueResponse{
			Success: true,
			Day:     day,
			Entries: roster.DueOn(entries, day),
		})
	}
}
