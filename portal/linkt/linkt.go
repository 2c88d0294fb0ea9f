// Package linkt is the adapter for the Linkt toll-notice search portal.
//
// The portal is a classic server-rendered form: one rego field, one search
// link, and a results table that either appears or does not. There is no
// explicit no-results marker, so a missing table is reported as a timeout.
package linkt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/tollwatch/engine"
	"github.com/use-agent/tollwatch/extract"
	"github.com/use-agent/tollwatch/models"
	"github.com/use-agent/tollwatch/portal"
)

// URL is the search page.
const URL = "https://tollnotice.linkt.com.au/Search.asp"

// Horizon bounds the wait for the results table.
const Horizon = 15 * time.Second

var (
	searchInput  = engine.CSS("#txtRegistrationNumber")
	searchButton = engine.CSS("#searchLink")
	resultsTable = engine.CSS("#additionalResults")

	rowSel      = extract.MustCompile("#additionalResults tbody tr")
	cellSel     = extract.MustCompile("td")
	abbrSel     = extract.MustCompile("abbr")
	checkboxSel = extract.MustCompile("input[type=checkbox]")
)

// Adapter implements engine.Adapter for Linkt.
type Adapter struct {
	Resolver   engine.FrameResolver
	Classifier engine.OutcomeClassifier

	// Location is the timezone "Month Year" issue dates are read in.
	Location *time.Location

	// FieldBudget bounds the wait for the search input. Default: engine.FieldBudget.
	FieldBudget time.Duration

	// Horizon bounds outcome classification. Default: Horizon.
	Horizon time.Duration
}

// New creates a Linkt adapter reading dates in loc.
func New(loc *time.Location) *Adapter {
	if loc == nil {
		loc = time.UTC
	}
	return &Adapter{Location: loc}
}

func (a *Adapter) Source() models.Source { return models.SourceLinkt }
func (a *Adapter) URL() string           { return URL }

// SubmitSearch types rego into the search field, submits and waits for the
// results table.
func (a *Adapter) SubmitSearch(ctx context.Context, page engine.Page, rego string) (engine.Outcome, error) {
	a.Resolver.DismissBanners(ctx, page, portal.ConsentBanners)

	budget := a.FieldBudget
	if budget <= 0 {
		budget = engine.FieldBudget
	}
	f, ok := a.Resolver.Resolve(ctx, page, searchInput, engine.Visible, budget)
	if !ok {
		return engine.Outcome{}, models.NewScrapeError(
			models.ErrCodeAdapterNotFound,
			fmt.Sprintf("Linkt: rego field not found for %s.", rego),
			nil,
		)
	}

	if err := f.Type(ctx, searchInput, rego); err != nil {
		return engine.Outcome{}, models.NewScrapeError(
			models.ErrCodeAttempt,
			fmt.Sprintf("Linkt error for %s: %v", rego, err),
			err,
		)
	}
	if err := f.Click(ctx, searchButton, false); err != nil {
		slog.Debug("linkt search click failed, submitting with Enter", "rego", rego, "error", err)
		if err := f.Press(ctx, searchInput, engine.KeyEnter); err != nil {
			return engine.Outcome{}, models.NewScrapeError(
				models.ErrCodeAdapterNotFound,
				fmt.Sprintf("Linkt: search could not be submitted for %s.", rego),
				err,
			)
		}
	}

	horizon := a.Horizon
	if horizon <= 0 {
		horizon = Horizon
	}
	out := a.Classifier.Classify(ctx, page, engine.Markers{
		Results:        resultsTable,
		Horizon:        horizon,
		TimeoutMessage: fmt.Sprintf("Linkt: no results table found for %s.", rego),
	})
	out.Rego = rego
	return out, nil
}

// ExtractRecords reads every data row of the results table.
func (a *Adapter) ExtractRecords(ctx context.Context, out engine.Outcome) ([]models.Notice, error) {
	doc, err := portal.Snapshot(ctx, out.Frame)
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeAttempt,
			fmt.Sprintf("Linkt error for %s: %v", out.Rego, err),
			err,
		)
	}
	return ParseRows(doc, out.Rego, a.Location), nil
}

// ParseRows maps the results table rows to notices. Rows with fewer than
// four cells are layout rows and are skipped; every other row yields a
// notice even when some cells are empty.
func ParseRows(doc *goquery.Document, rego string, loc *time.Location) []models.Notice {
	notices := []models.Notice{}
	doc.FindMatcher(rowSel).Each(func(_ int, row *goquery.Selection) {
		tds := extract.Children(row, cellSel)
		if tds.Length() < 4 {
			return
		}
		cell := func(i int) string {
			if i >= tds.Length() {
				return ""
			}
			return extract.InnerText(tds.Eq(i))
		}

		status, detail := cell(4), ""
		if abbr := tds.Eq(4).FindMatcher(abbrSel).First(); abbr.Length() > 0 {
			status = extract.InnerText(abbr)
			detail, _ = extract.Attr(abbr, "title")
		}

		var (
			rowID   *string
			payable bool
		)
		if cb := tds.Eq(0).FindMatcher(checkboxSel).First(); cb.Length() > 0 {
			rowID = portal.StringPtr(extract.Attr(cb, "value"))
			flag, _ := cb.Attr("ispayable")
			payable = flag == "True"
		}

		issued := cell(3)
		adminText := cell(5)
		tollText := cell(6)
		notices = append(notices, models.Notice{
			Rego:           rego,
			Source:         models.SourceLinkt,
			RowID:          rowID,
			IsPayable:      payable,
			LPN:            cell(1),
			Motorway:       cell(2),
			IssuedText:     issued,
			IssuedAt:       extract.ParseIssuedMonth(issued, loc),
			Status:         status,
			StatusDetail:   detail,
			AdminFeeText:   adminText,
			AdminFee:       extract.ParseMoney(adminText),
			TollAmountText: tollText,
			TollAmount:     extract.ParseMoney(tollText),
		})
	})
	return notices
}
