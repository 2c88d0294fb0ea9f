// Package etoll is the adapter for the e-Toll (Sydney Harbour Bridge and
// Tunnel) toll-notice portal.
//
// The search form is a client-rendered app that may sit inside an iframe.
// It asks for a jurisdiction through a custom pick-list widget and answers
// either with a "No Toll Trips found" modal or a list of notice labels.
// Each label is rendered twice, once per responsive breakpoint.
package etoll

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/tollwatch/engine"
	"github.com/use-agent/tollwatch/extract"
	"github.com/use-agent/tollwatch/models"
	"github.com/use-agent/tollwatch/portal"
)

// URL is the search page.
const URL = "https://paytollnotice.mye-toll.com.au/tollnotice/"

const (
	// Horizon bounds the wait for results or the no-results modal.
	Horizon = 35 * time.Second

	// VisibleWait bounds the wait for an attached rego field to render.
	VisibleWait = 8 * time.Second

	// Jurisdiction is the state every search is made under.
	Jurisdiction = "NSW"

	// DefaultRoad names a notice whose road could not be recovered.
	DefaultRoad = "e-Toll Road"

	placeholder = "—"
)

var (
	regoField = engine.CSS(`#rego, input[name="rego"], input[placeholder*="LICENCE PLATE" i], input[aria-label*="Licence Plate" i]`)
	stateCtl  = engine.CSS("#stateShortName")
	caret     = engine.CSS("#pickListCaret, span.arrow-box")
	submitBtn = engine.CSS("#searchTollNoticesForm_0")

	modalTitle   = engine.CSS(".modal-dialog .modal-title")
	noTripsText  = regexp.MustCompile(`(?i)No Toll Trips found`)
	closeError   = engine.CSS("#closeErrorBtn")
	closeFooter  = engine.HasText(".modal-footer button", `(?i)^\s*Close\s*$`)
	results      = engine.CSS("section.tollnotices")
	optionLists  = []string{".dropdown-menu", `[role="listbox"]`, ".list-group-item"}
	wideLayout   = extract.MustCompile(".hidden-sm.hidden-xs.visible-md.visible-lg")
	narrowLayout = extract.MustCompile(".visible-sm.visible-xs.hidden-md.hidden-lg")
	rowSel       = extract.MustCompile("section.tollnotices label.tollnotice-item")
	cellSel      = extract.MustCompile("div")
	feeSel       = extract.MustCompile(".fee")
	rowIDSel     = extract.MustCompile("input.tollnotice-list-cb")

	letterToken = regexp.MustCompile(`(?i)letter\s+([0-9A-Z]+)`)
	roadToken   = regexp.MustCompile(`\b(Sydney Harbour Tunnel|Sydney Harbour Bridge|Lane Cove Tunnel|WestConnex|M[0-9A-Z ]+|[A-Z][A-Za-z ]+)\b`)
)

// Adapter implements engine.Adapter for e-Toll.
type Adapter struct {
	Resolver   engine.FrameResolver
	Classifier engine.OutcomeClassifier
	Dropdown   engine.DropdownResolver

	// FieldBudget bounds the wait for the rego field. Default: engine.FieldBudget.
	FieldBudget time.Duration

	// Horizon bounds outcome classification. Default: Horizon.
	Horizon time.Duration

	// VisibleWait bounds the wait for the located rego field to become
	// visible. Default: VisibleWait.
	VisibleWait time.Duration

	// CaretWait and OptionWait bound the pick-list waits. Zero keeps the
	// widget defaults.
	CaretWait  time.Duration
	OptionWait time.Duration
}

// New creates an e-Toll adapter with the default budgets.
func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Source() models.Source { return models.SourceEtoll }
func (a *Adapter) URL() string           { return URL }

// SubmitSearch fills the rego, selects the jurisdiction, submits and
// classifies the answer.
func (a *Adapter) SubmitSearch(ctx context.Context, page engine.Page, rego string) (engine.Outcome, error) {
	a.Resolver.DismissBanners(ctx, page, portal.ConsentBanners)

	budget := a.FieldBudget
	if budget <= 0 {
		budget = engine.FieldBudget
	}
	f, ok := a.Resolver.Resolve(ctx, page, regoField, engine.Attached, budget)
	if !ok {
		return engine.Outcome{}, models.NewScrapeError(
			models.ErrCodeAdapterNotFound,
			fmt.Sprintf("e-Toll: rego field not found for %s.", rego),
			nil,
		)
	}
	slog.Debug("e-toll form located", "rego", rego, "frame", f.Name())

	wait := a.VisibleWait
	if wait <= 0 {
		wait = VisibleWait
	}
	if !a.Resolver.WaitIn(ctx, f, regoField, engine.Visible, wait) {
		return engine.Outcome{}, models.NewScrapeError(
			models.ErrCodeAdapterNotFound,
			fmt.Sprintf("e-Toll: rego field not visible for %s.", rego),
			nil,
		)
	}

	if err := f.Click(ctx, regoField, true); err != nil {
		slog.Debug("e-toll rego focus click failed", "rego", rego, "error", err)
	}
	if err := f.Type(ctx, regoField, rego); err != nil {
		return engine.Outcome{}, models.NewScrapeError(
			models.ErrCodeAttempt,
			fmt.Sprintf("e-Toll error for %s: %v", rego, err),
			err,
		)
	}

	sel := a.Dropdown.SelectViaCaret(ctx, a.pickList(f), Jurisdiction)
	if sel.Verified {
		slog.Debug("e-toll jurisdiction selected", "rego", rego, "step", sel.Step.String())
	} else {
		slog.Warn("e-toll jurisdiction not confirmed, submitting anyway",
			"rego", rego, "step", sel.Step.String(), "value", sel.State.Value)
	}

	a.submit(ctx, f, rego)

	horizon := a.Horizon
	if horizon <= 0 {
		horizon = Horizon
	}
	out := a.Classifier.Classify(ctx, page, engine.Markers{
		Results:          results,
		NoResultsTitle:   modalTitle,
		NoResultsText:    noTripsText,
		Dismiss:          []engine.Locator{closeError, closeFooter},
		Horizon:          horizon,
		NoResultsMessage: fmt.Sprintf("e-Toll: No toll trips found for %s (SHB/SHT).", rego),
		TimeoutMessage:   fmt.Sprintf("e-Toll: Timed out waiting for results/modals for %s.", rego),
	})
	out.Rego = rego
	return out, nil
}

// pickList describes the jurisdiction widget in frame f.
func (a *Adapter) pickList(f engine.Frame) engine.FrameDropdown {
	return engine.FrameDropdown{
		Frame:   f,
		Control: stateCtl,
		Options: optionLists,
		Caret:   caret,
		Item: func(value string) engine.Locator {
			return engine.CSS(fmt.Sprintf(`item[data-value="%s"]`, value))
		},
		Elsewhere:  regoField,
		Resolver:   a.Resolver,
		CaretWait:  a.CaretWait,
		OptionWait: a.OptionWait,
	}
}

// submit clicks the search button, or presses Enter in the rego field when
// the form has no such button.
func (a *Adapter) submit(ctx context.Context, f engine.Frame, rego string) {
	if f.Probe(ctx, submitBtn, engine.Attached) {
		err := f.Click(ctx, submitBtn, true)
		if err == nil {
			return
		}
		slog.Debug("e-toll submit click failed, pressing Enter", "rego", rego, "error", err)
		if err := f.Press(ctx, submitBtn, engine.KeyEnter); err == nil {
			return
		}
	}
	if err := f.Press(ctx, regoField, engine.KeyEnter); err != nil {
		slog.Debug("e-toll Enter submit failed", "rego", rego, "error", err)
	}
}

// ExtractRecords reads the notice labels of the results section. A
// results section without labels is reported as ErrCodeNoRows.
func (a *Adapter) ExtractRecords(ctx context.Context, out engine.Outcome) ([]models.Notice, error) {
	doc, err := portal.Snapshot(ctx, out.Frame)
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeAttempt,
			fmt.Sprintf("e-Toll error for %s: %v", out.Rego, err),
			err,
		)
	}
	notices := ParseRows(doc, out.Rego)
	if len(notices) == 0 {
		return notices, models.NewScrapeError(
			models.ErrCodeNoRows,
			fmt.Sprintf("e-Toll: No unpaid notices listed for %s.", out.Rego),
			nil,
		)
	}
	return notices, nil
}

// row is what one notice label yields before normalisation.
type row struct {
	road, letter, charge string
}

// readWide reads the cell-structured desktop layout: child div 1 is the
// road, child div 2 starts with the letter number.
func readWide(wide *goquery.Selection) row {
	cells := extract.Children(wide, cellSel)
	var r row
	r.road = extract.InnerText(cells.Eq(1))
	if fields := strings.Fields(extract.InnerText(cells.Eq(2))); len(fields) > 0 {
		r.letter = fields[0]
	}
	r.charge = extract.InnerText(wide.FindMatcher(feeSel).First())
	return r
}

// readNarrow recovers the fields of the mobile layout from its text blob.
func readNarrow(narrow *goquery.Selection) row {
	whole := extract.InnerText(narrow)
	var r row
	if m := letterToken.FindStringSubmatch(whole); m != nil {
		r.letter = m[1]
	}
	r.charge = extract.InnerText(narrow.FindMatcher(feeSel).First())
	if m := roadToken.FindStringSubmatch(whole); m != nil {
		r.road = strings.TrimSpace(m[1])
	} else {
		r.road = DefaultRoad
	}
	return r
}

// ParseRows maps every notice label to a notice. The wide layout wins when
// present; labels with neither layout still yield a notice with defaults.
func ParseRows(doc *goquery.Document, rego string) []models.Notice {
	notices := []models.Notice{}
	doc.FindMatcher(rowSel).Each(func(_ int, label *goquery.Selection) {
		var r row
		if wide := label.FindMatcher(wideLayout).First(); wide.Length() > 0 {
			r = readWide(wide)
		} else {
			r = readNarrow(label.FindMatcher(narrowLayout).First())
		}

		road := r.road
		if road == "" {
			road = DefaultRoad
		}
		status, detail := "Unpaid", "e-Toll unpaid"
		if r.letter != "" {
			status = "Letter " + r.letter
			detail = "e-Toll letter " + r.letter
		}
		chargeText := r.charge
		if chargeText == "" {
			chargeText = placeholder
		}

		notices = append(notices, models.Notice{
			Rego:           rego,
			Source:         models.SourceEtoll,
			RowID:          portal.StringPtr(extract.Attr(label.FindMatcher(rowIDSel), "value")),
			IsPayable:      true,
			LPN:            rego,
			Motorway:       road,
			IssuedText:     "e-Toll",
			Status:         status,
			StatusDetail:   detail,
			AdminFeeText:   placeholder,
			TollAmountText: chargeText,
			TollAmount:     extract.ParseMoney(r.charge),
		})
	})
	return notices
}
