package etoll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/tollwatch/engine"
	"github.com/use-agent/tollwatch/engine/enginetest"
	"github.com/use-agent/tollwatch/extract"
	"github.com/use-agent/tollwatch/models"
)

const resultsHTML = `<html><body><section class="tollnotices">
  <label class="tollnotice-item">
    <input class="tollnotice-list-cb" type="checkbox" value="ET-77">
    <div class="hidden-sm hidden-xs visible-md visible-lg">
      <div>12/03/2025</div>
      <div>Sydney Harbour Bridge</div>
      <div>2 (second letter)</div>
      <div class="fee">$1,012.40</div>
    </div>
    <div class="visible-sm visible-xs hidden-md hidden-lg">
      <div>Sydney Harbour Bridge</div><div>Letter 2</div><div class="fee">$1,012.40</div>
    </div>
  </label>
  <label class="tollnotice-item">
    <input class="tollnotice-list-cb" type="checkbox" value="ET-78">
    <div class="visible-sm visible-xs hidden-md hidden-lg">
      <div>Lane Cove Tunnel</div><div>letter 1A</div><span class="fee">$7.25</span>
    </div>
  </label>
  <label class="tollnotice-item">
    <div class="visible-sm visible-xs hidden-md hidden-lg">
      <div>4.50 due</div>
    </div>
  </label>
</section></body></html>`

func TestParseRows(t *testing.T) {
	doc, err := extract.Parse(resultsHTML)
	require.NoError(t, err)

	notices := ParseRows(doc, "ABC123")
	require.Len(t, notices, 3)

	wide := notices[0]
	require.NotNil(t, wide.RowID)
	assert.Equal(t, "ET-77", *wide.RowID)
	assert.Equal(t, models.SourceEtoll, wide.Source)
	assert.Equal(t, "ABC123", wide.LPN)
	assert.Equal(t, "Sydney Harbour Bridge", wide.Motorway)
	assert.Equal(t, "Letter 2", wide.Status)
	assert.Equal(t, "e-Toll letter 2", wide.StatusDetail)
	assert.Equal(t, "$1,012.40", wide.TollAmountText)
	assert.InDelta(t, 1012.40, *wide.TollAmount, 1e-9)
	assert.True(t, wide.IsPayable)
	assert.Equal(t, "e-Toll", wide.IssuedText)
	assert.Nil(t, wide.IssuedAt)
	assert.Equal(t, "—", wide.AdminFeeText)
	assert.Nil(t, wide.AdminFee)

	narrow := notices[1]
	assert.Equal(t, "ET-78", *narrow.RowID)
	assert.Equal(t, "Lane Cove Tunnel", narrow.Motorway)
	assert.Equal(t, "Letter 1A", narrow.Status)
	assert.InDelta(t, 7.25, *narrow.TollAmount, 1e-9)

	bare := notices[2]
	assert.Nil(t, bare.RowID)
	assert.Equal(t, DefaultRoad, bare.Motorway)
	assert.Equal(t, "Unpaid", bare.Status)
	assert.Equal(t, "e-Toll unpaid", bare.StatusDetail)
	assert.Equal(t, "—", bare.TollAmountText)
	assert.Nil(t, bare.TollAmount)
}

func TestExtractRecords_EmptySectionIsNoRows(t *testing.T) {
	f := enginetest.NewFrame("frame[1]")
	f.Document = `<section class="tollnotices"><p>All paid</p></section>`

	notices, err := New().ExtractRecords(context.Background(), engine.Outcome{Kind: engine.Results, Rego: "XYZ9", Frame: f})

	assert.Empty(t, notices)
	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodeNoRows, se.Code)
	assert.Equal(t, "e-Toll: No unpaid notices listed for XYZ9.", se.Message)
}

func fastAdapter() *Adapter {
	return &Adapter{
		Resolver:    engine.FrameResolver{Interval: time.Millisecond, Banner: time.Millisecond},
		Classifier:  engine.OutcomeClassifier{Interval: time.Millisecond},
		Dropdown:    engine.DropdownResolver{CaretWait: 5 * time.Millisecond, Interval: time.Millisecond},
		FieldBudget: 20 * time.Millisecond,
		Horizon:     20 * time.Millisecond,
		CaretWait:   5 * time.Millisecond,
		OptionWait:  5 * time.Millisecond,
		VisibleWait: 20 * time.Millisecond,
	}
}

func TestSubmitSearch_NoTripsModalInFrame(t *testing.T) {
	main := enginetest.NewFrame("main")
	form := enginetest.NewFrame("frame[1]").
		Show(regoField, "").
		Show(stateCtl, "").
		Show(caret, "").
		Show(engine.CSS(`item[data-value="NSW"]`), "NSW").
		Show(submitBtn, "Search").
		Show(modalTitle, "No Toll Trips found").
		Show(closeError, "Close")
	form.SetValue(stateCtl, "NSW")
	form.SetAttr(stateCtl, "data-isvalid", "true")
	form.SetAttr(stateCtl, "data-isopen", "false")

	out, err := fastAdapter().SubmitSearch(context.Background(), enginetest.Page{main, form}, "ABC123")
	require.NoError(t, err)

	assert.Equal(t, engine.NoResults, out.Kind)
	assert.Equal(t, "e-Toll: No toll trips found for ABC123 (SHB/SHT).", out.Diagnostic)
	calls := form.Calls()
	assert.Contains(t, calls, "type "+regoField.String()+" ABC123")
	assert.Contains(t, calls, "click #pickListCaret, span.arrow-box")
	assert.Contains(t, calls, `click item[data-value="NSW"]`)
	assert.Contains(t, calls, "click #searchTollNoticesForm_0")
	assert.Contains(t, calls, "click #closeErrorBtn")
	for _, c := range calls {
		assert.NotContains(t, c, "eval", "ladder must not run once the caret selection verified")
	}
}

func TestSubmitSearch_LadderFallbackAndEnterSubmit(t *testing.T) {
	form := enginetest.NewFrame("main").
		Show(regoField, "").
		Show(results, "")

	out, err := fastAdapter().SubmitSearch(context.Background(), enginetest.Page{form}, "ABC123")
	require.NoError(t, err)

	assert.Equal(t, engine.Results, out.Kind)
	assert.Same(t, form, out.Frame)
	calls := form.Calls()
	assert.Contains(t, calls, "eval [#stateShortName NSW data-isvalid data-isopen]")
	assert.Contains(t, calls, "press "+regoField.String()+" Enter")
}

func TestSubmitSearch_WaitsForFieldToRender(t *testing.T) {
	form := enginetest.NewFrame("main").
		Show(regoField, "").
		Hydrate(regoField, 2).
		Show(results, "")

	out, err := fastAdapter().SubmitSearch(context.Background(), enginetest.Page{form}, "ABC123")
	require.NoError(t, err)

	assert.Equal(t, engine.Results, out.Kind)
	assert.Contains(t, form.Calls(), "type "+regoField.String()+" ABC123")
	assert.GreaterOrEqual(t, form.Probes(regoField), 4, "one attached check, two hidden checks, one visible check")
}

func TestSubmitSearch_FieldNeverRenders(t *testing.T) {
	form := enginetest.NewFrame("main").
		Show(regoField, "").
		Hydrate(regoField, 1_000_000)

	_, err := fastAdapter().SubmitSearch(context.Background(), enginetest.Page{form}, "ABC123")

	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodeAdapterNotFound, se.Code)
	assert.Equal(t, "e-Toll: rego field not visible for ABC123.", se.Message)
	for _, c := range form.Calls() {
		assert.NotContains(t, c, "type ")
	}
}

func TestSubmitSearch_FieldMissing(t *testing.T) {
	_, err := fastAdapter().SubmitSearch(context.Background(), enginetest.Page{enginetest.NewFrame("main")}, "ABC123")

	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodeAdapterNotFound, se.Code)
	assert.Equal(t, "e-Toll: rego field not found for ABC123.", se.Message)
}
