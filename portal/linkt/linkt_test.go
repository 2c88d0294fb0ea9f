package linkt

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/tollwatch/engine"
	"github.com/use-agent/tollwatch/engine/enginetest"
	"github.com/use-agent/tollwatch/extract"
	"github.com/use-agent/tollwatch/models"
)

const resultsHTML = `<html><body>
<table id="additionalResults">
  <thead><tr><th></th><th>LPN</th><th>Motorway</th><th>Issued</th><th>Status</th><th>Admin</th><th>Toll</th></tr></thead>
  <tbody>
    <tr>
      <td><input type="checkbox" value="N-1001" ispayable="True"></td>
      <td>ABC123</td>
      <td>M2 Hills Motorway</td>
      <td>March 2024</td>
      <td><abbr title="Toll notice issued">TN</abbr></td>
      <td>$10.95</td>
      <td>$1,204.50</td>
    </tr>
    <tr>
      <td><input type="checkbox" value="N-1002" ispayable="False"></td>
      <td>ABC123</td>
      <td>Lane Cove Tunnel</td>
      <td>Pending</td>
      <td>Overdue</td>
      <td>—</td>
      <td>$0.00</td>
    </tr>
    <tr>
      <td></td>
      <td>ABC123</td>
      <td>Eastern Distributor</td>
      <td>January 2025</td>
    </tr>
    <tr><td colspan="7">Total</td></tr>
  </tbody>
</table>
</body></html>`

func sydney(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)
	return loc
}

func TestParseRows_AmountsSplitByInlineMarkup(t *testing.T) {
	doc, err := extract.Parse(`<table id="additionalResults"><tbody><tr>
	  <td><input type="checkbox" value="N-2001" ispayable="True"></td>
	  <td>ABC123</td>
	  <td>M7</td>
	  <td>May 2025</td>
	  <td>Unpaid</td>
	  <td>$12<small>.50</small></td>
	  <td>$1,0<b>12</b>.40</td>
	</tr></tbody></table>`)
	require.NoError(t, err)

	notices := ParseRows(doc, "ABC123", sydney(t))
	require.Len(t, notices, 1)
	n := notices[0]
	assert.Equal(t, "$12.50", n.AdminFeeText)
	assert.InDelta(t, 12.50, *n.AdminFee, 1e-9)
	assert.Equal(t, "$1,012.40", n.TollAmountText)
	assert.InDelta(t, 1012.40, *n.TollAmount, 1e-9)
}

func TestParseRows(t *testing.T) {
	loc := sydney(t)
	doc, err := extract.Parse(resultsHTML)
	require.NoError(t, err)

	notices := ParseRows(doc, "ABC123", loc)
	require.Len(t, notices, 3)

	first := notices[0]
	require.NotNil(t, first.RowID)
	assert.Equal(t, "N-1001", *first.RowID)
	assert.True(t, first.IsPayable)
	assert.Equal(t, models.SourceLinkt, first.Source)
	assert.Equal(t, "ABC123", first.LPN)
	assert.Equal(t, "M2 Hills Motorway", first.Motorway)
	assert.Equal(t, "March 2024", first.IssuedText)
	require.NotNil(t, first.IssuedAt)
	assert.True(t, first.IssuedAt.Equal(time.Date(2024, time.March, 1, 0, 0, 0, 0, loc)))
	assert.Equal(t, "TN", first.Status)
	assert.Equal(t, "Toll notice issued", first.StatusDetail)
	assert.InDelta(t, 10.95, *first.AdminFee, 1e-9)
	assert.InDelta(t, 1204.50, *first.TollAmount, 1e-9)

	second := notices[1]
	assert.False(t, second.IsPayable)
	assert.Nil(t, second.IssuedAt)
	assert.Equal(t, "Overdue", second.Status)
	assert.Empty(t, second.StatusDetail)
	assert.Nil(t, second.AdminFee)
	assert.Equal(t, "—", second.AdminFeeText)
	require.NotNil(t, second.TollAmount)
	assert.Zero(t, *second.TollAmount)

	partial := notices[2]
	assert.Nil(t, partial.RowID)
	assert.False(t, partial.IsPayable)
	assert.Equal(t, "Eastern Distributor", partial.Motorway)
	assert.NotNil(t, partial.IssuedAt)
	assert.Empty(t, partial.Status)
	assert.Nil(t, partial.AdminFee)
	assert.Nil(t, partial.TollAmount)
}

func TestParseRows_NoTable(t *testing.T) {
	doc, err := extract.Parse(`<html><body><p>Nothing here</p></body></html>`)
	require.NoError(t, err)

	notices := ParseRows(doc, "ABC123", time.UTC)
	assert.NotNil(t, notices)
	assert.Empty(t, notices)
}

func fastAdapter() *Adapter {
	a := New(time.UTC)
	a.Resolver = engine.FrameResolver{Interval: time.Millisecond, Banner: time.Millisecond}
	a.Classifier = engine.OutcomeClassifier{Interval: time.Millisecond}
	a.FieldBudget = 20 * time.Millisecond
	a.Horizon = 20 * time.Millisecond
	return a
}

func TestSubmitSearch_Results(t *testing.T) {
	f := enginetest.NewFrame("main").
		Show(searchInput, "").
		Show(searchButton, "Search").
		Show(resultsTable, "")
	f.Document = resultsHTML
	a := fastAdapter()

	out, err := a.SubmitSearch(context.Background(), enginetest.Page{f}, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, engine.Results, out.Kind)
	assert.Equal(t, "ABC123", out.Rego)
	assert.Contains(t, f.Calls(), "type #txtRegistrationNumber ABC123")
	assert.Contains(t, f.Calls(), "click #searchLink")

	notices, err := a.ExtractRecords(context.Background(), out)
	require.NoError(t, err)
	assert.Len(t, notices, 3)
	for _, n := range notices {
		assert.Equal(t, "ABC123", n.Rego)
	}
}

func TestSubmitSearch_ClickFailsFallsBackToEnter(t *testing.T) {
	f := enginetest.NewFrame("main").Show(searchInput, "").Show(searchButton, "")
	f.ClickErr[searchButton.String()] = errors.New("not interactable")

	out, err := fastAdapter().SubmitSearch(context.Background(), enginetest.Page{f}, "ABC123")
	require.NoError(t, err)
	assert.Equal(t, engine.Timeout, out.Kind)
	assert.Equal(t, "Linkt: no results table found for ABC123.", out.Diagnostic)
	assert.Contains(t, f.Calls(), "press #txtRegistrationNumber Enter")
}

func TestSubmitSearch_FieldMissing(t *testing.T) {
	_, err := fastAdapter().SubmitSearch(context.Background(), enginetest.Page{enginetest.NewFrame("main")}, "ABC123")

	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodeAdapterNotFound, se.Code)
	assert.Equal(t, "Linkt: rego field not found for ABC123.", se.Message)
}
