package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndHelpers(t *testing.T) {
	doc, err := Parse(`<div id="row"><span class="a">  Lane
	Cove   Tunnel </span><div>one</div><section><div>nested</div></section><input value=" 42 "></div>`)
	require.NoError(t, err)

	row := doc.Find("#row")
	assert.Equal(t, "Lane Cove Tunnel", Text(row.Find(".a")))
	assert.Equal(t, "", Text(row.Find(".missing")))

	v, ok := Attr(row.Find("input"), "value")
	assert.True(t, ok)
	assert.Equal(t, "42", v)

	_, ok = Attr(row.Find("input"), "checked")
	assert.False(t, ok)

	assert.Equal(t, 1, Children(row, MustCompile("div")).Length())
}

func TestInnerText_SeparatesBlocks(t *testing.T) {
	doc, err := Parse(`<label><div>M2</div><div>Letter 1</div><script>var x;</script><span class="fee">$4.50</span></label>`)
	require.NoError(t, err)

	label := doc.Find("label")
	assert.Equal(t, "M2 Letter 1 $4.50", InnerText(label))
	assert.Equal(t, "M2Letter 1var x;$4.50", Text(label))
	assert.Equal(t, "", InnerText(doc.Find("table")))
}

func TestInnerText_KeepsInlineMarkupJoined(t *testing.T) {
	doc, err := Parse(`<table><tr>
		<td>$12<small>.50</small></td>
		<td>$1,0<b>12</b>.40</td>
		<td><abbr title="x">Un</abbr>paid<br>Letter 2</td>
	</tr></table>`)
	require.NoError(t, err)

	tds := doc.Find("td")
	assert.Equal(t, "$12.50", InnerText(tds.Eq(0)))
	assert.Equal(t, "$1,012.40", InnerText(tds.Eq(1)))
	assert.Equal(t, "Unpaid Letter 2", InnerText(tds.Eq(2)))
	assert.Equal(t, "$12.50 $1,012.40 Unpaid Letter 2", InnerText(doc.Find("tr")))

	require.NotNil(t, ParseMoney(InnerText(tds.Eq(0))))
	assert.InDelta(t, 12.50, *ParseMoney(InnerText(tds.Eq(0))), 1e-9)
	assert.InDelta(t, 1012.40, *ParseMoney(InnerText(tds.Eq(1))), 1e-9)
}
