package portal

import (
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/tollwatch/extract"
)

// matches returns the tag names each text locator would click in doc.
func matches(doc *goquery.Document) map[string][]string {
	out := map[string][]string{}
	for _, l := range ConsentBanners {
		if l.Text == nil {
			continue
		}
		doc.Find(l.CSS).Each(func(_ int, s *goquery.Selection) {
			if l.Text.MatchString(extract.InnerText(s)) {
				out[l.String()] = append(out[l.String()], goquery.NodeName(s))
			}
		})
	}
	return out
}

func TestConsentBanners_AcceptAllOnlyHitsControls(t *testing.T) {
	doc, err := extract.Parse(`<html><body>
  <div class="cookie-bar"><span>Accept all</span></div>
  <div>Accept all</div>
  <a href="#">Accept all</a>
</body></html>`)
	require.NoError(t, err)

	var clicked []string
	for _, tags := range matches(doc) {
		clicked = append(clicked, tags...)
	}
	assert.Equal(t, []string{"a"}, clicked, "wrapping divs and spans are not clicked")
}

func TestConsentBanners_AcceptButton(t *testing.T) {
	doc, err := extract.Parse(`<html><body><div><button>Accept cookies</button></div></body></html>`)
	require.NoError(t, err)

	var tags []string
	for _, found := range matches(doc) {
		tags = append(tags, found...)
	}
	assert.Contains(t, tags, "button")
	assert.NotContains(t, tags, "div")
}
