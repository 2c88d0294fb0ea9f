package notify

import (
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"github.com/use-agent/tollwatch/models"
	"github.com/use-agent/tollwatch/portal/etoll"
	"github.com/use-agent/tollwatch/portal/linkt"
)

// Google Chat card (v1) payload.
type (
	Payload struct {
		Cards []Card `json:"cards"`
	}
	Card struct {
		Header   Header    `json:"header"`
		Sections []Section `json:"sections"`
	}
	Header struct {
		Title    string `json:"title"`
		Subtitle string `json:"subtitle,omitempty"`
	}
	Section struct {
		Widgets []Widget `json:"widgets"`
	}
	Widget struct {
		TextParagraph *TextParagraph `json:"textParagraph,omitempty"`
		Buttons       []Button       `json:"buttons,omitempty"`
	}
	TextParagraph struct {
		Text string `json:"text"`
	}
	Button struct {
		TextButton TextButton `json:"textButton"`
	}
	TextButton struct {
		Text    string  `json:"text"`
		OnClick OnClick `json:"onClick"`
	}
	OnClick struct {
		OpenLink OpenLink `json:"openLink"`
	}
	OpenLink struct {
		URL string `json:"url"`
	}
)

const (
	cardTitle    = "Rent & Toll Notices"
	subtitleTime = "Mon, 02 Jan 2006 3:04 PM MST"
	unknownDate  = "Date unknown"
	noNotices    = "ℹ️ No toll notices found for this rego in the selected window."
)

func paragraph(text string) Widget {
	return Widget{TextParagraph: &TextParagraph{Text: text}}
}

func link(text, target string) Button {
	return Button{TextButton: TextButton{Text: text, OnClick: OnClick{OpenLink: OpenLink{URL: target}}}}
}

// componentEscape percent-encodes s for use inside a URL query value,
// with spaces as %20 so chat clients render them literally.
func componentEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// WhatsAppLink opens a WhatsApp chat to phone with text prefilled.
func WhatsAppLink(phone, text string) string {
	return "https://wa.me/" + phone + "?text=" + componentEscape(text)
}

// SMSLink opens the SMS composer to phone with body prefilled.
func SMSLink(phone, body string) string {
	return "sms:" + phone + "?&body=" + componentEscape(body)
}

// BuildCard renders the card for one vehicle. Morning cards carry the toll
// section. Both modes carry the with-tolls message buttons; in the evening
// their amounts are placeholders for the sender to fill in.
func BuildCard(report models.VehicleReport, mode Mode, payee Payee, loc *time.Location) Payload {
	if loc == nil {
		loc = time.UTC
	}
	e := report.Entry
	includeTolls := mode == Morning

	var totals *models.Totals
	if includeTolls {
		t := report.Totals
		totals = &t
	}
	msgs := BuildMessages(e, mode, totals, payee)

	widgets := []Widget{
		paragraph(fmt.Sprintf("🚗 <b>%s — %s</b>", html.EscapeString(e.Rego), html.EscapeString(e.Renter))),
		paragraph(rentLine(mode, msgs.Amount, e.PaymentDay)),
	}
	if includeTolls {
		widgets = append(widgets, tollWidgets(report)...)
	}

	buttons := []Button{
		link("WhatsApp", WhatsAppLink(e.Phone, msgs.WhatsApp)),
		link("SMS", SMSLink(e.Phone, msgs.SMS)),
	}
	widgets = append(widgets, Widget{Buttons: buttons})
	widgets = append(widgets, Widget{Buttons: []Button{
		link("WhatsApp + tolls", WhatsAppLink(e.Phone, msgs.WhatsAppTolls)),
		link("SMS + tolls", SMSLink(e.Phone, msgs.SMSTolls)),
	}})
	widgets = append(widgets, Widget{Buttons: []Button{
		link("Open Linkt", linkt.URL),
		link("Open e-Toll", etoll.URL),
	}})

	checked := report.CheckedAt
	if checked.IsZero() {
		checked = time.Now()
	}
	return Payload{Cards: []Card{{
		Header: Header{
			Title:    cardTitle,
			Subtitle: checked.In(loc).Format(subtitleTime),
		},
		Sections: []Section{{Widgets: widgets}},
	}}}
}

func rentLine(mode Mode, amount, day string) string {
	if mode == Evening {
		return fmt.Sprintf("Second reminder • Due by 8:00 AM tomorrow • <b>%s</b> • %s", amount, html.EscapeString(day))
	}
	return fmt.Sprintf("Rent due today • Due by 5:00 PM • <b>%s</b> • %s", amount, html.EscapeString(day))
}

// tollWidgets renders the diagnostic, the totals and the notices grouped by
// issue date in their merged order.
func tollWidgets(report models.VehicleReport) []Widget {
	var out []Widget
	if report.Diagnostic != "" {
		out = append(out, paragraph("⚠️ "+html.EscapeString(report.Diagnostic)))
	}
	if len(report.Notices) == 0 {
		if report.Diagnostic == "" {
			out = append(out, paragraph(noNotices))
		}
		return out
	}

	out = append(out, paragraph(fmt.Sprintf("<b>Toll totals</b> • Admin: <b>%s</b> • Tolls: <b>%s</b>",
		dollars(report.Totals.Admin), dollars(report.Totals.Toll))))

	var order []string
	groups := map[string][]string{}
	for _, n := range report.Notices {
		key := strings.TrimSpace(n.IssuedText)
		if key == "" {
			key = unknownDate
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], noticeLine(n))
	}
	for _, key := range order {
		out = append(out, paragraph("<b>"+html.EscapeString(key)+"</b><br>"+strings.Join(groups[key], "<br>")))
	}
	return out
}

func noticeLine(n models.Notice) string {
	road := html.EscapeString(n.Motorway)
	if n.Source == models.SourceEtoll {
		road += " (e-Toll)"
	}
	mark := "⛔️"
	if n.IsPayable {
		mark = "✅"
	}
	return fmt.Sprintf("• %s — <i>%s</i> — Admin: <b>%s</b>, Toll: <b>%s</b> %s",
		road,
		html.EscapeString(n.Status),
		html.EscapeString(n.AdminFeeText),
		html.EscapeString(n.TollAmountText),
		mark,
	)
}
