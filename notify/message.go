// Package notify turns vehicle reports into Google Chat cards with
// ready-to-send WhatsApp and SMS reminders, and delivers them to a chat
// webhook.
package notify

import (
	"fmt"
	"strings"

	"github.com/use-agent/tollwatch/models"
)

// Mode selects the reminder wording.
type Mode string

const (
	// Morning is the first reminder; tolls are scraped and included.
	Morning Mode = "morning"
	// Evening is the second reminder; no scraping happens.
	Evening Mode = "evening"
)

// ParseMode accepts "morning" or "evening" in any case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case Morning:
		return Morning, nil
	case Evening:
		return Evening, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want morning or evening)", s)
	}
}

// Payee is the bank account renters pay into.
type Payee struct {
	AccountName   string
	BSB           string
	AccountNumber string
}

// Messages are the four reminder variants for one vehicle.
type Messages struct {
	WhatsApp      string
	WhatsAppTolls string
	SMS           string
	SMSTolls      string

	// Amount is the formatted rent.
	Amount string
}

func dollars(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// messageStyle switches between WhatsApp (*bold*) and plain SMS text.
type messageStyle struct {
	bold func(string) string
}

var (
	whatsApp = messageStyle{bold: func(s string) string { return "*" + s + "*" }}
	sms      = messageStyle{bold: func(s string) string { return s }}
)

// BuildMessages renders the reminders for entry. totals are the vehicle's
// toll totals; when nil or zero the with-tolls variants carry
// placeholders for the sender to fill in.
func BuildMessages(entry models.VehicleEntry, mode Mode, totals *models.Totals, payee Payee) Messages {
	amount := dollars(entry.RentAmount)
	return Messages{
		WhatsApp:      render(whatsApp, entry, mode, amount, nil, payee),
		WhatsAppTolls: render(whatsApp, entry, mode, amount, tollsOrEmpty(totals), payee),
		SMS:           render(sms, entry, mode, amount, nil, payee),
		SMSTolls:      render(sms, entry, mode, amount, tollsOrEmpty(totals), payee),
		Amount:        amount,
	}
}

// tollsOrEmpty returns a non-nil totals value so render knows to produce
// the with-tolls wording.
func tollsOrEmpty(t *models.Totals) *models.Totals {
	if t == nil {
		return &models.Totals{}
	}
	return t
}

func render(st messageStyle, e models.VehicleEntry, mode Mode, amount string, tolls *models.Totals, payee Payee) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", e.Renter)

	if mode == Evening {
		b.WriteString(st.bold("Second reminder:") + " ")
	}

	if tolls == nil {
		fmt.Fprintf(&b, "Please transfer the rental payment of %s for vehicle %s", st.bold(amount), st.bold(e.Rego))
	} else {
		tollStr, totalStr := "(toll amount)", "(total)"
		adminStr := ""
		if tolls.Any() {
			tollStr = dollars(tolls.Toll)
			if tolls.Admin > 0 {
				adminStr = " (admin " + dollars(tolls.Admin) + ")"
			}
			totalStr = dollars(e.RentAmount + tolls.Toll + tolls.Admin)
		}
		fmt.Fprintf(&b, "Please transfer %s + %s (tolls)%s = %s for vehicle %s",
			st.bold(amount), tollStr, adminStr, st.bold(totalStr), st.bold(e.Rego))
	}

	if mode == Evening {
		fmt.Fprintf(&b, " by %s. The car will be %s after that.\n\n", st.bold("8:00 AM tomorrow"), st.bold("locked"))
	} else {
		fmt.Fprintf(&b, " by %s.\n\n", st.bold("5:00 PM today"))
	}

	if payee.AccountName != "" || payee.BSB != "" || payee.AccountNumber != "" {
		b.WriteString(st.bold("Account details") + "\n")
		if payee.AccountName != "" {
			b.WriteString(payee.AccountName + "\n")
		}
		if payee.BSB != "" {
			b.WriteString("BSB: " + payee.BSB + "\n")
		}
		if payee.AccountNumber != "" {
			b.WriteString("Account number: " + payee.AccountNumber + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Thanks.")
	return b.String()
}
