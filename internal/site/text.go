package site

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"git.home.luguber.info/inful/prerender/internal/source"
)

// textCleaner turns upstream text into plain strings and formats numbers for the
// site language.
type textCleaner struct {
	policy  *bluemonday.Policy
	printer *message.Printer
	title   cases.Caser
	unit    currency.Unit
}

func newTextCleaner(lang, cur string) *textCleaner {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	unit, err := currency.ParseISO(cur)
	if err != nil {
		unit = currency.USD
	}
	return &textCleaner{
		policy:  bluemonday.StrictPolicy(),
		printer: message.NewPrinter(tag),
		title:   cases.Title(tag),
		unit:    unit,
	}
}

// plain strips markup and collapses whitespace.
func (c *textCleaner) plain(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(c.policy.Sanitize(s))), " ")
}

func (c *textCleaner) categoryName(rec source.CategoryRecord) string {
	if name := c.plain(rec.Title); name != "" {
		return name
	}
	return c.title.String(strings.NewReplacer("-", " ", "_", " ").Replace(rec.Slug))
}

func (c *textCleaner) price(minor int64) string {
	return c.printer.Sprint(currency.Symbol(c.unit.Amount(float64(minor) / 100)))
}

func (c *textCleaner) decimal(minor int64) string {
	return c.printer.Sprint(number.Decimal(float64(minor)/100, number.Scale(2), number.NoSeparator()))
}

func (c *textCleaner) currencyCode() string { return c.unit.String() }
