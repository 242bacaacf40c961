package presenter

import (
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Locale holds resolved formatting conventions for dates and numbers.
// Experience date ranges and dashboard counts render through it.
type Locale struct {
	tag     language.Tag
	printer *message.Printer
}

// DetectLocale resolves the user's locale from LC_ALL, LC_TIME, then LANG.
// Falls back to en-US when nothing is set or parseable.
func DetectLocale() Locale {
	raw := os.Getenv("LC_ALL")
	if raw == "" {
		raw = os.Getenv("LC_TIME")
	}
	if raw == "" {
		raw = os.Getenv("LANG")
	}
	return NewLocale(raw)
}

// NewLocale creates a Locale from a POSIX locale string ("de_DE.UTF-8") or
// BCP 47 tag ("de-DE").
func NewLocale(raw string) Locale {
	// "en_US.UTF-8" → "en-US"
	if idx := strings.IndexByte(raw, '.'); idx != -1 {
		raw = raw[:idx]
	}
	raw = strings.ReplaceAll(raw, "_", "-")

	tag, _ := language.Parse(raw)
	if tag == language.Und {
		tag = language.AmericanEnglish
	}
	return Locale{tag: tag, printer: message.NewPrinter(tag)}
}

// FormatDate formats t using the locale's preferred date order.
func (l Locale) FormatDate(t time.Time) string {
	return t.Format(l.dateLayout())
}

// FormatNumber formats v with locale-appropriate grouping and separators.
func (l Locale) FormatNumber(v float64) string {
	if v == float64(int64(v)) {
		return l.printer.Sprint(number.Decimal(int64(v)))
	}
	return l.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// Tag returns the resolved language tag.
func (l Locale) Tag() language.Tag {
	return l.tag
}

const (
	layoutMDY = "Jan 2, 2006"
	layoutDMY = "2 Jan 2006"
	layoutYMD = "2006-01-02"
)

func (l Locale) dateLayout() string {
	region, _ := l.tag.Region()
	if layout, ok := dateLayouts[region.String()]; ok {
		return layout
	}
	base, _ := l.tag.Base()
	if layout, ok := dateLayoutsByLang[base.String()]; ok {
		return layout
	}
	return layoutMDY
}

// dateLayouts maps ISO 3166-1 region codes to date layouts. Unlisted regions
// fall through to the language table.
var dateLayouts = map[string]string{
	"US": layoutMDY,
	"PH": layoutMDY,
	"GB": layoutDMY,
	"AU": layoutDMY,
	"IE": layoutDMY,
	"IN": layoutDMY,
	"FR": layoutDMY,
	"ES": layoutDMY,
	"IT": layoutDMY,
	"BR": layoutDMY,
	"NL": layoutDMY,
	"DE": layoutDMY,
	"SE": layoutDMY,
	"JP": layoutYMD,
	"CN": layoutYMD,
	"KR": layoutYMD,
	"CA": layoutYMD,
}

var dateLayoutsByLang = map[string]string{
	"en": layoutMDY,
	"de": layoutDMY,
	"fr": layoutDMY,
	"es": layoutDMY,
	"it": layoutDMY,
	"pt": layoutDMY,
	"nl": layoutDMY,
	"sv": layoutDMY,
	"ja": layoutYMD,
	"zh": layoutYMD,
	"ko": layoutYMD,
}
