// Package translate formats user-visible messages for the locale of the
// running process.
//
// Every error and diagnostic string in rvcustom is built through From, so a
// message catalog registered with golang.org/x/text/message is picked up
// without touching the call sites.
package translate

import (
	"log"
	"os"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// LANG_ENV overrides the detected locale when set (for example "en-US").
const LANG_ENV = "RVCUSTOM_LANG"

var printer *message.Printer

func init() {
	printer = message.NewPrinter(message.MatchLanguage(Locales()...))
}

// Locales returns the preferred locales, most preferred first.
func Locales() (locales []string) {
	if lang, ok := os.LookupEnv(LANG_ENV); ok && len(lang) != 0 {
		return []string{lang}
	}

	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("rvcustom: locale: %v", err)
	}

	if len(locales) == 0 {
		locales = []string{language.AmericanEnglish.String()}
	}

	return
}

// From an en-US Sprintf() format, translate to string.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
