//go:build !unix

package provenance

import (
	"runtime"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func platformName() (string, error) {
	return cases.Title(language.Und).String(runtime.GOOS), nil
}
