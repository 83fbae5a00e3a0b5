package stock

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold normaliza texto para comparar sin mayúsculas ni diacríticos
// ("Lentilles Épicées" y "lentilles epicees" coinciden). También elimina
// harakat del árabe, que son marcas combinantes (Mn).
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	// Caser y Transformer tienen estado: uno nuevo por llamada.
	return cases.Fold().String(strings.TrimSpace(out))
}

// Matches indica si query (ya sin normalizar) aparece en alguno de los campos.
func Matches(query string, fields ...string) bool {
	q := Fold(query)
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(Fold(f), q) {
			return true
		}
	}
	return false
}
