package inventory

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxMaterialCodeLen longitud máxima de un código de material.
const MaxMaterialCodeLen = 15

var dimensionToken = regexp.MustCompile(`^(\d+)[xX](\d+)$`)

// asciiFold quita diacríticos (ç→c, ğ→g, ş→s, ö→o, ü→u, İ→I) y mapea la ı sin punto.
var asciiFold = transform.Chain(
	runes.Map(func(r rune) rune {
		if r == 'ı' {
			return 'i'
		}
		return r
	}),
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// GenerateMaterialCode arma un código a partir del nombre: inicial de cada palabra en mayúscula
// seguida de las palabras numéricas ("silindir başlı itici 30x300" -> "SBI30300").
func GenerateMaterialCode(name string) string {
	folded, _, err := transform.String(asciiFold, name)
	if err != nil {
		folded = name
	}

	var letters, digits strings.Builder
	var words []string
	for _, w := range strings.FieldsFunc(folded, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_'
	}) {
		if m := dimensionToken.FindStringSubmatch(w); m != nil {
			words = append(words, m[1], m[2])
			continue
		}
		words = append(words, w)
	}

	for _, w := range words {
		if isDigits(w) {
			digits.WriteString(w)
			continue
		}
		for _, r := range w {
			if unicode.IsLetter(r) {
				letters.WriteRune(unicode.ToUpper(r))
				break
			}
		}
	}

	code := letters.String() + digits.String()
	switch {
	case letters.Len() == 0:
		// sin letras: primeros 3 alfanuméricos de la primera palabra
		var b strings.Builder
		if len(words) > 0 {
			for _, r := range words[0] {
				if unicode.IsLetter(r) || unicode.IsDigit(r) {
					b.WriteRune(unicode.ToUpper(r))
				}
			}
		}
		code = TruncateCode(b.String(), 3)
		if utf8.RuneCountInString(code) < 3 {
			code += "001"
		}
	case utf8.RuneCountInString(code) < 3:
		code += "001"
	}
	return TruncateCode(code, MaxMaterialCodeLen)
}

// TruncateCode corta a n caracteres (runas, no bytes).
func TruncateCode(code string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range code {
		if i == n {
			return code[:pos]
		}
		i++
	}
	return code
}

// NormalizeMaterialCode normaliza un código ingresado por el usuario.
func NormalizeMaterialCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
