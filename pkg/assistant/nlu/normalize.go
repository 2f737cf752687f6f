package nlu

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize reduz o texto para comparação: minúsculas, sem acentos e com
// espaços colapsados
func Normalize(s string) string {
	lower := strings.ToLower(strings.TrimSpace(s))
	out, _, err := transform.String(stripAccents, lower)
	if err != nil {
		out = lower
	}
	return strings.Join(strings.Fields(out), " ")
}

// Lines divide a mensagem em linhas não vazias já aparadas
func Lines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// OnlyDigits remove tudo que não for dígito
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
