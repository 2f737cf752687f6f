package nlu

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	currencyRe     = regexp.MustCompile(`(?i)r\$\s*([0-9][0-9.,]*)`)
	kShorthandRe   = regexp.MustCompile(`(?i)\b([0-9]+(?:[.,][0-9]+)?)\s*k\b`)
	labeledValueRe = regexp.MustCompile(`(?i)\b(?:valor|total)\b[\s:]*(?:de\s+)?(?:r\$\s*)?([0-9][0-9.,]*)`)
	decimalRe      = regexp.MustCompile(`[0-9]{1,3}(?:\.[0-9]{3})+,[0-9]{2}|[0-9]+[.,][0-9]{1,2}\b`)
	numericLineRe  = regexp.MustCompile(`^[0-9][0-9.,]*$`)
)

// ExtractAmount localiza o valor monetário da mensagem e o devolve em
// centavos exatos. Valores zero ou negativos são tratados como ausentes.
// Formatos aceitos: moeda formatada (R$ 1.500,00), decimal com vírgula ou
// ponto, atalho com sufixo k (2k) e números em linhas isoladas.
func ExtractAmount(text string) *MonetaryAmount {
	// 1. Moeda explícita em qualquer posição
	if m := currencyRe.FindStringSubmatch(text); m != nil {
		if cents, ok := parseBRNumber(m[1]); ok {
			return &MonetaryAmount{Cents: cents}
		}
	}

	// 2. Atalho com sufixo k (2k = 2.000)
	if m := kShorthandRe.FindStringSubmatch(text); m != nil {
		if cents, ok := parseBRNumber(m[1]); ok {
			return &MonetaryAmount{Cents: cents * 1000}
		}
	}

	// 3. Número rotulado como valor
	if m := labeledValueRe.FindStringSubmatch(text); m != nil {
		if cents, ok := parseBRNumber(m[1]); ok {
			return &MonetaryAmount{Cents: cents}
		}
	}

	// 4. Decimal com separador em qualquer posição, ignorando negativos
	for _, loc := range decimalRe.FindAllStringIndex(text, -1) {
		if loc[0] > 0 && text[loc[0]-1] == '-' {
			continue
		}
		if loc[0] > 0 && isDigitByte(text[loc[0]-1]) {
			continue
		}
		if cents, ok := parseBRNumber(text[loc[0]:loc[1]]); ok {
			return &MonetaryAmount{Cents: cents}
		}
	}

	// 5. Linha isolada puramente numérica, desde que não tenha a forma de
	// um documento (11 ou 14 dígitos sem separador decimal)
	for _, line := range Lines(text) {
		if !numericLineRe.MatchString(line) {
			continue
		}
		if isDocumentShaped(line) {
			continue
		}
		if cents, ok := parseBRNumber(line); ok {
			return &MonetaryAmount{Cents: cents}
		}
	}

	return nil
}

func isDigitByte(b byte) bool {
	return b >= '0' && b <= '9'
}

// isDocumentShaped indica que a sequência reduz a exatamente 11 ou 14
// dígitos, caso em que a linha pertence à extração de documentos
func isDocumentShaped(s string) bool {
	n := len(OnlyDigits(s))
	return n == 11 || n == 14
}

// parseBRNumber interpreta um número no formato brasileiro (1.500,00) ou
// com ponto decimal (1500.00) e devolve o valor em centavos
func parseBRNumber(s string) (int64, bool) {
	s = strings.Trim(strings.TrimSpace(s), ".,")
	if s == "" {
		return 0, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	var intPart, fracPart string
	switch {
	case lastDot >= 0 && lastComma >= 0:
		// O último separador é o decimal; o outro agrupa milhares
		if lastComma > lastDot {
			intPart = OnlyDigits(s[:lastComma])
			fracPart = OnlyDigits(s[lastComma+1:])
		} else {
			intPart = OnlyDigits(s[:lastDot])
			fracPart = OnlyDigits(s[lastDot+1:])
		}
	case lastComma >= 0:
		frac := s[lastComma+1:]
		if len(frac) <= 2 && strings.Count(s, ",") == 1 {
			intPart = OnlyDigits(s[:lastComma])
			fracPart = frac
		} else {
			// Vírgula de milhar (1,500 ou 1,500,000)
			intPart = OnlyDigits(s)
		}
	case lastDot >= 0:
		frac := s[lastDot+1:]
		if len(frac) <= 2 && strings.Count(s, ".") == 1 {
			intPart = OnlyDigits(s[:lastDot])
			fracPart = frac
		} else {
			// Ponto de milhar (1.500 ou 1.500.000)
			intPart = OnlyDigits(s)
		}
	default:
		intPart = s
	}

	if intPart == "" {
		intPart = "0"
	}
	whole, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, false
	}

	var cents int64
	switch len(fracPart) {
	case 0:
		cents = 0
	case 1:
		d, err := strconv.ParseInt(fracPart, 10, 64)
		if err != nil {
			return 0, false
		}
		cents = d * 10
	default:
		d, err := strconv.ParseInt(fracPart[:2], 10, 64)
		if err != nil {
			return 0, false
		}
		cents = d
	}

	total := whole*100 + cents
	if total <= 0 {
		return 0, false
	}
	return total, true
}
