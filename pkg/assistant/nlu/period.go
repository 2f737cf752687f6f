package nlu

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	lastDaysRe  = regexp.MustCompile(`ultimos?\s+(\d{1,3})\s+dias?`)
	monthNameRe = regexp.MustCompile(`\b(janeiro|fevereiro|marco|abril|maio|junho|julho|agosto|setembro|outubro|novembro|dezembro)\b`)
	monthYearRe = regexp.MustCompile(`^\s*(?:de\s+)?(\d{4})`)
)

var monthNames = map[string]time.Month{
	"janeiro": time.January, "fevereiro": time.February, "marco": time.March,
	"abril": time.April, "maio": time.May, "junho": time.June,
	"julho": time.July, "agosto": time.August, "setembro": time.September,
	"outubro": time.October, "novembro": time.November, "dezembro": time.December,
}

// ExtractPeriod reconhece períodos simbólicos na mensagem (hoje, mês
// passado, últimos N dias, nome de mês) e os resolve em datas concretas
func ExtractPeriod(text string) *Period {
	return ExtractPeriodAt(text, time.Now())
}

// ExtractPeriodAt é a variante com relógio explícito, usada em testes
func ExtractPeriodAt(text string, now time.Time) *Period {
	norm := Normalize(text)

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch {
	case strings.Contains(norm, "hoje"):
		return &Period{Kind: PeriodToday, From: day, To: day.AddDate(0, 0, 1)}
	case strings.Contains(norm, "ontem"):
		return &Period{Kind: PeriodYesterday, From: day.AddDate(0, 0, -1), To: day}
	case strings.Contains(norm, "esta semana") || strings.Contains(norm, "essa semana"):
		weekday := int(day.Weekday())
		start := day.AddDate(0, 0, -weekday)
		return &Period{Kind: PeriodThisWeek, From: start, To: start.AddDate(0, 0, 7)}
	case strings.Contains(norm, "mes passado") || strings.Contains(norm, "ultimo mes"):
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -1, 0)
		return &Period{Kind: PeriodLastMonth, From: start, To: start.AddDate(0, 1, 0)}
	case strings.Contains(norm, "este mes") || strings.Contains(norm, "esse mes") || strings.Contains(norm, "mes atual") || strings.Contains(norm, "neste mes"):
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return &Period{Kind: PeriodThisMonth, From: start, To: start.AddDate(0, 1, 0)}
	case strings.Contains(norm, "este ano") || strings.Contains(norm, "esse ano") || strings.Contains(norm, "ano atual") || strings.Contains(norm, "no ano"):
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
		return &Period{Kind: PeriodThisYear, From: start, To: start.AddDate(1, 0, 0)}
	}

	if m := lastDaysRe.FindStringSubmatch(norm); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n > 0 {
			return &Period{Kind: PeriodLastDays, From: day.AddDate(0, 0, -n), To: day.AddDate(0, 0, 1)}
		}
	}

	// Mês pelo nome, com ano opcional (ex.: "em março" ou "março de 2024")
	if loc := monthNameRe.FindStringSubmatchIndex(norm); loc != nil {
		month := monthNames[norm[loc[2]:loc[3]]]
		year := now.Year()
		rest := norm[loc[3]:]
		if ym := monthYearRe.FindStringSubmatch(rest); ym != nil {
			if y, err := strconv.Atoi(ym[1]); err == nil {
				year = y
			}
		} else if month > now.Month() {
			// Mês futuro sem ano explícito refere-se ao ano anterior
			year--
		}
		start := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
		return &Period{Kind: PeriodMonth, From: start, To: start.AddDate(0, 1, 0)}
	}

	return nil
}
