// Package nlu concentra a compreensão de linguagem natural do assistente:
// extração de entidades tipadas e classificação de intenção por tabela de
// regras. Todas as funções são puras: recebem texto, devolvem valores, nunca
// tocam rede ou banco.
package nlu

import (
	"fmt"
	"time"
)

// DocumentKind distingue CPF (pessoa física) de CNPJ (pessoa jurídica)
type DocumentKind string

const (
	DocumentCPF  DocumentKind = "CPF"
	DocumentCNPJ DocumentKind = "CNPJ"
)

// MonetaryAmount é um valor monetário exato em centavos. Valores nulos ou
// negativos nunca são produzidos pela extração.
type MonetaryAmount struct {
	Cents int64 `json:"cents"`
}

// Reais devolve o valor em reais
func (m MonetaryAmount) Reais() float64 {
	return float64(m.Cents) / 100
}

// Format formata o valor no padrão brasileiro: R$ 1.500,00
func (m MonetaryAmount) Format() string {
	reais := m.Cents / 100
	centavos := m.Cents % 100

	intPart := fmt.Sprintf("%d", reais)
	var grouped []byte
	for i, d := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped = append(grouped, '.')
		}
		grouped = append(grouped, d)
	}

	return fmt.Sprintf("R$ %s,%02d", grouped, centavos)
}

// DocumentNumber é um CPF ou CNPJ já reduzido a dígitos
type DocumentNumber struct {
	Digits string       `json:"digits"`
	Kind   DocumentKind `json:"kind"`
}

// Format formata o documento com a pontuação usual
func (d DocumentNumber) Format() string {
	switch d.Kind {
	case DocumentCPF:
		if len(d.Digits) == 11 {
			return fmt.Sprintf("%s.%s.%s-%s", d.Digits[0:3], d.Digits[3:6], d.Digits[6:9], d.Digits[9:11])
		}
	case DocumentCNPJ:
		if len(d.Digits) == 14 {
			return fmt.Sprintf("%s.%s.%s/%s-%s", d.Digits[0:2], d.Digits[2:5], d.Digits[5:8], d.Digits[8:12], d.Digits[12:14])
		}
	}
	return d.Digits
}

// PersonName é um nome de pessoa ou empresa extraído do texto
type PersonName struct {
	Text string `json:"text"`
}

// ServiceDescription é a descrição do serviço com o código municipal inferido
type ServiceDescription struct {
	Text string `json:"text"`
	Code string `json:"code"`
}

// PeriodKind identifica o período simbólico reconhecido na mensagem
type PeriodKind string

const (
	PeriodToday     PeriodKind = "hoje"
	PeriodYesterday PeriodKind = "ontem"
	PeriodThisWeek  PeriodKind = "esta_semana"
	PeriodThisMonth PeriodKind = "este_mes"
	PeriodLastMonth PeriodKind = "mes_passado"
	PeriodThisYear  PeriodKind = "este_ano"
	PeriodLastDays  PeriodKind = "ultimos_dias"
	PeriodMonth     PeriodKind = "mes_nomeado"
	PeriodExplicit  PeriodKind = "datas_explicitas"
)

// Period é um período de consulta já resolvido em datas concretas
type Period struct {
	Kind PeriodKind `json:"kind"`
	From time.Time  `json:"from"`
	To   time.Time  `json:"to"`
}

// EntitySet reúne as entidades extraídas de uma mensagem. Campo nil
// significa ausência; a extração nunca produz erro.
type EntitySet struct {
	Amount   *MonetaryAmount     `json:"amount,omitempty"`
	Document *DocumentNumber     `json:"document,omitempty"`
	Name     *PersonName         `json:"name,omitempty"`
	Service  *ServiceDescription `json:"service,omitempty"`
	Period   *Period             `json:"period,omitempty"`
}

// IsEmpty indica se nenhuma entidade foi extraída
func (e EntitySet) IsEmpty() bool {
	return e.Amount == nil && e.Document == nil && e.Name == nil && e.Service == nil && e.Period == nil
}
