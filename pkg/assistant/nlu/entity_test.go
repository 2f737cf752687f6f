package nlu_test

import (
	"testing"
	"time"

	"github.com/notasimples/nfse-assistente/pkg/assistant/nlu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDocument(t *testing.T) {
	cases := []struct {
		name   string
		text   string
		digits string
		kind   nlu.DocumentKind
	}{
		{"cpf rotulado formatado", "CPF: 653.252.739-49", "65325273949", nlu.DocumentCPF},
		{"cpf rotulado sem pontuacao", "cpf 65325273949", "65325273949", nlu.DocumentCPF},
		{"cnpj rotulado", "CNPJ 12.345.678/0001-90", "12345678000190", nlu.DocumentCNPJ},
		{"rotulo documento", "documento: 653.252.739-49", "65325273949", nlu.DocumentCPF},
		{"linha isolada", "emitir nota\n65325273949", "65325273949", nlu.DocumentCPF},
		{"linha isolada formatada", "nota pro fornecedor\n12.345.678/0001-90", "12345678000190", nlu.DocumentCNPJ},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := nlu.ExtractDocument(tc.text)
			require.NotNil(t, got)
			assert.Equal(t, tc.digits, got.Digits)
			assert.Equal(t, tc.kind, got.Kind)
		})
	}
}

func TestExtractDocumentRejectsOtherLengths(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"dez digitos", "cpf 1234567890"},
		{"doze digitos", "cpf 123456789012"},
		{"quinze digitos", "cnpj 123456789012345"},
		{"numero solto na frase", "pague 65325273949 agora"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Nil(t, nlu.ExtractDocument(tc.text))
		})
	}
}

func TestDocumentNumberFormat(t *testing.T) {
	cpf := nlu.DocumentNumber{Digits: "65325273949", Kind: nlu.DocumentCPF}
	assert.Equal(t, "653.252.739-49", cpf.Format())

	cnpj := nlu.DocumentNumber{Digits: "12345678000190", Kind: nlu.DocumentCNPJ}
	assert.Equal(t, "12.345.678/0001-90", cnpj.Format())
}

func TestExtractName(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"rotulado", "nome: João Silva", "João Silva"},
		{"cliente rotulado", "Cliente: ACME Assessoria Ltda", "ACME Assessoria Ltda"},
		{"verbo de criacao", "cadastrar cliente Maria Souza", "Maria Souza"},
		{"destinatario", "Emitir nota de R$ 1.500 para João Silva", "João Silva"},
		{"antes do documento", "LUCIANO BERNARDO CPF 65325273949", "LUCIANO BERNARDO"},
		{"linha isolada", "10,00\nLUCIANO BERNARDO\n65325273949", "LUCIANO BERNARDO"},
		{"destinatario com artigo", "nota de 2k para o cliente João", "João"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := nlu.ExtractName(tc.text)
			require.NotNil(t, got)
			assert.Equal(t, tc.want, got.Text)
		})
	}
}

func TestExtractNameAbsent(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"so comando", "emitir nota fiscal"},
		{"verbo sem nome", "cadastrar cliente"},
		{"destinatario temporal", "emitir nota para amanhã"},
		{"so numeros", "1500,00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Nil(t, nlu.ExtractName(tc.text))
		})
	}
}

func TestExtractService(t *testing.T) {
	got := nlu.ExtractService("nota de 500 referente a desenvolvimento de site")
	require.NotNil(t, got)
	assert.Equal(t, "01.01", got.Code)
	assert.Equal(t, "desenvolvimento de site", got.Text)

	got = nlu.ExtractService("consultoria para a empresa do bairro")
	require.NotNil(t, got)
	assert.Equal(t, "17.01", got.Code)

	got = nlu.ExtractService("nota referente a jardinagem do condomínio")
	require.NotNil(t, got)
	assert.Equal(t, nlu.DefaultServiceCode, got.Code)
	assert.Equal(t, "jardinagem do condomínio", got.Text)

	assert.Nil(t, nlu.ExtractService("emitir nota para João"))
}

func TestExtractPeriodAt(t *testing.T) {
	now := time.Date(2025, time.March, 15, 14, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		text string
		kind nlu.PeriodKind
		from time.Time
		to   time.Time
	}{
		{"hoje", "faturamento de hoje", nlu.PeriodToday,
			time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)},
		{"ontem", "quanto faturei ontem", nlu.PeriodYesterday,
			time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"esta semana", "notas desta semana", nlu.PeriodThisWeek,
			time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)},
		{"este mes", "faturamento deste mês", nlu.PeriodThisMonth,
			time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"mes passado", "quanto faturei mês passado", nlu.PeriodLastMonth,
			time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"este ano", "faturamento deste ano", nlu.PeriodThisYear,
			time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"ultimos dias", "notas dos últimos 7 dias", nlu.PeriodLastDays,
			time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)},
		{"mes nomeado no passado", "faturamento de janeiro", nlu.PeriodMonth,
			time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"mes futuro cai no ano anterior", "faturamento de dezembro", nlu.PeriodMonth,
			time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"mes com ano explicito", "faturamento de março de 2024", nlu.PeriodMonth,
			time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := nlu.ExtractPeriodAt(tc.text, now)
			require.NotNil(t, got)
			assert.Equal(t, tc.kind, got.Kind)
			assert.True(t, got.From.Equal(tc.from), "from: esperado %s, obtido %s", tc.from, got.From)
			assert.True(t, got.To.Equal(tc.to), "to: esperado %s, obtido %s", tc.to, got.To)
		})
	}

	assert.Nil(t, nlu.ExtractPeriodAt("emitir nota para João", now))
}

func TestExtractMultilineMessage(t *testing.T) {
	set := nlu.Extract("10,00\nLUCIANO BERNARDO\nCPF 65325273949")

	require.NotNil(t, set.Amount)
	assert.Equal(t, int64(1000), set.Amount.Cents)

	require.NotNil(t, set.Document)
	assert.Equal(t, "65325273949", set.Document.Digits)
	assert.Equal(t, nlu.DocumentCPF, set.Document.Kind)

	require.NotNil(t, set.Name)
	assert.Equal(t, "LUCIANO BERNARDO", set.Name.Text)

	assert.False(t, set.IsEmpty())
	assert.True(t, nlu.EntitySet{}.IsEmpty())
}
