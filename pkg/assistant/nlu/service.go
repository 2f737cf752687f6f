package nlu

import (
	"regexp"
	"strings"
)

// DefaultServiceCode é o código da LC 116 usado quando nenhuma palavra-chave
// da tabela de serviços aparece na mensagem
const DefaultServiceCode = "01.01"

// DefaultServiceText é a descrição usada quando a mensagem não descreve o
// serviço prestado
const DefaultServiceText = "Prestação de serviços"

type serviceEntry struct {
	keywords []string
	code     string
	label    string
}

// Tabela fixa de inferência: palavra-chave do texto → item da LC 116.
// A primeira entrada cujo termo aparece na mensagem normalizada vence.
var serviceTable = []serviceEntry{
	{[]string{"desenvolvimento", "software", "sistema", "site", "aplicativo", "app", "programacao"}, "01.01", "Desenvolvimento de sistemas"},
	{[]string{"suporte", "manutencao de computador", "help desk", "helpdesk"}, "01.07", "Suporte técnico em informática"},
	{[]string{"hospedagem", "servidor", "cloud"}, "01.03", "Hospedagem de dados"},
	{[]string{"consultoria", "assessoria", "mentoria"}, "17.01", "Consultoria e assessoria"},
	{[]string{"treinamento", "curso", "aula", "palestra", "workshop"}, "08.02", "Treinamento e instrução"},
	{[]string{"design", "logo", "logotipo", "identidade visual", "arte"}, "23.01", "Programação visual e design"},
	{[]string{"marketing", "publicidade", "anuncio", "social media", "redes sociais", "trafego pago"}, "17.06", "Publicidade e propaganda"},
	{[]string{"contabilidade", "contabil", "escrituracao"}, "17.19", "Serviços de contabilidade"},
	{[]string{"fotografia", "filmagem", "video", "edicao de video"}, "13.03", "Fotografia e cinematografia"},
	{[]string{"limpeza", "faxina", "conservacao"}, "07.10", "Limpeza e conservação"},
	{[]string{"advocacia", "juridico", "advogado"}, "17.14", "Serviços advocatícios"},
}

var serviceClauseRe = regexp.MustCompile(`(?i)\b(?:referente a|ref\.?|sobre|pelo servico de|pelos servicos de|pelo serviço de|pelos serviços de)\s+([^\r\n.;]+)`)

// ExtractService infere a descrição e o código municipal do serviço a
// partir das palavras-chave da mensagem; sem correspondência, usa o padrão
func ExtractService(text string) *ServiceDescription {
	norm := Normalize(text)

	desc := ""
	if m := serviceClauseRe.FindStringSubmatch(text); m != nil {
		desc = strings.TrimSpace(m[1])
	}

	for _, entry := range serviceTable {
		for _, kw := range entry.keywords {
			if strings.Contains(norm, kw) {
				if desc == "" {
					desc = entry.label
				}
				return &ServiceDescription{Text: desc, Code: entry.code}
			}
		}
	}

	if desc != "" {
		return &ServiceDescription{Text: desc, Code: DefaultServiceCode}
	}

	return nil
}
