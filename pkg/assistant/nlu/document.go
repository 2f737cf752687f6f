package nlu

import (
	"regexp"
)

var (
	labeledDocRe = regexp.MustCompile(`(?i)\b(?:cpf|cnpj|documento|doc)\b[\s:.]*([0-9][0-9.\-/ ]*)`)
	docLineRe    = regexp.MustCompile(`^[0-9.\-/ ]+$`)
)

// ExtractDocument localiza um CPF ou CNPJ na mensagem. Um documento só é
// aceito quando vem de um contexto rotulado (CPF, CNPJ, documento) ou de
// uma linha isolada que reduz a exatamente 11 ou 14 dígitos. Apenas a
// contagem de dígitos é validada; o dígito verificador fica a cargo do
// provedor fiscal.
func ExtractDocument(text string) *DocumentNumber {
	// 1. Contexto rotulado
	if m := labeledDocRe.FindStringSubmatch(text); m != nil {
		if d := documentFromDigits(OnlyDigits(m[1])); d != nil {
			return d
		}
	}

	// 2. Linha isolada composta apenas de dígitos e pontuação de documento
	for _, line := range Lines(text) {
		if !docLineRe.MatchString(line) {
			continue
		}
		if d := documentFromDigits(OnlyDigits(line)); d != nil {
			return d
		}
	}

	return nil
}

func documentFromDigits(digits string) *DocumentNumber {
	switch len(digits) {
	case 11:
		return &DocumentNumber{Digits: digits, Kind: DocumentCPF}
	case 14:
		return &DocumentNumber{Digits: digits, Kind: DocumentCNPJ}
	}
	return nil
}
