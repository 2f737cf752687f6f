package nlu

import (
	"regexp"
	"strings"
)

var (
	labeledNameRe  = regexp.MustCompile(`(?im)\b(?:nome|cliente|razao social|razão social|destinatario|destinatário)\s*:\s*(.+)$`)
	recipientRe    = regexp.MustCompile(`(?i)\b(?:para|pro|pra)\s+(?:o\s+|a\s+)?(?:cliente\s+|empresa\s+)?([^\r\n]+)`)
	creationVerbRe = regexp.MustCompile(`(?i)\b(?:cadastr[aeo]r?|crie|criar|cria|adicion[ae]r?|novo|nova)\s+(?:o\s+|a\s+|um\s+|uma\s+)?(?:cliente\s+|empresa\s+)?([^\r\n]+)`)
	beforeDocRe    = regexp.MustCompile(`(?i)([\p{L}][\p{L} '.\-]+?)\s*[,\-]?\s*\b(?:cpf|cnpj|documento)\b`)
	nameLineRe     = regexp.MustCompile(`^[\p{L}][\p{L} '.\-]*$`)
)

// Palavras do domínio que nunca fazem parte de um nome de cliente
var domainWords = map[string]bool{
	"emitir": true, "emita": true, "emite": true, "gerar": true, "gera": true,
	"nota": true, "notas": true, "fiscal": true, "fiscais": true, "nf": true,
	"nfse": true, "nfe": true, "cancelar": true, "cancela": true,
	"cadastrar": true, "cadastre": true, "consultar": true, "consulta": true,
	"cliente": true, "clientes": true, "faturamento": true, "valor": true,
	"ajuda": true, "quanto": true, "hoje": true, "ontem": true, "mes": true,
	"favor": true, "mim": true, "ele": true, "ela": true, "status": true,
	"servico": true, "servicos": true, "para": true, "pro": true, "pra": true,
	"amanha": true, "semana": true, "proxima": true, "proximo": true,
}

// ExtractName localiza o nome de pessoa ou empresa na mensagem. As
// heurísticas rodam em ordem fixa e a primeira que encontrar um candidato
// válido vence: palavra-chave rotulada, verbo de criação ou destinatário,
// texto imediatamente antes de um marcador de documento e, por fim, uma
// linha isolada só de letras que nenhuma outra entidade reivindicou.
func ExtractName(text string) *PersonName {
	// 1. Palavra-chave rotulada (nome: Fulano)
	if m := labeledNameRe.FindStringSubmatch(text); m != nil {
		if name, ok := cleanName(m[1]); ok {
			return &PersonName{Text: name}
		}
	}

	// 2a. Verbo de criação (cadastrar o cliente Fulano)
	if m := creationVerbRe.FindStringSubmatch(text); m != nil {
		if name, ok := cleanName(m[1]); ok {
			return &PersonName{Text: name}
		}
	}

	// 2b. Destinatário (nota para Fulano)
	if m := recipientRe.FindStringSubmatch(text); m != nil {
		if name, ok := cleanName(m[1]); ok {
			return &PersonName{Text: name}
		}
	}

	// 3. Texto imediatamente antes de um marcador de documento
	if m := beforeDocRe.FindStringSubmatch(text); m != nil {
		if name, ok := cleanName(m[1]); ok {
			return &PersonName{Text: name}
		}
	}

	// 4. Linha isolada de letras e espaços não reivindicada por valor ou
	// documento
	for _, line := range Lines(text) {
		if !nameLineRe.MatchString(line) {
			continue
		}
		if name, ok := cleanName(line); ok {
			return &PersonName{Text: name}
		}
	}

	return nil
}

// cleanName apara o candidato a nome: corta nos delimitadores usuais, no
// primeiro dígito e rejeita candidatos compostos por palavras do domínio
func cleanName(s string) (string, bool) {
	s = strings.TrimSpace(s)

	// Cortar no primeiro dígito
	if i := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' }); i >= 0 {
		s = s[:i]
	}

	// Cortar nos delimitadores usuais
	lower := strings.ToLower(s)
	cut := len(s)
	for _, delim := range []string{",", ";", " com ", " cpf", " cnpj", " documento", " doc ", " no valor", " valor", " r$", " telefone", " celular", " email", " e-mail", " endereco", " endereço", " referente"} {
		if i := strings.Index(lower, delim); i >= 0 && i < cut {
			cut = i
		}
	}
	s = strings.TrimSpace(strings.Trim(s[:cut], " .,-'\""))

	if len(s) < 2 || len(s) > 120 {
		return "", false
	}
	if !nameLineRe.MatchString(s) {
		return "", false
	}

	// Rejeitar candidatos em que alguma palavra pertence ao domínio
	for _, w := range strings.Fields(Normalize(s)) {
		if domainWords[w] {
			return "", false
		}
	}

	return s, true
}
