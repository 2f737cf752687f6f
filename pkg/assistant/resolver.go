package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/notasimples/nfse-assistente/internal/domain/client"
	"github.com/notasimples/nfse-assistente/pkg/assistant/nlu"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

// Limite de candidatos apresentados numa desambiguação
const maxCandidates = 5

var (
	ErrNilDirectory = errors.New("diretório de clientes não pode ser nulo")
	ErrNilLogger    = errors.New("logger não pode ser nulo")
)

// ResolutionStatus classifica o desfecho da resolução de cliente
type ResolutionStatus string

const (
	// ResolutionFound indica exatamente um cliente existente
	ResolutionFound ResolutionStatus = "encontrado"

	// ResolutionCreated indica cliente cadastrado agora, a partir de nome
	// e documento presentes na mensagem
	ResolutionCreated ResolutionStatus = "criado"

	// ResolutionAmbiguous indica mais de um cliente com o nome buscado
	ResolutionAmbiguous ResolutionStatus = "ambiguo"

	// ResolutionNotFound indica que nenhum cliente corresponde
	ResolutionNotFound ResolutionStatus = "nao_encontrado"
)

// Resolution é o desfecho da resolução com o cliente ou os candidatos
type Resolution struct {
	Status     ResolutionStatus
	Client     *client.Client
	Candidates []*client.Client
}

// Resolver aplica a política de desambiguação de clientes: documento
// identifica com exatidão e permite cadastro automático; nome sozinho
// nunca cadastra e pode devolver múltiplos candidatos
type Resolver struct {
	directory ClientDirectory
	logger    logger.Logger
}

// NewResolver cria um resolvedor de clientes
func NewResolver(directory ClientDirectory, log logger.Logger) (*Resolver, error) {
	if directory == nil {
		return nil, ErrNilDirectory
	}

	if log == nil {
		return nil, ErrNilLogger
	}

	return &Resolver{
		directory: directory,
		logger:    log,
	}, nil
}

// Resolve localiza o cliente referido pelas entidades extraídas. Quando a
// mensagem traz documento e nome de um cliente inexistente, o cadastro é
// feito na hora; o documento é chave única por conta, então repetir a
// resolução nunca duplica o registro
func (r *Resolver) Resolve(ctx context.Context, accountID string, name *nlu.PersonName, doc *nlu.DocumentNumber) (*Resolution, error) {
	res, err := r.Lookup(ctx, accountID, name, doc)
	if err != nil {
		return nil, err
	}

	if res.Status != ResolutionNotFound || doc == nil || name == nil {
		return res, nil
	}

	c, err := client.NewClient(accountID, name.Text, doc.Digits)
	if err != nil {
		return nil, fmt.Errorf("erro ao montar cliente: %w", err)
	}

	created, err := r.directory.Create(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("erro ao cadastrar cliente: %w", err)
	}

	r.logger.Info("cliente cadastrado automaticamente",
		"account_id", accountID,
		"client_id", created.ID,
		"document", created.Document)

	return &Resolution{Status: ResolutionCreated, Client: created}, nil
}

// Lookup localiza o cliente sem nunca cadastrar, usado quando o cadastro
// em si é a ação que aguarda confirmação
func (r *Resolver) Lookup(ctx context.Context, accountID string, name *nlu.PersonName, doc *nlu.DocumentNumber) (*Resolution, error) {
	if doc != nil {
		found, err := r.directory.FindByDocument(ctx, accountID, doc.Digits)
		if err != nil {
			return nil, fmt.Errorf("erro ao buscar cliente por documento: %w", err)
		}
		if found != nil {
			return &Resolution{Status: ResolutionFound, Client: found}, nil
		}
		return &Resolution{Status: ResolutionNotFound}, nil
	}

	if name != nil {
		matches, err := r.directory.SearchByName(ctx, accountID, name.Text, maxCandidates+1)
		if err != nil {
			return nil, fmt.Errorf("erro ao buscar cliente por nome: %w", err)
		}

		switch len(matches) {
		case 0:
			return &Resolution{Status: ResolutionNotFound}, nil
		case 1:
			return &Resolution{Status: ResolutionFound, Client: matches[0]}, nil
		default:
			if len(matches) > maxCandidates {
				matches = matches[:maxCandidates]
			}
			return &Resolution{Status: ResolutionAmbiguous, Candidates: matches}, nil
		}
	}

	return &Resolution{Status: ResolutionNotFound}, nil
}
