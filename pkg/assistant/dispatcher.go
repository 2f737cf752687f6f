package assistant

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/notasimples/nfse-assistente/internal/domain/client"
	"github.com/notasimples/nfse-assistente/pkg/apperr"
	"github.com/notasimples/nfse-assistente/pkg/assistant/nlu"
	"github.com/notasimples/nfse-assistente/pkg/conversation"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

const (
	defaultModelTimeout = 8 * time.Second
	historyTurns        = 6
)

const fallbackErrorMessage = "Tive um problema para processar sua mensagem. Pode tentar de novo em alguns instantes?"

const canceledMessage = "Operação cancelada. Posso ajudar com mais alguma coisa?"

var (
	ErrNilResolver = errors.New("resolvedor de clientes não pode ser nulo")
	ErrNilSessions = errors.New("armazenamento de sessão não pode ser nulo")
	ErrNilExecutor = errors.New("executor de ações não pode ser nulo")
)

// Dispatcher conduz cada mensagem pela cadeia de interpretação: regras
// determinísticas prioritárias, interpretação generativa quando há modelo
// configurado, regras determinísticas de recuperação e, por fim, o menu de
// capacidades. O primeiro estágio que produz resultado encerra a cadeia.
type Dispatcher struct {
	builder      *Builder
	resolver     *Resolver
	sessions     SessionStore
	executor     ActionExecutor
	model        LanguageModel
	history      conversation.Store
	logger       logger.Logger
	modelTimeout time.Duration
}

// DispatcherOption configura dependências opcionais do dispatcher
type DispatcherOption func(*Dispatcher)

// WithLanguageModel habilita o estágio de interpretação generativa. Sem
// modelo o assistente opera apenas com as regras determinísticas
func WithLanguageModel(m LanguageModel) DispatcherOption {
	return func(d *Dispatcher) {
		d.model = m
	}
}

// WithHistory habilita a gravação do histórico de conversa e o seu uso como
// contexto da interpretação generativa
func WithHistory(h conversation.Store) DispatcherOption {
	return func(d *Dispatcher) {
		d.history = h
	}
}

// WithModelTimeout limita a espera pela resposta do modelo
func WithModelTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.modelTimeout = timeout
		}
	}
}

// NewDispatcher cria o dispatcher do assistente
func NewDispatcher(resolver *Resolver, sessions SessionStore, executor ActionExecutor, log logger.Logger, opts ...DispatcherOption) (*Dispatcher, error) {
	if resolver == nil {
		return nil, ErrNilResolver
	}
	if sessions == nil {
		return nil, ErrNilSessions
	}
	if executor == nil {
		return nil, ErrNilExecutor
	}
	if log == nil {
		return nil, ErrNilLogger
	}

	d := &Dispatcher{
		builder:      NewBuilder(),
		resolver:     resolver,
		sessions:     sessions,
		executor:     executor,
		logger:       log,
		modelTimeout: defaultModelTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Process interpreta uma mensagem e devolve a resposta do assistente. Nunca
// devolve erro: falhas viram respostas traduzidas para o usuário
func (d *Dispatcher) Process(ctx context.Context, req ProcessRequest) (result *ProcessResult) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("pânico ao processar mensagem", "panic", fmt.Sprintf("%v", r))
			result = &ProcessResult{Success: false, Explanation: fallbackErrorMessage}
		}
	}()

	message := strings.TrimSpace(req.Message)
	if req.AccountID == "" || message == "" {
		return d.failure(apperr.New(apperr.CodeInvalidInput, "mensagem vazia"))
	}

	d.record(ctx, req.AccountID, conversation.RoleUser, message)

	pending, err := d.sessions.GetPending(ctx, req.AccountID)
	if err != nil {
		d.logger.Warn("erro ao consultar pendência da sessão", "account_id", req.AccountID, "error", err)
		pending = nil
	}

	if pending != nil {
		result = d.continueFlow(ctx, req, message, pending)
	} else {
		result = d.dispatch(ctx, req, message)
	}

	d.record(ctx, req.AccountID, conversation.RoleAssistant, result.Explanation)
	return result
}

// ExecuteAction executa uma ação já confirmada pelo cliente da API, sem
// passar pela interpretação de mensagem
func (d *Dispatcher) ExecuteAction(ctx context.Context, accountID, companyID string, action *Action) *ProcessResult {
	if action == nil {
		return d.failure(apperr.New(apperr.CodeInvalidInput, "ação não informada"))
	}
	if action.Type.IsClarification() {
		return d.failure(apperr.New(apperr.CodeInvalidInput, "ação de esclarecimento não pode ser executada"))
	}

	exec, err := d.executor.Execute(ctx, accountID, companyID, action)
	if err != nil {
		d.logger.Error("erro ao executar ação", "account_id", accountID, "action", string(action.Type), "error", err)
		return d.failure(err)
	}
	return &ProcessResult{Success: true, Action: action, Explanation: exec.Message}
}

// dispatch percorre os quatro estágios de interpretação de uma mensagem nova
func (d *Dispatcher) dispatch(ctx context.Context, req ProcessRequest, message string) *ProcessResult {
	set := nlu.Extract(message)

	if cls, ok := nlu.PriorityIntent(message, set); ok {
		return d.fromIntent(ctx, req, cls.Intent, message, set)
	}

	cls := nlu.ClassifyWith(message, set)
	if cls.Routable() {
		return d.fromIntent(ctx, req, cls.Intent, message, set)
	}

	if d.model != nil {
		if result := d.interpret(ctx, req, message, set); result != nil {
			return result
		}
	}

	if cls.Intent != nlu.IntentUnknown {
		return d.fromIntent(ctx, req, cls.Intent, message, set)
	}

	return &ProcessResult{Success: false, Explanation: d.builder.CapabilityMenu()}
}

// fromIntent resolve o cliente quando a intenção precisa de um e entrega a
// ação construída
func (d *Dispatcher) fromIntent(ctx context.Context, req ProcessRequest, intent nlu.Intent, message string, set nlu.EntitySet) *ProcessResult {
	switch intent {
	case nlu.IntentHelp:
		return &ProcessResult{Success: true, Explanation: d.builder.CapabilityMenu()}

	case nlu.IntentEmitInvoice:
		res, err := d.resolver.Resolve(ctx, req.AccountID, set.Name, set.Document)
		if err != nil {
			d.logger.Error("erro ao resolver cliente", "account_id", req.AccountID, "error", err)
			return d.failure(err)
		}
		action, explanation := d.builder.BuildEmit(set, res)
		return d.deliver(ctx, req, intent, action, explanation)

	case nlu.IntentCreateClient:
		res, err := d.resolver.Lookup(ctx, req.AccountID, set.Name, set.Document)
		if err != nil {
			d.logger.Error("erro ao buscar cliente", "account_id", req.AccountID, "error", err)
			return d.failure(err)
		}
		action, explanation := d.builder.BuildCreateClient(set, res)
		return d.deliver(ctx, req, intent, action, explanation)

	default:
		action, explanation := d.builder.Build(intent, message, set, nil)
		return d.deliver(ctx, req, intent, action, explanation)
	}
}

// deliver encaminha a ação montada: pendências ficam na sessão aguardando a
// próxima mensagem, consultas executam na hora
func (d *Dispatcher) deliver(ctx context.Context, req ProcessRequest, intent nlu.Intent, action *Action, explanation string) *ProcessResult {
	if action == nil {
		return &ProcessResult{Success: true, Explanation: explanation}
	}

	if action.RequiresConfirmation || action.Type.IsClarification() {
		d.setPending(ctx, req.AccountID, PendingAction{
			Action:      *action,
			Intent:      intent,
			Explanation: explanation,
			CreatedAt:   time.Now(),
		})
		return &ProcessResult{
			Success:              true,
			Action:               action,
			Explanation:          explanation,
			RequiresConfirmation: action.RequiresConfirmation,
		}
	}

	exec, err := d.executor.Execute(ctx, req.AccountID, req.CompanyID, action)
	if err != nil {
		d.logger.Error("erro ao executar ação", "account_id", req.AccountID, "action", string(action.Type), "error", err)
		return d.failure(err)
	}
	return &ProcessResult{Success: true, Action: action, Explanation: exec.Message}
}

// interpret é o estágio generativo. Qualquer problema com o modelo devolve
// nil para a cadeia seguir adiante; a chamada nunca é repetida
func (d *Dispatcher) interpret(ctx context.Context, req ProcessRequest, message string, set nlu.EntitySet) *ProcessResult {
	mctx, cancel := context.WithTimeout(ctx, d.modelTimeout)
	defer cancel()

	out, err := d.model.Complete(mctx, d.modelMessages(ctx, req, message), FunctionSchemas())
	if err != nil {
		d.logger.Warn("interpretação generativa indisponível", "error", err)
		return nil
	}

	if out.FunctionCall != nil {
		interp, err := ParseFunctionCall(*out.FunctionCall)
		if err != nil {
			d.logger.Warn("chamada de função inválida do modelo", "function", out.FunctionCall.Name, "error", err)
			return nil
		}

		merged := mergeEntitySets(interp.Set, set)
		switch interp.Intent {
		case nlu.IntentCancelInvoice:
			ref := interp.Ref
			if ref == "" {
				ref = ExtractInvoiceRef(message)
			}
			action, explanation := d.builder.BuildCancel(ref)
			return d.deliver(ctx, req, interp.Intent, action, explanation)
		case nlu.IntentInvoiceStatus:
			ref := interp.Ref
			if ref == "" {
				ref = ExtractInvoiceRef(message)
			}
			action, explanation := d.builder.BuildStatus(ref)
			return d.deliver(ctx, req, interp.Intent, action, explanation)
		default:
			return d.fromIntent(ctx, req, interp.Intent, message, merged)
		}
	}

	if content := strings.TrimSpace(out.Content); content != "" {
		return &ProcessResult{Success: true, Explanation: content}
	}
	return nil
}

// continueFlow trata a mensagem recebida enquanto há uma ação pendente
func (d *Dispatcher) continueFlow(ctx context.Context, req ProcessRequest, message string, pending *PendingAction) *ProcessResult {
	if nlu.IsCancellation(message) {
		d.clearPending(ctx, req.AccountID)
		return &ProcessResult{Success: true, Explanation: canceledMessage}
	}

	if pending.Action.RequiresConfirmation {
		return d.continueConfirmation(ctx, req, message, pending)
	}
	return d.continueClarification(ctx, req, message, pending)
}

// continueConfirmation trata a resposta a uma pergunta de confirmação
func (d *Dispatcher) continueConfirmation(ctx context.Context, req ProcessRequest, message string, pending *PendingAction) *ProcessResult {
	if nlu.IsConfirmation(message) {
		d.clearPending(ctx, req.AccountID)

		exec, err := d.executor.Execute(ctx, req.AccountID, req.CompanyID, &pending.Action)
		if err != nil {
			d.logger.Error("erro ao executar ação confirmada",
				"account_id", req.AccountID,
				"action", string(pending.Action.Type),
				"error", err)
			return d.failure(err)
		}
		return &ProcessResult{Success: true, Action: &pending.Action, Explanation: exec.Message}
	}

	// Mensagem que muda de assunto abandona a pendência e segue como nova
	set := nlu.Extract(message)
	if cls, ok := nlu.PriorityIntent(message, set); ok {
		d.clearPending(ctx, req.AccountID)
		return d.fromIntent(ctx, req, cls.Intent, message, set)
	}
	if cls := nlu.ClassifyWith(message, set); cls.Routable() {
		d.clearPending(ctx, req.AccountID)
		return d.fromIntent(ctx, req, cls.Intent, message, set)
	}

	return &ProcessResult{
		Success:              true,
		Action:               &pending.Action,
		Explanation:          "Ainda preciso da sua resposta.\n\n" + pending.Explanation,
		RequiresConfirmation: true,
	}
}

// continueClarification completa uma ação que aguardava dados do usuário
func (d *Dispatcher) continueClarification(ctx context.Context, req ProcessRequest, message string, pending *PendingAction) *ProcessResult {
	if pending.Action.Type == ActionChooseClient {
		return d.continueChoice(ctx, req, message, pending)
	}

	extracted := nlu.Extract(message)

	if !clarificationAdvanced(pending.Action.Type, extracted) {
		set := extracted
		if cls, ok := nlu.PriorityIntent(message, set); ok && cls.Intent != pending.Intent {
			d.clearPending(ctx, req.AccountID)
			return d.fromIntent(ctx, req, cls.Intent, message, set)
		}
		if cls := nlu.ClassifyWith(message, set); cls.Routable() && cls.Intent != pending.Intent {
			d.clearPending(ctx, req.AccountID)
			return d.fromIntent(ctx, req, cls.Intent, message, set)
		}
		return &ProcessResult{Success: true, Action: &pending.Action, Explanation: pending.Explanation}
	}

	merged := mergeCarriedData(pending.Action.Data, extracted)

	switch pending.Intent {
	case nlu.IntentCreateClient:
		res, err := d.resolver.Lookup(ctx, req.AccountID, merged.Name, merged.Document)
		if err != nil {
			d.logger.Error("erro ao buscar cliente", "account_id", req.AccountID, "error", err)
			return d.failure(err)
		}
		action, explanation := d.builder.BuildCreateClient(merged, res)
		return d.advancePending(ctx, req, pending.Intent, action, explanation)

	default:
		var res *Resolution
		if pending.Action.Data.Client != nil && extracted.Name == nil && extracted.Document == nil {
			res = &Resolution{Status: ResolutionFound, Client: pending.Action.Data.Client}
		} else {
			var err error
			res, err = d.resolver.Resolve(ctx, req.AccountID, merged.Name, merged.Document)
			if err != nil {
				d.logger.Error("erro ao resolver cliente", "account_id", req.AccountID, "error", err)
				return d.failure(err)
			}
		}
		action, explanation := d.builder.BuildEmit(merged, res)
		return d.advancePending(ctx, req, pending.Intent, action, explanation)
	}
}

// continueChoice trata a escolha entre clientes homônimos
func (d *Dispatcher) continueChoice(ctx context.Context, req ProcessRequest, message string, pending *PendingAction) *ProcessResult {
	chosen := pickCandidate(message, pending.Action.Data.Candidates)
	if chosen == nil {
		return &ProcessResult{Success: true, Action: &pending.Action, Explanation: pending.Explanation}
	}

	merged := mergeCarriedData(pending.Action.Data, nlu.EntitySet{})
	merged.Name = nil
	merged.Document = nil

	action, explanation := d.builder.BuildEmit(merged, &Resolution{Status: ResolutionFound, Client: chosen})
	return d.advancePending(ctx, req, pending.Intent, action, explanation)
}

// advancePending substitui a pendência pelo próximo passo do fluxo
func (d *Dispatcher) advancePending(ctx context.Context, req ProcessRequest, intent nlu.Intent, action *Action, explanation string) *ProcessResult {
	d.clearPending(ctx, req.AccountID)
	return d.deliver(ctx, req, intent, action, explanation)
}

// modelMessages monta o contexto enviado ao modelo: instrução do sistema,
// turnos recentes e a mensagem atual. Turnos enviados na requisição têm
// precedência sobre o histórico persistido
func (d *Dispatcher) modelMessages(ctx context.Context, req ProcessRequest, message string) []ModelMessage {
	system := fmt.Sprintf(
		"Você é um assistente fiscal para prestadores de serviço brasileiros. "+
			"Quando a mensagem pedir uma operação fiscal, chame a função correspondente com os argumentos extraídos da conversa. "+
			"Quando for apenas uma dúvida sobre notas fiscais de serviço, responda em texto, sempre em português. "+
			"Hoje é %s.",
		time.Now().Format("2006-01-02"))

	messages := []ModelMessage{{Role: "system", Content: system}}

	if len(req.History) > 0 {
		for _, turn := range req.History {
			if turn.Role != "user" && turn.Role != "assistant" {
				continue
			}
			messages = append(messages, turn)
		}
	} else if d.history != nil {
		turns, err := d.history.Recent(ctx, req.AccountID, historyTurns)
		if err != nil {
			d.logger.Warn("erro ao carregar histórico da conversa", "account_id", req.AccountID, "error", err)
		} else {
			for i := len(turns) - 1; i >= 0; i-- {
				role := "user"
				if turns[i].Role == conversation.RoleAssistant {
					role = "assistant"
				}
				messages = append(messages, ModelMessage{Role: role, Content: turns[i].Content})
			}
		}
	}

	return append(messages, ModelMessage{Role: "user", Content: message})
}

func (d *Dispatcher) setPending(ctx context.Context, accountID string, p PendingAction) {
	if err := d.sessions.SetPending(ctx, accountID, p); err != nil {
		d.logger.Warn("erro ao guardar pendência da sessão", "account_id", accountID, "error", err)
	}
}

func (d *Dispatcher) clearPending(ctx context.Context, accountID string) {
	if err := d.sessions.ClearPending(ctx, accountID); err != nil {
		d.logger.Warn("erro ao limpar pendência da sessão", "account_id", accountID, "error", err)
	}
}

func (d *Dispatcher) record(ctx context.Context, accountID string, role conversation.Role, content string) {
	if d.history == nil || content == "" {
		return
	}
	if err := d.history.Append(ctx, conversation.NewTurn(accountID, role, content)); err != nil {
		d.logger.Warn("erro ao gravar histórico da conversa", "account_id", accountID, "error", err)
	}
}

func (d *Dispatcher) failure(err error) *ProcessResult {
	t := apperr.Translate(err, apperr.OriginInternal)
	explanation := t.Message
	if t.Explanation != "" {
		explanation = t.Message + " " + t.Explanation
	}
	return &ProcessResult{Success: false, Explanation: explanation}
}

// clarificationAdvanced diz se a nova mensagem trouxe o dado que a
// pendência esperava
func clarificationAdvanced(t ActionType, set nlu.EntitySet) bool {
	switch t {
	case ActionAwaitingValue:
		return set.Amount != nil
	case ActionAwaitingDocument:
		return set.Document != nil
	case ActionAwaitingClient:
		return set.Name != nil || set.Document != nil
	default:
		return false
	}
}

// mergeCarriedData combina o que a pendência já capturou com as entidades
// da nova mensagem; a mensagem nova prevalece
func mergeCarriedData(data ActionData, extracted nlu.EntitySet) nlu.EntitySet {
	merged := extracted
	if merged.Amount == nil {
		merged.Amount = data.Amount
	}
	if merged.Document == nil {
		merged.Document = data.Document
	}
	if merged.Name == nil && data.ClientName != "" {
		merged.Name = &nlu.PersonName{Text: data.ClientName}
	}
	if merged.Service == nil {
		merged.Service = data.Service
	}
	return merged
}

// mergeEntitySets completa as entidades do modelo com o que a extração
// determinística encontrou na mesma mensagem
func mergeEntitySets(primary, fallback nlu.EntitySet) nlu.EntitySet {
	merged := primary
	if merged.Amount == nil {
		merged.Amount = fallback.Amount
	}
	if merged.Document == nil {
		merged.Document = fallback.Document
	}
	if merged.Name == nil {
		merged.Name = fallback.Name
	}
	if merged.Service == nil {
		merged.Service = fallback.Service
	}
	if merged.Period == nil {
		merged.Period = fallback.Period
	}
	return merged
}

// pickCandidate interpreta a escolha do usuário na lista de homônimos, por
// documento ou pela posição na lista
func pickCandidate(message string, candidates []*client.Client) *client.Client {
	if doc := nlu.ExtractDocument(message); doc != nil {
		for _, c := range candidates {
			if c.Document == doc.Digits {
				return c
			}
		}
	}

	if ref := ExtractInvoiceRef(message); ref != "" {
		if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(candidates) {
			return candidates[n-1]
		}
	}
	return nil
}
