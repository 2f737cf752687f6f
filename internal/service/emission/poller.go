package emission

import (
	"context"
	"errors"
	"time"

	"github.com/notasimples/nfse-assistente/internal/domain/invoice"
	"github.com/notasimples/nfse-assistente/internal/domain/notification"
)

// PollerConfig ajusta o verificador de notas pendentes
type PollerConfig struct {
	Interval    time.Duration
	Batch       int
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

func (c PollerConfig) withDefaults() PollerConfig {
	if c.Interval <= 0 {
		c.Interval = 30 * time.Second
	}
	if c.Batch <= 0 {
		c.Batch = 20
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 12
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = time.Minute
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Minute
	}
	return c
}

type pollState struct {
	attempts int
	next     time.Time
	gaveUp   bool
}

// Poller acompanha em segundo plano as notas que ficaram aguardando
// resposta da prefeitura. Cada nota tem seu próprio recuo progressivo
// entre consultas; depois do limite de tentativas o acompanhamento para e
// o dono da conta é avisado. O verificador roda em uma única goroutine e
// por isso o estado de tentativas não precisa de trava
type Poller struct {
	svc    *Service
	cfg    PollerConfig
	states map[string]pollState
	now    func() time.Time
}

// NewPoller cria o verificador de notas pendentes
func NewPoller(svc *Service, cfg PollerConfig) (*Poller, error) {
	if svc == nil {
		return nil, errors.New("emissão: serviço de emissão é obrigatório")
	}

	return &Poller{
		svc:    svc,
		cfg:    cfg.withDefaults(),
		states: make(map[string]pollState),
		now:    svc.now,
	}, nil
}

// Run executa o verificador até o contexto ser cancelado
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	p.svc.deps.Logger.Info("verificador de notas pendentes iniciado",
		"interval", p.cfg.Interval, "max_attempts", p.cfg.MaxAttempts)

	for {
		select {
		case <-ctx.Done():
			p.svc.deps.Logger.Info("verificador de notas pendentes encerrado")
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	pending, err := p.svc.deps.Invoices.ListProcessing(ctx, p.cfg.Batch)
	if err != nil {
		p.svc.deps.Logger.Error("erro ao listar notas pendentes", "error", err)
		return
	}

	seen := make(map[string]bool, len(pending))
	for _, inv := range pending {
		seen[inv.ID] = true
		p.check(ctx, inv)
	}

	// notas que saíram do processamento por outro caminho não precisam
	// mais de estado de acompanhamento
	for id := range p.states {
		if !seen[id] {
			delete(p.states, id)
		}
	}
}

func (p *Poller) check(ctx context.Context, inv *invoice.Invoice) {
	st := p.states[inv.ID]
	if st.gaveUp || p.now().Before(st.next) {
		return
	}

	if inv.ProviderRef == "" {
		p.svc.deps.Logger.Warn("nota em processamento sem referência no provedor", "invoice_id", inv.ID)
		p.reschedule(ctx, inv, st)
		return
	}

	current, err := p.svc.deps.Gateway.QueryInvoice(ctx, inv.ProviderRef)
	if err != nil {
		p.svc.deps.Logger.Warn("erro ao consultar nota pendente no provedor",
			"error", err, "invoice_id", inv.ID, "attempts", st.attempts)
		p.reschedule(ctx, inv, st)
		return
	}

	if p.svc.applyStatusUpdate(ctx, inv, current) {
		if err := p.svc.deps.Invoices.Update(ctx, inv); err != nil {
			p.svc.deps.Logger.Error("erro ao atualizar nota acompanhada",
				"error", err, "invoice_id", inv.ID)
			return
		}
		delete(p.states, inv.ID)
		p.svc.deps.Logger.Info("nota pendente resolvida",
			"invoice_id", inv.ID, "status", inv.Status, "attempts", st.attempts+1)
		return
	}

	p.reschedule(ctx, inv, st)
}

func (p *Poller) reschedule(ctx context.Context, inv *invoice.Invoice, st pollState) {
	st.attempts++
	if st.attempts >= p.cfg.MaxAttempts {
		st.gaveUp = true
		p.states[inv.ID] = st
		p.svc.deps.Logger.Warn("acompanhamento da nota encerrado sem resposta da prefeitura",
			"invoice_id", inv.ID, "attempts", st.attempts)
		p.svc.notify(ctx, inv.AccountID, notification.KindInvoiceStuck, inv)
		return
	}

	st.next = p.now().Add(p.backoff(st.attempts))
	p.states[inv.ID] = st
}

// backoff dobra o intervalo a cada tentativa até o teto configurado
func (p *Poller) backoff(attempts int) time.Duration {
	d := p.cfg.BaseBackoff
	for i := 1; i < attempts; i++ {
		d *= 2
		if d >= p.cfg.MaxBackoff {
			return p.cfg.MaxBackoff
		}
	}
	return d
}
