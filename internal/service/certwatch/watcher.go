// Package certwatch avisa os donos de conta sobre certificados digitais
// perto do vencimento, antes que a emissão de notas pare por certificado
// vencido.
package certwatch

import (
	"context"
	"errors"
	"time"

	"github.com/notasimples/nfse-assistente/internal/domain/certificate"
	"github.com/notasimples/nfse-assistente/internal/domain/notification"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

// Config ajusta o verificador de certificados
type Config struct {
	Interval  time.Duration
	DaysAhead int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 24 * time.Hour
	}
	if c.DaysAhead <= 0 {
		c.DaysAhead = 30
	}
	return c
}

// Watcher varre periodicamente os certificados ativos que vencem em breve
// e avisa o dono de cada um. Cada certificado gera um único aviso por
// processo; o estado de avisados vive em uma única goroutine e não
// precisa de trava
type Watcher struct {
	certificates certificate.Repository
	notifier     notification.Notifier
	logger       logger.Logger
	cfg          Config
	notified     map[string]bool
}

// NewWatcher cria o verificador de certificados
func NewWatcher(certificates certificate.Repository, notifier notification.Notifier, log logger.Logger, cfg Config) (*Watcher, error) {
	if certificates == nil {
		return nil, errors.New("certificados: repositório é obrigatório")
	}
	if notifier == nil {
		return nil, errors.New("certificados: notificador é obrigatório")
	}
	if log == nil {
		return nil, errors.New("certificados: logger é obrigatório")
	}

	return &Watcher{
		certificates: certificates,
		notifier:     notifier,
		logger:       log,
		cfg:          cfg.withDefaults(),
		notified:     make(map[string]bool),
	}, nil
}

// Run executa o verificador até o contexto ser cancelado. A primeira
// varredura acontece na partida; as seguintes a cada intervalo
func (w *Watcher) Run(ctx context.Context) {
	w.logger.Info("verificador de certificados iniciado",
		"interval", w.cfg.Interval, "days_ahead", w.cfg.DaysAhead)

	w.Sweep(ctx)

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("verificador de certificados encerrado")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep varre os certificados perto do vencimento e dispara os avisos
func (w *Watcher) Sweep(ctx context.Context) {
	expiring, err := w.certificates.FindExpiring(ctx, w.cfg.DaysAhead)
	if err != nil {
		w.logger.Error("erro ao listar certificados perto do vencimento", "error", err)
		return
	}

	for _, cert := range expiring {
		if w.notified[cert.ID] {
			continue
		}

		payload := map[string]string{
			"name":       cert.Name,
			"expires_at": cert.ExpirationDate.Format("02/01/2006"),
		}

		if err := w.notifier.Notify(ctx, cert.AccountID, notification.KindCertificateExpiring, payload); err != nil {
			w.logger.Warn("erro ao avisar vencimento de certificado",
				"error", err, "certificate_id", cert.ID, "account_id", cert.AccountID)
			continue
		}

		w.notified[cert.ID] = true
		w.logger.Info("aviso de vencimento de certificado enviado",
			"certificate_id", cert.ID, "expires_at", cert.ExpirationDate)
	}
}
