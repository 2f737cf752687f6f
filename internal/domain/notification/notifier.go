package notification

import (
	"context"
)

// Kind identifica o tipo de notificação enviada ao dono da conta
type Kind string

const (
	KindInvoiceAuthorized   Kind = "nota_autorizada"
	KindInvoiceRejected     Kind = "nota_recusada"
	KindInvoiceCanceled     Kind = "nota_cancelada"
	KindInvoiceStuck        Kind = "nota_sem_resposta"
	KindCertificateExpiring Kind = "certificado_vencendo"
	KindQuotaReached        Kind = "franquia_atingida"
)

// Notifier é o contrato de envio de notificações. O envio é sempre melhor
// esforço: falhas são registradas em log e nunca interrompem a operação
// que as originou
type Notifier interface {
	Notify(ctx context.Context, accountID string, kind Kind, payload map[string]string) error
}
