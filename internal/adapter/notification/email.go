// Package notification envia avisos ao dono da conta por e-mail via SES.
// O envio é melhor esforço: quem chama registra a falha em log e segue,
// nenhuma notificação interrompe a operação que a originou
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/notasimples/nfse-assistente/internal/domain/account"
	"github.com/notasimples/nfse-assistente/internal/domain/notification"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

// EmailSender é o subconjunto do cliente SES usado pelo notificador
type EmailSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// Config configura o notificador por e-mail
type Config struct {
	Region    string
	FromEmail string
}

// EmailNotifier implementa notification.Notifier enviando e-mail ao
// endereço cadastrado na conta
type EmailNotifier struct {
	sender    EmailSender
	accounts  account.Repository
	fromEmail string
	logger    logger.Logger
}

// NewEmailNotifier cria o notificador com um cliente SES montado a partir
// das credenciais padrão da AWS
func NewEmailNotifier(ctx context.Context, cfg Config, accounts account.Repository, log logger.Logger) (*EmailNotifier, error) {
	if cfg.FromEmail == "" {
		return nil, errors.New("remetente das notificações não configurado")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("erro ao carregar configuração da AWS: %w", err)
	}

	return NewEmailNotifierWithSender(ses.NewFromConfig(awsCfg), accounts, cfg.FromEmail, log), nil
}

// NewEmailNotifierWithSender cria o notificador com um remetente já
// construído
func NewEmailNotifierWithSender(sender EmailSender, accounts account.Repository, fromEmail string, log logger.Logger) *EmailNotifier {
	return &EmailNotifier{
		sender:    sender,
		accounts:  accounts,
		fromEmail: fromEmail,
		logger:    log,
	}
}

type emailTemplate struct {
	subject string
	body    string
}

var templates = map[notification.Kind]emailTemplate{
	notification.KindInvoiceAuthorized: {
		subject: "NFS-e {{number}} autorizada",
		body:    "A nota de {{amount}} para {{client}} foi autorizada pela prefeitura.",
	},
	notification.KindInvoiceRejected: {
		subject: "NFS-e recusada pela prefeitura",
		body:    "A nota de {{amount}} para {{client}} foi recusada: {{reason}}",
	},
	notification.KindInvoiceCanceled: {
		subject: "NFS-e {{number}} cancelada",
		body:    "A nota de {{amount}} para {{client}} foi cancelada.",
	},
	notification.KindInvoiceStuck: {
		subject: "NFS-e aguardando resposta da prefeitura",
		body:    "A nota de {{amount}} para {{client}} segue sem resposta da prefeitura. Você pode consultar o status a qualquer momento pelo assistente.",
	},
	notification.KindCertificateExpiring: {
		subject: "Certificado digital perto de vencer",
		body:    "O certificado {{name}} vence em {{expires_at}}. Renove antes do vencimento para não interromper a emissão de notas.",
	},
	notification.KindQuotaReached: {
		subject: "Franquia de notas do mês atingida",
		body:    "Sua conta atingiu o limite de {{limit}} notas do plano neste mês. As próximas emissões dependem de upgrade ou da cobrança avulsa.",
	},
}

// Notify implementa notification.Notifier.Notify
func (n *EmailNotifier) Notify(ctx context.Context, accountID string, kind notification.Kind, payload map[string]string) error {
	tpl, ok := templates[kind]
	if !ok {
		return fmt.Errorf("tipo de notificação desconhecido: %s", kind)
	}

	acc, err := n.accounts.FindByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("erro ao buscar destinatário: %w", err)
	}

	subject := render(tpl.subject, payload)
	body := render(tpl.body, payload)

	_, err = n.sender.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{acc.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.fromEmail),
	})
	if err != nil {
		return fmt.Errorf("erro ao enviar e-mail: %w", err)
	}

	n.logger.Info("notificação enviada", "kind", kind, "account_id", accountID)
	return nil
}

// render substitui os marcadores {{chave}} pelos valores do payload e
// remove os que ficaram sem valor
func render(tmpl string, data map[string]string) string {
	out := tmpl
	for k, v := range data {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}

	for {
		start := strings.Index(out, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(out[start:], "}}")
		if end == -1 {
			break
		}
		out = out[:start] + out[start+end+2:]
	}

	return strings.TrimSpace(out)
}

// LogNotifier registra as notificações em log sem enviar nada, para
// ambientes sem remetente de e-mail configurado
type LogNotifier struct {
	logger logger.Logger
}

// NewLogNotifier cria o notificador de log
func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

// Notify implementa notification.Notifier.Notify
func (n *LogNotifier) Notify(_ context.Context, accountID string, kind notification.Kind, payload map[string]string) error {
	n.logger.Info("notificação registrada sem envio",
		"kind", kind, "account_id", accountID, "payload", payload)
	return nil
}
