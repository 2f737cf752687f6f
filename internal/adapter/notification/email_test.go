package notification_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mailer "github.com/notasimples/nfse-assistente/internal/adapter/notification"
	"github.com/notasimples/nfse-assistente/internal/domain/account"
	"github.com/notasimples/nfse-assistente/internal/domain/notification"
	"github.com/notasimples/nfse-assistente/pkg/logger"
)

type fakeSender struct {
	lastInput *ses.SendEmailInput
	err       error
}

func (f *fakeSender) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.lastInput = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{}, nil
}

type fakeAccounts struct {
	account.Repository

	acc *account.Account
	err error
}

func (f *fakeAccounts) FindByID(ctx context.Context, id string) (*account.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.acc, nil
}

func ownerAccount(t *testing.T) *account.Account {
	t.Helper()

	acc, err := account.NewAccount("Luciano Bernardo", "luciano@example.com", "11999998888", account.PlanFree)
	require.NoError(t, err)
	return acc
}

func newNotifier(t *testing.T, sender *fakeSender, accounts *fakeAccounts) *mailer.EmailNotifier {
	t.Helper()
	return mailer.NewEmailNotifierWithSender(sender, accounts, "avisos@notasimples.com.br", logger.NewTestLogger())
}

func TestNotifySendsEmailToAccountOwner(t *testing.T) {
	sender := &fakeSender{}
	n := newNotifier(t, sender, &fakeAccounts{acc: ownerAccount(t)})

	err := n.Notify(context.Background(), "acc-1", notification.KindInvoiceAuthorized, map[string]string{
		"number": "4587",
		"client": "João Silva",
		"amount": "R$ 1.500,00",
	})

	require.NoError(t, err)
	require.NotNil(t, sender.lastInput)
	assert.Equal(t, []string{"luciano@example.com"}, sender.lastInput.Destination.ToAddresses)
	assert.Equal(t, "avisos@notasimples.com.br", *sender.lastInput.Source)
	assert.Equal(t, "NFS-e 4587 autorizada", *sender.lastInput.Message.Subject.Data)
	assert.Contains(t, *sender.lastInput.Message.Body.Text.Data, "João Silva")
	assert.Contains(t, *sender.lastInput.Message.Body.Text.Data, "R$ 1.500,00")
}

func TestNotifyRendersRejectionReason(t *testing.T) {
	sender := &fakeSender{}
	n := newNotifier(t, sender, &fakeAccounts{acc: ownerAccount(t)})

	err := n.Notify(context.Background(), "acc-1", notification.KindInvoiceRejected, map[string]string{
		"client": "João Silva",
		"amount": "R$ 1.500,00",
		"reason": "CPF do tomador inválido",
	})

	require.NoError(t, err)
	assert.Contains(t, *sender.lastInput.Message.Body.Text.Data, "CPF do tomador inválido")
}

func TestNotifyStripsMissingPlaceholders(t *testing.T) {
	sender := &fakeSender{}
	n := newNotifier(t, sender, &fakeAccounts{acc: ownerAccount(t)})

	err := n.Notify(context.Background(), "acc-1", notification.KindInvoiceCanceled, map[string]string{
		"client": "João Silva",
		"amount": "R$ 1.500,00",
	})

	require.NoError(t, err)
	assert.NotContains(t, *sender.lastInput.Message.Subject.Data, "{{")
}

func TestNotifyUnknownKind(t *testing.T) {
	n := newNotifier(t, &fakeSender{}, &fakeAccounts{acc: ownerAccount(t)})

	err := n.Notify(context.Background(), "acc-1", notification.Kind("inexistente"), nil)
	assert.Error(t, err)
}

func TestNotifyAccountLookupFailure(t *testing.T) {
	lookupErr := errors.New("banco fora do ar")
	n := newNotifier(t, &fakeSender{}, &fakeAccounts{err: lookupErr})

	err := n.Notify(context.Background(), "acc-1", notification.KindInvoiceAuthorized, nil)
	require.ErrorIs(t, err, lookupErr)
}

func TestNotifySendFailure(t *testing.T) {
	sendErr := errors.New("SES indisponível")
	n := newNotifier(t, &fakeSender{err: sendErr}, &fakeAccounts{acc: ownerAccount(t)})

	err := n.Notify(context.Background(), "acc-1", notification.KindInvoiceAuthorized, nil)
	require.ErrorIs(t, err, sendErr)
}

func TestLogNotifierNeverFails(t *testing.T) {
	n := mailer.NewLogNotifier(logger.NewTestLogger())

	err := n.Notify(context.Background(), "acc-1", notification.KindQuotaReached, map[string]string{"limit": "5"})
	assert.NoError(t, err)
}
