// Package mailer отвечает за доставку писем-подтверждений заказов.
package mailer

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
	"go.uber.org/zap"
)

// Sender определяет контракт доставки одного письма.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// ResendSender отправляет письма через Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender создаёт отправителя с указанным ключом API и адресом отправителя.
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// Send доставляет письмо получателю.
func (s *ResendSender) Send(ctx context.Context, recipient, subject, body string) error {
	req := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{recipient},
		Subject: subject,
		Text:    body,
	}

	if _, err := s.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// NoopSender используется, когда почтовые реквизиты не настроены:
// заказ оформляется, письмо не отправляется.
type NoopSender struct {
	logger *zap.Logger
}

// NewNoopSender создаёт заглушку отправителя.
func NewNoopSender(logger *zap.Logger) *NoopSender {
	return &NoopSender{logger: logger}
}

// Send пишет в журнал и ничего не отправляет.
func (s *NoopSender) Send(ctx context.Context, recipient, subject, body string) error {
	if s.logger != nil {
		s.logger.Info("mail delivery disabled, skipping receipt",
			zap.String("recipient", recipient),
		)
	}
	return nil
}
