// Package notify — шлюз почтовых уведомлений.
// Отправка без повторов: повтор обеспечивает вызывающая сторона,
// сбрасывая флаг email_sent у задачи.
package notify

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"taskManager/internal/logger"

	"go.uber.org/zap"
)

type Sender interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

type SESSender struct {
	client    *sesv2.Client
	fromEmail string
}

func NewSESSender(cfg aws.Config) (*SESSender, error) {
	from := os.Getenv("SES_FROM_EMAIL")
	if from == "" {
		return nil, fmt.Errorf("переменная SES_FROM_EMAIL не задана")
	}
	return &SESSender{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: from,
	}, nil
}

func (s *SESSender) Send(ctx context.Context, to, subject, body string) error {
	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.fromEmail),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(body)},
				},
			},
		},
	})
	return err
}

// Noop — заглушка для dev-профиля: письмо только логируется
type Noop struct{}

func (Noop) Send(ctx context.Context, to, subject, body string) error {
	logger.Info("Notify: Письмо не отправлено (dev-режим)",
		zap.String("to", to),
		zap.String("subject", subject))
	return nil
}
