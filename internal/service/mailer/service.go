package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"github.com/kapu/sql-detective-go/internal/config"
)

// Service: SMTP 메일 발송 서비스. 호스트 목록을 우선순위 순으로 시도하는 폴백 구조다.
// 발송 실패는 호출 측 흐름을 막지 않아야 하므로 모든 에러는 단순 반환한다. (재시도 없음)
type Service struct {
	cfg    config.SMTPConfig
	logger *slog.Logger

	frontendURL string
}

// NewService: SMTP 설정으로 메일 서비스를 생성한다. 호스트가 비어 있으면 nil을 반환한다.
// (nil Mailer는 auth/보고 경로에서 "메일 비활성화"로 처리된다)
func NewService(cfg config.SMTPConfig, frontendURL string, logger *slog.Logger) *Service {
	if len(cfg.Hosts) == 0 {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:         cfg,
		logger:      logger,
		frontendURL: frontendURL,
	}
}

// SendWelcome: 가입 환영 메일을 발송한다.
func (s *Service) SendWelcome(ctx context.Context, name, email string) error {
	subject := "Welcome to SQL Detective"
	body := welcomeBody(name, s.frontendURL)
	return s.send(ctx, email, subject, body)
}

// SendPasswordReset: 비밀번호 재설정 링크 메일을 발송한다.
func (s *Service) SendPasswordReset(ctx context.Context, name, email, resetLink string) error {
	subject := "Reset your SQL Detective password"
	body := passwordResetBody(name, resetLink)
	return s.send(ctx, email, subject, body)
}

// SendInactivityReminder: 장기 미접속 사용자에게 복귀 안내 메일을 발송한다.
func (s *Service) SendInactivityReminder(ctx context.Context, name, email string, daysSinceLogin int) error {
	subject := "We miss you at SQL Detective"
	body := inactivityBody(name, daysSinceLogin, s.frontendURL)
	return s.send(ctx, email, subject, body)
}

// send: 구성된 호스트를 순서대로 시도한다. 하나라도 성공하면 성공이다.
func (s *Service) send(ctx context.Context, to, subject, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	var lastErr error
	for _, host := range s.cfg.Hosts {
		client, err := gomail.NewClient(host,
			gomail.WithPort(s.cfg.Port),
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
			gomail.WithTLSPolicy(gomail.TLSOpportunistic),
		)
		if err != nil {
			lastErr = fmt.Errorf("smtp client for %s: %w", host, err)
			continue
		}

		if err := client.DialAndSendWithContext(ctx, msg); err != nil {
			s.logger.Warn("smtp_send_failed",
				slog.String("host", host),
				slog.String("to", to),
				slog.Any("error", err),
			)
			lastErr = fmt.Errorf("send via %s: %w", host, err)
			continue
		}

		s.logger.Info("email_sent",
			slog.String("host", host),
			slog.String("to", to),
			slog.String("subject", subject),
		)
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("no smtp hosts configured")
	}
	return lastErr
}
