package email

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPConfig agrupa los datos del servidor de salida.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

// SMTPSender envia correos via SMTP usando go-mail.
type SMTPSender struct {
	cfg         SMTPConfig
	frontendURL string
}

func NewSMTPSender(cfg SMTPConfig, frontendURL string) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("smtp from is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPSender{
		cfg:         cfg,
		frontendURL: strings.TrimSuffix(frontendURL, "/"),
	}, nil
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, toEmail, token string, expiresAt time.Time) error {
	msg, err := s.passwordResetMessage(toEmail, token, expiresAt)
	if err != nil {
		return err
	}
	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

// ResetLink es la pagina del frontend que consume el token.
func (s *SMTPSender) ResetLink(token string) string {
	return s.frontendURL + "/reset-password?token=" + url.QueryEscape(token)
}

func (s *SMTPSender) passwordResetMessage(toEmail, token string, expiresAt time.Time) (*mail.Msg, error) {
	if strings.TrimSpace(toEmail) == "" {
		return nil, fmt.Errorf("to email is required")
	}
	msg := mail.NewMsg()
	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("setting from address: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject("Reset your HemoScan password")
	body := fmt.Sprintf(
		"Someone asked to reset the password for this account.\n\n"+
			"Open %s to choose a new one.\n"+
			"The link expires at %s UTC. If you did not ask for it, ignore this email.\n",
		s.ResetLink(token),
		expiresAt.UTC().Format(time.RFC3339),
	)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (s *SMTPSender) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithPort(s.cfg.Port)}
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// 465 es TLS implicito; el resto usa STARTTLS.
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}
