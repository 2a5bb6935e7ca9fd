package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"QuantSuperior/internal/domain/models"
)

// SMTPConfig holds the mail relay settings.
type SMTPConfig struct {
	Host      string
	Port      int
	Sender    string
	Password  string
	Recipient string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier sends LONG alerts over SMTP. smtp.SendMail upgrades with
// STARTTLS when the server offers it.
type EmailNotifier struct {
	cfg  SMTPConfig
	send sendFunc
	now  func() time.Time
}

func NewEmailNotifier(cfg SMTPConfig) *EmailNotifier {
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &EmailNotifier{cfg: cfg, send: smtp.SendMail, now: time.Now}
}

func (n *EmailNotifier) Notify(ctx context.Context, alert models.SignalAlert) error {
	if alert.Signal != models.SignalLong {
		return nil
	}
	if n.cfg.Sender == "" || n.cfg.Recipient == "" {
		return errors.New("email: sender and recipient required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := n.compose(alert)
	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	auth := smtp.PlainAuth("", n.cfg.Sender, n.cfg.Password, n.cfg.Host)

	done := make(chan error, 1)
	go func() { done <- n.send(addr, auth, n.cfg.Sender, []string{n.cfg.Recipient}, msg) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

// Subject is the alert subject line.
func Subject(alert models.SignalAlert) string {
	return fmt.Sprintf("[17:30 CET] Quant Superior Signal: %s %s", alert.Signal, alert.Symbol)
}

func (n *EmailNotifier) compose(alert models.SignalAlert) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", n.cfg.Sender)
	fmt.Fprintf(&b, "To: %s\r\n", n.cfg.Recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", Subject(alert))
	fmt.Fprintf(&b, "Date: %s\r\n", n.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(Body(alert), "\n", "\r\n"))
	return b.Bytes()
}

// Body renders the plain text alert.
func Body(alert models.SignalAlert) string {
	var b strings.Builder
	b.WriteString("Quant Superior - next session signal\n\n")
	fmt.Fprintf(&b, "Symbol: %s\n", alert.Symbol)
	fmt.Fprintf(&b, "Signal: %s\n", alert.Signal)
	fmt.Fprintf(&b, "Reference date: %s\n", alert.Date)

	if e := alert.Explain; e != nil {
		b.WriteString("\nSetup\n")
		fmt.Fprintf(&b, "  gap_open: %s\n", pct(e.GapOpen))
		fmt.Fprintf(&b, "  spy_ret:  %s\n", pct(e.SpyRet))
		fmt.Fprintf(&b, "  vix_ret:  %s\n", pct(e.VixRet))
		fmt.Fprintf(&b, "  vol_z:    %s\n", num(e.VolZ))
		if d, ok := e.DayOfWeek.Get(); ok {
			fmt.Fprintf(&b, "  weekday:  %s\n", weekdays[d%7])
		}
	}

	m := alert.Metrics
	b.WriteString("\nBacktest\n")
	fmt.Fprintf(&b, "  trades:        %d\n", m.TotalTrades)
	fmt.Fprintf(&b, "  win rate:      %.2f%%\n", m.WinRate)
	fmt.Fprintf(&b, "  avg trade:     %.4f%%\n", m.AvgTradePct)
	fmt.Fprintf(&b, "  avg points:    %.2f\n", m.AvgPoints)
	fmt.Fprintf(&b, "  total return:  %.2f%%\n", m.TotalReturnPct)

	b.WriteString("\n" + strings.Repeat("=", 50) + "\n")
	b.WriteString("Long at today's close, flat at tomorrow's open.\n")
	b.WriteString("Do not reply to this email.\n")
	return b.String()
}

var weekdays = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func pct(o models.OptFloat) string {
	v, ok := o.Get()
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.3f%%", v*100)
}

func num(o models.OptFloat) string {
	v, ok := o.Get()
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}
