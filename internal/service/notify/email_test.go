package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"QuantSuperior/internal/domain/models"
)

func longAlert() models.SignalAlert {
	return models.SignalAlert{
		Symbol: "FTSEMIB.MI",
		Signal: models.SignalLong,
		Date:   "2024-03-05",
		Explain: &models.SignalExplain{
			GapOpen:   models.Some(0.004),
			SpyRet:    models.Some(0.002),
			VixRet:    models.None[float64](),
			VolZ:      models.Some(-0.8),
			DayOfWeek: models.Some(1),
		},
		Metrics: models.Metrics{TotalTrades: 12, WinRate: 58.33, TotalReturnPct: 3.2},
	}
}

func TestSubjectAndBody(t *testing.T) {
	a := longAlert()
	if got := Subject(a); got != "[17:30 CET] Quant Superior Signal: LONG FTSEMIB.MI" {
		t.Fatalf("subject %q", got)
	}
	body := Body(a)
	for _, want := range []string{"Reference date: 2024-03-05", "gap_open: 0.400%", "vix_ret:  n/a", "vol_z:    -0.80", "weekday:  Tue", "trades:        12", "win rate:      58.33%"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestNotifySends(t *testing.T) {
	n := NewEmailNotifier(SMTPConfig{Sender: "a@example.com", Password: "pw", Recipient: "b@example.com"})
	n.now = func() time.Time { return time.Date(2024, 3, 5, 17, 30, 0, 0, time.UTC) }
	var gotAddr string
	var gotMsg []byte
	n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotMsg = addr, msg
		if from != "a@example.com" || len(to) != 1 || to[0] != "b@example.com" {
			t.Fatalf("from=%s to=%v", from, to)
		}
		return nil
	}
	if err := n.Notify(context.Background(), longAlert()); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if gotAddr != "smtp.gmail.com:587" {
		t.Fatalf("addr %s", gotAddr)
	}
	if !strings.Contains(string(gotMsg), "Subject: [17:30 CET] Quant Superior Signal: LONG FTSEMIB.MI\r\n") {
		t.Fatalf("message headers:\n%s", gotMsg)
	}
}

func TestNotifySkipsFlatAndWrapsErrors(t *testing.T) {
	n := NewEmailNotifier(SMTPConfig{Sender: "a@example.com", Recipient: "b@example.com"})
	called := false
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return errors.New("535 auth failed")
	}
	if err := n.Notify(context.Background(), models.SignalAlert{Signal: models.SignalFlat}); err != nil || called {
		t.Fatalf("flat must not send: err=%v called=%v", err, called)
	}
	if err := n.Notify(context.Background(), longAlert()); err == nil || !strings.Contains(err.Error(), "smtp send") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}
