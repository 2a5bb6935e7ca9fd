package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	applogger "QuantSuperior/pkg/logger"
)

func writeFile(t *testing.T, dir, name, data string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRunExportsLedger(t *testing.T) {
	dir := t.TempDir()
	primary := writeFile(t, dir, "ftsemib.csv", "Date,Open,High,Low,Close,Volume\n"+
		"2024-03-04,100,102,99,101,1000\n"+
		"2024-03-05,101.5,102,100,101.2,1000\n"+
		"2024-03-06,101,103,100,102,1000\n")
	out := filepath.Join(dir, "trades.json")

	var buf bytes.Buffer
	err := run(applogger.NewWriter(&buf, "info"), options{
		primary: primary, cost: 2, limit: 1200, weekdays: "0,1,2,3", window: 20, export: out,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("ledger not written: %v", err)
	}
	if !strings.Contains(buf.String(), `"message":"backtest done"`) {
		t.Fatalf("missing summary log: %s", buf.String())
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	log := applogger.Nop()
	if err := run(log, options{}); err == nil {
		t.Fatalf("expected error without primary")
	}
	if err := run(log, options{primary: "x.csv", weekdays: "0,9"}); err == nil {
		t.Fatalf("expected weekday error")
	}
	if err := run(log, options{primary: filepath.Join(t.TempDir(), "missing.csv"), weekdays: "0"}); err == nil {
		t.Fatalf("expected load error")
	}
}
