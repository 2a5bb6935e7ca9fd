package clickhouse

import (
	"strings"
	"testing"
	"time"
)

func TestBuildDSN(t *testing.T) {
	dsn := BuildDSN(ClientConfig{
		Host: "ch", Port: 9000, Database: "quant", User: "default", Password: "p@ss",
		DialTimeout: 5 * time.Second, AsyncInsert: true, WaitForAsync: true,
	})
	if !strings.HasPrefix(dsn, "clickhouse://default:p%40ss@ch:9000/quant?") {
		t.Fatalf("dsn=%s", dsn)
	}
	for _, want := range []string{"dial_timeout=5s", "async_insert=1", "wait_for_async_insert=1"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("dsn %s missing %s", dsn, want)
		}
	}

	if dsn := BuildDSN(ClientConfig{Host: "ch", Port: 8123, Database: "quant", UseHTTP: true}); !strings.HasPrefix(dsn, "http://") {
		t.Fatalf("http dsn=%s", dsn)
	}
}

func TestNewClientRequiresHost(t *testing.T) {
	if _, err := NewClient(); err == nil {
		t.Fatalf("expected error without host")
	}
}
