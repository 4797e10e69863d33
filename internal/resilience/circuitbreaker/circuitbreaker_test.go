package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
)

func testConfig() Config {
	return Config{
		Name:             "test-circuit",
		MaxRequests:      1,
		Interval:         10 * time.Second,
		Timeout:          20 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      3,
	}
}

func TestNew(t *testing.T) {
	cb := New(testConfig())
	if cb.Name() != "test-circuit" {
		t.Errorf("Name = %q", cb.Name())
	}
	if cb.State() != gobreaker.StateClosed || cb.IsOpen() {
		t.Errorf("initial state = %v", cb.State())
	}
}

func TestExecute_PassesResult(t *testing.T) {
	cb := New(testConfig())
	got, err := cb.Execute(func() (interface{}, error) { return 42, nil })
	if err != nil || got.(int) != 42 {
		t.Fatalf("Execute = %v, %v", got, err)
	}
}

func TestExecute_TripsAfterThreshold(t *testing.T) {
	cb := New(testConfig())
	boom := errors.New("boom")

	// MinRequests 未満では開かない
	for i := 0; i < 2; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, boom })
	}
	if cb.IsOpen() {
		t.Fatal("opened before MinRequests")
	}

	_, _ = cb.Execute(func() (interface{}, error) { return nil, boom })
	if !cb.IsOpen() {
		t.Fatalf("state = %v, want open", cb.State())
	}

	called := false
	_, err := cb.Execute(func() (interface{}, error) {
		called = true
		return nil, nil
	})
	if !errors.Is(err, gobreaker.ErrOpenState) || called {
		t.Fatalf("err=%v called=%v, want ErrOpenState without call", err, called)
	}
}

func TestPresetConfigs(t *testing.T) {
	tests := map[string]Config{
		"claude":        SummarizerConfig("claude"),
		"feed-fetch":    FeedConfig(),
		"content-fetch": ContentFetchConfig(),
	}
	for want, cfg := range tests {
		if cfg.Name != want {
			t.Errorf("Name = %q, want %q", cfg.Name, want)
		}
		if cfg.FailureThreshold <= 0 || cfg.FailureThreshold > 1 || cfg.MinRequests == 0 {
			t.Errorf("%s: implausible config %+v", want, cfg)
		}
	}
}
