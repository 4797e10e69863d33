package config

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLoadEnvString(t *testing.T) {
	t.Setenv("CFG_TEST_STR", "")
	if got := LoadEnvString("CFG_TEST_STR", "def"); got != "def" {
		t.Fatalf("unset: got %q", got)
	}
	t.Setenv("CFG_TEST_STR", "value")
	if got := LoadEnvString("CFG_TEST_STR", "def"); got != "value" {
		t.Fatalf("set: got %q", got)
	}
}

func TestLoadEnvInt(t *testing.T) {
	inRange := func(v int) error { return ValidateIntRange(v, 50, 5000) }

	tests := []struct {
		name         string
		env          string
		want         int
		wantFallback bool
	}{
		{"unset", "", 100, false},
		{"valid", "300", 300, false},
		{"not a number", "abc", 100, true},
		{"out of range", "10", 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CFG_TEST_INT", tt.env)
			r := LoadEnvInt("CFG_TEST_INT", 100, inRange)
			if r.Value != tt.want || r.FallbackApplied != tt.wantFallback {
				t.Fatalf("got %+v, want value=%d fallback=%v", r, tt.want, tt.wantFallback)
			}
			if tt.wantFallback && len(r.Warnings) != 1 {
				t.Fatalf("warnings = %v", r.Warnings)
			}
		})
	}
}

func TestLoadEnvDuration(t *testing.T) {
	t.Setenv("CFG_TEST_DUR", "45m")
	r := LoadEnvDuration("CFG_TEST_DUR", time.Minute, ValidatePositiveDuration)
	if r.Value != 45*time.Minute || r.FallbackApplied {
		t.Fatalf("got %+v", r)
	}

	t.Setenv("CFG_TEST_DUR", "-1s")
	r = LoadEnvDuration("CFG_TEST_DUR", time.Minute, ValidatePositiveDuration)
	if r.Value != time.Minute || !r.FallbackApplied {
		t.Fatalf("got %+v", r)
	}
}

func TestLoadEnvBool(t *testing.T) {
	for env, want := range map[string]bool{"true": true, "1": true, "false": false, "F": false} {
		t.Setenv("CFG_TEST_BOOL", env)
		if r := LoadEnvBool("CFG_TEST_BOOL", !want); r.Value != want || r.FallbackApplied {
			t.Errorf("%q: got %+v", env, r)
		}
	}
	t.Setenv("CFG_TEST_BOOL", "yes please")
	if r := LoadEnvBool("CFG_TEST_BOOL", true); !r.Value || !r.FallbackApplied {
		t.Errorf("invalid: got %+v", r)
	}
}

func TestLoadEnvFloat(t *testing.T) {
	unit := func(f float64) error {
		if f < 0 || f > 1 {
			return fmt.Errorf("%v outside [0,1]", f)
		}
		return nil
	}
	t.Setenv("CFG_TEST_FLOAT", "0.25")
	if r := LoadEnvFloat("CFG_TEST_FLOAT", 1, unit); r.Value != 0.25 || r.FallbackApplied {
		t.Errorf("valid: got %+v", r)
	}
	t.Setenv("CFG_TEST_FLOAT", "1.5")
	if r := LoadEnvFloat("CFG_TEST_FLOAT", 1, unit); r.Value != 1 || !r.FallbackApplied {
		t.Errorf("out of range: got %+v", r)
	}
}

func TestLoader_TracksFallbacks(t *testing.T) {
	m := NewConfigMetrics(prometheus.NewRegistry(), "loader_test")
	l := NewLoader(nil, m)

	t.Setenv("CFG_TEST_TZ", "Mars/Olympus")
	t.Setenv("CFG_TEST_MODE", "b")
	t.Setenv("CFG_TEST_N", "7")

	if got := l.String("CFG_TEST_TZ", "UTC", ValidateTimezone); got != "UTC" {
		t.Fatalf("timezone = %q", got)
	}
	if got := l.String("CFG_TEST_MODE", "a", OneOf("a", "b")); got != "b" {
		t.Fatalf("mode = %q", got)
	}
	if got := l.Int("CFG_TEST_N", 1, nil); got != 7 {
		t.Fatalf("n = %d", got)
	}
	l.Finish()

	if l.Fallbacks() != 1 {
		t.Fatalf("fallbacks = %d, want 1", l.Fallbacks())
	}
	if got := testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("CFG_TEST_TZ")); got != 1 {
		t.Fatalf("fallbacks_total = %v", got)
	}
	if got := testutil.ToFloat64(m.FallbackActive); got != 1 {
		t.Fatalf("fallback_active = %v", got)
	}
	if testutil.ToFloat64(m.LoadTimestamp) == 0 {
		t.Fatal("load timestamp not set")
	}
}

func TestValidators(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"timezone ok", ValidateTimezone("Asia/Shanghai"), false},
		{"timezone empty", ValidateTimezone(""), true},
		{"duration in range", ValidateDuration(time.Minute, time.Second, time.Hour), false},
		{"duration too long", ValidateDuration(2*time.Hour, time.Second, time.Hour), true},
		{"duration bad range", ValidateDuration(time.Minute, time.Hour, time.Second), true},
		{"int ok", ValidateIntRange(5, 1, 30), false},
		{"int low", ValidateIntRange(0, 1, 30), true},
		{"positive", ValidatePositiveDuration(0), true},
		{"one of", OneOf("x", "y")("z"), true},
		{"http url", ValidateHTTPURL("https://sctapi.ftqq.com"), false},
		{"ftp url", ValidateHTTPURL("ftp://example.com"), true},
		{"no host", ValidateHTTPURL("https://"), true},
	}
	for _, tt := range tests {
		if (tt.err != nil) != tt.wantErr {
			t.Errorf("%s: err=%v wantErr=%v", tt.name, tt.err, tt.wantErr)
		}
	}
}
