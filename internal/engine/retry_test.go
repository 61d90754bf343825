package engine

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"
)

var fastRetry = RetryConfig{
	MaxRetries:  3,
	InitialWait: time.Millisecond,
	MaxWait:     10 * time.Millisecond,
	Multiplier:  2,
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"embed service rate limited", &httpStatusError{429}, true},
		{"embed service bad gateway", &httpStatusError{502}, true},
		{"embed service unavailable", &httpStatusError{503}, true},
		{"malformed vector response", errors.New("embed: decode response"), false},
		{"dns timeout", &net.DNSError{IsTimeout: true}, true},
		{"connection refused", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryable(tt.err); got != tt.want {
				t.Errorf("isRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetryDoFirstTrySuccess(t *testing.T) {
	calls := 0
	got, err := RetryDo(context.Background(), fastRetry, func() ([]float32, error) {
		calls++
		return []float32{0.6, 0.8}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %v", got)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryDoRecoversAfterTransient(t *testing.T) {
	calls := 0
	got, err := RetryDo(context.Background(), fastRetry, func() (string, error) {
		calls++
		if calls < 3 {
			return "", &httpStatusError{503}
		}
		return "vector", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "vector" {
		t.Errorf("got %q", got)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestRetryDoNonRetryableFailsFast(t *testing.T) {
	calls := 0
	_, err := RetryDo(context.Background(), fastRetry, func() (string, error) {
		calls++
		return "", errors.New("embed: empty vector")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("non-retryable error must not be retried, got %d calls", calls)
	}
}

func TestRetryDoExhaustsRetries(t *testing.T) {
	calls := 0
	_, err := RetryDo(context.Background(), fastRetry, func() (string, error) {
		calls++
		return "", &httpStatusError{503}
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != fastRetry.MaxRetries+1 {
		t.Errorf("expected %d calls, got %d", fastRetry.MaxRetries+1, calls)
	}
}

func TestRetryDoContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := RetryDo(ctx, fastRetry, func() (string, error) {
		calls++
		return "", &httpStatusError{503}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 0 {
		t.Errorf("canceled context must short-circuit, got %d calls", calls)
	}
}

func TestRetryHTTP(t *testing.T) {
	t.Run("retries transient status", func(t *testing.T) {
		calls := 0
		resp, err := RetryHTTP(context.Background(), fastRetry, func() (*http.Response, error) {
			calls++
			if calls == 1 {
				return &http.Response{StatusCode: http.StatusServiceUnavailable, Body: http.NoBody}, nil
			}
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d", resp.StatusCode)
		}
		if calls != 2 {
			t.Errorf("expected 2 calls, got %d", calls)
		}
	})

	t.Run("client error passes through once", func(t *testing.T) {
		calls := 0
		resp, err := RetryHTTP(context.Background(), fastRetry, func() (*http.Response, error) {
			calls++
			return &http.Response{StatusCode: http.StatusBadRequest, Body: http.NoBody}, nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d", resp.StatusCode)
		}
		if calls != 1 {
			t.Errorf("4xx must not be retried, got %d calls", calls)
		}
	})
}
