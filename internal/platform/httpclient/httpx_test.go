package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"embedup/internal/platform/logx"
	"embedup/internal/testutil"
)

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryBackoff = 5 * time.Millisecond
	cfg.MaxRetryBackoff = 10 * time.Millisecond
	cfg.RateLimit = 0
	return cfg
}

func TestDefaultConfigEnablesRateLimiting(t *testing.T) {
	cfg := DefaultConfig()
	testutil.AssertTrue(t, cfg.RateLimit > 0, "default config throttles requests")

	c := New(cfg, logx.NewSilent())
	if c.rateLimiter == nil {
		t.Error("client built from the default config must carry a rate limiter")
	}

	unlimited := New(fastConfig(), logx.NewSilent())
	if unlimited.rateLimiter != nil {
		t.Error("zero rate limit must disable the limiter")
	}
}

func TestClient_RetriesOnServerError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(fastConfig(), logx.NewSilent())
	body, err := c.GetBody(context.Background(), srv.URL, nil)
	testutil.AssertNoError(t, err, "request succeeds after retries")
	testutil.AssertEqual(t, string(body), "ok", "body")
	testutil.AssertEqual(t, atomic.LoadInt32(&hits), int32(3), "two retries before success")
}

func TestClient_NoRetryOnClientError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(fastConfig(), logx.NewSilent())
	_, err := c.GetBody(context.Background(), srv.URL, nil)
	testutil.AssertError(t, err, "404 is an error")
	testutil.AssertEqual(t, atomic.LoadInt32(&hits), int32(1), "client errors are not retried")
}

func TestClient_SetsUserAgentAndHeaders(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := New(fastConfig(), logx.NewSilent())
	_, err := c.GetBody(context.Background(), srv.URL, map[string]string{
		"Accept": "application/vnd.github+json",
	})
	testutil.AssertNoError(t, err, "request")
	testutil.AssertEqual(t, gotUA, "embedup/1.0", "user agent header")
	testutil.AssertEqual(t, gotAccept, "application/vnd.github+json", "extra header forwarded")
}

func TestClient_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := New(fastConfig(), logx.NewSilent())
	_, err := c.GetBody(ctx, srv.URL, nil)
	testutil.AssertError(t, err, "canceled context aborts the request")
}
