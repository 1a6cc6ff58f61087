package release

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"embedup/internal/platform/errors"
	"embedup/internal/platform/httpclient"
	"embedup/internal/platform/logx"
	"embedup/internal/testutil"
)

func newTestResolver(t *testing.T, tags ...string) *Resolver {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		body := "["
		for i, tag := range tags {
			if i > 0 {
				body += ","
			}
			body += `{"tag_name":"` + tag + `","assets":[{"name":"rust-` + tag + `-x86_64-unknown-linux-gnu.tar.xz"}]}`
		}
		body += "]"
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	logger := logx.NewSilent()
	client := httpclient.New(httpclient.DefaultConfig(), logger)
	return NewResolver(client, srv.URL, logger)
}

func TestResolver_PrefixPicksHighestSubpatch(t *testing.T) {
	r := newTestResolver(t, "v1.64.0.0", "v1.65.0.0", "v1.65.0.1", "esp-2021r2")

	v, err := r.Resolve(context.Background(), "1.65.0")
	testutil.AssertNoError(t, err, "resolve")
	testutil.AssertEqual(t, v.String(), "1.65.0.1", "highest subpatch wins")
}

func TestResolver_SubpatchTieBreakIsNumeric(t *testing.T) {
	r := newTestResolver(t, "v1.65.0.9", "v1.65.0.10")

	v, err := r.Resolve(context.Background(), "1.65.0")
	testutil.AssertNoError(t, err, "resolve")
	testutil.AssertEqual(t, v.String(), "1.65.0.10", "10 beats 9 numerically")
}

func TestResolver_ExactMatch(t *testing.T) {
	r := newTestResolver(t, "v1.65.0.0", "v1.65.0.1")

	v, err := r.Resolve(context.Background(), "1.65.0.0")
	testutil.AssertNoError(t, err, "resolve exact")
	testutil.AssertEqual(t, v.String(), "1.65.0.0", "exact request returned unchanged")
}

func TestResolver_ExactMatchMissing(t *testing.T) {
	r := newTestResolver(t, "v1.65.0.0")

	_, err := r.Resolve(context.Background(), "1.65.0.7")
	testutil.AssertError(t, err, "missing exact tag must fail")
	testutil.AssertTrue(t, errors.Is(err, errors.ErrNoMatchingRelease), "error kind")
}

func TestResolver_NoMatchingPrefix(t *testing.T) {
	r := newTestResolver(t, "v1.64.0.0", "v1.65.0.1")

	_, err := r.Resolve(context.Background(), "1.99.0")
	testutil.AssertError(t, err, "unknown prefix must fail")
	testutil.AssertTrue(t, errors.Is(err, errors.ErrNoMatchingRelease), "error kind")
}

func TestResolver_InvalidRequestSkipsNetwork(t *testing.T) {
	// No server: an invalid request must fail before any index fetch.
	logger := logx.NewSilent()
	client := httpclient.New(httpclient.DefaultConfig(), logger)
	r := NewResolver(client, "http://127.0.0.1:0/unreachable", logger)

	_, err := r.Resolve(context.Background(), "not-a-version")
	testutil.AssertError(t, err, "invalid request")
	testutil.AssertTrue(t, errors.Is(err, errors.ErrInvalidVersion), "error kind")
}

func TestResolver_Latest(t *testing.T) {
	r := newTestResolver(t, "v1.64.0.0", "v1.65.0.1", "v1.65.0.0")

	v, err := r.Latest(context.Background())
	testutil.AssertNoError(t, err, "latest")
	testutil.AssertEqual(t, v.String(), "1.65.0.1", "newest release")
}
