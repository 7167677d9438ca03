package corpus

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeAPI struct {
	pages     int
	perPage   int
	failFirst map[string]int // "endpoint:page" -> failures before success
	status    int            // status used for injected failures

	mu       sync.Mutex
	calls    map[string]int
	inFlight atomic.Int32
	peak     atomic.Int32
	cookies  []string
}

func (a *fakeAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := a.inFlight.Add(1)
		defer a.inFlight.Add(-1)
		for {
			p := a.peak.Load()
			if cur <= p || a.peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)

		endpoint := r.URL.Path[1:]
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		key := fmt.Sprintf("%s:%d", endpoint, page)

		a.mu.Lock()
		a.calls[key]++
		n := a.calls[key]
		if c, err := r.Cookie(SessionCookie); err == nil {
			a.cookies = append(a.cookies, c.Value)
		}
		a.mu.Unlock()

		if n <= a.failFirst[key] {
			w.WriteHeader(a.status)
			return
		}

		paging := fmt.Sprintf(`"pagination":{"page":%d,"pages":%d,"count":%d,"items":%d}`,
			page, a.pages, a.pages*a.perPage, a.perPage)
		switch endpoint {
		case DevlogsEndpoint:
			_, _ = fmt.Fprintf(w, `{"devlogs":[%s],%s}`, items("text", "d", page, a.perPage), paging)
		case ProjectsEndpoint:
			_, _ = fmt.Fprintf(w, `{"projects":[%s],%s}`, items("description", "p", page, a.perPage), paging)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func items(field, prefix string, page, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf(`{%q:"%s%d-%d"}`, field, prefix, page, i)
	}
	return out
}

func newAPI(pages, perPage int) *fakeAPI {
	return &fakeAPI{
		pages:     pages,
		perPage:   perPage,
		failFirst: map[string]int{},
		status:    http.StatusInternalServerError,
		calls:     map[string]int{},
	}
}

func newTestFetcher(url string, concurrency int) *Fetcher {
	return NewFetcher(Config{
		BaseURL:     url,
		Session:     "sess",
		Concurrency: concurrency,
		Backoff:     time.Millisecond,
	}, nil, nil)
}

func serve(t *testing.T, h http.Handler) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv.URL
}

func assertTexts(t *testing.T, got, want []string) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Errorf("texts:\n got  %q\n want %q", got, want)
	}
}

func assertCalls(t *testing.T, api *fakeAPI, key string, want int) {
	t.Helper()
	if got := api.calls[key]; got != want {
		t.Errorf("%s calls: got %d, want %d", key, got, want)
	}
}

func TestFetchAll_OrderAndCookie(t *testing.T) {
	api := newAPI(3, 2)
	url := serve(t, api.handler())

	texts, err := newTestFetcher(url, 4).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertTexts(t, texts, []string{
		"d1-0", "d1-1", "d2-0", "d2-1", "d3-0", "d3-1",
		"p1-0", "p1-1", "p2-0", "p2-1", "p3-0", "p3-1",
	})
	if len(api.cookies) == 0 {
		t.Fatal("no session cookie sent")
	}
	for _, c := range api.cookies {
		if c != "sess" {
			t.Errorf("cookie: got %q, want %q", c, "sess")
		}
	}
}

func TestFetch_SinglePage(t *testing.T) {
	api := newAPI(1, 3)
	url := serve(t, api.handler())

	texts, err := Fetch[*Devlogs](context.Background(), newTestFetcher(url, 2), DevlogsEndpoint)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTexts(t, texts, []string{"d1-0", "d1-1", "d1-2"})
	assertCalls(t, api, "devlogs:1", 1)
}

func TestFetch_BoundedConcurrency(t *testing.T) {
	api := newAPI(30, 1)
	url := serve(t, api.handler())

	if _, err := Fetch[*Projects](context.Background(), newTestFetcher(url, 3), ProjectsEndpoint); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak := api.peak.Load(); peak > 3 {
		t.Errorf("peak in-flight requests = %d, want <= 3", peak)
	}
}

func TestFetch_RetriesTransientFailures(t *testing.T) {
	api := newAPI(2, 1)
	api.failFirst["devlogs:2"] = 2
	url := serve(t, api.handler())

	texts, err := Fetch[*Devlogs](context.Background(), newTestFetcher(url, 2), DevlogsEndpoint)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTexts(t, texts, []string{"d1-0", "d2-0"})
	assertCalls(t, api, "devlogs:2", 3)
}

func TestFetch_GivesUpAfterMaxRetries(t *testing.T) {
	api := newAPI(2, 1)
	api.failFirst["devlogs:2"] = 10
	url := serve(t, api.handler())

	_, err := Fetch[*Devlogs](context.Background(), newTestFetcher(url, 2), DevlogsEndpoint)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want %d", se.Code, http.StatusInternalServerError)
	}
	assertCalls(t, api, "devlogs:2", 3)
}

func TestFetch_ClientErrorIsPermanent(t *testing.T) {
	api := newAPI(2, 1)
	api.status = http.StatusUnauthorized
	api.failFirst["devlogs:1"] = 10
	url := serve(t, api.handler())

	if _, err := Fetch[*Devlogs](context.Background(), newTestFetcher(url, 2), DevlogsEndpoint); err == nil {
		t.Fatal("expected error")
	}
	assertCalls(t, api, "devlogs:1", 1)
}

func TestFetch_TooManyRequestsIsRetried(t *testing.T) {
	api := newAPI(1, 1)
	api.status = http.StatusTooManyRequests
	api.failFirst["projects:1"] = 1
	url := serve(t, api.handler())

	texts, err := Fetch[*Projects](context.Background(), newTestFetcher(url, 1), ProjectsEndpoint)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTexts(t, texts, []string{"p1-0"})
	assertCalls(t, api, "projects:1", 2)
}

func TestFetch_MalformedJSONIsRetried(t *testing.T) {
	var calls atomic.Int32
	url := serve(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"devlogs": [`))
			return
		}
		_, _ = w.Write([]byte(`{"devlogs":[{"text":"ok"}],"pagination":{"pages":1,"count":1}}`))
	}))

	texts, err := Fetch[*Devlogs](context.Background(), newTestFetcher(url, 1), DevlogsEndpoint)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTexts(t, texts, []string{"ok"})
	if n := calls.Load(); n != 2 {
		t.Errorf("calls: got %d, want 2", n)
	}
}

func TestFetch_ContextCanceled(t *testing.T) {
	api := newAPI(5, 1)
	url := serve(t, api.handler())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fetch[*Devlogs](ctx, newTestFetcher(url, 2), DevlogsEndpoint)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestStatusError_Retryable(t *testing.T) {
	for code, want := range map[int]bool{
		http.StatusBadRequest:          false,
		http.StatusNotFound:            false,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
	} {
		if got := (&StatusError{Code: code}).Retryable(); got != want {
			t.Errorf("status %d: Retryable = %v, want %v", code, got, want)
		}
	}
}

func TestNewFetcher_Defaults(t *testing.T) {
	f := NewFetcher(Config{BaseURL: "http://x/api/"}, nil, nil)
	if f.baseURL != "http://x/api" {
		t.Errorf("baseURL: got %q", f.baseURL)
	}
	if f.concurrency != defaultConcurrency || f.maxRetries != defaultMaxRetries || f.backoff != defaultBackoff {
		t.Errorf("defaults not applied: concurrency=%d retries=%d backoff=%v",
			f.concurrency, f.maxRetries, f.backoff)
	}
}
