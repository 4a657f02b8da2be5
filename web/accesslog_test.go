package web

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAccessLogRedactsBearerTokens(t *testing.T) {
	var buf bytes.Buffer
	h := newHarnessWith(t, func(o *Options) {
		o.AccessLog = log.New(&buf, "", 0)
	})

	const secret = "SECRET-BEARER-TOKEN"
	for _, target := range []string{
		"/guarantor?token=" + secret,
		"/reset-password?token=" + secret + "&next=%2F",
	} {
		h.do(http.MethodGet, target, nil, false)
	}

	out := buf.String()
	if strings.Contains(out, secret) {
		t.Fatalf("token leaked into access log:\n%s", out)
	}
	for _, want := range []string{"/guarantor?token=REDACTED", "/reset-password?", "next=%2F"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in access log, got:\n%s", want, out)
		}
	}
}

func TestRedactRequestLeavesOtherQueriesAlone(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/notifications?page=2", nil)
	if got := redactRequest(req); got != req {
		t.Fatal("expected request without secrets to pass through unchanged")
	}

	req = httptest.NewRequest(http.MethodGet, "/guarantor?token=abc", nil)
	got := redactRequest(req)
	if got.RequestURI != "/guarantor?token=REDACTED" {
		t.Fatalf("unexpected redacted uri %q", got.RequestURI)
	}
	if req.URL.Query().Get("token") != "abc" {
		t.Fatal("original request must keep its token for the handler")
	}
}
