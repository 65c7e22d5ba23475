package turnstile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyMissingTokenSkipsExternalCall(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	v := NewVerifier("secret").WithVerifyURL(srv.URL)
	result := v.Verify(context.Background(), "", "203.0.113.7")

	assert.False(t, result.OK)
	assert.Equal(t, []string{CodeMissingToken}, result.Errors)
	assert.False(t, called, "missing token must not reach the collaborator")
}

func TestVerifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "secret", r.PostForm.Get("secret"))
		assert.Equal(t, "tok", r.PostForm.Get("response"))
		assert.Equal(t, "203.0.113.7", r.PostForm.Get("remoteip"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	v := NewVerifier("secret").WithVerifyURL(srv.URL)
	result := v.Verify(context.Background(), "tok", "203.0.113.7")

	assert.True(t, result.OK)
	assert.Empty(t, result.Errors)
}

func TestVerifyRejectionPassesCodesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false,"error-codes":["invalid-input-response","timeout-or-duplicate"]}`))
	}))
	defer srv.Close()

	v := NewVerifier("secret").WithVerifyURL(srv.URL)
	result := v.Verify(context.Background(), "tok", "")

	assert.False(t, result.OK)
	assert.Equal(t, []string{"invalid-input-response", "timeout-or-duplicate"}, result.Errors)
}

func TestVerifyRejectionWithoutCodesGetsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false}`))
	}))
	defer srv.Close()

	v := NewVerifier("secret").WithVerifyURL(srv.URL)
	result := v.Verify(context.Background(), "tok", "")

	assert.False(t, result.OK)
	assert.Equal(t, []string{CodeRejected}, result.Errors)
}

func TestVerifyTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	v := NewVerifier("secret").WithVerifyURL(srv.URL)
	result := v.Verify(context.Background(), "tok", "")

	assert.False(t, result.OK)
	assert.Equal(t, []string{CodeTransport}, result.Errors)
}

func TestVerifyMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	v := NewVerifier("secret").WithVerifyURL(srv.URL)
	result := v.Verify(context.Background(), "tok", "")

	assert.False(t, result.OK)
	assert.Equal(t, []string{CodeTransport}, result.Errors)
}
