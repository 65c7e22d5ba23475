// Package turnstile adapts Cloudflare Turnstile verification to a single
// pass/fail decision with structured error codes.
package turnstile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Result carries the verification outcome. Errors holds the collaborator's
// error codes on rejection, or one of the adapter codes below.
type Result struct {
	OK     bool
	Errors []string
}

// Adapter codes, distinct from the codes Turnstile itself returns.
const (
	CodeMissingToken = "missing-token"
	CodeTransport    = "turnstile-error"
	CodeRejected     = "turnstile-failed"
)

// Verifier calls the Turnstile siteverify endpoint.
type Verifier struct {
	secret    string
	verifyURL string
	client    *http.Client
}

// NewVerifier creates a verifier with the given shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret:    secret,
		verifyURL: defaultVerifyURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// WithVerifyURL overrides the siteverify endpoint, for tests.
func (v *Verifier) WithVerifyURL(u string) *Verifier {
	v.verifyURL = u
	return v
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify checks the challenge-response token for the given client IP.
// A missing token fails immediately without an external call.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) Result {
	if token == "" {
		return Result{OK: false, Errors: []string{CodeMissingToken}}
	}

	form := url.Values{
		"secret":   {v.secret},
		"response": {token},
		"remoteip": {remoteIP},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Result{OK: false, Errors: []string{CodeTransport}}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return Result{OK: false, Errors: []string{CodeTransport}}
	}
	defer resp.Body.Close()

	var data siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Result{OK: false, Errors: []string{CodeTransport}}
	}

	if !data.Success {
		codes := data.ErrorCodes
		if len(codes) == 0 {
			codes = []string{CodeRejected}
		}
		return Result{OK: false, Errors: codes}
	}
	return Result{OK: true}
}
