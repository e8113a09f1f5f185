package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// toolkitStub fakes the Identity Toolkit REST surface with canned handlers
// per method name ("accounts:signUp" etc).
type toolkitStub struct {
	handlers map[string]http.HandlerFunc

	mu    sync.Mutex
	calls []string
}

func (s *toolkitStub) called() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func newToolkitProvider(t *testing.T, stub *toolkitStub) *FirebaseProvider {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.URL.Path[len("/"):]
		stub.mu.Lock()
		stub.calls = append(stub.calls, method)
		stub.mu.Unlock()
		h, ok := stub.handlers[method]
		if !ok {
			t.Errorf("unexpected call %s", method)
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	p := NewFirebaseProvider(nil, "test-key")
	p.endpoint = srv.URL
	return p
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeToolkitError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	writeJSON(w, map[string]any{"error": map[string]any{"message": message}})
}

func TestCreateAccount(t *testing.T) {
	stub := &toolkitStub{handlers: map[string]http.HandlerFunc{
		"accounts:signUp": func(w http.ResponseWriter, r *http.Request) {
			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "jane@example.com", req["email"])
			writeJSON(w, map[string]any{
				"localId": "u1", "email": "Jane@Example.com",
				"idToken": "tok1", "refreshToken": "ref1",
			})
		},
	}}
	p := newToolkitProvider(t, stub)

	sess, err := p.CreateAccount(context.Background(), "jane@example.com", "Abcdefg1")
	require.NoError(t, err)
	assert.Equal(t, "u1", sess.UID)
	assert.Equal(t, "jane@example.com", sess.Email, "email is lowercased")
	assert.Equal(t, "password", sess.Provider)
	assert.Equal(t, "tok1", sess.IDToken)
}

func TestCreateAccountEmailExists(t *testing.T) {
	stub := &toolkitStub{handlers: map[string]http.HandlerFunc{
		"accounts:signUp": func(w http.ResponseWriter, r *http.Request) {
			writeToolkitError(w, http.StatusBadRequest, "EMAIL_EXISTS")
		},
	}}
	p := newToolkitProvider(t, stub)

	_, err := p.CreateAccount(context.Background(), "taken@example.com", "Abcdefg1")
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, CodeEmailExists, pe.Code)
}

func TestSignInFetchesVerificationState(t *testing.T) {
	stub := &toolkitStub{handlers: map[string]http.HandlerFunc{
		"accounts:signInWithPassword": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{
				"localId": "u1", "email": "jane@example.com",
				"idToken": "tok1", "refreshToken": "ref1",
			})
		},
		"accounts:lookup": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"users": []map[string]any{{
				"localId": "u1", "email": "jane@example.com",
				"emailVerified": true, "displayName": "Jane Doe Smith",
			}}})
		},
	}}
	p := newToolkitProvider(t, stub)

	sess, err := p.SignIn(context.Background(), "jane@example.com", "Abcdefg1")
	require.NoError(t, err)
	assert.True(t, sess.EmailVerified)
	assert.Equal(t, "Jane Doe Smith", sess.DisplayName)
	assert.Equal(t, []string{"accounts:signInWithPassword", "accounts:lookup"}, stub.called())
}

func TestSignInWithFederatedTokenConflict(t *testing.T) {
	stub := &toolkitStub{handlers: map[string]http.HandlerFunc{
		"accounts:signInWithIdp": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{
				"localId": "u1", "email": "jane@example.com",
				"needConfirmation": true,
			})
		},
	}}
	p := newToolkitProvider(t, stub)

	_, err := p.SignInWithFederatedToken(context.Background(), "google-token")
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, CodeNeedsConfirmation, pe.Code)
}

func TestReauthenticateMismatch(t *testing.T) {
	stub := &toolkitStub{handlers: map[string]http.HandlerFunc{
		"accounts:signInWithPassword": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{
				"localId": "someone-else", "email": "jane@example.com",
				"idToken": "tok2", "refreshToken": "ref2",
			})
		},
		"accounts:lookup": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"users": []map[string]any{{
				"localId": "someone-else", "email": "jane@example.com", "emailVerified": true,
			}}})
		},
	}}
	p := newToolkitProvider(t, stub)

	sess := &Session{UID: "u1", Email: "jane@example.com", IDToken: "tok1"}
	err := p.Reauthenticate(context.Background(), sess, "Abcdefg1")
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, CodeUserMismatch, pe.Code)
	assert.Equal(t, "tok1", sess.IDToken, "mismatch must not adopt the foreign tokens")
}

func TestSendVerificationEmailVariants(t *testing.T) {
	var lastReq map[string]any
	stub := &toolkitStub{handlers: map[string]http.HandlerFunc{
		"accounts:sendOobCode": func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&lastReq)
			writeJSON(w, map[string]any{})
		},
	}}
	p := newToolkitProvider(t, stub)
	sess := &Session{UID: "u1", IDToken: "tok1"}

	require.NoError(t, p.SendVerificationEmail(context.Background(), sess))
	assert.Equal(t, "VERIFY_EMAIL", lastReq["requestType"])

	require.NoError(t, p.SendVerificationEmailForNewAddress(context.Background(), sess, "new@example.com"))
	assert.Equal(t, "VERIFY_AND_CHANGE_EMAIL", lastReq["requestType"])
	assert.Equal(t, "new@example.com", lastReq["newEmail"])

	require.NoError(t, p.SendPasswordResetEmail(context.Background(), "jane@example.com"))
	assert.Equal(t, "PASSWORD_RESET", lastReq["requestType"])
}

func TestReloadSessionNoUser(t *testing.T) {
	stub := &toolkitStub{handlers: map[string]http.HandlerFunc{
		"accounts:lookup": func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, map[string]any{"users": []map[string]any{}})
		},
	}}
	p := newToolkitProvider(t, stub)

	err := p.ReloadSession(context.Background(), &Session{UID: "u1", IDToken: "tok1"})
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, CodeUserNotFound, pe.Code)
}

func TestParseAPIError(t *testing.T) {
	cases := []struct {
		message  string
		code     string
		rest     string
	}{
		{"EMAIL_EXISTS", "EMAIL_EXISTS", ""},
		{"TOO_MANY_ATTEMPTS_TRY_LATER : retry later", "TOO_MANY_ATTEMPTS_TRY_LATER", "retry later"},
		{"CREDENTIAL_TOO_OLD_LOGIN_AGAIN", "CREDENTIAL_TOO_OLD_LOGIN_AGAIN", ""},
	}
	for _, tc := range cases {
		body := fmt.Sprintf(`{"error":{"message":%q}}`, tc.message)
		pe := parseAPIError([]byte(body), 400)
		assert.Equal(t, tc.code, pe.Code, tc.message)
		assert.Equal(t, tc.rest, pe.Message, tc.message)
	}

	pe := parseAPIError([]byte("not json"), 500)
	assert.Equal(t, "UNKNOWN", pe.Code)
}

func TestNetworkFailureIsProviderError(t *testing.T) {
	p := NewFirebaseProvider(nil, "test-key")
	p.endpoint = "http://127.0.0.1:1" // nothing listens here

	_, err := p.CreateAccount(context.Background(), "a@b.co", "Abcdefg1")
	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, CodeNetworkError, pe.Code)
}
