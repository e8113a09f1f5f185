package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	fbauth "firebase.google.com/go/v4/auth"
)

const defaultEndpoint = "https://identitytoolkit.googleapis.com/v1"

// FirebaseProvider implements Provider on top of Firebase Auth. Session
// issuing and email sending go through the Identity Toolkit REST API (the
// Admin SDK cannot perform password sign-in or send oob emails); forced
// sign-out revokes refresh tokens through the Admin SDK.
type FirebaseProvider struct {
	admin    *fbauth.Client
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewFirebaseProvider(admin *fbauth.Client, apiKey string) *FirebaseProvider {
	return &FirebaseProvider{
		admin:    admin,
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *FirebaseProvider) CreateAccount(ctx context.Context, email, password string) (*Session, error) {
	var resp struct {
		LocalID      string `json:"localId"`
		Email        string `json:"email"`
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
	}
	err := p.post(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &Session{
		UID:          resp.LocalID,
		Email:        strings.ToLower(resp.Email),
		Provider:     "password",
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

func (p *FirebaseProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var resp struct {
		LocalID      string `json:"localId"`
		Email        string `json:"email"`
		DisplayName  string `json:"displayName"`
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
	}
	err := p.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	s := &Session{
		UID:          resp.LocalID,
		Email:        strings.ToLower(resp.Email),
		DisplayName:  resp.DisplayName,
		Provider:     "password",
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
	}
	// signInWithPassword does not report verification state; fetch it
	if err := p.ReloadSession(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *FirebaseProvider) SignInWithFederatedToken(ctx context.Context, idToken string) (*Session, error) {
	var resp struct {
		LocalID          string `json:"localId"`
		Email            string `json:"email"`
		EmailVerified    bool   `json:"emailVerified"`
		DisplayName      string `json:"displayName"`
		IDToken          string `json:"idToken"`
		RefreshToken     string `json:"refreshToken"`
		NeedConfirmation bool   `json:"needConfirmation"`
	}
	err := p.post(ctx, "accounts:signInWithIdp", map[string]any{
		"postBody":            "id_token=" + idToken + "&providerId=google.com",
		"requestUri":          "http://localhost",
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.NeedConfirmation {
		// The email already belongs to an account with different
		// credentials. Never merge silently.
		return nil, &ProviderError{Code: CodeNeedsConfirmation, Message: "account exists with different credential"}
	}
	return &Session{
		UID:           resp.LocalID,
		Email:         strings.ToLower(resp.Email),
		DisplayName:   resp.DisplayName,
		EmailVerified: resp.EmailVerified,
		Provider:      "google",
		IDToken:       resp.IDToken,
		RefreshToken:  resp.RefreshToken,
	}, nil
}

func (p *FirebaseProvider) SendVerificationEmail(ctx context.Context, s *Session) error {
	return p.post(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "VERIFY_EMAIL",
		"idToken":     s.IDToken,
	}, nil)
}

func (p *FirebaseProvider) SendVerificationEmailForNewAddress(ctx context.Context, s *Session, newEmail string) error {
	return p.post(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "VERIFY_AND_CHANGE_EMAIL",
		"idToken":     s.IDToken,
		"newEmail":    newEmail,
	}, nil)
}

func (p *FirebaseProvider) ReloadSession(ctx context.Context, s *Session) error {
	var resp struct {
		Users []struct {
			LocalID       string `json:"localId"`
			Email         string `json:"email"`
			EmailVerified bool   `json:"emailVerified"`
			DisplayName   string `json:"displayName"`
		} `json:"users"`
	}
	err := p.post(ctx, "accounts:lookup", map[string]any{"idToken": s.IDToken}, &resp)
	if err != nil {
		return err
	}
	if len(resp.Users) == 0 {
		return &ProviderError{Code: CodeUserNotFound, Message: "no user for session"}
	}
	u := resp.Users[0]
	s.UID = u.LocalID
	s.Email = strings.ToLower(u.Email)
	s.EmailVerified = u.EmailVerified
	s.DisplayName = u.DisplayName
	return nil
}

// Reauthenticate re-proves the session's password credential. A fresh
// password sign-in that resolves to a different uid is a session mismatch.
func (p *FirebaseProvider) Reauthenticate(ctx context.Context, s *Session, password string) error {
	fresh, err := p.SignIn(ctx, s.Email, password)
	if err != nil {
		return err
	}
	if fresh.UID != s.UID {
		return &ProviderError{Code: CodeUserMismatch, Message: "credential belongs to a different user"}
	}
	// Refreshed tokens satisfy subsequent recent-login checks.
	s.IDToken = fresh.IDToken
	s.RefreshToken = fresh.RefreshToken
	return nil
}

func (p *FirebaseProvider) UpdatePassword(ctx context.Context, s *Session, newPassword string) error {
	var resp struct {
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
	}
	err := p.post(ctx, "accounts:update", map[string]any{
		"idToken":           s.IDToken,
		"password":          newPassword,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return err
	}
	if resp.IDToken != "" {
		s.IDToken = resp.IDToken
		s.RefreshToken = resp.RefreshToken
	}
	return nil
}

func (p *FirebaseProvider) UpdateDisplayName(ctx context.Context, s *Session, name string) error {
	err := p.post(ctx, "accounts:update", map[string]any{
		"idToken":     s.IDToken,
		"displayName": name,
	}, nil)
	if err != nil {
		return err
	}
	s.DisplayName = name
	return nil
}

// SignOut force-terminates the session by revoking the user's refresh
// tokens; outstanding ID tokens expire within the hour.
func (p *FirebaseProvider) SignOut(ctx context.Context, s *Session) error {
	if s == nil || s.UID == "" {
		return nil
	}
	if err := p.admin.RevokeRefreshTokens(ctx, s.UID); err != nil {
		return &ProviderError{Code: CodeNetworkError, Message: fmt.Sprintf("revoke refresh tokens: %v", err)}
	}
	s.IDToken = ""
	s.RefreshToken = ""
	return nil
}

func (p *FirebaseProvider) SendPasswordResetEmail(ctx context.Context, email string) error {
	return p.post(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
}

func (p *FirebaseProvider) post(ctx context.Context, method string, body map[string]any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	url := fmt.Sprintf("%s/%s?key=%s", p.endpoint, method, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return &ProviderError{Code: CodeNetworkError, Message: err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ProviderError{Code: CodeNetworkError, Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		return parseAPIError(data, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode %s response: %w", method, err)
		}
	}
	return nil
}

// parseAPIError extracts the Identity Toolkit condition code from an error
// body. Messages look like "EMAIL_EXISTS" or
// "TOO_MANY_ATTEMPTS_TRY_LATER : retry later".
func parseAPIError(data []byte, status int) *ProviderError {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Error.Message == "" {
		return &ProviderError{Code: "UNKNOWN", Message: fmt.Sprintf("http %d", status)}
	}
	msg := body.Error.Message
	code := msg
	rest := ""
	if i := strings.IndexAny(msg, " :"); i > 0 {
		code = msg[:i]
		rest = strings.TrimLeft(msg[i:], " :")
	}
	return &ProviderError{Code: code, Message: rest}
}
