package identity

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/apperrors"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// GoTrueProvider talks to a hosted GoTrue-compatible auth API
// (the backend-as-a-service the mobile app signs in against).
type GoTrueProvider struct {
	client *resty.Client
}

// NewGoTrueProvider creates a client for the auth API at baseURL.
func NewGoTrueProvider(baseURL, apiKey string, timeout time.Duration) *GoTrueProvider {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("apikey", apiKey).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &GoTrueProvider{client: client}
}

// CreateIdentity signs up a new account and attaches metadata as user data.
func (p *GoTrueProvider) CreateIdentity(ctx context.Context, email, password string, metadata Metadata) (*Identity, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"email":    email,
			"password": password,
			"data":     metadata,
		}).
		Post("/auth/v1/signup")
	if err != nil {
		return nil, fmt.Errorf("signup request: %w", err)
	}

	body := resp.Body()
	if resp.IsError() {
		msg := errorMessage(body)
		if resp.StatusCode() == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "already") {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrIdentityExists, email)
		}
		return nil, fmt.Errorf("signup failed (%d): %s", resp.StatusCode(), msg)
	}

	// signup answers with the user object, or with a session wrapping it
	// when email confirmation is disabled.
	user := gjson.GetBytes(body, "user")
	if !user.Exists() {
		user = gjson.ParseBytes(body)
	}
	ident, err := parseUser(user)
	if err != nil {
		return nil, fmt.Errorf("signup response: %w", err)
	}
	if ident.Metadata == nil {
		ident.Metadata = metadata
	}
	return ident, nil
}

// Authenticate exchanges email and password for the account's user record.
func (p *GoTrueProvider) Authenticate(ctx context.Context, email, password string) (*Identity, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{
			"email":    email,
			"password": password,
		}).
		Post("/auth/v1/token")
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	if resp.StatusCode() == http.StatusBadRequest || resp.StatusCode() == http.StatusUnauthorized {
		return nil, apperrors.ErrInvalidCredentials
	}
	if resp.IsError() {
		return nil, fmt.Errorf("token request failed (%d): %s", resp.StatusCode(), errorMessage(resp.Body()))
	}

	ident, err := parseUser(gjson.GetBytes(resp.Body(), "user"))
	if err != nil {
		return nil, fmt.Errorf("token response: %w", err)
	}
	return ident, nil
}

func parseUser(user gjson.Result) (*Identity, error) {
	rawID := user.Get("id").String()
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", rawID, err)
	}

	ident := &Identity{
		ID:    id,
		Email: user.Get("email").String(),
	}
	if created := user.Get("created_at"); created.Exists() {
		if t, err := time.Parse(time.RFC3339Nano, created.String()); err == nil {
			ident.CreatedAt = t
		}
	}
	if meta, ok := user.Get("user_metadata").Value().(map[string]any); ok && len(meta) > 0 {
		ident.Metadata = meta
	}
	return ident, nil
}

func errorMessage(body []byte) string {
	for _, path := range []string{"msg", "error_description", "message", "error"} {
		if v := gjson.GetBytes(body, path); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return strings.TrimSpace(string(body))
}
