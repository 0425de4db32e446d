package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"tenancy-workflow/internal/common/errors"
	commonhttp "tenancy-workflow/internal/common/http"
)

// KeycloakClient reads user profiles through the Keycloak admin API using a
// service-account (client credentials) token.
type KeycloakClient struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	httpClient   *commonhttp.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// User is the subset of a Keycloak user representation the service reads.
// Profile data such as employer contacts lives in Attributes.
type User struct {
	ID            string              `json:"id,omitempty"`
	Email         string              `json:"email"`
	FirstName     string              `json:"firstName"`
	LastName      string              `json:"lastName"`
	Username      string              `json:"username"`
	Enabled       bool                `json:"enabled"`
	EmailVerified bool                `json:"emailVerified"`
	Attributes    map[string][]string `json:"attributes,omitempty"`
}

// Attribute returns the first value of a user attribute.
func (u *User) Attribute(name string) string {
	if vals := u.Attributes[name]; len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}
	return ""
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func NewKeycloakClient(baseURL, realm, clientID, clientSecret string) *KeycloakClient {
	return NewKeycloakClientWithHTTP(baseURL, realm, clientID, clientSecret, commonhttp.NewClient(30*time.Second))
}

func NewKeycloakClientWithHTTP(baseURL, realm, clientID, clientSecret string, hc *commonhttp.Client) *KeycloakClient {
	return &KeycloakClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   hc,
	}
}

func (k *KeycloakClient) getAccessToken(ctx context.Context) (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	// refresh slightly early so a token never expires mid-request
	if k.accessToken != "" && time.Now().Add(10*time.Second).Before(k.tokenExpiry) {
		return k.accessToken, nil
	}

	tokenURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", k.baseURL, k.realm)

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", k.clientID)
	data.Set("client_secret", k.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("keycloak token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	k.accessToken = tokenResp.AccessToken
	k.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	return k.accessToken, nil
}

// GetUser fetches a user by id. A 404 yields a NOT_FOUND error.
func (k *KeycloakClient) GetUser(ctx context.Context, userID string) (*User, error) {
	token, err := k.getAccessToken(ctx)
	if err != nil {
		return nil, errors.NewExternalServiceError("keycloak", err)
	}

	userURL := fmt.Sprintf("%s/admin/realms/%s/users/%s", k.baseURL, k.realm, url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userURL, nil)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := k.httpClient.Do(req)
	if err != nil {
		if commonhttp.IsTimeout(err) {
			return nil, errors.NewTimeoutError("keycloak", err)
		}
		return nil, errors.NewExternalServiceError("keycloak", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.NewNotFoundError("user", userID)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		stdErr := errors.NewExternalServiceError("keycloak",
			fmt.Errorf("user lookup failed with status %d: %s", resp.StatusCode, string(body)))
		stdErr.Retryable = commonhttp.IsTransientStatus(resp.StatusCode)
		return nil, stdErr
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, errors.NewExternalServiceError("keycloak", fmt.Errorf("decode user: %w", err))
	}
	return &user, nil
}
