package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Auth modes reported by /health.
const (
	AuthModeNone           = "none"
	AuthModeAPIKey         = "api_key"
	AuthModeIAMToken       = "iam_token"
	AuthModeServiceAccount = "service_account"
)

// Credentials authorizes outbound requests to Yandex Cloud.
type Credentials interface {
	Authorize(ctx context.Context, req *http.Request) error
	Mode() string
}

type apiKeyCredentials struct {
	key string
}

func (c apiKeyCredentials) Authorize(_ context.Context, req *http.Request) error {
	req.Header.Set("Authorization", "Api-Key "+c.key)
	return nil
}

func (c apiKeyCredentials) Mode() string { return AuthModeAPIKey }

type iamTokenCredentials struct {
	token string
}

func (c iamTokenCredentials) Authorize(_ context.Context, req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	return nil
}

func (c iamTokenCredentials) Mode() string { return AuthModeIAMToken }

func NewAPIKeyCredentials(key string) Credentials { return apiKeyCredentials{key: key} }

func NewIAMTokenCredentials(token string) Credentials { return iamTokenCredentials{token: token} }

// ServiceAccountKey is the authorized key JSON issued for a service account.
type ServiceAccountKey struct {
	ID               string `json:"id"`
	ServiceAccountID string `json:"service_account_id"`
	PrivateKey       string `json:"private_key"`
}

// ServiceAccountCredentials exchanges a signed JWT for a short-lived IAM
// token and caches it until shortly before expiry.
type ServiceAccountCredentials struct {
	key      ServiceAccountKey
	iamURL   string
	client   *http.Client
	now      func() time.Time
	signKey  any
	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

const (
	jwtLifetime       = time.Hour
	tokenRefreshSlack = 5 * time.Minute
)

func LoadServiceAccountKey(path string) (ServiceAccountKey, error) {
	var key ServiceAccountKey
	data, err := os.ReadFile(path)
	if err != nil {
		return key, fmt.Errorf("failed to read service account key: %w", err)
	}
	if err := json.Unmarshal(data, &key); err != nil {
		return key, fmt.Errorf("failed to parse service account key: %w", err)
	}
	if key.ID == "" || key.ServiceAccountID == "" || key.PrivateKey == "" {
		return key, fmt.Errorf("service account key %s is incomplete", path)
	}
	return key, nil
}

func NewServiceAccountCredentials(key ServiceAccountKey, iamURL string, client *http.Client) (*ServiceAccountCredentials, error) {
	// Keys issued by the console carry a banner line before the PEM block.
	pemData := key.PrivateKey
	if i := strings.Index(pemData, "-----BEGIN"); i > 0 {
		pemData = pemData[i:]
	}
	signKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(pemData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account private key: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ServiceAccountCredentials{
		key:     key,
		iamURL:  iamURL,
		client:  client,
		now:     time.Now,
		signKey: signKey,
	}, nil
}

func (c *ServiceAccountCredentials) Mode() string { return AuthModeServiceAccount }

func (c *ServiceAccountCredentials) Authorize(ctx context.Context, req *http.Request) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// Token returns a cached IAM token, minting a new one when needed.
func (c *ServiceAccountCredentials) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.token != "" && now.Add(tokenRefreshSlack).Before(c.tokenExp) {
		return c.token, nil
	}

	signed, err := c.signJWT(now)
	if err != nil {
		return "", err
	}

	body, _ := json.Marshal(map[string]string{"jwt": signed})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.iamURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build IAM request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("IAM token exchange: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("IAM token exchange: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out struct {
		IAMToken  string    `json:"iamToken"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.IAMToken == "" {
		return "", fmt.Errorf("IAM token exchange: unexpected response")
	}
	if out.ExpiresAt.IsZero() {
		out.ExpiresAt = now.Add(jwtLifetime)
	}

	c.token = out.IAMToken
	c.tokenExp = out.ExpiresAt
	return c.token, nil
}

func (c *ServiceAccountCredentials) signJWT(now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    c.key.ServiceAccountID,
		Audience:  jwt.ClaimStrings{c.iamURL},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(jwtLifetime)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodPS256, claims)
	token.Header["kid"] = c.key.ID

	signed, err := token.SignedString(c.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign IAM JWT: %w", err)
	}
	return signed, nil
}

// ResolveCredentials picks the auth strategy from whichever credential is
// present: API key, then IAM token, then service account key file. It
// returns nil when none is configured.
func ResolveCredentials(apiKey, iamToken, saKeyFile, iamURL string) (Credentials, error) {
	switch {
	case apiKey != "":
		return NewAPIKeyCredentials(apiKey), nil
	case iamToken != "":
		return NewIAMTokenCredentials(iamToken), nil
	case saKeyFile != "":
		key, err := LoadServiceAccountKey(saKeyFile)
		if err != nil {
			return nil, err
		}
		creds, err := NewServiceAccountCredentials(key, iamURL, nil)
		if err != nil {
			return nil, err
		}
		return creds, nil
	default:
		return nil, nil
	}
}
