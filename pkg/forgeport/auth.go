package forgeport

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cli/oauth"
	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"

	"trunkline.dev/trunkline/pkg/tlerrors"
)

// Token resolution order, grounded on the teacher's pkg/github/client.go
// NewClient: explicit config token, then OAuth cache, then OAuth device
// flow. The teacher's GITHUB_TOKEN step is not carried over; its gh-CLI
// fallback is NewForge's own fall back to CLIForge below.

const (
	keyringService = "trunkline-github"
	keyringAccount = "oauth-token"
	tokenCacheDir  = ".config/trunkline"
	tokenCacheFile = "github-token.json"

	defaultGitHubHost = "https://github.com"
	defaultScope      = "repo"
)

// TokenCache persists an OAuth token across process runs, grounded on the
// teacher's pkg/github/token_cache.go (keychain-first, file fallback).
type TokenCache interface {
	Get() (*oauth2.Token, error)
	Set(token *oauth2.Token) error
	Clear() error
}

type cachedToken struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

func (c *cachedToken) toOAuth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    c.TokenType,
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
	}
}

func fromOAuth2Token(t *oauth2.Token) *cachedToken {
	return &cachedToken{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       t.Expiry,
	}
}

// NewTokenCache selects a keychain-backed cache when the platform keyring
// is reachable, falling back to a restrictive-permission file otherwise.
func NewTokenCache() TokenCache {
	testService := keyringService + "-test"
	if err := keyring.Set(testService, "test", "test"); err == nil {
		_ = keyring.Delete(testService, "test")
		return &keychainTokenCache{service: keyringService, account: keyringAccount}
	}
	return &fileTokenCache{path: tokenCachePath()}
}

type keychainTokenCache struct {
	service string
	account string
}

func (k *keychainTokenCache) Get() (*oauth2.Token, error) {
	data, err := keyring.Get(k.service, k.account)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, nil
		}
		return nil, tlerrors.NewForgeErrorWithCause("TokenCache.Get", "failed to read from keychain", err)
	}
	var cached cachedToken
	if err := json.Unmarshal([]byte(data), &cached); err != nil {
		return nil, tlerrors.NewForgeErrorWithCause("TokenCache.Get", "failed to parse cached token", err)
	}
	return cached.toOAuth2Token(), nil
}

func (k *keychainTokenCache) Set(token *oauth2.Token) error {
	data, err := json.Marshal(fromOAuth2Token(token))
	if err != nil {
		return tlerrors.NewForgeErrorWithCause("TokenCache.Set", "failed to serialize token", err)
	}
	if err := keyring.Set(k.service, k.account, string(data)); err != nil {
		return tlerrors.NewForgeErrorWithCause("TokenCache.Set", "failed to save to keychain", err)
	}
	return nil
}

func (k *keychainTokenCache) Clear() error {
	if err := keyring.Delete(k.service, k.account); err != nil && err != keyring.ErrNotFound {
		return tlerrors.NewForgeErrorWithCause("TokenCache.Clear", "failed to clear keychain", err)
	}
	return nil
}

type fileTokenCache struct {
	path string
}

func (f *fileTokenCache) Get() (*oauth2.Token, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, tlerrors.NewForgeErrorWithCause("TokenCache.Get", "failed to read token file", err)
	}
	var cached cachedToken
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, tlerrors.NewForgeErrorWithCause("TokenCache.Get", "failed to parse cached token", err)
	}
	return cached.toOAuth2Token(), nil
}

func (f *fileTokenCache) Set(token *oauth2.Token) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return tlerrors.NewForgeErrorWithCause("TokenCache.Set", "failed to create token cache directory", err)
	}
	data, err := json.Marshal(fromOAuth2Token(token))
	if err != nil {
		return tlerrors.NewForgeErrorWithCause("TokenCache.Set", "failed to serialize token", err)
	}
	if err := os.WriteFile(f.path, data, 0600); err != nil {
		return tlerrors.NewForgeErrorWithCause("TokenCache.Set", "failed to write token file", err)
	}
	return nil
}

func (f *fileTokenCache) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return tlerrors.NewForgeErrorWithCause("TokenCache.Clear", "failed to remove token file", err)
	}
	return nil
}

func tokenCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, tokenCacheDir, tokenCacheFile)
}

// OAuthConfig configures the device-flow authentication path, grounded on
// the teacher's pkg/github/oauth.go.
type OAuthConfig struct {
	ClientID string
	Scopes   []string
	HostURL  string
}

// DeviceAuth performs OAuth device-flow authentication: it displays a
// one-time code for the operator to enter at the forge's verification
// URL, then polls until authorization completes.
func DeviceAuth(ctx context.Context, cfg OAuthConfig, stdout io.Writer) (*oauth2.Token, error) {
	if cfg.ClientID == "" {
		return nil, tlerrors.NewForgeError("DeviceAuth", "client_id is required for OAuth device flow")
	}
	hostURL := cfg.HostURL
	if hostURL == "" {
		hostURL = defaultGitHubHost
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{defaultScope}
	}

	host, err := oauth.NewGitHubHost(hostURL)
	if err != nil {
		return nil, tlerrors.NewForgeErrorWithCause("DeviceAuth", "invalid GitHub host URL", err)
	}

	flow := &oauth.Flow{
		Host:     host,
		ClientID: cfg.ClientID,
		Scopes:   scopes,
		Stdout:   stdout,
		Stdin:    os.Stdin,
		DisplayCode: func(code, verificationURL string) error {
			_, _ = stdout.Write([]byte("\n! First, copy your one-time code: " + code + "\n"))
			_, _ = stdout.Write([]byte("- Press Enter to open " + verificationURL + " in your browser...\n"))
			return nil
		},
	}

	token, err := flow.DeviceFlow()
	if err != nil {
		return nil, tlerrors.NewForgeErrorWithCause("DeviceAuth", "device flow failed", err)
	}
	return &oauth2.Token{AccessToken: token.Token, TokenType: token.Type}, nil
}

// NewForge resolves authentication the same way the teacher's
// github.NewClient factory does — explicit token, then cached OAuth
// token, then device flow — and returns an APIForge. If no token can be
// resolved and cfg.AllowCLIFallback is set, it falls back to CLIForge.
func NewForge(ctx context.Context, cfg ForgeAuthConfig, logger *slog.Logger) (ForgePort, error) {
	if cfg.Token != "" {
		return NewAPIForge(cfg.Token, cfg.Owner, cfg.Repo, logger), nil
	}

	cache := NewTokenCache()
	if cached, err := cache.Get(); err == nil && cached != nil && cached.Valid() {
		return NewAPIForge(cached.AccessToken, cfg.Owner, cfg.Repo, logger), nil
	}

	if cfg.ClientID != "" {
		token, err := DeviceAuth(ctx, OAuthConfig{ClientID: cfg.ClientID, HostURL: cfg.HostURL}, os.Stdout)
		if err != nil {
			if cfg.AllowCLIFallback {
				return NewCLIForge(cfg.RepoRoot), nil
			}
			return nil, err
		}
		if err := cache.Set(token); err != nil {
			logger.Warn("failed to persist OAuth token", "error", err)
		}
		return NewAPIForge(token.AccessToken, cfg.Owner, cfg.Repo, logger), nil
	}

	if cfg.AllowCLIFallback {
		return NewCLIForge(cfg.RepoRoot), nil
	}
	return nil, tlerrors.NewForgeError("NewForge", "no forge credentials available")
}

// ForgeAuthConfig is the input to NewForge.
type ForgeAuthConfig struct {
	Token             string
	ClientID          string
	HostURL           string
	Owner             string
	Repo              string
	RepoRoot          string
	AllowCLIFallback  bool
}
