package github

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gogithub "github.com/google/go-github/v60/github"

	"repotrack/internal/config"
)

// NewClient creates a GitHub API client from configuration. Two auth modes
// are supported:
//
//   - "oauth" (default): authenticates requests with the OAuth application's
//     client id and secret, which raises the unauthenticated rate limit.
//   - "app": authenticates as a GitHub App installation via ghinstallation,
//     with automatic JWT and installation token management.
func NewClient(cfg config.GitHubConfig) (*gogithub.Client, error) {
	if cfg.Auth == "app" {
		return newAppClient(cfg)
	}

	transport := &gogithub.BasicAuthTransport{
		Username: cfg.ClientID,
		Password: cfg.ClientSecret,
	}
	return gogithub.NewClient(transport.Client()), nil
}

func newAppClient(cfg config.GitHubConfig) (*gogithub.Client, error) {
	appID, err := strconv.ParseInt(cfg.AppID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing app_id: %w", err)
	}
	installationID, err := strconv.ParseInt(cfg.InstallationID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing installation_id: %w", err)
	}

	key, err := resolvePrivateKey([]byte(cfg.PrivateKey), cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("resolving private key: %w", err)
	}

	transport, err := ghinstallation.New(http.DefaultTransport, appID, installationID, key)
	if err != nil {
		return nil, fmt.Errorf("creating installation transport: %w", err)
	}

	return gogithub.NewClient(&http.Client{Transport: transport}), nil
}

// resolvePrivateKey returns PEM-encoded private key bytes from either the
// provided raw/base64-encoded key or by reading from a file path.
func resolvePrivateKey(key []byte, keyPath string) ([]byte, error) {
	if len(key) > 0 {
		s := strings.TrimSpace(string(key))
		if strings.HasPrefix(s, "-----BEGIN") {
			return []byte(s), nil
		}
		// Try base64 decode
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			// Try URL-safe base64
			decoded, err = base64.URLEncoding.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("private key is neither PEM nor valid base64: %w", err)
			}
		}
		return decoded, nil
	}

	if keyPath != "" {
		data, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("reading private key file %s: %w", keyPath, err)
		}
		return data, nil
	}

	return nil, fmt.Errorf("no private key provided: set private_key or private_key_path")
}
