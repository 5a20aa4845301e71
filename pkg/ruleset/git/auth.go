package git

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"mercator-hq/matchgram/pkg/config"
)

// AuthProvider supplies credentials for clone and pull.
type AuthProvider interface {
	// Auth returns the transport credentials, or nil for anonymous access.
	Auth() (transport.AuthMethod, error)

	// Type names the provider for logs.
	Type() string
}

// TokenAuth authenticates over HTTPS with a personal access token.
type TokenAuth struct {
	token string
}

func (a *TokenAuth) Auth() (transport.AuthMethod, error) {
	if a.token == "" {
		return nil, fmt.Errorf("token cannot be empty")
	}
	// Hosting services ignore the user name for token auth.
	return &http.BasicAuth{Username: "git", Password: a.token}, nil
}

func (a *TokenAuth) Type() string { return "token" }

// SSHAuth authenticates with a private key file.
type SSHAuth struct {
	keyPath  string
	password string
}

// Auth loads the key. Keys readable by group or others are refused.
func (a *SSHAuth) Auth() (transport.AuthMethod, error) {
	if a.keyPath == "" {
		return nil, fmt.Errorf("ssh key path cannot be empty")
	}
	info, err := os.Stat(a.keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access SSH key file: %w", err)
	}
	if mode := info.Mode().Perm(); mode&0o077 != 0 {
		return nil, fmt.Errorf("SSH key file permissions too open (%o), should be 0600", mode)
	}

	auth, err := ssh.NewPublicKeysFromFile("git", a.keyPath, a.password)
	if err != nil {
		return nil, fmt.Errorf("failed to load SSH key: %w", err)
	}
	return auth, nil
}

func (a *SSHAuth) Type() string { return "ssh" }

// NoAuth is used for public and local repositories.
type NoAuth struct{}

func (NoAuth) Auth() (transport.AuthMethod, error) { return nil, nil }

func (NoAuth) Type() string { return "none" }

// NewAuthProvider builds the provider named by cfg.Type.
func NewAuthProvider(cfg config.GitAuthConfig) (AuthProvider, error) {
	switch cfg.Type {
	case "token":
		if cfg.Token == "" {
			return nil, fmt.Errorf("token auth requires non-empty token")
		}
		return &TokenAuth{token: cfg.Token}, nil
	case "ssh":
		if cfg.SSHKeyPath == "" {
			return nil, fmt.Errorf("ssh auth requires ssh_key_path")
		}
		return &SSHAuth{keyPath: cfg.SSHKeyPath, password: cfg.SSHKeyPassword}, nil
	case "none", "":
		return NoAuth{}, nil
	default:
		return nil, fmt.Errorf("unknown auth type: %s", cfg.Type)
	}
}
