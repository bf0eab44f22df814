// ABOUTME: Session provider boundary and a file-backed implementation.
// ABOUTME: Tracks the signed-in identity in a YAML file written atomically.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/2389-research/jot/internal/mdfile"
	"github.com/2389-research/jot/internal/models"
)

// ErrInvalidIdentity is returned by Login for identities that cannot own entries.
var ErrInvalidIdentity = errors.New("invalid identity")

// Provider yields the current identity and can end the session.
type Provider interface {
	// CurrentIdentity returns the signed-in identity, or "" when there is none.
	CurrentIdentity(ctx context.Context) (string, error)

	// SignOut ends the current session.
	SignOut(ctx context.Context) error
}

// Manager is a Provider that can also start a session.
type Manager interface {
	Provider
	Login(ctx context.Context, identity string) error
}

// sessionFile is the on-disk session record.
type sessionFile struct {
	Identity   string `yaml:"identity"`
	SignedInAt string `yaml:"signed_in_at"`
}

// FileProvider stores the session in a YAML file.
type FileProvider struct {
	path string
	now  func() time.Time
}

// NewFileProvider creates a provider backed by the file at path.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path, now: time.Now}
}

// Path returns the session file location.
func (p *FileProvider) Path() string {
	return p.path
}

// CurrentIdentity reads the session file. A missing file means nobody is signed in.
func (p *FileProvider) CurrentIdentity(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var sf sessionFile
	if err := mdfile.ReadYAML(p.path, &sf); err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	if sf.Identity != "" && !models.ValidIdentity(sf.Identity) {
		return "", fmt.Errorf("session file holds invalid identity %q", sf.Identity)
	}
	return sf.Identity, nil
}

// Login records identity as the signed-in user.
func (p *FileProvider) Login(ctx context.Context, identity string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !models.ValidIdentity(identity) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentity, identity)
	}

	sf := sessionFile{
		Identity:   identity,
		SignedInAt: mdfile.FormatTime(p.now()),
	}
	if err := mdfile.WriteYAML(p.path, sf); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// SignOut removes the session file. Signing out twice is not an error.
func (p *FileProvider) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
