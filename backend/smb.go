package backend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"os"

	"github.com/hirochachacha/go-smb2"
)

// SMBBackend implements Backend on an SMB/CIFS share: one file per blob,
// keyed by the hex SHA-256 of its bytes, optionally under a directory
// inside the share.
type SMBBackend struct {
	session *smb2.Session
	share   *smb2.Share
	dir     string
}

// SMBConfig names the connection parameters for an SMBBackend.
type SMBConfig struct {
	Address  string // host:port, usually port 445
	User     string
	Password string
	Domain   string
	Share    string
	Dir      string // optional directory inside the share
}

// NewSMBBackend dials the server, authenticates, mounts the configured
// share, and creates the blob directory if one is configured.
func NewSMBBackend(cfg SMBConfig) (*SMBBackend, error) {
	if cfg.Address == "" || cfg.Share == "" {
		return nil, fmt.Errorf("%w: smb address and share are required", ErrRejected)
	}

	conn, err := net.Dial("tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrUnavailable, cfg.Address, err)
	}

	dialer := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     cfg.User,
			Password: cfg.Password,
			Domain:   cfg.Domain,
		},
	}
	session, err := dialer.Dial(conn)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: negotiate with %s: %v", ErrRejected, cfg.Address, err)
	}

	share, err := session.Mount(cfg.Share)
	if err != nil {
		_ = session.Logoff()
		return nil, fmt.Errorf("%w: mount share %q: %v", ErrRejected, cfg.Share, err)
	}

	if cfg.Dir != "" {
		if err := share.MkdirAll(cfg.Dir, 0755); err != nil {
			_ = share.Umount()
			_ = session.Logoff()
			return nil, fmt.Errorf("%w: create directory %q: %v", ErrUnavailable, cfg.Dir, err)
		}
	}

	return &SMBBackend{session: session, share: share, dir: cfg.Dir}, nil
}

// Close unmounts the share and logs the session off.
func (s *SMBBackend) Close() error {
	if err := s.share.Umount(); err != nil {
		return fmt.Errorf("%w: umount: %v", ErrUnavailable, err)
	}
	if err := s.session.Logoff(); err != nil {
		return fmt.Errorf("%w: logoff: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *SMBBackend) filePath(key string) string {
	if s.dir == "" {
		return key
	}
	return s.dir + `\` + key
}

func (s *SMBBackend) Put(_ context.Context, data []byte) (string, error) {
	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])

	if err := s.share.WriteFile(s.filePath(key), data, 0644); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", ErrUnavailable, key, err)
	}
	return key, nil
}

func (s *SMBBackend) Get(_ context.Context, key string) ([]byte, error) {
	data, err := s.share.ReadFile(s.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, key, err)
	}
	return data, nil
}

func (s *SMBBackend) List(_ context.Context) ([]string, error) {
	dir := s.dir
	if dir == "" {
		dir = "."
	}
	infos, err := s.share.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrUnavailable, err)
	}
	var keys []string
	for _, info := range infos {
		if !info.IsDir() {
			keys = append(keys, info.Name())
		}
	}
	return keys, nil
}

func (s *SMBBackend) Delete(_ context.Context, key string) error {
	err := s.share.Remove(s.filePath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: delete %s: %v", ErrUnavailable, key, err)
	}
	return nil
}
