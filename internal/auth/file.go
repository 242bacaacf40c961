package auth

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gofrs/flock"
)

// lockTimeout bounds how long a file mirror operation waits for another
// process (a login in a second terminal) to release the lock.
const lockTimeout = 500 * time.Millisecond

// fileMirror stores the credential as a JSON file under the state directory.
// Writes are atomic (temp file + rename) and guarded by a cross-process
// advisory lock so concurrent folio processes do not tear the file.
type fileMirror struct {
	dir string
}

func newFileMirror(dir string) fileMirror {
	return fileMirror{dir: dir}
}

type credentialFile struct {
	AccessToken string `json:"access_token"`
}

func (m fileMirror) filePath() string {
	return filepath.Join(m.dir, "credentials.json")
}

func (m fileMirror) lockPath() string {
	return filepath.Join(m.dir, ".credentials.lock")
}

// withLock runs fn holding the cross-process lock. Fail-open on lock
// timeout: a brief race is preferable to a hung CLI when a crashed process
// left the lock behind.
func (m fileMirror) withLock(fn func() error) error {
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return err
	}

	fl := flock.New(m.lockPath())
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil && ctx.Err() == nil {
		return err
	}
	if locked {
		defer func() { _ = fl.Unlock() }()
	}
	return fn()
}

func (m fileMirror) load() (string, error) {
	data, err := os.ReadFile(m.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", errNotFound
		}
		return "", err
	}

	var cf credentialFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return "", err
	}
	if cf.AccessToken == "" {
		return "", errNotFound
	}
	return cf.AccessToken, nil
}

func (m fileMirror) save(token string) error {
	return m.withLock(func() error {
		data, err := json.MarshalIndent(credentialFile{AccessToken: token}, "", "  ")
		if err != nil {
			return err
		}

		tmpFile, err := os.CreateTemp(m.dir, "credentials-*.json.tmp")
		if err != nil {
			return err
		}
		tmpPath := tmpFile.Name()

		if _, err := tmpFile.Write(data); err != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
			return err
		}
		if err := tmpFile.Chmod(0600); err != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
			return err
		}
		if err := tmpFile.Close(); err != nil {
			os.Remove(tmpPath)
			return err
		}

		// Unix: rename atomically replaces the destination.
		// Windows: rename fails when destination exists; remove and retry.
		destPath := m.filePath()
		if err := os.Rename(tmpPath, destPath); err != nil {
			if runtime.GOOS == "windows" {
				_ = os.Remove(destPath)
				return os.Rename(tmpPath, destPath)
			}
			os.Remove(tmpPath)
			return err
		}
		return nil
	})
}

func (m fileMirror) remove() error {
	return m.withLock(func() error {
		if err := os.Remove(m.filePath()); err != nil {
			if os.IsNotExist(err) {
				return errNotFound
			}
			return err
		}
		return nil
	})
}
