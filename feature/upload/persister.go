package upload

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Subfolder is created under the upload directory to hold the files.
const Subfolder = "Json"

// TimestampLayout renders yyyyMMddHHmmss.fff.
const TimestampLayout = "20060102150405.000"

// maxCollisions bounds how far a filename timestamp is bumped when two uploads of the
// same command land in the same millisecond.
const maxCollisions = 1000

// Record describes one persisted upload. It is never modified after creation.
type Record struct {
	Command   string
	Filename  string
	Directory string
	Body      string
	CreatedAt time.Time
}

// Path returns the full path of the written file.
func (r Record) Path() string {
	return filepath.Join(r.Directory, r.Filename)
}

// Persister writes upload bodies to disk, one file per request.
type Persister struct {
	now   func() time.Time
	getwd func() (string, error)
}

// NewPersister creates a Persister using the wall clock and the process working directory.
func NewPersister() *Persister {
	return &Persister{now: time.Now, getwd: os.Getwd}
}

// CommandName returns the last non-empty path segment of rawURL, or "" if there is none.
func CommandName(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(u.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := strings.TrimSpace(segments[i])
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		return strings.NewReplacer("\\", "_", ":", "_").Replace(seg)
	}
	return ""
}

// Directory resolves the destination folder for dir ("" means the working directory).
func (p *Persister) Directory(dir string) (string, error) {
	base := strings.TrimSpace(dir)
	if base == "" {
		wd, err := p.getwd()
		if err != nil {
			return "", fmt.Errorf("failed to resolve working directory: %w", err)
		}
		base = wd
	}
	return filepath.Join(base, Subfolder), nil
}

// Persist writes body under dir for the command named by rawURL.
// ok is false when rawURL has no path segment; nothing is written in that case.
func (p *Persister) Persist(rawURL, body, dir string) (rec Record, ok bool, err error) {
	command := CommandName(rawURL)
	if command == "" {
		return Record{}, false, nil
	}

	target, err := p.Directory(dir)
	if err != nil {
		return Record{}, false, err
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return Record{}, false, fmt.Errorf("failed to create upload directory %s: %w", target, err)
	}

	created := p.now()
	for i := 0; i < maxCollisions; i++ {
		stamp := created.Add(time.Duration(i) * time.Millisecond)
		name := fmt.Sprintf("%s_%s.json", command, stamp.Format(TimestampLayout))

		err := writeNew(filepath.Join(target, name), body)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return Record{}, false, err
		}
		return Record{Command: command, Filename: name, Directory: target, Body: body, CreatedAt: stamp}, true, nil
	}
	return Record{}, false, fmt.Errorf("no free filename for %s in %s", command, target)
}

func writeNew(path, body string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(body); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write upload %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close upload %s: %w", path, err)
	}
	return nil
}
