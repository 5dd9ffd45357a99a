package ops

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zlormann/giveaway-linux/internal/errors"
)

// maxInputBytes bounds any JSON input we read fully into memory.
const maxInputBytes = 10 * 1024 * 1024

// readFile reads a required input file.
func readFile(path string) ([]byte, error) {
	data, exists, err := readFileIfExists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NewFileNotFound(path)
	}
	return data, nil
}

// readFileIfExists reads an optional input file. exists is false when the file is absent.
func readFileIfExists(path string) (data []byte, exists bool, err error) {
	f, err := openFileNoFollowRead(path)
	if err != nil {
		if errors.Is(err, errors.ErrFileNotFound) {
			return nil, false, nil
		}
		if _, ok := errors.As(err); ok {
			return nil, false, err
		}
		return nil, false, errors.NewInternal(fmt.Errorf("open %s: %w", path, err))
	}
	defer f.Close()

	data, err = io.ReadAll(io.LimitReader(f, maxInputBytes+1))
	if err != nil {
		return nil, true, errors.NewInternal(fmt.Errorf("read %s: %w", path, err))
	}
	if len(data) > maxInputBytes {
		return nil, true, errors.NewInvalidRequest(fmt.Sprintf("%s exceeds %d bytes", path, maxInputBytes))
	}
	return data, true, nil
}

// encodeJSON renders v the way every data file is stored:
// two-space indent, non-ASCII kept as is, trailing newline.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, errors.NewInternal(err)
	}
	return buf.Bytes(), nil
}

// writeJSON encodes v and replaces path with it atomically.
func writeJSON(path string, v any) error {
	data, err := encodeJSON(v)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// writeFileAtomic writes data to a temp file next to path, then renames it into place.
// On any failure the previous file (if any) is left untouched.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return err
		}
		return errors.NewInternal(fmt.Errorf("failed to create temp file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}

	// Close before the rename (required on Windows; fine elsewhere).
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close temp file: %w", err))
	}
	file = nil

	// Refuse to replace a symlinked destination
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest(fmt.Sprintf("%s is a symlink", path))
	}

	if err := os.Rename(tempPath, path); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to finalize %s: %w", filepath.Base(path), err))
	}

	success = true
	return nil
}
