// Package fileutils holds the scoped file helpers of the vault. Every
// helper opens and closes its own handles, on error paths too.
package fileutils

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/vilshansen/datavault-go/fault"
)

const filePerm = 0600

// ReadContents returns the whole content of a file. A missing file is
// reported as fault.ErrMissingFile.
func ReadContents(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(fault.ErrMissingFile, "cannot read %q", filepath.Base(path))
		}
		return nil, errors.Wrapf(err, "cannot read %q", filepath.Base(path))
	}
	return data, nil
}

// ReadFrom opens a file and hands it to read. The file is closed when
// read returns.
func ReadFrom(path string, read func(r io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrapf(fault.ErrMissingFile, "cannot open %q", filepath.Base(path))
		}
		return errors.Wrapf(err, "cannot open %q", filepath.Base(path))
	}
	defer f.Close()
	return read(bufio.NewReader(f))
}

// WriteContents creates or truncates a file and writes data to it.
func WriteContents(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return errors.Wrapf(err, "cannot create %q", filepath.Base(path))
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "cannot write %q", filepath.Base(path))
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "cannot close %q", filepath.Base(path))
	}
	return nil
}

// CreateEmpty creates a zero-length file, truncating an existing one.
func CreateEmpty(path string) error {
	return WriteContents(path, nil)
}

// Exists reports whether path names an existing file.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Size returns the size of a file in bytes.
func Size(path string) (int64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.Wrapf(fault.ErrMissingFile, "cannot stat %q", filepath.Base(path))
		}
		return 0, errors.Wrapf(err, "cannot stat %q", filepath.Base(path))
	}
	return fi.Size(), nil
}

// ReplaceFile streams new content for target into tmp, flushes it to disk
// and renames it over target. The target is either the old or the new
// content after a crash, never a mix of both. tmp is removed on failure.
func ReplaceFile(target, tmp string, write func(w io.Writer) error) (err error) {
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm)
	if err != nil {
		return errors.Wrapf(err, "cannot create %q", filepath.Base(tmp))
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	w := bufio.NewWriter(f)
	if err = write(w); err != nil {
		return err
	}
	if err = w.Flush(); err != nil {
		return errors.Wrapf(err, "cannot write %q", filepath.Base(tmp))
	}
	if err = f.Sync(); err != nil {
		return errors.Wrapf(err, "cannot sync %q", filepath.Base(tmp))
	}
	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "cannot close %q", filepath.Base(tmp))
	}
	if err = os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "cannot replace %q", filepath.Base(target))
	}
	return nil
}
