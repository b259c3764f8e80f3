package fileutils

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/vilshansen/datavault-go/fault"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.dv")
	content := []byte("The quick brown fox jumps over the lazy dog.")

	if err := WriteContents(path, content); err != nil {
		t.Fatalf("WriteContents failed: %v", err)
	}

	got, err := ReadContents(path)
	if err != nil {
		t.Fatalf("ReadContents failed: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("read data does not match written data")
	}

	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if fi.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", fi.Mode().Perm())
	}
}

func TestReadContents_Missing(t *testing.T) {
	_, err := ReadContents(filepath.Join(t.TempDir(), "missing.dv"))
	if !errors.Is(err, fault.ErrMissingFile) {
		t.Errorf("ReadContents() error = %v, want ErrMissingFile", err)
	}
	if fault.StatusOf(err) != fault.FileErr {
		t.Errorf("status = %v, want FileErr", fault.StatusOf(err))
	}
}

func TestCreateEmptyAndSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.dv")
	if err := WriteContents(path, []byte("old")); err != nil {
		t.Fatalf("WriteContents failed: %v", err)
	}
	if err := CreateEmpty(path); err != nil {
		t.Fatalf("CreateEmpty failed: %v", err)
	}
	size, err := Size(path)
	if err != nil || size != 0 {
		t.Errorf("Size() = %d, %v, want 0, nil", size, err)
	}
	if !Exists(path) {
		t.Error("Exists() = false for an existing file")
	}
	if Exists(path + ".nope") {
		t.Error("Exists() = true for a missing file")
	}
}

func TestReplaceFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "data.dv")
	tmp := filepath.Join(dir, "data_tmp.dv")
	if err := WriteContents(target, []byte("old content")); err != nil {
		t.Fatalf("WriteContents failed: %v", err)
	}

	err := ReplaceFile(target, tmp, func(w io.Writer) error {
		_, err := w.Write([]byte("new content"))
		return err
	})
	if err != nil {
		t.Fatalf("ReplaceFile failed: %v", err)
	}

	got, _ := ReadContents(target)
	if string(got) != "new content" {
		t.Errorf("target = %q, want %q", got, "new content")
	}
	if Exists(tmp) {
		t.Error("temporary file left behind")
	}
}

func TestReplaceFile_WriterFailureKeepsTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "data.dv")
	tmp := filepath.Join(dir, "data_tmp.dv")
	if err := WriteContents(target, []byte("old content")); err != nil {
		t.Fatalf("WriteContents failed: %v", err)
	}

	boom := errors.New("boom")
	err := ReplaceFile(target, tmp, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("ReplaceFile() error = %v, want %v", err, boom)
	}

	got, _ := ReadContents(target)
	if string(got) != "old content" {
		t.Errorf("target changed to %q after a failed rewrite", got)
	}
	if Exists(tmp) {
		t.Error("temporary file left behind")
	}
}

func TestReadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iv.dv")
	if err := WriteContents(path, []byte("0123456789")); err != nil {
		t.Fatalf("WriteContents failed: %v", err)
	}

	var got []byte
	err := ReadFrom(path, func(r io.Reader) error {
		got = make([]byte, 4)
		_, err := io.ReadFull(r, got)
		return err
	})
	if err != nil {
		t.Fatalf("ReadFrom failed: %v", err)
	}
	if string(got) != "0123" {
		t.Errorf("ReadFrom() read %q, want %q", got, "0123")
	}

	err = ReadFrom(filepath.Join(t.TempDir(), "missing.dv"), func(io.Reader) error {
		t.Error("read called for a missing file")
		return nil
	})
	if !errors.Is(err, fault.ErrMissingFile) {
		t.Errorf("ReadFrom() error = %v, want ErrMissingFile", err)
	}
}
