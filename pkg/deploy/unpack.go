package deploy

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// unpackArchive extracts a zip archive's contents into destDir, replacing
// any previous contents. There is no library in the teacher's or the wider
// pack's dependency stack for zip extraction, so this uses the standard
// library's archive/zip directly; see the grounding ledger.
func unpackArchive(archive []byte, destDir string) error {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	if err := os.RemoveAll(destDir); err != nil {
		return fmt.Errorf("clear previous unpack dir: %w", err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create unpack dir: %w", err)
	}

	for _, f := range zr.File {
		if err := extractEntry(f, destDir); err != nil {
			return fmt.Errorf("extract %q: %w", f.Name, err)
		}
	}

	return nil
}

func extractEntry(f *zip.File, destDir string) error {
	targetPath := filepath.Join(destDir, f.Name)

	// guard against zip-slip: reject entries that escape destDir.
	if !strings.HasPrefix(targetPath, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("entry escapes unpack directory")
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(targetPath, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return err
	}

	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(targetPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// readEntryScript reads the deployment's entry script source from the
// unpacked directory.
func readEntryScript(destDir, entryScript string) (string, error) {
	path := filepath.Join(destDir, entryScript)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read entry script %q: %w", entryScript, err)
	}
	return string(data), nil
}
