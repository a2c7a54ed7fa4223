package pricefile

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Unzip extracts zipPath into targetDir and removes the archive afterwards.
func Unzip(zipPath, targetDir string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open archive %s: %w", zipPath, err)
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		reader.Close()
		return err
	}

	for _, file := range reader.File {
		if err := extractOne(file, targetDir); err != nil {
			reader.Close()
			return err
		}
	}
	reader.Close()

	if err := os.Remove(zipPath); err != nil {
		fmt.Printf("warning: could not remove archive %s: %v\n", zipPath, err)
	}
	return nil
}

func extractOne(file *zip.File, targetDir string) error {
	// reject entries escaping the target directory
	dest := filepath.Join(targetDir, filepath.Clean("/"+file.Name))
	if !strings.HasPrefix(dest, filepath.Clean(targetDir)+string(os.PathSeparator)) && dest != filepath.Clean(targetDir) {
		return fmt.Errorf("archive entry %q escapes target dir", file.Name)
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	in, err := file.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// FindPriceFile returns the extracted price list: the first *.csv in dir, or
// the first *.txt when no csv is present.
func FindPriceFile(dir string) (string, error) {
	for _, pattern := range []string{"*.csv", "*.txt"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", err
		}
		if len(matches) > 0 {
			return matches[0], nil
		}
	}
	return "", fmt.Errorf("no price file (*.csv or *.txt) in %s", dir)
}
