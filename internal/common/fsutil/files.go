// Package fsutil provides the small set of file helpers the keyring needs:
// existence checks, whole-file reads, line reads and appends. Key files and
// save data blobs are small, so everything works on whole files.
package fsutil

import (
	"bufio"
	"os"
	"path/filepath"
)

// FileExists checks if a file exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ReadFile reads an entire file into memory.
func ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// ReadLines reads a file line by line and returns an array of strings.
func ReadLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

// AppendStringToFile appends content to a file, creating it (and its parent
// directory) if necessary.
func AppendStringToFile(path string, content string) error {
	if err := CreateDirIfNotExists(filepath.Dir(path)); err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = file.WriteString(content)
	return err
}

// WriteFile writes data to a file, creating parent directories as needed.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := CreateDirIfNotExists(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, data, perm)
}
