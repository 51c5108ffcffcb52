package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// DefaultOffice is the subdirectory every person folder is placed under.
const DefaultOffice = "Главный офис"

// PersonFolders lays out per-person folders below a base directory:
// <base>/<office>/<first letter of surname>/<id>-<surname> <firstname> <patronymic>.
type PersonFolders struct {
	baseDir    string
	office     string
	createDirs bool
}

// NewPersonFolders returns a layout rooted at baseDir. When createDirs is set
// derived folders are created on disk.
func NewPersonFolders(baseDir, office string, createDirs bool) *PersonFolders {
	if baseDir == "" {
		baseDir = "Persons"
	}
	if office == "" {
		office = DefaultOffice
	}
	return &PersonFolders{baseDir: baseDir, office: office, createDirs: createDirs}
}

// FolderName formats the leaf folder of a person. Trailing blanks left by an
// empty patronymic are trimmed.
func FolderName(id int64, surname, firstname, patronymic string) string {
	return strings.TrimRight(fmt.Sprintf("%d-%s %s %s", id, surname, firstname, patronymic), " ")
}

// Path returns the folder of a person without touching the disk.
func (f *PersonFolders) Path(id int64, surname, firstname, patronymic string) string {
	letter := "_"
	if r, _ := utf8.DecodeRuneInString(surname); r != utf8.RuneError {
		letter = string(r)
	}
	return filepath.Join(f.baseDir, f.office, letter, FolderName(id, surname, firstname, patronymic))
}

// Derive returns the folder of a person, creating it when configured to.
func (f *PersonFolders) Derive(id int64, surname, firstname, patronymic string) (string, error) {
	path := f.Path(id, surname, firstname, patronymic)
	if f.createDirs {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return "", fmt.Errorf("create person folder: %w", err)
		}
	}
	return path, nil
}

// Discard removes a folder created by Derive for an insert that was rolled
// back. Folders that already hold files are left in place.
func (f *PersonFolders) Discard(path string) error {
	if !f.createDirs || path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove person folder: %w", err)
	}
	return nil
}

// Save writes data to name inside dir, creating dir if needed.
func (f *PersonFolders) Save(dir, name string, data []byte) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("person has no folder")
	}
	if name != filepath.Base(name) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("prepare person folder: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}
