// Package storage defines the vault file-system abstraction.
package storage

import "time"

// DocInfo is lightweight metadata for one vault document.
type DocInfo struct {
	Path    string
	ModTime time.Time
}

// Provider is the interface for vault file operations.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to vault root).
	List(dir string) ([]DocInfo, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path and then applies mtime. A zero
	// mtime leaves the file with its natural write time.
	Write(path string, content []byte, mtime time.Time) error
	// Stat returns metadata for the file at path.
	Stat(path string) (DocInfo, error)
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to vault root).
	Move(oldPath, newPath string) error
}
