// Package record persists deployment records: the applied nodes with
// their reported outputs, plus the resolved template outputs.
package record

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/madebygps/functions-cosmos-inventory/internal/ir"
)

// Manager handles reading and writing of deployment records.
type Manager struct {
	path string
	lock *flock.Flock
}

func NewManager(path string) *Manager {
	return &Manager{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Read loads the record from the configured path. A missing file yields
// an empty record with a fresh lineage. Encrypted files are decrypted
// transparently.
func (m *Manager) Read() (*ir.Record, error) {
	raw, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return &ir.Record{
			Version: 1,
			Serial:  0,
			Lineage: uuid.NewString(),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record file %s: %w", m.path, err)
	}

	raw, err = DecryptRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt record: %w", err)
	}

	var rec ir.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse record file %s: %w", m.path, err)
	}
	if rec.Lineage == "" {
		rec.Lineage = uuid.NewString()
	}
	return &rec, nil
}

// Write persists the record, bumping its serial and stamping a fresh
// deployment id and timestamp. If the encryption key environment
// variable is set, the file is transparently encrypted.
func (m *Manager) Write(rec *ir.Record) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create record directory: %w", err)
	}

	rec.Serial++
	rec.DeploymentID = uuid.NewString()
	rec.Timestamp = time.Now().UTC().Format(time.RFC3339)

	content, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}
	content = append(content, '\n')

	encrypted, err := EncryptRecord(content)
	if err != nil {
		return fmt.Errorf("failed to encrypt record: %w", err)
	}

	if err := os.WriteFile(m.path, encrypted, 0644); err != nil {
		return fmt.Errorf("failed to write record file %s: %w", m.path, err)
	}
	return nil
}

// Lock acquires a file lock on the record to prevent concurrent
// modifications.
func (m *Manager) Lock() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	locked, err := m.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire record lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("record is locked by another process (lock file: %s)", m.lock.Path())
	}
	return nil
}

// Unlock releases the record lock.
func (m *Manager) Unlock() error {
	if err := m.lock.Unlock(); err != nil {
		return fmt.Errorf("failed to release record lock: %w", err)
	}
	return nil
}
