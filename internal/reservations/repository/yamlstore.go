package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	reserrors "yeyak/internal/reservations/errors"
	"yeyak/pkg/kafka"
	"yeyak/pkg/logger"
	"yeyak/pkg/model"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

const (
	activeFileName = "active_reservations.yaml"
	closedFileName = "closed_reservations.yaml"
	logFileName    = "reservation_events.yaml"
	lockFileName   = ".reservations.lock"

	mirrorPublishTimeout = 5 * time.Second
)

// AuditMirror receives a copy of every appended audit event. The file log
// stays the source of truth; mirror failures are logged and swallowed.
type AuditMirror interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// Store persists the active set, the closed set and the append-only audit
// log as three flat YAML lists. Every write goes through a temp-file rename
// so a reader never observes a partially written file, and an advisory file
// lock serializes read-modify-write cycles across processes.
type Store struct {
	baseDir    string
	activeFile string
	closedFile string
	logFile    string
	fileLock   *flock.Flock
	logger     *logger.Logger
	mirror     AuditMirror
}

func NewStore(baseDir string, log *logger.Logger) (*Store, error) {
	s := &Store{
		baseDir:    baseDir,
		activeFile: filepath.Join(baseDir, activeFileName),
		closedFile: filepath.Join(baseDir, closedFileName),
		logFile:    filepath.Join(baseDir, logFileName),
		fileLock:   flock.New(filepath.Join(baseDir, lockFileName)),
		logger:     log,
	}
	if err := s.ensureFiles(); err != nil {
		return nil, err
	}
	return s, nil
}

// SetMirror attaches an optional audit-event mirror.
func (s *Store) SetMirror(mirror AuditMirror) {
	s.mirror = mirror
}

func (s *Store) ensureFiles() error {
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir %s: %w", s.baseDir, err)
	}
	for _, path := range []string{s.activeFile, s.closedFile, s.logFile} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte("[]\n"), 0o644); err != nil {
				return fmt.Errorf("failed to initialize %s: %w", path, err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}
	return nil
}

// WithLock runs fn while holding the advisory file lock. Mutating operations
// must wrap their whole load-modify-save cycle in it.
func (s *Store) WithLock(fn func() error) error {
	if err := s.fileLock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire reservation lock: %w", err)
	}
	defer func() {
		if err := s.fileLock.Unlock(); err != nil {
			s.logger.Warn("Failed to release reservation lock", "error", err)
		}
	}()
	return fn()
}

func (s *Store) LoadActive() ([]model.ReservationRecord, error) {
	return s.loadRecords(s.activeFile)
}

func (s *Store) LoadClosed() ([]model.ReservationRecord, error) {
	return s.loadRecords(s.closedFile)
}

func (s *Store) SaveActive(records []model.ReservationRecord) error {
	return s.saveRecords(s.activeFile, records)
}

func (s *Store) SaveClosed(records []model.ReservationRecord) error {
	return s.saveRecords(s.closedFile, records)
}

func (s *Store) loadRecords(path string) ([]model.ReservationRecord, error) {
	nodes, err := s.readListNodes(path)
	if err != nil {
		return nil, err
	}

	records := make([]model.ReservationRecord, 0, len(nodes))
	for index, node := range nodes {
		if node.Kind != yaml.MappingNode {
			s.skipRow(path, index, "row is not a mapping")
			continue
		}
		var row recordRow
		if err := node.Decode(&row); err != nil {
			s.skipRow(path, index, err.Error())
			continue
		}
		record, err := row.toRecord()
		if err != nil {
			s.skipRow(path, index, err.Error())
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Store) saveRecords(path string, records []model.ReservationRecord) error {
	rows := make([]recordRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, toRow(record))
	}
	return s.writeList(path, rows)
}

// readListNodes parses the file as a YAML sequence. A missing file is
// recreated empty; unparsable content or a non-list document is quarantined
// and healed to an empty list.
func (s *Store) readListNodes(path string) ([]*yaml.Node, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("[]\n"), 0o644); err != nil {
			return nil, fmt.Errorf("failed to recreate %s: %w", path, err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, s.recoverCorrupted(path, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, nil
	}
	if root.Kind != yaml.SequenceNode {
		return nil, s.recoverCorrupted(path, reserrors.ErrCorruptFile)
	}
	return root.Content, nil
}

// recoverCorrupted copies the bad file to a timestamped backup, replaces the
// original with an empty list and emits a recovery event. Recovering the
// audit log itself stays silent to avoid recursing into the broken log.
// The load still succeeds from the caller's perspective.
func (s *Store) recoverCorrupted(path string, cause error) error {
	timestamp := time.Now().Format("20060102150405")
	ext := filepath.Ext(path)
	stem := filepath.Base(path[:len(path)-len(ext)])
	backupPath := filepath.Join(s.baseDir, fmt.Sprintf("%s.corrupt.%s%s", stem, timestamp, ext))

	if raw, err := os.ReadFile(path); err == nil {
		if err := os.WriteFile(backupPath, raw, 0o644); err != nil {
			s.logger.Warn("Failed to write corruption backup", "path", backupPath, "error", err)
		}
	}

	if err := os.WriteFile(path, []byte("[]\n"), 0o644); err != nil {
		return fmt.Errorf("failed to heal %s: %w", path, err)
	}

	s.logger.Warn("Recovered corrupted file",
		"file", filepath.Base(path),
		"backup", filepath.Base(backupPath),
		"reason", cause.Error(),
	)

	if path != s.logFile {
		if err := s.AppendEvent(model.EventYAMLRecovered, map[string]any{
			"file":   filepath.Base(path),
			"backup": filepath.Base(backupPath),
			"reason": cause.Error(),
		}, time.Now()); err != nil {
			s.logger.Warn("Failed to log recovery event", "error", err)
		}
	}
	return nil
}

func (s *Store) skipRow(path string, index int, reason string) {
	if path == s.logFile {
		return
	}
	if err := s.AppendEvent(model.EventYAMLRowSkipped, map[string]any{
		"file":   filepath.Base(path),
		"index":  index,
		"reason": reason,
	}, time.Now()); err != nil {
		s.logger.Warn("Failed to log skipped row", "error", err)
	}
}

// writeList writes rows to a sibling temp file and renames it over the
// destination. The temp file is removed on every path, so a failed write
// leaves the previous committed file untouched and no stray temps behind.
func (s *Store) writeList(path string, rows any) error {
	data, err := yaml.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	tempPath := path + ".tmp"
	defer os.Remove(tempPath)

	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write YAML file %s: %w", path, err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to commit YAML file %s: %w", path, err)
	}
	return nil
}

// AppendEvent appends one row to the audit log, protected by the same
// atomic-write discipline, and mirrors it when a mirror is attached. Callers
// must append only after the corresponding state write committed.
func (s *Store) AppendEvent(eventType string, payload map[string]any, at time.Time) error {
	rows, err := s.loadEventRows()
	if err != nil {
		return err
	}

	rows = append(rows, eventRow{
		EventTime: at.Format(model.SecondLayout),
		EventType: eventType,
		Payload:   payload,
	})
	if err := s.writeList(s.logFile, rows); err != nil {
		return err
	}

	s.mirrorEvent(eventType, payload, at)
	return nil
}

func (s *Store) loadEventRows() ([]eventRow, error) {
	nodes, err := s.readListNodes(s.logFile)
	if err != nil {
		return nil, err
	}

	rows := make([]eventRow, 0, len(nodes))
	for _, node := range nodes {
		if node.Kind != yaml.MappingNode {
			continue
		}
		var row eventRow
		if err := node.Decode(&row); err != nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadEvents returns the audit log decoded into typed events. The core never
// reads these back; this exists for operators and tests.
func (s *Store) LoadEvents() ([]model.AuditEvent, error) {
	rows, err := s.loadEventRows()
	if err != nil {
		return nil, err
	}

	events := make([]model.AuditEvent, 0, len(rows))
	for _, row := range rows {
		at, err := time.ParseInLocation(model.SecondLayout, row.EventTime, time.Local)
		if err != nil {
			continue
		}
		events = append(events, model.AuditEvent{Time: at, Type: row.EventType, Payload: row.Payload})
	}
	return events, nil
}

func (s *Store) mirrorEvent(eventType string, payload map[string]any, at time.Time) {
	if s.mirror == nil {
		return
	}

	value, err := json.Marshal(map[string]any{
		"event_time": at.Format(model.SecondLayout),
		"event_type": eventType,
		"payload":    payload,
	})
	if err != nil {
		s.logger.Warn("Failed to encode audit event for mirror", "type", eventType, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), mirrorPublishTimeout)
	defer cancel()

	if err := s.mirror.Publish(ctx, kafka.Message{Key: eventType, Value: value}); err != nil {
		s.logger.Warn("Failed to mirror audit event", "type", eventType, "error", err)
	}
}
