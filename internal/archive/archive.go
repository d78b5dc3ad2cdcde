// Package archive persists scored series so results can be fetched after an
// asynchronous job finishes.
//
// Each record lives in its own file <dir>/<id>.sstr:
//
//	[magic "SSTR"][version:1][flags:1][crc32 IEEE of body:4 LE][body]
//
// body (snappy-compressed when flagCompressed is set):
//
//	[meta length: uvarint][meta JSON][scores: XOR float stream]
package archive

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soltixdb/sst/internal/analytics/changepoint"
	"github.com/soltixdb/sst/internal/compression"
	"github.com/soltixdb/sst/internal/logging"
)

const (
	fileExt       = ".sstr"
	formatVersion = 1
	headerSize    = 10

	flagCompressed = 1 << 0
)

var magic = [4]byte{'S', 'S', 'T', 'R'}

var (
	ErrNotFound  = errors.New("archive: record not found")
	ErrInvalidID = errors.New("archive: invalid record id")
	ErrCorrupt   = errors.New("archive: corrupt record")
)

// Record is one archived scoring run.
type Record struct {
	ID           string                    `json:"id"`
	Label        string                    `json:"label,omitempty"`
	Algorithm    string                    `json:"algorithm"`
	Params       changepoint.Params        `json:"params"`
	Scores       []float64                 `json:"-"`
	ChangePoints []changepoint.ChangePoint `json:"change_points"`
	CreatedAt    time.Time                 `json:"created_at"`
}

// Summary describes a record without its scores.
type Summary struct {
	ID           string    `json:"id"`
	Label        string    `json:"label,omitempty"`
	Algorithm    string    `json:"algorithm"`
	Length       int       `json:"length"`
	ChangePoints int       `json:"change_points"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store is a directory of archived records.
type Store struct {
	dir        string
	compressor compression.Compressor
	logger     *logging.Logger

	mu sync.RWMutex
}

// New opens (creating if needed) an archive directory.
func New(dir string, compress bool, logger *logging.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("archive: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	if logger == nil {
		logger = logging.Global()
	}

	algo := compression.None
	if compress {
		algo = compression.Snappy
	}
	compressor, err := compression.GetCompressor(algo)
	if err != nil {
		return nil, err
	}

	return &Store{
		dir:        dir,
		compressor: compressor,
		logger:     logger.Component("archive"),
	}, nil
}

// Dir returns the archive directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes rec, assigning an ID and creation time when unset. The stored
// record is returned.
func (s *Store) Save(rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	} else if err := validateID(rec.ID); err != nil {
		return Record{}, err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	data, err := s.encode(rec)
	if err != nil {
		return Record{}, err
	}

	path := s.path(rec.ID)
	tmpPath := path + ".tmp"

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return Record{}, fmt.Errorf("failed to write record: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return Record{}, fmt.Errorf("failed to rename record: %w", err)
	}

	s.logger.Debug("Archived score record",
		"id", rec.ID,
		"algorithm", rec.Algorithm,
		"length", len(rec.Scores),
		"bytes", len(data))
	return rec, nil
}

// Load reads the record with the given id.
func (s *Store) Load(id string) (*Record, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, err := os.ReadFile(s.path(id))
	s.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read record: %w", err)
	}

	rec, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", id, err)
	}
	return rec, nil
}

// List returns summaries of all records, newest first. Unreadable files are
// skipped with a warning.
func (s *Store) List() ([]Summary, error) {
	s.mu.RLock()
	entries, err := os.ReadDir(s.dir)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("failed to list archive: %w", err)
	}

	summaries := make([]Summary, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		id := strings.TrimSuffix(e.Name(), fileExt)
		rec, err := s.Load(id)
		if err != nil {
			s.logger.Warn("Skipping unreadable archive record", "id", id, "error", err)
			continue
		}
		summaries = append(summaries, rec.Summary())
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].ID < summaries[j].ID
		}
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// Delete removes a record.
func (s *Store) Delete(id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// Summary returns the record without its scores.
func (r *Record) Summary() Summary {
	return Summary{
		ID:           r.ID,
		Label:        r.Label,
		Algorithm:    r.Algorithm,
		Length:       len(r.Scores),
		ChangePoints: len(r.ChangePoints),
		CreatedAt:    r.CreatedAt,
	}
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+fileExt)
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

func (s *Store) encode(rec Record) ([]byte, error) {
	meta, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record metadata: %w", err)
	}

	body := binary.AppendUvarint(nil, uint64(len(meta)))
	body = append(body, meta...)
	body = append(body, compression.EncodeFloats(rec.Scores)...)

	var flags byte
	if s.compressor.Algorithm() != compression.None {
		flags |= flagCompressed
	}
	body, err = s.compressor.Compress(body)
	if err != nil {
		return nil, err
	}

	out := make([]byte, headerSize, headerSize+len(body))
	copy(out, magic[:])
	out[4] = formatVersion
	out[5] = flags
	binary.LittleEndian.PutUint32(out[6:], crc32.ChecksumIEEE(body))
	return append(out, body...), nil
}

func decode(data []byte) (*Record, error) {
	if len(data) < headerSize || !bytes.Equal(data[:4], magic[:]) {
		return nil, fmt.Errorf("%w: bad header", ErrCorrupt)
	}
	if data[4] != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, data[4])
	}
	flags := data[5]
	body := data[headerSize:]
	if crc32.ChecksumIEEE(body) != binary.LittleEndian.Uint32(data[6:]) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	if flags&flagCompressed != 0 {
		var err error
		body, err = compression.SnappyCompressor{}.Decompress(body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	}

	metaLen, n := binary.Uvarint(body)
	if n <= 0 || uint64(len(body)-n) < metaLen {
		return nil, fmt.Errorf("%w: bad metadata length", ErrCorrupt)
	}
	body = body[n:]

	var rec Record
	if err := json.Unmarshal(body[:metaLen], &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	scores, err := compression.DecodeFloats(body[metaLen:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	rec.Scores = scores
	return &rec, nil
}
