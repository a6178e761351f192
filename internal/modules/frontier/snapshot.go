package frontier

import (
	"fmt"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Snapshot is the last computed frontier, persisted to disk so a restarted
// server can serve results immediately instead of re-solving.
type Snapshot struct {
	SavedAt    time.Time   `msgpack:"saved_at"`
	Assets     []string    `msgpack:"assets"`
	Frontier   *Frontier   `msgpack:"frontier"`
	Benchmarks []Benchmark `msgpack:"benchmarks"`
}

// SaveSnapshot writes the snapshot atomically (temp file + rename).
func SaveSnapshot(path string, snap *Snapshot) error {
	data, err := msgpack.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by SaveSnapshot. A missing file
// satisfies errors.Is(err, fs.ErrNotExist).
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap Snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
