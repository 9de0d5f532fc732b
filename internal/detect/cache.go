package detect

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/vmunix/introskip/internal/fsutil"
	"github.com/vmunix/introskip/internal/timerange"
)

// Cache files start with the fingerprinted window (two float64 seconds) and
// the point count (uint32), followed by the points. All little-endian.
const cacheHeaderSize = 8 + 8 + 4

// FileCache keeps fingerprints as little-endian uint32 files under a directory.
type FileCache struct {
	dir string
}

// NewFileCache creates a cache rooted at dir. The directory is created on first save.
func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

func (c *FileCache) path(episodeID int64, mode Mode) string {
	return filepath.Join(c.dir, string(mode), strconv.FormatInt(episodeID, 10)+".fp")
}

// Load returns the cached fingerprint of window, if any. A fingerprint taken
// over a different window is a miss.
func (c *FileCache) Load(episodeID int64, mode Mode, window timerange.Range) ([]uint32, bool) {
	data, err := os.ReadFile(c.path(episodeID, mode))
	if err != nil || len(data) < cacheHeaderSize {
		return nil, false
	}

	start := math.Float64frombits(binary.LittleEndian.Uint64(data[0:]))
	end := math.Float64frombits(binary.LittleEndian.Uint64(data[8:]))
	if start != window.Start || end != window.End {
		return nil, false
	}

	count := int(binary.LittleEndian.Uint32(data[16:]))
	body := data[cacheHeaderSize:]
	if count == 0 || len(body) != count*4 {
		return nil, false
	}

	points := make([]uint32, count)
	for i := range points {
		points[i] = binary.LittleEndian.Uint32(body[i*4:])
	}
	return points, true
}

// Save writes the fingerprint of window to the cache, replacing any previous one.
func (c *FileCache) Save(episodeID int64, mode Mode, window timerange.Range, points []uint32) error {
	data := make([]byte, 0, cacheHeaderSize+len(points)*4)
	data = binary.LittleEndian.AppendUint64(data, math.Float64bits(window.Start))
	data = binary.LittleEndian.AppendUint64(data, math.Float64bits(window.End))
	data = binary.LittleEndian.AppendUint32(data, uint32(len(points)))
	for _, v := range points {
		data = binary.LittleEndian.AppendUint32(data, v)
	}
	if err := fsutil.WriteFileAtomic(c.path(episodeID, mode), data, 0o644); err != nil {
		return fmt.Errorf("write fingerprint cache: %w", err)
	}
	return nil
}

// Forget deletes the cached fingerprints of one episode.
func (c *FileCache) Forget(episodeID int64) error {
	for _, mode := range AllModes {
		if err := os.Remove(c.path(episodeID, mode)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("forget fingerprint of episode %d: %w", episodeID, err)
		}
	}
	return nil
}

// Remove deletes every cached fingerprint for mode.
func (c *FileCache) Remove(mode Mode) error {
	if err := os.RemoveAll(filepath.Join(c.dir, string(mode))); err != nil {
		return fmt.Errorf("clear fingerprint cache: %w", err)
	}
	return nil
}
