// Package storage persists engine snapshots to disk: a debounced
// autosave and an explicit save/load pair, both gzip+JSON underneath.
//
// Grounded on the teacher's internal/storage/storage.go for the
// debounce-timer and gzip-then-jsoniter shape; adapted to serialize
// engine.Snapshot instead of the teacher's tracker SaveData.
package storage

import (
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/schollz/imbolc/internal/engine"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const dataFileName = "data.json.gz"

var (
	mu           sync.Mutex
	timer        *time.Timer
	debounceTime = 1 * time.Second
)

// AutoSave schedules a debounced save of snap to dir: a save arriving
// within debounceTime of a prior one cancels and replaces the pending
// timer, so a burst of edits produces a single write.
func AutoSave(dir string, snap *engine.Snapshot) {
	mu.Lock()
	defer mu.Unlock()

	if timer != nil {
		timer.Stop()
	}

	timer = time.AfterFunc(debounceTime, func() {
		go func() {
			start := time.Now()
			if err := Save(dir, snap); err != nil {
				log.Printf("autosave failed: %v", err)
				return
			}
			log.Printf("autosaved in %d ms", time.Since(start).Milliseconds())
		}()
	})
}

// Save writes snap to dir/data.json.gz, creating dir if needed.
func Save(dir string, snap *engine.Snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: creating save dir: %w", err)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("storage: marshaling snapshot: %w", err)
	}

	path := filepath.Join(dir, dataFileName)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: creating save file: %w", err)
	}
	defer file.Close()

	gzWriter := gzip.NewWriter(file)
	if _, err := gzWriter.Write(data); err != nil {
		gzWriter.Close()
		return fmt.Errorf("storage: writing gzipped snapshot: %w", err)
	}
	return gzWriter.Close()
}

// Load reads dir/data.json.gz and returns the decoded snapshot.
func Load(dir string) (*engine.Snapshot, error) {
	path := filepath.Join(dir, dataFileName)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("storage: opening save file: %w", err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("storage: reading gzip header: %w", err)
	}
	defer gzReader.Close()

	data, err := io.ReadAll(gzReader)
	if err != nil {
		return nil, fmt.Errorf("storage: decompressing snapshot: %w", err)
	}

	snap := engine.NewSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("storage: unmarshaling snapshot: %w", err)
	}
	return snap, nil
}

// Exists reports whether dir already holds a saved snapshot.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, dataFileName))
	return err == nil
}
