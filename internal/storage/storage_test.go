package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/schollz/imbolc/internal/engine"
	"github.com/stretchr/testify/assert"
)

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()

	snap := engine.NewSnapshot()
	snap.Session.BPM = 140
	snap.PianoRoll.Playing = true
	snap.PianoRoll.Playhead = 384

	assert.NoError(t, Save(dir, snap))
	assert.True(t, Exists(dir))

	loaded, err := Load(dir)
	assert.NoError(t, err)
	assert.Equal(t, uint16(140), loaded.Session.BPM)
	assert.True(t, loaded.PianoRoll.Playing)
	assert.Equal(t, uint32(384), loaded.PianoRoll.Playhead)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestExistsFalseForEmptyDir(t *testing.T) {
	assert.False(t, Exists(t.TempDir()))
}

func TestAutoSaveDebouncesToSingleWrite(t *testing.T) {
	dir := t.TempDir()
	snap := engine.NewSnapshot()

	debounceTime = 20 * time.Millisecond
	AutoSave(dir, snap)
	AutoSave(dir, snap)
	AutoSave(dir, snap)

	assert.Eventually(t, func() bool {
		return Exists(dir)
	}, 500*time.Millisecond, 10*time.Millisecond)

	_, err := Load(filepath.Join(dir))
	assert.NoError(t, err)
}
