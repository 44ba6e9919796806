package main

import (
	"log"

	"github.com/schollz/imbolc/internal/engine"
	"github.com/schollz/imbolc/internal/storage"
	"github.com/schollz/imbolc/internal/types"
)

// loadOrDemoSnapshot loads a saved snapshot from saveDir if one exists,
// otherwise builds a small three-track demo project so `serve`/`monitor`
// have something to run against without requiring a prior save.
func loadOrDemoSnapshot(saveDir string) *engine.Snapshot {
	if storage.Exists(saveDir) {
		snap, err := storage.Load(saveDir)
		if err == nil {
			return snap
		}
		log.Printf("could not load save from %s, using demo project: %v", saveDir, err)
	}
	return demoSnapshot()
}

func demoSnapshot() *engine.Snapshot {
	snap := engine.NewSnapshot()

	lead := types.NewTrack(1, types.SourceOscillator)
	lead.Name = "lead"
	bass := types.NewTrack(2, types.SourceOscillator)
	bass.Name = "bass"
	kit := types.NewTrack(3, types.SourceDrumKit)
	kit.Name = "drums"
	kit.Drum = types.NewDrumSequencer()

	snap.Tracks = []*types.Track{lead, bass, kit}
	snap.PianoRoll = types.NewPianoRollSnapshot()
	snap.Session = types.NewSessionState()
	return snap
}
