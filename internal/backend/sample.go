package backend

import "github.com/schollz/imbolc/internal/getbpm"

// SampleInfo is what the engine needs to know about a sample once loaded:
// its assigned buffer id plus whatever tempo metadata could be read from
// the filename or its audio data, so a drum pad's one-shot can be
// time-stretched to the session tempo.
type SampleInfo struct {
	BufferID BufferID
	Beats    float64
	BPM      float64
}

type BufferID = int32

// LoadSample allocates a buffer id, reads the file's filename-encoded or
// guessed tempo via getbpm, and returns the /b_allocRead message alongside
// the metadata the caller should stash against the pad.
func (b *Backend) LoadSample(path string) (Message, SampleInfo, error) {
	bufID := b.NextBufferID()
	beats, bpm, err := getbpm.GetBPM(path)
	if err != nil {
		beats, bpm = 0, 0
	}
	return LoadBufferFromFile(bufID, path), SampleInfo{BufferID: bufID, Beats: beats, BPM: bpm}, nil
}
