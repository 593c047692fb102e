package memory

import (
	"encoding/json"
	"errors"
	"os"
)

// Transcript is a thread exported for offline reading. It is not loaded back
// into a store.
type Transcript struct {
	Thread ThreadInfo `json:"thread"`
	Turns  []Turn     `json:"turns"`
}

func LoadTranscript(path string) (*Transcript, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var tr Transcript
	if err := json.Unmarshal(b, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

func SaveTranscript(path string, tr Transcript) error {
	b, err := json.MarshalIndent(tr, "", " ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
