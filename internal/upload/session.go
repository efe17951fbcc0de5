// Package upload implements the two-phase add-torrent workflow: preview the
// payload's file manifest without committing, let the user pick a file
// subset, then confirm with the computed filter.
package upload

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"rqwatch/internal/api"
	"rqwatch/internal/log"
)

// Phase is the dialog's position in the workflow.
type Phase int

const (
	// PhaseIdle means no payload is set; the dialog is closed.
	PhaseIdle Phase = iota
	// PhasePreviewing means the manifest request is in flight; confirm is
	// disabled.
	PhasePreviewing
	// PhaseSelecting means the manifest arrived and files can be toggled.
	PhaseSelecting
	// PhaseConfirming means the commit request is in flight.
	PhaseConfirming
)

// String returns a string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhasePreviewing:
		return "Previewing"
	case PhaseSelecting:
		return "Selecting"
	case PhaseConfirming:
		return "Confirming"
	default:
		return "Unknown"
	}
}

// Session holds the transient state of one add-torrent dialog. Switching
// payloads resets the selection; closing the dialog (success, cancel or
// preview failure) destroys everything.
type Session struct {
	client *api.Client

	mu       sync.Mutex
	phase    Phase
	payload  *Payload
	manifest *api.TorrentDetails
	selected map[int]bool
	lastErr  error
}

// NewSession creates an idle session.
func NewSession(client *api.Client) *Session {
	return &Session{
		client: client,
		phase:  PhaseIdle,
	}
}

// Preview submits the payload with list_only+overwrite so the server parses
// it and returns the file manifest without committing. A preview failure
// clears the whole session: the payload is unusable and there is no retry.
func (s *Session) Preview(ctx context.Context, payload *Payload) error {
	s.mu.Lock()
	s.phase = PhasePreviewing
	s.payload = payload
	s.manifest = nil
	s.selected = nil
	s.lastErr = nil
	s.mu.Unlock()

	resp, err := s.client.AddTorrent(ctx, payload.Data, api.AddTorrentOptions{
		ListOnly:  true,
		Overwrite: true,
		ShowError: true,
	})
	if err != nil {
		log.Warn("upload").
			Str("payload", payload.Name).
			Err(err).
			Msg("Preview failed, discarding payload")
		s.Reset()
		return err
	}

	s.mu.Lock()
	s.manifest = &resp.Details
	s.selected = make(map[int]bool, len(resp.Details.Files))
	for i := range resp.Details.Files {
		s.selected[i] = true
	}
	s.phase = PhaseSelecting
	s.mu.Unlock()

	log.Info("upload").
		Str("payload", payload.Name).
		Int("files", len(resp.Details.Files)).
		Msg("Preview returned file manifest")

	return nil
}

// Toggle flips the inclusion of one file index.
func (s *Session) Toggle(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.manifest == nil || index < 0 || index >= len(s.manifest.Files) {
		return
	}
	if s.selected[index] {
		delete(s.selected, index)
	} else {
		s.selected[index] = true
	}
}

// SelectedIndices returns the selected file indices in ascending order.
func (s *Session) SelectedIndices() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedIndicesLocked()
}

func (s *Session) selectedIndicesLocked() []int {
	indices := make([]int, 0, len(s.selected))
	for i := range s.selected {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}

// AllSelected reports whether every file in the manifest is selected.
func (s *Session) AllSelected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifest != nil && len(s.selected) == len(s.manifest.Files)
}

// CanConfirm reports whether the confirm action is available: a manifest is
// present, nothing is in flight, and at least one file is selected.
func (s *Session) CanConfirm() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == PhaseSelecting && len(s.selected) > 0
}

// Confirm commits the torrent with the selected file subset. The file filter
// is omitted when every file is selected. A confirm failure keeps the dialog
// open so the user can retry or cancel.
func (s *Session) Confirm(ctx context.Context) error {
	s.mu.Lock()
	if s.phase != PhaseSelecting || len(s.selected) == 0 {
		s.mu.Unlock()
		return fmt.Errorf("nothing to confirm")
	}
	opts := api.AddTorrentOptions{Overwrite: true}
	if len(s.selected) != len(s.manifest.Files) {
		opts.OnlyFiles = s.selectedIndicesLocked()
	}
	payload := s.payload
	s.phase = PhaseConfirming
	s.lastErr = nil
	s.mu.Unlock()

	_, err := s.client.AddTorrent(ctx, payload.Data, opts)
	if err != nil {
		s.mu.Lock()
		s.phase = PhaseSelecting
		s.lastErr = err
		s.mu.Unlock()

		log.Warn("upload").
			Str("payload", payload.Name).
			Err(err).
			Msg("Confirm failed, keeping dialog open")
		return err
	}

	log.Info("upload").
		Str("payload", payload.Name).
		Msg("Torrent added")

	s.Reset()
	return nil
}

// Reset closes the dialog and destroys the payload, manifest and selection.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseIdle
	s.payload = nil
	s.manifest = nil
	s.selected = nil
	s.lastErr = nil
}

// Phase returns the current workflow phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Manifest returns the previewed file manifest, or nil before the preview
// completes.
func (s *Session) Manifest() *api.TorrentDetails {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifest
}

// Selected reports whether a file index is currently selected.
func (s *Session) Selected(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected[index]
}

// PayloadName returns the display label of the current payload.
func (s *Session) PayloadName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.payload == nil {
		return ""
	}
	return s.payload.Name
}

// Err returns the last confirm failure, shown inside the dialog.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
