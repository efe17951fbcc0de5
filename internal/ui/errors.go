package ui

import (
	"sync"

	"rqwatch/internal/api"
)

// ErrorSlot is the closeable error display slot. Requests made with
// showError publish here; the user dismisses the message explicitly. A new
// error replaces the previous one.
type ErrorSlot struct {
	mu  sync.Mutex
	err *api.RequestError
}

// ReportError implements api.ErrorSink.
func (s *ErrorSlot) ReportError(err *api.RequestError) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Current returns the displayed error, or nil.
func (s *ErrorSlot) Current() *api.RequestError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Clear dismisses the displayed error.
func (s *ErrorSlot) Clear() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
}
