package upload

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/anacrolix/torrent/metainfo"
)

// Payload is what gets posted to the creation endpoint: an opaque magnet/URL
// string or the raw bytes of a .torrent file. It lives only while the add
// dialog is open.
type Payload struct {
	// Data is the request body.
	Data []byte

	// Name is a display label: the torrent name for files, the trimmed
	// string otherwise.
	Name string
}

// MagnetPayload builds a payload from a magnet link or URL. Magnet links are
// validated locally before anything is sent; URLs are passed through for the
// server to fetch.
func MagnetPayload(s string) (*Payload, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty magnet link")
	}

	name := s
	if strings.HasPrefix(s, "magnet:") {
		m, err := metainfo.ParseMagnetUri(s)
		if err != nil {
			return nil, fmt.Errorf("invalid magnet link: %w", err)
		}
		if m.DisplayName != "" {
			name = m.DisplayName
		} else {
			name = m.InfoHash.HexString()
		}
	}

	return &Payload{Data: []byte(s), Name: name}, nil
}

// FilePayload builds a payload from a .torrent file on disk, validating it
// locally so an unreadable file fails before the preview request.
func FilePayload(path string) (*Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read torrent file: %w", err)
	}

	mi, err := metainfo.Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse torrent file: %w", err)
	}

	name := mi.HashInfoBytes().HexString()
	if info, err := mi.UnmarshalInfo(); err == nil && info.Name != "" {
		name = info.Name
	}

	return &Payload{Data: data, Name: name}, nil
}
