package upload

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMagnetPayload(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  bool
		wantName string
	}{
		{
			name:     "magnet_with_display_name",
			input:    "magnet:?xt=urn:btih:c12fe1c06bba254a9dc9f519b335aa7c1367a88a&dn=linux.iso",
			wantName: "linux.iso",
		},
		{
			name:     "magnet_without_display_name",
			input:    "magnet:?xt=urn:btih:c12fe1c06bba254a9dc9f519b335aa7c1367a88a",
			wantName: "c12fe1c06bba254a9dc9f519b335aa7c1367a88a",
		},
		{
			name:     "url_passes_through",
			input:    "https://example.com/linux.torrent",
			wantName: "https://example.com/linux.torrent",
		},
		{
			name:     "surrounding_whitespace_trimmed",
			input:    "  https://example.com/linux.torrent\n",
			wantName: "https://example.com/linux.torrent",
		},
		{
			name:    "empty_input",
			input:   "   ",
			wantErr: true,
		},
		{
			name:    "malformed_magnet",
			input:   "magnet:?xt=urn:btih:tooshort",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := MagnetPayload(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("MagnetPayload failed: %v", err)
			}
			if p.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", p.Name, tt.wantName)
			}
		})
	}
}

func TestFilePayloadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.torrent")
	if err := os.WriteFile(path, []byte("not a torrent"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := FilePayload(path); err == nil {
		t.Fatal("expected a parse error for a non-bencode file")
	}
}

func TestFilePayloadMissingFile(t *testing.T) {
	if _, err := FilePayload(filepath.Join(t.TempDir(), "missing.torrent")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
