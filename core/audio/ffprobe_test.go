package audio

import (
	"errors"
	"testing"
)

func TestNewFFprobeDerivesBinary(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "ffprobe"},
		{"ffmpeg", "ffprobe"},
		{"/usr/local/bin/ffmpeg", "/usr/local/bin/ffprobe"},
		{"/opt/ffmpeg/bin/ffmpeg", "/opt/ffmpeg/bin/ffprobe"},
	}
	for _, tt := range tests {
		if got := NewFFprobe(tt.in).Path(); got != tt.want {
			t.Errorf("NewFFprobe(%q).Path() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    float64
		wantErr error
	}{
		{name: "ok", output: `{"format":{"duration":"183.240000"}}`, want: 183.24},
		{name: "missing", output: `{"format":{}}`, wantErr: ErrNoDuration},
		{name: "not available", output: `{"format":{"duration":"N/A"}}`, wantErr: ErrNoDuration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDuration([]byte(tt.output))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := parseDuration([]byte("not json")); err == nil {
		t.Error("expected error for malformed output")
	}
}
