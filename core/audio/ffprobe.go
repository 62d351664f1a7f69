package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrNoDuration is returned when ffprobe ran but reported no usable duration.
var ErrNoDuration = errors.New("duration not found")

// FFprobe implements Prober by shelling out to ffprobe.
type FFprobe struct {
	ffprobePath string
}

// NewFFprobe derives the ffprobe binary from the configured ffmpeg path,
// e.g. /usr/bin/ffmpeg -> /usr/bin/ffprobe.
func NewFFprobe(ffmpegPath string) *FFprobe {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	dir, base := filepath.Split(ffmpegPath)
	base = strings.Replace(base, "ffmpeg", "ffprobe", 1)
	return &FFprobe{ffprobePath: dir + base}
}

// Path returns the ffprobe binary that will be executed.
func (p *FFprobe) Path() string {
	return p.ffprobePath
}

// ffprobeOutput defines the structure for ffprobe JSON output.
type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// GetAudioDuration uses ffprobe to get the duration of an audio source in seconds.
func (p *FFprobe) GetAudioDuration(ctx context.Context, source string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		source,
	}

	cmd := exec.CommandContext(ctx, p.ffprobePath, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe execution failed for %s: %w\nFFprobe Error: %s", source, err, stderr.String())
	}

	duration, err := parseDuration(out.Bytes())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", source, err)
	}
	return duration, nil
}

func parseDuration(output []byte) (float64, error) {
	var probeData ffprobeOutput
	if err := json.Unmarshal(output, &probeData); err != nil {
		return 0, fmt.Errorf("failed to unmarshal ffprobe output: %w", err)
	}
	if probeData.Format.Duration == "" || probeData.Format.Duration == "N/A" {
		return 0, ErrNoDuration
	}
	duration, err := strconv.ParseFloat(probeData.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration string %q: %w", probeData.Format.Duration, err)
	}
	if duration < 0 {
		return 0, ErrNoDuration
	}
	return duration, nil
}
