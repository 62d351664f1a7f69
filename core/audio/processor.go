package audio

import "context"

// Prober reports the playable length of an audio source. The source may be a
// local path or an http(s) URL.
type Prober interface {
	GetAudioDuration(ctx context.Context, source string) (float64, error)
}
