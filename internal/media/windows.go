package media

// Window is one time-bounded span of a media file, in seconds.
type Window struct {
	StartSec float64
	EndSec   float64
}

// Duration returns the window length in seconds.
func (w Window) Duration() float64 {
	return w.EndSec - w.StartSec
}

// ChunkWindows computes overlapping audio chunk windows for a file of the
// given duration. Full windows of chunkSec advance by (chunkSec - overlapSec).
// After the last full window a trailing partial window is added only when
// the uncovered remainder exceeds the overlap (a remainder within the
// overlap is already audible in the last chunk) and the partial window is
// at least minSec long. A file too short for even one full window still
// gets a single whole-file window as long as it meets the minimum.
//
// A 20s file with chunkSec=10, overlapSec=2 yields [0,10] and [8,18].
func ChunkWindows(durationSec, chunkSec, overlapSec, minSec float64) []Window {
	if durationSec <= 0 || chunkSec <= 0 {
		return nil
	}
	if overlapSec < 0 {
		overlapSec = 0
	}
	if overlapSec >= chunkSec {
		overlapSec = 0
	}

	step := chunkSec - overlapSec

	var windows []Window
	var lastEnd float64
	for start := 0.0; start+chunkSec <= durationSec; start += step {
		windows = append(windows, Window{StartSec: start, EndSec: start + chunkSec})
		lastEnd = start + chunkSec
	}

	remainder := durationSec - lastEnd
	if remainder > overlapSec || len(windows) == 0 {
		start := durationSec - chunkSec
		if start < 0 {
			start = 0
		}
		tail := Window{StartSec: start, EndSec: durationSec}
		if tail.Duration() >= minSec {
			windows = append(windows, tail)
		}
	}

	return windows
}

// FrameTimestamps returns numFrames sample offsets evenly spread across the
// duration, starting at zero. Mirrors uniform frame sampling: frame i sits
// at i * duration / numFrames.
func FrameTimestamps(durationSec float64, numFrames int) []float64 {
	if durationSec <= 0 || numFrames <= 0 {
		return nil
	}
	ts := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		ts[i] = float64(i) * durationSec / float64(numFrames)
	}
	return ts
}
