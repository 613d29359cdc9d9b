package tts

import "context"

// Result is the outcome of synthesizing one segment. An empty AudioB64 with
// a non-nil Err means synthesis failed and the segment must be skipped in
// the output stream rather than aborting the response.
type Result struct {
	Index    int
	AudioB64 string
	Err      error
}

// Failed reports whether this result carries no usable audio
func (r Result) Failed() bool {
	return r.Err != nil || r.AudioB64 == ""
}

// Synthesizer converts one text segment into base64-encoded audio.
//
// Implementations must be safe for concurrent use: segments of the same
// request are synthesized in parallel against the shared worker pool.
// Synthesize never returns an error directly; failures are captured in the
// Result so the caller's ordering logic stays uniform.
type Synthesizer interface {
	Synthesize(ctx context.Context, index int, text string) Result
}
