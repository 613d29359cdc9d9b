// Package stream drives segment synthesis through the shared worker pool and
// emits results to the client strictly in segment order.
package stream

// Event is one unit of the streamed response
type Event interface {
	event()
}

// ChunkEvent carries one synthesized segment. ChunkIndex and TotalChunks let
// the client detect gaps left by skipped segments.
type ChunkEvent struct {
	Text        string `json:"text"`
	Audio       string `json:"audio"` // base64-encoded audio payload
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
	IsFinal     bool   `json:"is_final"`
}

// FinalEvent terminates the stream. Exactly one is sent per request, always
// last, even when every segment failed.
type FinalEvent struct {
	IsFinal bool `json:"is_final"`
}

func (ChunkEvent) event() {}
func (FinalEvent) event() {}
