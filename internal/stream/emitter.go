package stream

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/transitai/voice-relay/internal/observability"
	"github.com/transitai/voice-relay/internal/segmenter"
	"github.com/transitai/voice-relay/internal/tts"
)

// Emitter synthesizes segments concurrently and emits them in index order.
//
// Synthesis for all segments is dispatched up front but gated by the shared
// pool, so at most pool-size calls are in flight at once (bounded look-ahead
// pipelining). Completed results land in per-index single-slot channels —
// the in-order reassembly buffer — and the emission cursor walks the indices
// from 0, so a segment that finishes early waits for its predecessors while
// a failed segment is skipped without stalling the rest.
type Emitter struct {
	synth  tts.Synthesizer
	pool   *Pool
	logger zerolog.Logger
}

// NewEmitter creates an emitter using the given synthesizer and worker pool
func NewEmitter(synth tts.Synthesizer, pool *Pool) *Emitter {
	return &Emitter{
		synth:  synth,
		pool:   pool,
		logger: observability.ComponentLogger("emitter"),
	}
}

// Emit returns a channel of events for the given segments: zero or more
// ChunkEvents in strictly increasing index order, then exactly one
// FinalEvent. The channel is closed after the FinalEvent.
//
// Cancelling ctx (client disconnect) stops emission; in-flight synthesis
// calls run to completion and their results are discarded. The caller must
// drain the channel or cancel ctx to release the emitting goroutine.
func (e *Emitter) Emit(ctx context.Context, segments []segmenter.Segment) <-chan Event {
	out := make(chan Event)

	go func() {
		defer close(out)

		total := len(segments)

		// Buffered one deep so workers never block on a departed consumer
		slots := make([]chan tts.Result, total)
		for i := range slots {
			slots[i] = make(chan tts.Result, 1)
		}

		for _, seg := range segments {
			seg := seg
			go func() {
				if err := e.pool.Acquire(ctx); err != nil {
					slots[seg.Index] <- tts.Result{Index: seg.Index, Err: err}
					return
				}
				defer e.pool.Release()
				slots[seg.Index] <- e.synth.Synthesize(ctx, seg.Index, seg.Text)
			}()
		}

		for i := 0; i < total; i++ {
			var res tts.Result
			select {
			case res = <-slots[i]:
			case <-ctx.Done():
				e.logger.Debug().Int("cursor", i).Msg("Stream cancelled, discarding remaining segments")
				return
			}

			if res.Failed() {
				observability.RecordSegmentSkipped()
				e.logger.Warn().Err(res.Err).Int("segment", i).Msg("Skipping segment without audio")
				continue
			}

			ev := ChunkEvent{
				Text:        segments[i].Text,
				Audio:       res.AudioB64,
				ChunkIndex:  i,
				TotalChunks: total,
			}
			select {
			case out <- ev:
				observability.RecordChunkEmitted()
			case <-ctx.Done():
				return
			}
		}

		select {
		case out <- FinalEvent{IsFinal: true}:
		case <-ctx.Done():
		}
	}()

	return out
}
