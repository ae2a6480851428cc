package ai

import (
	"io"
	"iter"
	"strings"
	"sync"
)

// StreamChunk is one incremental unit of a streaming response. The terminal
// chunk carries a non-empty FinishReason and usually empty Content; all chunks
// before it have an empty FinishReason.
type StreamChunk struct {
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// Done reports whether this is the terminal chunk of the stream.
func (c StreamChunk) Done() bool {
	return c.FinishReason != ""
}

// ChunkStream wraps a streaming iterator. It is lazy, finite and one-shot:
// chunks are produced as network data arrives, each step of the caller's range
// loop may block, and the sequence cannot be restarted.
//
// Important: the backend transport (an open HTTP response body) is released when
// the iterator runs to completion, when the caller breaks out of the loop, or
// when a mid-stream error is yielded. A stream that is never iterated must be
// released with Close.
type ChunkStream struct {
	iterator iter.Seq2[StreamChunk, error]
	closer   io.Closer
	once     sync.Once
}

// NewChunkStream creates a ChunkStream from a raw iterator. closer may be nil;
// when set it is closed at most once. Iterators that release the transport
// themselves must do so through the returned stream's Close.
func NewChunkStream(iterator iter.Seq2[StreamChunk, error], closer io.Closer) *ChunkStream {
	return &ChunkStream{iterator: iterator, closer: closer}
}

// NewChunkSliceStream returns a stream over a fixed list of chunks, useful for
// tests and for adapters that receive a complete response in one piece.
func NewChunkSliceStream(chunks ...StreamChunk) *ChunkStream {
	return NewChunkStream(func(yield func(StreamChunk, error) bool) {
		for _, chunk := range chunks {
			if !yield(chunk, nil) {
				return
			}
		}
	}, nil)
}

// Iter returns the underlying iterator for use with range-over-func loops.
//
// Example:
//
//	for chunk, err := range stream.Iter() {
//	    if err != nil { handle error }
//	    fmt.Print(chunk.Content)
//	}
func (stream *ChunkStream) Iter() iter.Seq2[StreamChunk, error] {
	return stream.iterator
}

// Close releases the transport of a stream that will not be iterated. It is
// safe to call after iteration and more than once.
func (stream *ChunkStream) Close() error {
	var err error
	stream.once.Do(func() {
		if stream.closer != nil {
			err = stream.closer.Close()
		}
	})
	return err
}

// Collect consumes the entire stream and returns the accumulated content and
// final finish reason as a Response. A mid-stream error stops collection and is
// returned together with the partial response.
func (stream *ChunkStream) Collect() (*Response, error) {
	defer func() { _ = stream.Close() }()

	accumulated := &Response{}
	var content strings.Builder

	for chunk, err := range stream.iterator {
		if err != nil {
			accumulated.Content = content.String()
			return accumulated, err
		}
		content.WriteString(chunk.Content)
		if chunk.FinishReason != "" {
			accumulated.FinishReason = chunk.FinishReason
		}
	}

	accumulated.Content = content.String()
	return accumulated, nil
}
