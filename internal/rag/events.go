package rag

import "context"

// Event is one element of a streamed answer. The producing goroutine is
// decoupled from whatever loop renders the events.
type Event interface {
	isEvent()
}

// TextDelta carries one incremental fragment of the answer text.
type TextDelta struct {
	Text string
}

// Done closes a stream with the fully assembled Result.
type Done struct {
	Result *Result
}

// ErrorEvent closes a stream that failed mid-answer.
type ErrorEvent struct {
	Err error
}

func (TextDelta) isEvent()  {}
func (Done) isEvent()       {}
func (ErrorEvent) isEvent() {}

// StreamCompleter is an optional Completer capability: deliver the
// response incrementally through onDelta, then return the full text.
type StreamCompleter interface {
	StreamComplete(ctx context.Context, system, user string, onDelta func(string)) (string, error)
}

// AnswerStream behaves like Answer but emits the response incrementally.
// The returned channel yields TextDelta events followed by exactly one
// Done or ErrorEvent, then closes. When the underlying model does not
// support streaming the whole answer arrives as a single delta.
func (c *Composer) AnswerStream(ctx context.Context, question string, hits []Hit, history []Turn) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		emit := func(e Event) bool {
			select {
			case events <- e:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if len(hits) == 0 {
			if !emit(TextDelta{Text: NoPassageAnswer}) {
				return
			}
			emit(Done{Result: &Result{
				Answer: NoPassageAnswer,
				Pages:  []int{},
				Hits:   []Hit{},
			}})
			return
		}

		user := c.userPrompt(question, hits, history)

		var answer string
		var err error
		if streamer, ok := c.llm.(StreamCompleter); ok {
			answer, err = streamer.StreamComplete(ctx, SystemPrompt, user, func(delta string) {
				emit(TextDelta{Text: delta})
			})
		} else {
			answer, err = c.llm.Complete(ctx, SystemPrompt, user)
			if err == nil && !emit(TextDelta{Text: answer}) {
				return
			}
		}
		if err != nil {
			emit(ErrorEvent{Err: err})
			return
		}

		emit(Done{Result: &Result{
			Answer: answer,
			Pages:  citedPages(hits),
			Hits:   hits,
		}})
	}()

	return events
}
