package rootable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// EventReader decodes a stream of JSON event objects, one per event.
type EventReader struct {
	decoder   *json.Decoder
	skip      int
	maxEvents int
	// EvtCount is the number of events decoded so far, skipped ones included.
	EvtCount int
	returned int
}

// NewEventReader skips the first skip events and then returns at most
// maxEvents of them.
func NewEventReader(r io.Reader, skip, maxEvents int) *EventReader {
	return &EventReader{
		decoder:   json.NewDecoder(r),
		skip:      skip,
		maxEvents: maxEvents,
	}
}

// Next returns the next event, or io.EOF once the stream or the event
// budget is exhausted.
func (r *EventReader) Next() (EventType, error) {
	for {
		if r.returned >= r.maxEvents {
			if configuration.Verbosity > 0 {
				logger.Info("Max events reached", "reader")
			}
			return EventType{}, io.EOF
		}

		var event EventType
		if err := r.decoder.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return EventType{}, io.EOF
			}
			return EventType{}, fmt.Errorf("error decoding event %d: %w", r.EvtCount, err)
		}
		r.EvtCount++

		if r.EvtCount <= r.skip {
			if configuration.Verbosity > 1 {
				message := fmt.Sprintf("Skipping event %d", event.Number)
				logger.Info(message, "reader")
			}
			continue
		}
		if configuration.Verbosity > 1 {
			message := fmt.Sprintf("Reading event %d", event.Number)
			logger.Info(message, "reader")
		}
		r.returned++
		return event, nil
	}
}

// Send feeds every remaining event into events and closes it. It stops
// early when ctx is cancelled.
func (r *EventReader) Send(ctx context.Context, events chan<- EventType) error {
	defer close(events)
	for {
		event, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		select {
		case events <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
