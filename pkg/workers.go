package rootable

import (
	"context"
	"fmt"
	"sync"
)

type workerJob struct {
	seq   int
	event EventType
}

type workerResult struct {
	seq int
	EventResult
}

// ProcessEvents runs the pipeline over events with numWorkers goroutines
// and emits one result per event, in the order the events were received.
// Cancelling ctx stops feeding new events; events already handed to a
// worker are still finished and emitted. The caller must drain the
// returned channel until it is closed.
func ProcessEvents(ctx context.Context, p *Pipeline, events <-chan EventType, numWorkers int) <-chan EventResult {
	if numWorkers < 1 {
		numWorkers = 1
	}
	jobs := make(chan workerJob, 100)
	results := make(chan workerResult, 100)
	out := make(chan EventResult, 100)

	var wg sync.WaitGroup
	for w := 1; w <= numWorkers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			worker(id, p, jobs, results)
		}(w)
	}
	go sendEventsToWorkers(ctx, events, jobs)
	go func() {
		wg.Wait()
		close(results)
	}()
	go reorderResults(results, out)
	return out
}

func worker(id int, p *Pipeline, jobs <-chan workerJob, results chan<- workerResult) {
	for job := range jobs {
		if configuration.Verbosity > 2 {
			message := fmt.Sprintf("Worker %d processing event %d", id, job.event.Number)
			logger.Info(message, "workers")
		}
		results <- processJob(id, p, job)
	}
}

// processJob turns a panic into an errored result so no event goes missing.
func processJob(id int, p *Pipeline, job workerJob) (result workerResult) {
	defer func() {
		if r := recover(); r != nil {
			err := &EventError{
				Event: job.event.Number,
				Stage: "worker",
				Err:   fmt.Errorf("%w: worker %d recovered from panic: %v", ErrDataIntegrity, id, r),
			}
			logger.Error(err.Error())
			result = workerResult{seq: job.seq, EventResult: EventResult{Event: job.event.Number, Err: err}}
		}
	}()

	rows, err := p.ProcessEvent(&job.event)
	return workerResult{
		seq:         job.seq,
		EventResult: EventResult{Event: job.event.Number, Rows: rows, Err: err},
	}
}

func sendEventsToWorkers(ctx context.Context, events <-chan EventType, jobs chan<- workerJob) {
	defer close(jobs)
	for seq := 0; ; seq++ {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			select {
			case jobs <- workerJob{seq: seq, event: event}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// reorderResults holds back results until every earlier event is out.
func reorderResults(results <-chan workerResult, out chan<- EventResult) {
	defer close(out)
	pending := make(map[int]EventResult)
	next := 0
	for r := range results {
		pending[r.seq] = r.EventResult
		for {
			result, ok := pending[next]
			if !ok {
				break
			}
			out <- result
			delete(pending, next)
			next++
		}
	}
}
