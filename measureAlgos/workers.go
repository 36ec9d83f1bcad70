package main

import (
	"context"
	"time"

	rootable "github.com/pxd-tools/rootable_go/pkg"
)

func sendEventsToWorkers(events []rootable.EventType, jobs chan<- rootable.EventType) {
	for _, event := range events {
		jobs <- event
	}
	close(jobs)
}

type measurement struct {
	Duration time.Duration
	Clusters int
	Errors   int
	Tables   []rootable.Table
}

// measure runs the whole sample through the worker pool once.
func measure(pipeline *rootable.Pipeline, events []rootable.EventType, numWorkers int) measurement {
	start := time.Now()
	jobs := make(chan rootable.EventType, 100)
	go sendEventsToWorkers(events, jobs)

	m := measurement{Tables: make([]rootable.Table, 0, len(events))}
	for result := range rootable.ProcessEvents(context.Background(), pipeline, jobs, numWorkers) {
		if result.Err != nil {
			m.Errors++
			continue
		}
		m.Clusters += len(result.Rows)
		m.Tables = append(m.Tables, result.Rows)
	}
	m.Duration = time.Since(start)
	return m
}

func processWorkerResults(tables []rootable.Table, writer *rootable.Writer) error {
	for _, rows := range tables {
		if err := writer.WriteEvent(rows); err != nil {
			return err
		}
	}
	return nil
}
