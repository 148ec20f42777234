package usecase

import (
	"hash/fnv"
	"log"
	"sync"
)

// syncQueue routes jobs to a fixed pool of workers by account key, so all
// sync work for one account runs on exactly one goroutine. That makes the
// account's history cursor single-writer without any locking around the
// provider calls.
type syncQueue struct {
	workers []chan func()
	wg      sync.WaitGroup

	// mu keeps channel sends and channel close mutually exclusive:
	// enqueue holds the read side across its send, close takes the
	// write side before closing the channels.
	mu     sync.RWMutex
	closed bool
}

func newSyncQueue(workerCount, buffer int) *syncQueue {
	q := &syncQueue{
		workers: make([]chan func(), workerCount),
	}
	for i := range q.workers {
		q.workers[i] = make(chan func(), buffer)
		q.wg.Add(1)
		go q.run(i)
	}
	return q
}

func (q *syncQueue) run(workerID int) {
	defer q.wg.Done()
	for job := range q.workers[workerID] {
		job()
	}
}

// enqueue schedules a job on the worker owning the key. Blocks when that
// worker's buffer is full.
func (q *syncQueue) enqueue(key string, job func()) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		log.Printf("[Sync] Queue closed, dropping job for key %s", key)
		return
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	q.workers[h.Sum32()%uint32(len(q.workers))] <- job
}

// close stops accepting jobs and waits for in-flight ones to finish.
func (q *syncQueue) close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	for _, ch := range q.workers {
		close(ch)
	}
	q.mu.Unlock()
	q.wg.Wait()
}
