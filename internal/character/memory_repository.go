package character

import (
	"context"
	"sort"
	"sync"

	"github.com/lifequest/lifequest-services/internal/progression"
)

type memoryRecord struct {
	doc      *Document
	missions map[string]progression.Mission
	history  map[string]progression.HistoryEntry
}

type memoryRepository struct {
	mu          sync.RWMutex
	store       map[string]*memoryRecord
	subscribers map[string]map[chan Document]struct{}
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		store:       make(map[string]*memoryRecord),
		subscribers: make(map[string]map[chan Document]struct{}),
	}
}

func (r *memoryRepository) Load(_ context.Context, userID string) (Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.store[userID]
	if !ok {
		return Snapshot{}, nil
	}

	var snap Snapshot
	if rec.doc != nil {
		c, err := rec.doc.Character()
		if err != nil {
			return Snapshot{}, err
		}
		snap.Found = true
		snap.Document = *rec.doc
		snap.Character = c
	}
	for _, m := range rec.missions {
		snap.Missions = append(snap.Missions, m)
	}
	sort.SliceStable(snap.Missions, func(i, j int) bool {
		return snap.Missions[i].CreatedAt.Before(snap.Missions[j].CreatedAt)
	})
	for _, e := range rec.history {
		snap.History = append(snap.History, e)
	}
	snap.History = snap.History.Sorted()
	return snap, nil
}

func (r *memoryRepository) Commit(_ context.Context, userID string, change Change) error {
	if change.Empty() {
		return nil
	}

	r.mu.Lock()
	rec, ok := r.store[userID]
	if !ok {
		rec = &memoryRecord{
			missions: make(map[string]progression.Mission),
			history:  make(map[string]progression.HistoryEntry),
		}
		r.store[userID] = rec
	}
	if change.Document != nil {
		doc := *change.Document
		if rec.doc != nil && doc.Segments == nil {
			doc.Segments = rec.doc.Segments
		}
		rec.doc = &doc
	}
	for id, m := range change.Missions {
		rec.missions[id] = m
	}
	for _, e := range change.History {
		rec.history[e.MissionID] = e
	}

	var notify []chan Document
	var doc Document
	if change.Document != nil {
		doc = *rec.doc
		for ch := range r.subscribers[userID] {
			notify = append(notify, ch)
		}
	}
	r.mu.Unlock()

	for _, ch := range notify {
		// Latest wins: drop a stale undelivered version before sending the new one.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- doc:
		default:
		}
	}
	return nil
}

func (r *memoryRepository) Subscribe(ctx context.Context, userID string, fn func(Document)) error {
	ch := make(chan Document, 1)

	r.mu.Lock()
	if r.subscribers[userID] == nil {
		r.subscribers[userID] = make(map[chan Document]struct{})
	}
	r.subscribers[userID][ch] = struct{}{}
	if rec, ok := r.store[userID]; ok && rec.doc != nil {
		ch <- *rec.doc
	}
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.subscribers[userID], ch)
		if len(r.subscribers[userID]) == 0 {
			delete(r.subscribers, userID)
		}
		r.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case doc := <-ch:
			fn(doc)
		}
	}
}
