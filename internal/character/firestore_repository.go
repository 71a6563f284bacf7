package character

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/lifequest/lifequest-services/internal/progression"
)

const (
	charactersCollection = "characters"
	missionsCollection   = "missions"
	historyCollection    = "history"
)

type firestoreRepository struct {
	client *firestore.Client
	logger *slog.Logger
}

// NewFirestoreRepository creates a Firestore backed repository.
func NewFirestoreRepository(client *firestore.Client, logger *slog.Logger) Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &firestoreRepository{client: client, logger: logger}
}

func (r *firestoreRepository) doc(userID string) *firestore.DocumentRef {
	return r.client.Collection(charactersCollection).Doc(userID)
}

func (r *firestoreRepository) Load(ctx context.Context, userID string) (Snapshot, error) {
	var (
		snap     Snapshot
		missions []progression.Mission
		history  progression.History
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ds, err := r.doc(userID).Get(ctx)
		if status.Code(err) == codes.NotFound {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: get character: %v", ErrPersistenceUnavailable, err)
		}
		doc, err := decodeDocument(ds)
		if err != nil {
			return err
		}
		c, err := doc.Character()
		if err != nil {
			return err
		}
		snap.Found = true
		snap.Document = doc
		snap.Character = c
		return nil
	})

	g.Go(func() error {
		iter := r.doc(userID).Collection(missionsCollection).OrderBy("createdAt", firestore.Asc).Documents(ctx)
		defer iter.Stop()
		for {
			ds, err := iter.Next()
			if err == iterator.Done {
				return nil
			}
			if err != nil {
				return fmt.Errorf("%w: list missions: %v", ErrPersistenceUnavailable, err)
			}
			var rec MissionRecord
			if err := ds.DataTo(&rec); err != nil {
				return fmt.Errorf("%w: decode mission %s: %v", ErrInvalidDocument, ds.Ref.ID, err)
			}
			if rec.ID == "" {
				rec.ID = ds.Ref.ID
			}
			m, err := rec.mission()
			if err != nil {
				return err
			}
			missions = append(missions, m)
		}
	})

	g.Go(func() error {
		iter := r.doc(userID).Collection(historyCollection).OrderBy("timestamp", firestore.Asc).Documents(ctx)
		defer iter.Stop()
		for {
			ds, err := iter.Next()
			if err == iterator.Done {
				return nil
			}
			if err != nil {
				return fmt.Errorf("%w: list history: %v", ErrPersistenceUnavailable, err)
			}
			var rec HistoryRecord
			if err := ds.DataTo(&rec); err != nil {
				return fmt.Errorf("%w: decode history %s: %v", ErrInvalidDocument, ds.Ref.ID, err)
			}
			if rec.MissionID == "" {
				rec.MissionID = ds.Ref.ID
			}
			e, err := rec.entry()
			if err != nil {
				return err
			}
			history = append(history, e)
		}
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	snap.Missions = missions
	snap.History = history
	return snap, nil
}

func (r *firestoreRepository) Commit(ctx context.Context, userID string, change Change) error {
	if change.Empty() {
		return nil
	}
	ref := r.doc(userID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if change.Document != nil {
			if err := tx.Set(ref, change.Document.fields(), firestore.MergeAll); err != nil {
				return err
			}
		}
		for id, m := range change.Missions {
			if err := tx.Set(ref.Collection(missionsCollection).Doc(id), newMissionRecord(m)); err != nil {
				return err
			}
		}
		for _, e := range change.History {
			// The entry id is the mission id, so a retried commit overwrites instead of duplicating.
			if err := tx.Set(ref.Collection(historyCollection).Doc(e.MissionID), newHistoryRecord(e)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: commit character %s: %v", ErrPersistenceUnavailable, userID, err)
	}
	return nil
}

func (r *firestoreRepository) Subscribe(ctx context.Context, userID string, fn func(Document)) error {
	iter := r.doc(userID).Snapshots(ctx)
	defer iter.Stop()

	for {
		ds, err := iter.Next()
		if ctx.Err() != nil || status.Code(err) == codes.Canceled || errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: watch character %s: %v", ErrPersistenceUnavailable, userID, err)
		}
		if !ds.Exists() {
			continue
		}
		r.deliver(userID, ds.DataTo, fn)
	}
}

// deliver decodes one watched snapshot and hands it to fn. Undecodable documents are logged
// and skipped so the watch keeps running.
func (r *firestoreRepository) deliver(userID string, dataTo func(any) error, fn func(Document)) {
	doc, err := decodeWith(dataTo)
	if err != nil {
		r.logger.Warn("skipping character snapshot", "userId", userID, "error", err)
		return
	}
	fn(doc)
}

func decodeDocument(ds *firestore.DocumentSnapshot) (Document, error) {
	return decodeWith(ds.DataTo)
}

func decodeWith(dataTo func(any) error) (Document, error) {
	var doc Document
	if err := dataTo(&doc); err != nil {
		return Document{}, fmt.Errorf("%w: decode character: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}
