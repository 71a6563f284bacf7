package character

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestFirestoreDeliverSkipsUndecodableSnapshots(t *testing.T) {
	var buf bytes.Buffer
	repo := &firestoreRepository{logger: slog.New(slog.NewTextHandler(&buf, nil))}

	var got []Document
	collect := func(d Document) { got = append(got, d) }

	repo.deliver("u1", func(any) error { return errors.New("field level: cannot set type string") }, collect)
	if len(got) != 0 {
		t.Fatalf("an undecodable snapshot must not be delivered")
	}
	if !strings.Contains(buf.String(), "skipping character snapshot") || !strings.Contains(buf.String(), "userId=u1") {
		t.Fatalf("expected a warning for the skipped snapshot, got %q", buf.String())
	}

	repo.deliver("u1", func(v any) error {
		v.(*Document).Level = 3
		return nil
	}, collect)
	if len(got) != 1 || got[0].Level != 3 {
		t.Fatalf("expected the decoded document, got %+v", got)
	}
}

func TestDecodeWithWrapsInvalidDocument(t *testing.T) {
	_, err := decodeWith(func(any) error { return errors.New("bad") })
	if !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}
