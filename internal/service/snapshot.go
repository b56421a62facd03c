package service

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/sakif/ledger/internal/apperror"
	"github.com/sakif/ledger/internal/model"
	"github.com/sakif/ledger/internal/repository"
)

// DateLayout is the format of Snapshot.DateLabel.
const DateLayout = "2006-01-02"

// SnapshotService records, lists, deletes and restores snapshots, and
// rebuilds the book a snapshot points at.
type SnapshotService struct {
	store  repository.Store
	clock  *Clock
	ledger *LedgerService
	logger *slog.Logger
	now    func() time.Time
}

func NewSnapshotService(store repository.Store, clock *Clock, ledger *LedgerService, logger *slog.Logger) *SnapshotService {
	return &SnapshotService{
		store:  store,
		clock:  clock,
		ledger: ledger,
		logger: logger,
		now:    time.Now,
	}
}

// CreateSnapshot records netWorth at a fresh tick of the book's clock.
// The clock always advances, so the snapshot never shares a tick with an
// earlier one. netWorth is taken as given; see CaptureSnapshot.
func (s *SnapshotService) CreateSnapshot(ctx context.Context, owner string, book model.Book, netWorth float64, comment string) (*model.Snapshot, error) {
	if err := validateBook(book); err != nil {
		return nil, err
	}
	if math.IsNaN(netWorth) || math.IsInf(netWorth, 0) {
		return nil, apperror.ValidationFailed("netWorth", "net worth must be a finite number")
	}

	snap := model.Snapshot{
		Owner:     owner,
		Book:      book,
		DateLabel: s.now().Format(DateLayout),
		NetWorth:  netWorth,
		Comment:   strings.TrimSpace(comment),
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx repository.Store) error {
		tick, err := s.clock.within(tx).Advance(ctx, owner, book)
		if err != nil {
			return err
		}
		snap.Tick = tick
		return tx.InsertSnapshot(ctx, &snap)
	})
	if err != nil {
		if !apperror.IsRecoverable(err) {
			s.logger.Error("failed to create snapshot",
				slog.String("owner", owner),
				slog.String("book", book.String()),
				slog.String("error", err.Error()),
			)
		}
		return nil, err
	}

	s.logger.Info("snapshot created",
		slog.String("owner", owner),
		slog.String("book", book.String()),
		slog.String("id", snap.ID),
		slog.Int64("tick", int64(snap.Tick)),
	)
	return &snap, nil
}

// CaptureSnapshot computes the book's current net worth and records it.
func (s *SnapshotService) CaptureSnapshot(ctx context.Context, owner string, book model.Book, comment string) (*model.Snapshot, error) {
	view, err := s.ledger.ViewCurrent(ctx, owner, book)
	if err != nil {
		return nil, err
	}
	return s.CreateSnapshot(ctx, owner, book, view.Net, comment)
}

// ListSnapshots returns live snapshots in tick order.
func (s *SnapshotService) ListSnapshots(ctx context.Context, owner string, book model.Book) ([]model.Snapshot, error) {
	if err := validateBook(book); err != nil {
		return nil, err
	}
	return s.store.ListSnapshots(ctx, owner, book)
}

// ListDeletedSnapshots returns soft-deleted snapshots, oldest tick first.
func (s *SnapshotService) ListDeletedSnapshots(ctx context.Context, owner string, book model.Book) ([]model.Snapshot, error) {
	if err := validateBook(book); err != nil {
		return nil, err
	}
	return s.store.ListDeletedSnapshots(ctx, owner, book)
}

func (s *SnapshotService) GetSnapshot(ctx context.Context, owner string, book model.Book, id string) (*model.Snapshot, error) {
	if err := validateBook(book); err != nil {
		return nil, err
	}
	return s.store.GetSnapshot(ctx, owner, book, id)
}

// DeleteSnapshot soft-deletes a live snapshot by moving it to the next
// deletion marker at its tick. Items are not touched.
func (s *SnapshotService) DeleteSnapshot(ctx context.Context, snap model.Snapshot) error {
	if snap.Deleted() {
		return apperror.NotFound("live snapshot", snap.ID)
	}
	marker, err := s.store.MarkSnapshotDeleted(ctx, snap.Owner, snap.Book, snap.ID)
	if err != nil {
		return err
	}

	s.logger.Info("snapshot deleted",
		slog.String("owner", snap.Owner),
		slog.String("book", snap.Book.String()),
		slog.String("id", snap.ID),
		slog.Int64("tick", int64(snap.Tick)),
		slog.Int64("marker", marker),
	)
	return nil
}

// RestoreSnapshot brings a deleted snapshot back as a new live row with a
// new ID. The deleted row is kept. It fails with a Duplicate error when
// another live snapshot already holds the tick.
func (s *SnapshotService) RestoreSnapshot(ctx context.Context, owner string, book model.Book, id string) (*model.Snapshot, error) {
	deleted, err := s.GetSnapshot(ctx, owner, book, id)
	if err != nil {
		return nil, err
	}
	if !deleted.Deleted() {
		return nil, apperror.ValidationFailed("id", "snapshot "+id+" is not deleted")
	}

	restored := *deleted
	restored.DeletionMarker = 0
	if err := s.store.InsertSnapshot(ctx, &restored); err != nil {
		return nil, err
	}

	s.logger.Info("snapshot restored",
		slog.String("owner", owner),
		slog.String("book", book.String()),
		slog.String("from", id),
		slog.String("id", restored.ID),
		slog.Int64("tick", int64(restored.Tick)),
	)
	return &restored, nil
}

// ViewSnapshot rebuilds the book at the snapshot's tick. The recomputed net
// worth and the stored one are both returned as is.
func (s *SnapshotService) ViewSnapshot(ctx context.Context, snap model.Snapshot) (*model.SnapshotView, error) {
	view, err := s.ledger.View(ctx, snap.Owner, snap.Book, snap.Tick)
	if err != nil {
		return nil, err
	}
	return &model.SnapshotView{
		Snapshot:       snap,
		View:           *view,
		StoredNetWorth: snap.NetWorth,
	}, nil
}

// Trend returns the recorded net worth of every live snapshot in tick
// order. DayOffset counts days from the first snapshot with a readable date.
func (s *SnapshotService) Trend(ctx context.Context, owner string, book model.Book) ([]model.TrendPoint, error) {
	snaps, err := s.ListSnapshots(ctx, owner, book)
	if err != nil {
		return nil, err
	}

	points := make([]model.TrendPoint, 0, len(snaps))
	var first time.Time
	for _, snap := range snaps {
		p := model.TrendPoint{
			Tick:      snap.Tick,
			DateLabel: snap.DateLabel,
			NetWorth:  snap.NetWorth,
			DayOffset: -1,
		}
		if d, err := time.Parse(DateLayout, snap.DateLabel); err == nil {
			if first.IsZero() {
				first = d
			}
			p.DayOffset = int(d.Sub(first).Hours() / 24)
		}
		points = append(points, p)
	}
	return points, nil
}
