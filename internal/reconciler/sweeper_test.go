package reconciler_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/giftvault/escrow-indexer/internal/mocks"
	"github.com/giftvault/escrow-indexer/internal/reconciler"
	"github.com/giftvault/escrow-indexer/internal/store"
)

func newSweeperMocks(ctrl *gomock.Controller) (*mocks.MockReconcilerService, *mocks.MockJournalStore, *mocks.MockClock) {
	svc := mocks.NewMockReconcilerService(ctrl)
	journal := mocks.NewMockJournalStore(ctrl)
	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(time.Unix(1_700_000_000, 0).UTC()).AnyTimes()
	clock.EXPECT().Since(gomock.Any()).Return(time.Second).AnyTimes()
	// never fires; cycles end only via stop or context
	var never <-chan time.Time = make(chan time.Time)
	clock.EXPECT().After(gomock.Any()).Return(never).AnyTimes()
	return svc, journal, clock
}

func TestSweeper_RunsCycleAndStopsGracefully(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, journal, clock := newSweeperMocks(ctrl)

	cycleRan := make(chan struct{}, 1)
	svc.EXPECT().ReconcileRecent(gomock.Any(), uint64(100)).
		DoAndReturn(func(ctx context.Context, window uint64) (*reconciler.SweepStats, error) {
			return &reconciler.SweepStats{Ceiling: 500, Scanned: 100, Diverged: 2, Repaired: 1, Unrecoverable: 1}, nil
		}).AnyTimes()
	journal.EXPECT().CreateSweepCycle(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, input store.CreateSweepCycleInput) error {
			assert.Equal(t, uint64(500), input.Ceiling)
			assert.Equal(t, uint64(100), input.Scanned)
			assert.Equal(t, uint64(2), input.Diverged)
			select {
			case cycleRan <- struct{}{}:
			default:
			}
			return nil
		}).AnyTimes()

	s := reconciler.NewSweeper(&reconciler.SweeperConfig{Window: 100, CycleInterval: time.Minute}, svc, journal, clock)

	startErr := make(chan error, 1)
	go func() {
		startErr <- s.Start(context.Background())
	}()

	select {
	case <-cycleRan:
	case <-time.After(5 * time.Second):
		t.Fatal("sweep cycle never ran")
	}

	assert.NoError(t, s.Stop(context.Background()))

	select {
	case err := <-startErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweeper_DoubleStartRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, journal, clock := newSweeperMocks(ctrl)

	cycleRan := make(chan struct{}, 1)
	svc.EXPECT().ReconcileRecent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, window uint64) (*reconciler.SweepStats, error) {
			select {
			case cycleRan <- struct{}{}:
			default:
			}
			return &reconciler.SweepStats{}, nil
		}).AnyTimes()
	journal.EXPECT().CreateSweepCycle(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	s := reconciler.NewSweeper(&reconciler.SweeperConfig{Window: 10, CycleInterval: time.Minute}, svc, journal, clock)

	go func() { _ = s.Start(context.Background()) }()

	select {
	case <-cycleRan:
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper never started")
	}

	assert.Error(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}

func TestSweeper_StopWithoutStartIsNoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, journal, clock := newSweeperMocks(ctrl)
	s := reconciler.NewSweeper(&reconciler.SweeperConfig{}, svc, journal, clock)

	assert.NoError(t, s.Stop(context.Background()))
}

func TestSweeper_DefaultsApplied(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, journal, clock := newSweeperMocks(ctrl)
	cfg := &reconciler.SweeperConfig{}
	reconciler.NewSweeper(cfg, svc, journal, clock)

	assert.Equal(t, uint64(reconciler.DEFAULT_SWEEP_WINDOW), cfg.Window)
	assert.Equal(t, reconciler.DEFAULT_SWEEP_INTERVAL, cfg.CycleInterval)
}
