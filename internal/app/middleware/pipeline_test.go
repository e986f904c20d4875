package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"automarket/internal/app/commands"
	"automarket/internal/app/uow"
	domainfavorites "automarket/internal/domain/favorites"
	domainlistings "automarket/internal/domain/listings"
	domainnotify "automarket/internal/domain/notify"
	domainpurchases "automarket/internal/domain/purchases"
	domainreservation "automarket/internal/domain/reservation"
)

type testCommand struct {
	IDKey   string
	Invalid bool
}

func (c testCommand) Key() string { return "test.command" }

func (c testCommand) IdempotencyKey() string { return c.IDKey }

func (c testCommand) ResultPrototype() any { return &testResult{} }

func (c testCommand) Validate() error {
	if c.Invalid {
		return errors.New("invalid test command")
	}
	return nil
}

type testResult struct {
	Value string `json:"value"`
}

type mapIdempotencyStore struct {
	records map[string]IdempotencyRecord
}

func newMapStore() *mapIdempotencyStore {
	return &mapIdempotencyStore{records: make(map[string]IdempotencyRecord)}
}

func (s *mapIdempotencyStore) Get(_ context.Context, key string) (IdempotencyRecord, bool, error) {
	rec, ok := s.records[key]
	return rec, ok, nil
}

func (s *mapIdempotencyStore) Save(_ context.Context, rec IdempotencyRecord) error {
	s.records[rec.Key] = rec
	return nil
}

type fakeUnit struct {
	commits   int
	rollbacks int
}

func (u *fakeUnit) Listings() domainlistings.ListingRepository { return nil }
func (u *fakeUnit) Reservations() domainreservation.Repository { return nil }
func (u *fakeUnit) Purchases() domainpurchases.Repository { return nil }
func (u *fakeUnit) Favorites() domainfavorites.Repository { return nil }
func (u *fakeUnit) Notifications() domainnotify.Repository { return nil }
func (u *fakeUnit) Commit(context.Context) error { u.commits++; return nil }
func (u *fakeUnit) Rollback(context.Context) error { u.rollbacks++; return nil }

type fakeFactory struct {
	unit *fakeUnit
}

func (f fakeFactory) Begin(context.Context, uow.TxOptions) (uow.UnitOfWork, error) {
	return f.unit, nil
}

func newTestBus(calls *int, fail error) *commands.InMemoryBus {
	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, testCommand{}.Key(), commands.HandlerFunc[testCommand, *testResult](
		func(ctx context.Context, cmd testCommand) (*testResult, error) {
			*calls++
			if fail != nil {
				return nil, fail
			}
			return &testResult{Value: "done"}, nil
		}))
	return bus
}

func TestValidationRejectsInvalidCommand(t *testing.T) {
	calls := 0
	bus := ChainCommands(newTestBus(&calls, nil), Validation(SelfValidator{}))

	_, err := bus.Dispatch(context.Background(), testCommand{Invalid: true})
	require.Error(t, err)
	assert.Zero(t, calls)

	_, err = bus.Dispatch(context.Background(), testCommand{})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestIdempotencyReplaysCachedResult(t *testing.T) {
	calls := 0
	store := newMapStore()
	bus := ChainCommands(newTestBus(&calls, nil), Idempotency(store, nil))

	first, err := commands.Dispatch[testCommand, *testResult](context.Background(), bus, testCommand{IDKey: "key-1"})
	require.NoError(t, err)
	assert.Equal(t, "done", first.Value)
	assert.Equal(t, 1, calls)

	second, err := commands.Dispatch[testCommand, *testResult](context.Background(), bus, testCommand{IDKey: "key-1"})
	require.NoError(t, err)
	assert.Equal(t, "done", second.Value)
	assert.Equal(t, 1, calls, "replay must not reach the handler")

	_, err = commands.Dispatch[testCommand, *testResult](context.Background(), bus, testCommand{IDKey: "key-2"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyWithoutKeyPassesThrough(t *testing.T) {
	calls := 0
	bus := ChainCommands(newTestBus(&calls, nil), Idempotency(newMapStore(), nil))

	for range 3 {
		_, err := bus.Dispatch(context.Background(), testCommand{})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, calls)
}

func TestIdempotencyCachesFailure(t *testing.T) {
	calls := 0
	bus := ChainCommands(newTestBus(&calls, errors.New("boom")), Idempotency(newMapStore(), nil))

	_, err := bus.Dispatch(context.Background(), testCommand{IDKey: "key-1"})
	require.EqualError(t, err, "boom")
	_, err = bus.Dispatch(context.Background(), testCommand{IDKey: "key-1"})
	require.EqualError(t, err, "boom")
	assert.Equal(t, 1, calls)
}

func TestTransactionCommitsOnSuccess(t *testing.T) {
	unit := &fakeUnit{}
	calls := 0
	bus := ChainCommands(newTestBus(&calls, nil), Transaction(fakeFactory{unit: unit}, nil))

	_, err := bus.Dispatch(context.Background(), testCommand{})
	require.NoError(t, err)
	assert.Equal(t, 1, unit.commits)
	assert.Zero(t, unit.rollbacks)
}

func TestTransactionRollsBackOnFailure(t *testing.T) {
	unit := &fakeUnit{}
	calls := 0
	bus := ChainCommands(newTestBus(&calls, errors.New("boom")), Transaction(fakeFactory{unit: unit}, nil))

	_, err := bus.Dispatch(context.Background(), testCommand{})
	require.Error(t, err)
	assert.Zero(t, unit.commits)
	assert.Equal(t, 1, unit.rollbacks)
}

func TestTransactionInjectsUnit(t *testing.T) {
	unit := &fakeUnit{}
	bus := commands.NewInMemoryBus()
	var seen bool
	commands.RegisterHandler(bus, testCommand{}.Key(), commands.HandlerFunc[testCommand, *testResult](
		func(ctx context.Context, cmd testCommand) (*testResult, error) {
			_, seen = uow.FromContext(ctx)
			return &testResult{}, nil
		}))

	wrapped := ChainCommands(bus, Transaction(fakeFactory{unit: unit}, nil))
	_, err := wrapped.Dispatch(context.Background(), testCommand{})
	require.NoError(t, err)
	assert.True(t, seen)
}
