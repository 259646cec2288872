package optimistic

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeternum/aeternum/pkg/domain"
)

var errRejected = errors.New("server said no")

func userKey(u domain.User) domain.ID { return u.ID }

func users(ids ...domain.ID) []domain.User {
	out := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.User{ID: id, Nombre: "user " + id.String(), Estado: domain.StatusActive})
	}
	return out
}

func ids(items []domain.User) []domain.ID {
	out := make([]domain.ID, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func toggled(u domain.User) domain.User {
	u.Estado = domain.ToggledStatus(u.Estado)
	return u
}

func TestUpdateVisibleBeforeConfirmation(t *testing.T) {
	c := New(userKey, users("7"))
	u, _ := c.Get("7")

	h, err := c.Begin("7", toggled(u))
	require.NoError(t, err)

	got, _ := c.Get("7")
	assert.Equal(t, domain.StatusDisabled, got.Estado)
	assert.True(t, c.Pending("7"))

	assert.True(t, c.Resolve(h, nil))
	got, _ = c.Get("7")
	assert.Equal(t, domain.StatusDisabled, got.Estado)
	assert.False(t, c.Pending("7"))
	assert.NoError(t, c.LastError())
}

func TestUpdateRollsBackOnFailure(t *testing.T) {
	c := New(userKey, users("1", "7", "9"))
	u, _ := c.Get("7")

	h, err := c.Begin("7", toggled(u))
	require.NoError(t, err)
	c.Resolve(h, errRejected)

	got, _ := c.Get("7")
	assert.Equal(t, domain.StatusActive, got.Estado)
	assert.Equal(t, []domain.ID{"1", "7", "9"}, ids(c.Items()))
	assert.False(t, c.Pending("7"))
	assert.ErrorIs(t, c.LastError(), errRejected)
	assert.NoError(t, c.LastError(), "LastError clears")
}

func TestUpdateMergesServerRecord(t *testing.T) {
	c := New(userKey, users("7"))
	u, _ := c.Get("7")

	h, err := c.Begin("7", toggled(u))
	require.NoError(t, err)

	server := toggled(u)
	server.Nombre = "Ana"
	c.Resolve(h, nil, server)

	got, _ := c.Get("7")
	assert.Equal(t, "Ana", got.Nombre)
}

func TestBeginWhilePendingIsRejected(t *testing.T) {
	c := New(userKey, users("7"))
	u, _ := c.Get("7")

	h, err := c.Begin("7", toggled(u))
	require.NoError(t, err)
	before := c.Items()

	_, err = c.Begin("7", u)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = c.BeginDelete("7")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, before, c.Items(), "rejected begin leaves state unchanged")

	c.Resolve(h, nil)
	_, err = c.Begin("7", u)
	assert.NoError(t, err, "accepted again once resolved")
}

func TestIndependentItems(t *testing.T) {
	c := New(userKey, users("3", "9"))
	u3, _ := c.Get("3")
	u9, _ := c.Get("9")

	h3, err := c.Begin("3", toggled(u3))
	require.NoError(t, err)
	h9, err := c.Begin("9", toggled(u9))
	require.NoError(t, err)
	assert.Equal(t, 2, c.InFlight())

	// Settle in reverse order: 9 succeeds, 3 fails.
	c.Resolve(h9, nil)
	c.Resolve(h3, errRejected)

	got3, _ := c.Get("3")
	got9, _ := c.Get("9")
	assert.Equal(t, domain.StatusActive, got3.Estado)
	assert.Equal(t, domain.StatusDisabled, got9.Estado)
}

func TestCreateRejectedLeavesNoTrace(t *testing.T) {
	c := New(userKey, users("1", "2"))
	tmp := domain.ID(domain.LocalIDPrefix + c.TempID())
	require.Equal(t, domain.ID("local-1"), tmp)

	h, err := c.BeginCreate(domain.User{ID: tmp, Nombre: "nuevo"})
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{"local-1", "1", "2"}, ids(c.Items()))

	c.Resolve(h, errRejected)
	assert.Equal(t, []domain.ID{"1", "2"}, ids(c.Items()))
	_, ok := c.Get(tmp)
	assert.False(t, ok)
}

func TestCreateConfirmedTakesServerID(t *testing.T) {
	c := New(userKey, users("1"))
	tmp := domain.ID(domain.LocalIDPrefix + c.TempID())

	h, err := c.BeginCreate(domain.User{ID: tmp, Nombre: "nuevo"})
	require.NoError(t, err)
	c.Resolve(h, nil, domain.User{ID: "42", Nombre: "nuevo"})

	assert.Equal(t, []domain.ID{"42", "1"}, ids(c.Items()))
	assert.False(t, c.Pending(tmp))
}

func TestCreateMergeOverPendingEntry(t *testing.T) {
	c := New(userKey, users("1", "42"))
	stale, _ := c.Get("42")
	update, err := c.Begin("42", toggled(stale))
	require.NoError(t, err)

	tmp := domain.ID(domain.LocalIDPrefix + c.TempID())
	create, err := c.BeginCreate(domain.User{ID: tmp, Nombre: "nuevo"})
	require.NoError(t, err)
	c.Resolve(create, nil, domain.User{ID: "42", Nombre: "nuevo"})

	assert.False(t, c.Pending("42"))
	assert.False(t, c.Resolve(update, errRejected), "update on the replaced entry must not settle")
	got, ok := c.Get("42")
	require.True(t, ok)
	assert.Equal(t, "nuevo", got.Nombre)
	assert.Equal(t, []domain.ID{"42", "1"}, ids(c.Items()))
}

func TestTempIDsAreUnique(t *testing.T) {
	c := New(userKey, nil)
	assert.Equal(t, "1", c.TempID())
	assert.Equal(t, "2", c.TempID())
}

func TestDeleteRollsBackToOriginalPosition(t *testing.T) {
	c := New(userKey, users("1", "2", "3"))

	h, err := c.BeginDelete("2")
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{"1", "3"}, ids(c.Items()))

	c.Resolve(h, errRejected)
	assert.Equal(t, []domain.ID{"1", "2", "3"}, ids(c.Items()))
}

func TestDeleteRollbackClampsIndex(t *testing.T) {
	c := New(userKey, users("1", "2", "3"))

	h3, err := c.BeginDelete("3")
	require.NoError(t, err)
	h2, err := c.BeginDelete("2")
	require.NoError(t, err)

	c.Resolve(h2, nil)
	c.Resolve(h3, errRejected)
	assert.Equal(t, []domain.ID{"1", "3"}, ids(c.Items()))
}

func TestDeleteConfirmed(t *testing.T) {
	c := New(userKey, users("1", "2"))
	h, err := c.BeginDelete("1")
	require.NoError(t, err)
	c.Resolve(h, nil)
	assert.Equal(t, []domain.ID{"2"}, ids(c.Items()))
}

func TestBeginUnknownID(t *testing.T) {
	c := New(userKey, users("1"))
	_, err := c.Begin("5", domain.User{ID: "5"})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.BeginDelete("5")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, c.InFlight())
}

func TestBeginRejectsChangedID(t *testing.T) {
	c := New(userKey, users("1"))
	_, err := c.Begin("1", domain.User{ID: "2"})
	assert.Error(t, err)
	assert.False(t, c.Pending("1"))
}

func TestResolveTwiceIsNoop(t *testing.T) {
	c := New(userKey, users("7"))
	u, _ := c.Get("7")
	h, err := c.Begin("7", toggled(u))
	require.NoError(t, err)

	assert.True(t, c.Resolve(h, nil))
	assert.False(t, c.Resolve(h, errRejected))
	got, _ := c.Get("7")
	assert.Equal(t, domain.StatusDisabled, got.Estado)
}

func TestStaleHandleDoesNotSettleNewerMutation(t *testing.T) {
	c := New(userKey, users("7"))
	u, _ := c.Get("7")

	h1, err := c.Begin("7", toggled(u))
	require.NoError(t, err)
	c.Resolve(h1, nil)

	h2, err := c.Begin("7", u)
	require.NoError(t, err)
	assert.False(t, c.Resolve(h1, errRejected))
	assert.True(t, c.Pending("7"))
	c.Resolve(h2, nil)
}

func TestDo(t *testing.T) {
	c := New(userKey, users("7"))
	u, _ := c.Get("7")

	t.Run("success", func(t *testing.T) {
		h, err := c.Begin("7", toggled(u))
		require.NoError(t, err)
		err = c.Do(context.Background(), h, func(context.Context) (*domain.User, error) {
			return nil, nil
		})
		require.NoError(t, err)
		got, _ := c.Get("7")
		assert.Equal(t, domain.StatusDisabled, got.Estado)
	})

	t.Run("failure", func(t *testing.T) {
		cur, _ := c.Get("7")
		h, err := c.Begin("7", toggled(cur))
		require.NoError(t, err)
		err = c.Do(context.Background(), h, func(context.Context) (*domain.User, error) {
			return nil, errRejected
		})
		assert.ErrorIs(t, err, errRejected)
		got, _ := c.Get("7")
		assert.Equal(t, domain.StatusDisabled, got.Estado)
		assert.False(t, c.Pending("7"))
	})

	t.Run("panic", func(t *testing.T) {
		cur, _ := c.Get("7")
		h, err := c.Begin("7", toggled(cur))
		require.NoError(t, err)

		assert.Panics(t, func() {
			_ = c.Do(context.Background(), h, func(context.Context) (*domain.User, error) {
				panic("kaboom")
			})
		})
		assert.False(t, c.Pending("7"), "panic must not leave the item pending")
		got, _ := c.Get("7")
		assert.Equal(t, domain.StatusDisabled, got.Estado)
		assert.Error(t, c.LastError())
	})
}

func TestReplace(t *testing.T) {
	c := New(userKey, users("1"))
	require.NoError(t, c.Replace(users("4", "5", "4")))
	assert.Equal(t, []domain.ID{"4", "5"}, ids(c.Items()), "duplicate ids are dropped")

	h, err := c.BeginDelete("4")
	require.NoError(t, err)
	assert.ErrorIs(t, c.Replace(users("9")), ErrBusy)
	c.Resolve(h, nil)
	assert.NoError(t, c.Replace(users("9")))
	assert.Equal(t, []domain.ID{"9"}, ids(c.Items()))
}

func TestCloseStopsWrites(t *testing.T) {
	c := New(userKey, users("7"))
	u, _ := c.Get("7")
	h, err := c.Begin("7", toggled(u))
	require.NoError(t, err)

	c.Close()
	assert.True(t, c.Resolve(h, errRejected))
	got, _ := c.Get("7")
	assert.Equal(t, domain.StatusDisabled, got.Estado, "closed controller is not rolled back")
	assert.Zero(t, c.InFlight())
	assert.NoError(t, c.LastError())
}

func TestItemsReturnsCopy(t *testing.T) {
	c := New(userKey, users("1"))
	items := c.Items()
	items[0].Nombre = "changed"
	got, _ := c.Get("1")
	assert.NotEqual(t, "changed", got.Nombre)
}

func TestConcurrentMutations(t *testing.T) {
	all := make([]domain.ID, 0, 50)
	for i := range 50 {
		all = append(all, domain.ID(string(rune('A'+i%26))+string(rune('a'+i/26))))
	}
	c := New(userKey, users(all...))

	var wg sync.WaitGroup
	for i, id := range all {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u, _ := c.Get(id)
			h, err := c.Begin(id, toggled(u))
			if err != nil {
				return
			}
			if i%2 == 0 {
				c.Resolve(h, errRejected)
			} else {
				c.Resolve(h, nil)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, c.InFlight())
	for i, u := range c.Items() {
		want := domain.StatusDisabled
		if i%2 == 0 {
			want = domain.StatusActive
		}
		assert.Equal(t, want, u.Estado, "item %s", u.ID)
	}
}
