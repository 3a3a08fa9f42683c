package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockledger/backend/internal/domain/shared"
)

func TestKeyedManagerAcquireRelease(t *testing.T) {
	m := NewKeyedManager()
	ctx := context.Background()

	release, err := m.Acquire(ctx, ItemKey("widget"), time.Second)
	require.NoError(t, err)

	// Same key is held, a short wait must fail with BUSY.
	_, err = m.Acquire(ctx, ItemKey("widget"), 20*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrBusy))

	// A different key is independent.
	release2, err := m.Acquire(ctx, ItemKey("gadget"), 20*time.Millisecond)
	require.NoError(t, err)
	release2()

	release()

	// Released key can be re-acquired.
	release, err = m.Acquire(ctx, ItemKey("widget"), 20*time.Millisecond)
	require.NoError(t, err)
	release()
}

func TestKeyedManagerContextCancel(t *testing.T) {
	m := NewKeyedManager()
	release, err := m.Acquire(context.Background(), "k", time.Second)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err = m.Acquire(ctx, "k", time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeyedManagerSerializesConcurrentHolders(t *testing.T) {
	m := NewKeyedManager()
	var counter, max, active int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Acquire(context.Background(), "shared", 5*time.Second)
			require.NoError(t, err)
			defer release()

			mu.Lock()
			active++
			if active > max {
				max = active
			}
			counter++
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, counter)
	assert.Equal(t, 1, max, "at most one holder at a time")
}

func TestKeyedManagerCleansUpEntries(t *testing.T) {
	m := NewKeyedManager()
	release, err := m.Acquire(context.Background(), "ephemeral", time.Second)
	require.NoError(t, err)
	release()

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.entries)
}

func TestLockKeys(t *testing.T) {
	assert.Equal(t, "item:abc", ItemKey("abc"))
	assert.Equal(t, "invoice:inv-1", InvoiceKey("inv-1"))
}
