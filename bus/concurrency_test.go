package bus_test

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/splinterhq/libsplinter/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two writers racing on the same key must never produce a mixture of
// their bytes: the final value is exactly one writer's full payload.
func TestConcurrentSetsNeverTear(t *testing.T) {
	b, err := bus.Create(bus.Config{
		Name:       filepath.Join(t.TempDir(), "bus.region"),
		Slots:      8,
		MaxValSz:   64,
		Persistent: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	v1 := []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	v2 := []byte("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	var wg sync.WaitGroup
	for _, v := range [][]byte{v1, v2} {
		wg.Add(1)
		go func(v []byte) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = b.Set("race", v)
			}
		}(v)
	}
	wg.Wait()

	got, _, err := b.Get("race", nil)
	require.NoError(t, err)
	assert.True(t, string(got) == string(v1) || string(got) == string(v2),
		fmt.Sprintf("value must be exactly one writer's payload, got %q", got))
}

// A reader racing a repeated writer must see a full prior value, or a
// retryable condition, never a torn mixture.
func TestReaderAgainstRepeatedWriterNeverTears(t *testing.T) {
	b, err := bus.Create(bus.Config{
		Name:       filepath.Join(t.TempDir(), "bus.region"),
		Slots:      8,
		MaxValSz:   64,
		Persistent: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	values := [][]byte{
		[]byte("1111111111111111111111111111111111"),
		[]byte("2222222222222222222222222222222222"),
		[]byte("3333333333333333333333333333333333"),
	}
	require.NoError(t, b.Set("k", values[0]))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			_ = b.Set("k", values[i%len(values)])
		}
	}()

	for i := 0; i < 500; i++ {
		got, _, err := b.Get("k", nil)
		if err != nil {
			continue
		}
		matched := false
		for _, v := range values {
			if string(got) == string(v) {
				matched = true
				break
			}
		}
		assert.True(t, matched, "reader observed bytes that were never a complete written value: %q", got)
	}
	<-done
}
