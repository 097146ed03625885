package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextSerialNumber(t *testing.T) {
	tests := []struct {
		name string
		used []int
		want int
	}{
		{"空", nil, 1},
		{"连续", []int{1, 2, 3}, 4},
		{"填补空缺", []int{1, 2, 4}, 3},
		{"缺 1", []int{2, 3}, 1},
		{"无序含重复", []int{3, 1, 1, 2, 5}, 4},
		{"忽略非正数", []int{0, -1, 1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextSerialNumber(tt.used))
		})
	}
}

func TestLocalLocker_MutualExclusion(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	var inside int32
	var maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, ArtistLockKey(1))
			require.NoError(t, err)
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

func TestLocalLocker_ContextCancel(t *testing.T) {
	locker := NewLocalLocker()
	unlock, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, "k")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// 不同 key 互不影响
	other, err := locker.Lock(context.Background(), "other")
	require.NoError(t, err)
	other()

	unlock()
	unlock() // 重复调用无副作用
	again, err := locker.Lock(context.Background(), "k")
	require.NoError(t, err)
	again()
}
