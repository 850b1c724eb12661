package price

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/abhinavkasana1/Crypto-Crash-Game/internal/model"
)

// Handlers and the engine share one oracle, so Price must tolerate
// concurrent callers alongside price and error updates.
func TestMockOracle_ConcurrentCallers(t *testing.T) {
	mock := NewMockOracle()
	ctx := context.Background()

	const workers = 8
	const callsEach = 100

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < callsEach; j++ {
				mock.Price(ctx, model.BTC)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < callsEach; j++ {
			mock.SetPrice(model.BTC, decimal.NewFromInt(int64(50000+j)))
			mock.SetErr(nil)
		}
	}()
	wg.Wait()

	if got := mock.CallCount(); got != workers*callsEach {
		t.Errorf("call count = %d, want %d", got, workers*callsEach)
	}
}
