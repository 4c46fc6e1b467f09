package utils

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestRetry_StopsOnSuccess(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 2, time.Millisecond, func() error {
		calls++
		return errors.New("down")
	})
	assert.EqualError(t, err, "down")
	assert.Equal(t, 2, calls)
}

func TestUnmarshalAndHandle(t *testing.T) {
	var got map[string]int
	ok := UnmarshalAndHandle(zap.NewNop(), json.RawMessage(`{"a":1}`), func(v map[string]int) { got = v })
	assert.True(t, ok)
	assert.Equal(t, 1, got["a"])

	ok = UnmarshalAndHandle(zap.NewNop(), json.RawMessage(`{`), func(v map[string]int) { t.Fatal("no debería llamarse") })
	assert.False(t, ok)
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"localhost:9092", "kafka:9092"}, SplitCSV("localhost:9092, ,kafka:9092"))
	assert.Nil(t, SplitCSV(""))
	assert.Equal(t, "x", Ternary(true, "x", "y"))
}
