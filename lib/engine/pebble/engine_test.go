package pebble

import (
	"testing"

	enginetesting "github.com/stashdb/stashdb/lib/engine/testing"
)

func Test(t *testing.T) {
	enginetesting.RunEngineTests(t, "Pebble", Open)
}

func Benchmark(b *testing.B) {
	enginetesting.RunEngineBenchmarks(b, "Pebble", Open)
}
