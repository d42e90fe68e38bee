package agglo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBasicObserver(t *testing.T) {
	var o BasicObserver
	o.ObserveSelection(2*time.Millisecond, 5)
	o.ObserveSelection(4*time.Millisecond, 4)
	o.ObserveMerge(time.Millisecond, 3)
	o.ObserveDepth(DepthReport{Leaves: 9})
	o.ObserveCache(17)

	s := o.Stats()
	require.EqualValues(t, 2, s.Selections)
	require.EqualValues(t, 9, s.CandidatesScored)
	require.Equal(t, (3 * time.Millisecond).Nanoseconds(), s.SelectAvgNanos)
	require.EqualValues(t, 1, s.MergeRounds)
	require.EqualValues(t, 3, s.Merges)
	require.EqualValues(t, 1, s.Depths)
	require.EqualValues(t, 9, s.Leaves)
	require.EqualValues(t, 17, s.ImpurityComputed)
}

func TestBasicObserver_Empty(t *testing.T) {
	var o BasicObserver
	s := o.Stats()
	require.Zero(t, s.SelectAvgNanos)
	require.Zero(t, s.MergeAvgNanos)
}

func TestNoopObserver(t *testing.T) {
	var o Observer = NoopObserver{}
	o.ObserveSelection(time.Second, 1)
	o.ObserveMerge(time.Second, 1)
	o.ObserveDepth(DepthReport{})
	o.ObserveCache(1)
}
