package sra

// FakeSource is an in-memory Source for tests, mirroring
// encoding/bamprovider.NewFakeProvider in the teacher repo: it hands back a
// fixed slice of Spots in response to Range calls, with no native binding
// involved.
type FakeSource struct {
	spots []Spot
}

// NewFakeSource returns a Source that serves spots (assumed sorted by
// ascending RID; RID is 1-indexed). It is safe to call Range concurrently
// from multiple goroutines, same as a real Source.
func NewFakeSource(spots []Spot) *FakeSource {
	return &FakeSource{spots: spots}
}

// TotalSpots implements Source.
func (f *FakeSource) TotalSpots() (uint64, error) {
	return uint64(len(f.spots)), nil
}

// Range implements Source.
func (f *FakeSource) Range(rng RowRange) (SpotIterator, error) {
	return &fakeIterator{spots: f.spots, rng: rng, next: rng.Start}, nil
}

// Close implements Source.
func (f *FakeSource) Close() error { return nil }

type fakeIterator struct {
	spots []Spot
	rng   RowRange
	next  uint64
	cur   Spot
}

func (it *fakeIterator) Scan() bool {
	for it.next <= it.rng.Stop {
		rid := it.next
		it.next++
		if rid < 1 || int(rid) > len(it.spots) {
			continue
		}
		it.cur = it.spots[rid-1]
		return true
	}
	return false
}

func (it *fakeIterator) Spot() Spot { return it.cur }

func (it *fakeIterator) Err() error { return nil }

func (it *fakeIterator) Close() error { return nil }
