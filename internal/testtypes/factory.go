package testtypes

import "sync/atomic"

// Sequence creates services with increasing tags.
type Sequence struct {
	count atomic.Int64
}

func (s *Sequence) NewStructA() *StructA {
	return &StructA{
		Tag: int(s.count.Add(1) - 1),
	}
}

func (s *Sequence) NewInterfaceA() InterfaceA {
	return s.NewStructA()
}

func (s *Sequence) Count() int {
	return int(s.count.Load())
}

func ExpectStructA(count int) []*StructA {
	var s []*StructA
	for i := range count {
		s = append(s, &StructA{Tag: i})
	}
	return s
}

// Factory creates Val and tracks whether it was closed.
type Factory struct {
	Val    any
	Err    error
	Closed bool
}

func (f *Factory) Create() (any, error) {
	return f.Val, f.Err
}

func (f *Factory) Close() {
	f.Closed = true
}
