package selection

import "sigs.k8s.io/multiobjective/pkg/multiobjective/framework"

// deque is a FIFO of solutions backed by a slice. Popped slots are released
// and the backing array is compacted once more than half of it is dead.
type deque struct {
	items []*framework.Solution
	head  int
}

func (d *deque) Len() int {
	return len(d.items) - d.head
}

func (d *deque) PushBack(s *framework.Solution) {
	d.items = append(d.items, s)
}

// PopFront removes the first element. It panics on an empty deque.
func (d *deque) PopFront() *framework.Solution {
	if d.Len() == 0 {
		panic("selection: PopFront on empty deque")
	}
	s := d.items[d.head]
	d.items[d.head] = nil
	d.head++
	if d.head > len(d.items)/2 {
		n := copy(d.items, d.items[d.head:])
		clear(d.items[n:])
		d.items = d.items[:n]
		d.head = 0
	}
	return s
}
