package physics

// Handle addresses a slot in an Arena. A handle goes stale when its slot is
// freed; the generation check makes stale lookups miss instead of aliasing
// whatever reuses the slot.
type Handle struct {
	index uint32
	gen   uint32
}

// Index is the slot index, stable for the lifetime of the element.
func (h Handle) Index() int { return int(h.index) }

type slot[T any] struct {
	val  T
	gen  uint32
	live bool
}

// Arena is slot storage with O(1) insert, lookup and removal.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	live  int
}

func (a *Arena[T]) Insert(v T) Handle {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot[T]{})
	}
	s := &a.slots[idx]
	s.gen++
	s.val = v
	s.live = true
	a.live++
	return Handle{index: idx, gen: s.gen}
}

// Get returns a pointer to the element, or nil for a stale handle.
func (a *Arena[T]) Get(h Handle) *T {
	if int(h.index) >= len(a.slots) {
		return nil
	}
	s := &a.slots[h.index]
	if !s.live || s.gen != h.gen {
		return nil
	}
	return &s.val
}

// Remove frees the slot. Stale handles are ignored.
func (a *Arena[T]) Remove(h Handle) bool {
	if a.Get(h) == nil {
		return false
	}
	s := &a.slots[h.index]
	var zero T
	s.val = zero
	s.live = false
	a.free = append(a.free, h.index)
	a.live--
	return true
}

func (a *Arena[T]) Len() int { return a.live }

// Each visits live elements in slot order. fn may not insert or remove.
func (a *Arena[T]) Each(fn func(h Handle, v *T) bool) {
	for i := range a.slots {
		s := &a.slots[i]
		if !s.live {
			continue
		}
		if !fn(Handle{index: uint32(i), gen: s.gen}, &s.val) {
			return
		}
	}
}

// Handles returns the live handles in slot order. Safe to mutate the arena
// while ranging over the result.
func (a *Arena[T]) Handles() []Handle {
	out := make([]Handle, 0, a.live)
	for i := range a.slots {
		if a.slots[i].live {
			out = append(out, Handle{index: uint32(i), gen: a.slots[i].gen})
		}
	}
	return out
}
