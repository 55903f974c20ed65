package ringbuf

// Push appends item to the buffer. It never fails: when the buffer is full the
// oldest item is overwritten.
func (b *Buffer[T]) Push(item T) {
	b.lock()
	defer b.unlock()

	b.buffer[b.head] = item
	b.advanceHead(1)
}

// Pop removes and returns the oldest item.
// Popping from an empty buffer is a precondition violation ([ErrEmpty]); if the
// assert handler returns, Pop returns the zero value and leaves the buffer untouched.
func (b *Buffer[T]) Pop() T {
	b.lock()
	defer b.unlock()

	if b.used() == 0 {
		b.violation(ErrEmpty, "pop")

		var zero T
		return zero
	}

	item := b.buffer[b.tail]
	b.advanceTail(1)

	return item
}

// TryPop removes and returns the oldest item if there is one.
func (b *Buffer[T]) TryPop() (T, bool) {
	b.lock()
	defer b.unlock()

	if b.used() == 0 {
		var zero T
		return zero, false
	}

	item := b.buffer[b.tail]
	b.advanceTail(1)

	return item, true
}

// Reset empties the buffer. Slot contents are left in place but are no longer reachable.
func (b *Buffer[T]) Reset() {
	b.lock()
	defer b.unlock()

	b.head = 0
	b.tail = 0
}
