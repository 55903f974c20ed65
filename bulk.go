package ringbuf

// Fill copies the first size items of src into the buffer, in at most two
// contiguous chunks when the write wraps around the end of the backing array.
// It returns the number of items copied.
//
// size must be lower than Length()-1 ([ErrFillTooLarge]) and not greater than
// len(src) ([ErrShortSlice]).
//
// Overwrite-on-full is applied once per call, not per item: if the new head lands
// on the tail, only the single oldest item is discarded. Callers that need exact
// drop accounting must not fill beyond [Buffer.Free].
//
// If the assert handler returns, size is clamped to the usable capacity and to
// len(src), and the clamped size is returned.
func (b *Buffer[T]) Fill(src []T, size uint32) uint32 {
	usable := b.capacity - 1

	if size >= usable {
		b.violation(ErrFillTooLarge, "size %d, capacity %d", size, b.capacity)

		if size > usable {
			size = usable
		}
	}

	if uint64(size) > uint64(len(src)) {
		b.violation(ErrShortSlice, "fill size %d, len %d", size, len(src))
		size = uint32(len(src))
	}

	b.lock()
	defer b.unlock()

	// Advancing by zero would land head on tail in an empty buffer
	if size == 0 {
		return 0
	}

	head := b.head

	// Items that fit between head and the end of the array
	first := min(size, b.capacity-head)

	copy(b.buffer[head:head+first], src[:first])
	copy(b.buffer[:size-first], src[first:size])

	b.advanceHead(size)

	return size
}

// Drain moves the oldest size items into dest, in at most two contiguous chunks
// when the read wraps around the end of the backing array. It returns the number
// of items moved.
//
// Draining more than [Buffer.Used] items is a precondition violation
// ([ErrDrainExceedsUsed]), as is a dest shorter than size ([ErrShortSlice]).
// If the assert handler returns, size is clamped and the tail only advances by
// the clamped amount.
func (b *Buffer[T]) Drain(dest []T, size uint32) uint32 {
	b.lock()
	defer b.unlock()

	used := b.used()
	if size > used {
		b.violation(ErrDrainExceedsUsed, "size %d, used %d", size, used)
		size = used
	}

	if uint64(size) > uint64(len(dest)) {
		b.violation(ErrShortSlice, "drain size %d, len %d", size, len(dest))
		size = uint32(len(dest))
	}

	b.drain(dest, size)

	return size
}

// TryDrain moves as many items as available, up to len(dest), into dest.
// It returns the number of items moved.
func (b *Buffer[T]) TryDrain(dest []T) uint32 {
	b.lock()
	defer b.unlock()

	size := b.used()
	if uint64(size) > uint64(len(dest)) {
		size = uint32(len(dest))
	}

	b.drain(dest, size)

	return size
}

func (b *Buffer[T]) drain(dest []T, size uint32) {
	tail := b.tail

	// Items readable between tail and the end of the array
	first := min(size, b.capacity-tail)

	copy(dest[:first], b.buffer[tail:tail+first])
	copy(dest[first:size], b.buffer[:size-first])

	b.advanceTail(size)
}
