package bridge

// fifo is a first-in first-out queue of comparable values.
type fifo[T comparable] struct {
	items []T
}

func (q *fifo[T]) push(v T) {
	q.items = append(q.items, v)
}

func (q *fifo[T]) isFront(v T) bool {
	return len(q.items) > 0 && q.items[0] == v
}

// popFront removes and returns the head. The queue must not be empty.
func (q *fifo[T]) popFront() T {
	var zero T
	v := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return v
}

// remove deletes the first occurrence of v, keeping the order of the rest.
func (q *fifo[T]) remove(v T) bool {
	for i, item := range q.items {
		if item == v {
			q.items = append(q.items[:i:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

func (q *fifo[T]) len() int {
	return len(q.items)
}

func (q *fifo[T]) snapshot() []T {
	out := make([]T, len(q.items))
	copy(out, q.items)
	return out
}
