package cache

// node is one entry in the recency list. Newest entries sit at the head.
type node[K comparable, V any] struct {
	key        K
	value      V
	prev, next *node[K, V]
}

// recency is an intrusive doubly-linked list ordered by last use.
// It is not safe for concurrent use; Cache guards it.
type recency[K comparable, V any] struct {
	head, tail *node[K, V]
}

func (l *recency[K, V]) pushFront(n *node[K, V]) {
	n.prev = nil
	n.next = l.head
	if l.head != nil {
		l.head.prev = n
	}
	l.head = n
	if l.tail == nil {
		l.tail = n
	}
}

func (l *recency[K, V]) unlink(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

func (l *recency[K, V]) touch(n *node[K, V]) {
	if l.head == n {
		return
	}
	l.unlink(n)
	l.pushFront(n)
}

// oldest returns the least recently used node, or nil.
func (l *recency[K, V]) oldest() *node[K, V] {
	return l.tail
}
