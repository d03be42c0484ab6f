// Package reclist provides the doubly-linked ring used to back the 2Q
// recency queues (a1in, a1out, am). It is a stripped-down descendant of a
// generic ring: the LIRS-specific bookkeeping (LIR/Resident/Demoted/...)
// that CLOCK-Pro needs is gone, since 2Q's per-queue membership already
// captures everything the cache core needs to know about a page.
package reclist

import "iter"

// Node is one element of a circular list, or ring. A pointer to any node
// serves as a reference to the entire ring. The zero value is a
// one-element ring holding the zero Value.
type Node[Key comparable, Value any] struct {
	next, prev *Node[Key, Value]
	Key        Key
	Value      Value
}

func (n *Node[Key, Value]) init() *Node[Key, Value] {
	n.next = n
	n.prev = n
	return n
}

// Next returns the next ring element. n must not be empty.
func (n *Node[Key, Value]) Next() *Node[Key, Value] {
	if n.next == nil {
		return n.init()
	}
	return n.next
}

// Prev returns the previous ring element. n must not be empty.
func (n *Node[Key, Value]) Prev() *Node[Key, Value] {
	if n.next == nil {
		return n.init()
	}
	return n.prev
}

// Link connects ring n with ring s such that n.Next() becomes s, and
// returns the original value of n.Next(). n must not be empty.
//
// If n and s point into the same ring, linking them removes the elements
// between n and s from the ring; the removed elements form a subring and
// the result references that subring.
//
// If n and s point to different rings, linking them splices the elements
// of s in after n; the result is the element following the last element
// of s after insertion.
func (n *Node[Key, Value]) Link(s *Node[Key, Value]) *Node[Key, Value] {
	next := n.Next()
	if s != nil {
		p := s.Prev()
		// Note: cannot use multiple assignment, LHS evaluation order
		// is unspecified.
		n.next = s
		s.prev = n
		next.prev = p
		p.next = next
	}
	return next
}

// Unlink removes one element from the ring n, starting at n.Next(), and
// returns it as a one-element subring. n must not be empty.
func (n *Node[Key, Value]) Unlink() *Node[Key, Value] {
	return n.Link(n.Move(2))
}

// Move moves n forward (positive) or backward (negative) around the ring
// and returns the resulting element. n must not be empty.
func (n *Node[Key, Value]) Move(steps int) *Node[Key, Value] {
	if n.next == nil {
		return n.init()
	}
	switch {
	case steps < 0:
		for ; steps < 0; steps++ {
			n = n.prev
		}
	case steps > 0:
		for ; steps > 0; steps-- {
			n = n.next
		}
	}
	return n
}

// Len computes the number of elements in the ring. It executes in time
// proportional to the number of elements.
func (n *Node[Key, Value]) Len() int {
	count := 0
	if n != nil {
		count = 1
		for p := n.Next(); p != n; p = p.next {
			count++
		}
	}
	return count
}

// Iter walks the ring starting at n, in forward order.
func (n *Node[Key, Value]) Iter() iter.Seq[*Node[Key, Value]] {
	return func(yield func(*Node[Key, Value]) bool) {
		if n == nil || !yield(n) {
			return
		}
		for p := n.Next(); p != n; p = p.next {
			if !yield(p) {
				return
			}
		}
	}
}
