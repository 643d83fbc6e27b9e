package reconcile

// Changes holds the three disjoint sets produced by a diff.
type Changes[T any] struct {
	Enter  []T
	Update []T
	Exit   []T
}

// Len returns the total number of elements.
func (c Changes[T]) Len() int { return len(c.Enter) + len(c.Update) + len(c.Exit) }

// Partition splits prev and next by key. Enter and Update hold elements of
// next in next's order; Exit holds elements of prev in prev's order.
func Partition[T any](prev, next []T, key func(T) string) Changes[T] {
	seen := make(map[string]bool, len(prev))
	for _, p := range prev {
		seen[key(p)] = true
	}
	kept := make(map[string]bool, len(next))

	var c Changes[T]
	for _, n := range next {
		k := key(n)
		kept[k] = true
		if seen[k] {
			c.Update = append(c.Update, n)
		} else {
			c.Enter = append(c.Enter, n)
		}
	}
	for _, p := range prev {
		if !kept[key(p)] {
			c.Exit = append(c.Exit, p)
		}
	}
	return c
}
