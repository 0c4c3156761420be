package ecs

// Each2 visits every entity holding both A and B. The entity list is a query
// snapshot and no lock is held while fn runs. fn receives copies of the
// components, written back when it returns, so fn may add or remove
// components (moving other values in the dense arrays) without losing its
// writes. A component fn removes from e itself is not written back; entities
// that lose A or B before their turn are skipped.
func Each2[A, B any](w *World, fn func(Entity, *A, *B)) error {
	sa, err := StoreOf[A](w)
	if err != nil {
		return err
	}
	sb, err := StoreOf[B](w)
	if err != nil {
		return err
	}
	for _, e := range w.Query(Require(sa, sb)) {
		a, ok := sa.Value(e)
		if !ok {
			continue
		}
		b, ok := sb.Value(e)
		if !ok {
			continue
		}
		fn(e, &a, &b)
		writeBack(sa, e, a)
		writeBack(sb, e, b)
	}
	return nil
}

// Each3 visits every entity holding A, B and C, with the same copy and
// write-back rules as Each2.
func Each3[A, B, C any](w *World, fn func(Entity, *A, *B, *C)) error {
	sa, err := StoreOf[A](w)
	if err != nil {
		return err
	}
	sb, err := StoreOf[B](w)
	if err != nil {
		return err
	}
	sc, err := StoreOf[C](w)
	if err != nil {
		return err
	}
	for _, e := range w.Query(Require(sa, sb, sc)) {
		a, ok := sa.Value(e)
		if !ok {
			continue
		}
		b, ok := sb.Value(e)
		if !ok {
			continue
		}
		c, ok := sc.Value(e)
		if !ok {
			continue
		}
		fn(e, &a, &b, &c)
		writeBack(sa, e, a)
		writeBack(sb, e, b)
		writeBack(sc, e, c)
	}
	return nil
}

func writeBack[T any](s *Store[T], e Entity, v T) {
	s.Update(e, func(p *T) { *p = v })
}
