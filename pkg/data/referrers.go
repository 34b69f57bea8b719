package data

// referrers is the set of primitives referencing a primitive. Most
// primitives have a single referrer, which is stored without allocating a
// slice; the slice is only created on the second distinct referrer.
//
// States: none (one == nil, many == nil), one (one != nil) and
// many (many != nil).
type referrers struct {
	one  Primitive
	many []Primitive
}

// add records r. Adding the same referrer twice has no effect.
func (rs *referrers) add(r Primitive) {
	switch {
	case rs.many != nil:
		for _, existing := range rs.many {
			if existing == r {
				return
			}
		}
		rs.many = append(rs.many, r)
	case rs.one == nil:
		rs.one = r
	case rs.one != r:
		rs.many = []Primitive{rs.one, r}
		rs.one = nil
	}
}

func (rs *referrers) each(fn func(Primitive)) {
	if rs.one != nil {
		fn(rs.one)
		return
	}
	for _, r := range rs.many {
		fn(r)
	}
}

func (rs *referrers) len() int {
	if rs.one != nil {
		return 1
	}
	return len(rs.many)
}
