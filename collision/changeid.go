package collision

// EmptyChangeID is the value of a change id that never changed.
const EmptyChangeID uint32 = 0

// ChangeID is a monotonic token bumped every time the object owning it
// is mutated. Caches compare the value they were built against with the
// current one to decide whether they are stale.
type ChangeID struct {
	id uint32
}

func (c *ChangeID) Get() uint32 {
	return c.id
}

func (c *ChangeID) IsEmpty() bool {
	return c.id == EmptyChangeID
}

// CheckChanged reports whether the token moved away from id.
func (c *ChangeID) CheckChanged(id uint32) bool {
	return c.id != id && !c.IsEmpty()
}

// Update bumps the token. EmptyChangeID is skipped on wraparound.
func (c *ChangeID) Update() {
	c.id++
	if c.id == EmptyChangeID {
		c.id++
	}
}
