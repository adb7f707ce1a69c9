package eventbus

// borrowCell tracks outstanding borrows of a value owned by one goroutine.
// Conflicting borrows fail immediately instead of waiting, since no other
// goroutine exists to release them. The zero value is unborrowed.
type borrowCell struct {
	// >0 shared borrows, -1 exclusive borrow.
	state int
}

func (c *borrowCell) tryBorrow() bool {
	if c.state < 0 {
		return false
	}
	c.state++
	return true
}

func (c *borrowCell) tryBorrowMut() bool {
	if c.state != 0 {
		return false
	}
	c.state = -1
	return true
}

func (c *borrowCell) release() {
	switch {
	case c.state < 0:
		c.state = 0
	case c.state > 0:
		c.state--
	}
}
