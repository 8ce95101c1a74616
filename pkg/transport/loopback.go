package transport

import "sync"

// LoopbackConn is an in-memory Conn pair, useful for tests and the demo
// driver where a real socket would just add noise. Use NewLoopbackPair to
// get two ends wired to each other.
type LoopbackConn struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  [][]byte
	peer   *LoopbackConn
	closed bool
}

var _ Conn = (*LoopbackConn)(nil)

// NewLoopbackPair returns two connected LoopbackConns: datagrams written
// to one arrive on the other.
func NewLoopbackPair() (*LoopbackConn, *LoopbackConn) {
	a := &LoopbackConn{}
	b := &LoopbackConn{}
	a.cond = sync.NewCond(&a.mu)
	b.cond = sync.NewCond(&b.mu)
	a.peer, b.peer = b, a
	return a, b
}

func (c *LoopbackConn) WriteDatagram(b []byte) error {
	c.peer.mu.Lock()
	defer c.peer.mu.Unlock()
	if c.peer.closed {
		return ErrClosed
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	c.peer.queue = append(c.peer.queue, cp)
	c.peer.cond.Signal()
	return nil
}

func (c *LoopbackConn) ReadDatagram() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.queue) == 0 && !c.closed {
		c.cond.Wait()
	}
	if len(c.queue) == 0 && c.closed {
		return nil, ErrClosed
	}
	b := c.queue[0]
	c.queue = c.queue[1:]
	return b, nil
}

func (c *LoopbackConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.cond.Broadcast()
	return nil
}
