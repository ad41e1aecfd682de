package models

// Counter counts occurrences of names, remembering the order in which each name was first seen.
//
// The zero value is ready to use.
type Counter struct {
	order  []string
	counts map[string]int
}

// NewCounter counts every value of names.
func NewCounter(names ...string) *Counter {
	c := &Counter{}
	for _, n := range names {
		c.Add(n)
	}
	return c
}

// Add records one occurrence of name.
func (c *Counter) Add(name string) {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	if _, ok := c.counts[name]; !ok {
		c.order = append(c.order, name)
	}
	c.counts[name]++
}

// Get returns the count for name (0 when absent).
func (c *Counter) Get(name string) int {
	if c == nil {
		return 0
	}
	return c.counts[name]
}

// Len returns the number of distinct names.
func (c *Counter) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Items returns every (name, count) pair in first-seen order.
func (c *Counter) Items() []ItemCount {
	if c == nil {
		return nil
	}
	items := make([]ItemCount, len(c.order))
	for i, name := range c.order {
		items[i] = ItemCount{Name: name, Count: c.counts[name]}
	}
	return items
}
