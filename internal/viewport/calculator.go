package viewport

// Calculator turns (length, scroll offset, container size) into a Window.
//
// Fixed and Disabled modes are pure. Auto mode depends on the measurements
// accumulated in Cache, so its spacers are estimates that converge as items
// get measured.
type Calculator struct {
	Mode        Mode
	ItemSize    int // size of every item in Fixed mode
	DefaultSize int // estimate for unmeasured items before anything is measured
	Cache       *SizeCache
}

// NewCalculator creates a calculator. Sizes below 1 are raised to 1.
func NewCalculator(mode Mode, itemSize, defaultSize int) *Calculator {
	return &Calculator{
		Mode:        mode,
		ItemSize:    max(1, itemSize),
		DefaultSize: max(1, defaultSize),
		Cache:       NewSizeCache(),
	}
}

// Measure records the rendered size of the item under key. Measurements are
// ignored outside Auto mode. It reports whether the cache changed.
func (c *Calculator) Measure(key string, size int) bool {
	if c.Mode != Auto {
		return false
	}
	return c.Cache.Set(key, size)
}

// SetMode switches sizing mode. Leaving Auto mode drops all measurements.
func (c *Calculator) SetMode(m Mode) {
	if m != Auto {
		c.Cache.Reset()
	}
	c.Mode = m
}

// RowSize returns the size used to derive page lengths: the fixed size, or
// the current average in Auto mode.
func (c *Calculator) RowSize() int {
	if c.Mode == Auto {
		return max(1, c.Cache.Average(c.DefaultSize))
	}
	return c.ItemSize
}

func (c *Calculator) sizer(key KeyFunc) func(i int) int {
	if c.Mode != Auto {
		return func(int) int { return c.ItemSize }
	}
	estimate := c.Cache.Average(c.DefaultSize)
	return func(i int) int {
		if key != nil {
			if s, ok := c.Cache.Get(key(i)); ok {
				return s
			}
		}
		return estimate
	}
}

// Compute returns the window for the given inputs without any clamping of
// offset. If offset lies past the end, the result has OutOfRange set.
func (c *Calculator) Compute(length, offset, container int, key KeyFunc) Window {
	length = max(0, length)
	offset = max(0, offset)
	container = max(0, container)

	switch c.Mode {
	case Disabled:
		return Window{Start: 0, Count: length}
	case Auto:
		return c.computeAuto(length, offset, container, key)
	default:
		return c.computeFixed(length, offset, container)
	}
}

func (c *Calculator) computeFixed(length, offset, container int) Window {
	size := c.ItemSize
	start := min(offset/size, length)
	// One extra row covers the partially visible item during sub-row scrolling.
	count := min((container+size-1)/size+1, length-start)

	return Window{
		Start:      start,
		Count:      count,
		Leading:    start * size,
		Trailing:   max(0, (length-start-count)*size),
		OutOfRange: offset > max(0, length*size-container),
	}
}

func (c *Calculator) computeAuto(length, offset, container int, key KeyFunc) Window {
	sizeAt := c.sizer(key)

	acc, start := 0, 0
	for start < length {
		s := sizeAt(start)
		if acc+s > offset {
			break
		}
		acc += s
		start++
	}

	w := Window{Start: start, Leading: acc}
	pos := acc
	for i := start; i < length; i++ {
		pos += sizeAt(i)
		w.Count++
		if pos-offset >= container {
			break
		}
	}
	for i := w.End(); i < length; i++ {
		w.Trailing += sizeAt(i)
	}

	total := pos + w.Trailing
	w.OutOfRange = offset > max(0, total-container)
	return w
}

// TotalSize returns the scrollable extent of the whole list.
func (c *Calculator) TotalSize(length int, key KeyFunc) int {
	if c.Mode != Auto {
		return length * c.ItemSize
	}
	sizeAt := c.sizer(key)
	total := 0
	for i := 0; i < length; i++ {
		total += sizeAt(i)
	}
	return total
}

// MaxOffset returns the largest offset that does not scroll past the end.
func (c *Calculator) MaxOffset(length, container int, key KeyFunc) int {
	return max(0, c.TotalSize(length, key)-container)
}

// Settle computes the window and, if the offset is out of range, clamps it
// to the new maximum and computes once more. The second result is accepted
// as final even if Auto mode estimates moved in between.
func (c *Calculator) Settle(length, offset, container int, key KeyFunc) (Window, int) {
	w := c.Compute(length, offset, container, key)
	if !w.OutOfRange {
		return w, max(0, offset)
	}
	offset = c.MaxOffset(length, container, key)
	return c.Compute(length, offset, container, key), offset
}

// Position returns the offset and size of item i.
func (c *Calculator) Position(i int, key KeyFunc) (top, size int) {
	if c.Mode != Auto {
		return i * c.ItemSize, c.ItemSize
	}
	sizeAt := c.sizer(key)
	for j := 0; j < i; j++ {
		top += sizeAt(j)
	}
	return top, sizeAt(i)
}

// EnsureVisible returns the scroll offset closest to offset that shows item
// i entirely (or its top, for items taller than the container).
func (c *Calculator) EnsureVisible(i, offset, container, length int, key KeyFunc) int {
	if i < 0 || i >= length {
		return offset
	}
	top, size := c.Position(i, key)
	switch {
	case top < offset:
		offset = top
	case top+size > offset+container:
		offset = top + size - container
		if size > container {
			offset = top
		}
	}
	return min(max(0, offset), c.MaxOffset(length, container, key))
}
