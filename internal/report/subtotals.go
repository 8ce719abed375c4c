package report

// Subtotals accumulates durations of consecutive rows sharing a group key.
// Rows must arrive sorted by key. A subtotal is emitted only for groups of
// more than one row.
type Subtotals struct {
	key     string
	sum     int64
	count   int
	started bool
}

// Add feeds one row. When key starts a new group it returns the finished
// group's sum and true, provided that group had more than one row.
func (s *Subtotals) Add(key string, seconds int64) (int64, bool) {
	if !s.started || key != s.key {
		sum, ok := s.pending()
		s.key, s.sum, s.count, s.started = key, seconds, 1, true
		return sum, ok
	}
	s.sum += seconds
	s.count++
	return 0, false
}

// Flush closes the last group and resets the accumulator.
func (s *Subtotals) Flush() (int64, bool) {
	sum, ok := s.pending()
	*s = Subtotals{}
	return sum, ok
}

func (s *Subtotals) pending() (int64, bool) {
	if s.count > 1 {
		return s.sum, true
	}
	return 0, false
}

// Dedup blanks out values that repeat the previous value of the same column.
// The zero value is ready to use.
type Dedup struct {
	last map[string]string
}

// Blank replaces a repeated value.
const Blank = "-"

// NewDedup returns an empty Dedup.
func NewDedup() *Dedup {
	return &Dedup{last: map[string]string{}}
}

// Value returns Blank if value equals the last value seen for key, and value
// otherwise, remembering it.
func (d *Dedup) Value(key, value string) string {
	if last, ok := d.last[key]; ok && last == value {
		return Blank
	}
	if d.last == nil {
		d.last = map[string]string{}
	}
	d.last[key] = value
	return value
}
