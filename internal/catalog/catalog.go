// Package catalog tracks, per table, the ordered list of segments written
// so queries can be pruned to the segments whose time range could possibly
// match.
package catalog

import "sync"

// Descriptor describes one written segment.
type Descriptor struct {
	Table     string
	Partition string
	SegmentID string
	MinTime   int64 // microseconds since epoch, inclusive
	MaxTime   int64 // microseconds since epoch, inclusive
}

// SegmentPath returns the on-disk path of this descriptor's Parquet file:
// <table>/<partition>/<segment_id>.parquet.
func (d Descriptor) SegmentPath() string {
	return d.Table + "/" + d.Partition + "/" + d.SegmentID + ".parquet"
}

// SchemaPath returns the on-disk path of this descriptor's schema sidecar.
func (d Descriptor) SchemaPath() string {
	return d.Table + "/" + d.Partition + "/" + d.SegmentID + ".schema"
}

// Catalog is a process-wide, mutex-guarded map of table name to its ordered
// segment descriptors.
type Catalog struct {
	mu     sync.RWMutex
	tables map[string][]Descriptor
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{tables: make(map[string][]Descriptor)}
}

// Add appends d to its table's descriptor list, in call order.
func (c *Catalog) Add(d Descriptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[d.Table] = append(c.tables[d.Table], d)
}

// Query returns, in insertion order, every descriptor for table whose time
// range intersects [start, end]: included iff max >= start && min <= end.
func (c *Catalog) Query(table string, start, end int64) []Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()

	all := c.tables[table]
	matches := make([]Descriptor, 0, len(all))
	for _, d := range all {
		if d.MaxTime >= start && d.MinTime <= end {
			matches = append(matches, d)
		}
	}
	return matches
}
