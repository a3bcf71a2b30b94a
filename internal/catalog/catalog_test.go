package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentAndSchemaPath(t *testing.T) {
	d := Descriptor{Table: "t", Partition: "2024-01-01-00", SegmentID: "abc123"}
	assert.Equal(t, "t/2024-01-01-00/abc123.parquet", d.SegmentPath())
	assert.Equal(t, "t/2024-01-01-00/abc123.schema", d.SchemaPath())
}

func TestAddAndQueryPreservesInsertionOrder(t *testing.T) {
	c := New()
	first := Descriptor{Table: "t", SegmentID: "first", MinTime: 0, MaxTime: 100}
	second := Descriptor{Table: "t", SegmentID: "second", MinTime: 50, MaxTime: 150}
	c.Add(first)
	c.Add(second)

	got := c.Query("t", 0, 200)
	require := assert.New(t)
	require.Len(got, 2)
	require.Equal("first", got[0].SegmentID)
	require.Equal("second", got[1].SegmentID)
}

// TestQueryBoundaryInclusive covers T6: descriptors whose max equals the
// lower bound or whose min equals the upper bound are included.
func TestQueryBoundaryInclusive(t *testing.T) {
	c := New()
	c.Add(Descriptor{Table: "t", SegmentID: "touches-lo", MinTime: 0, MaxTime: 100})
	c.Add(Descriptor{Table: "t", SegmentID: "touches-hi", MinTime: 200, MaxTime: 300})
	c.Add(Descriptor{Table: "t", SegmentID: "outside", MinTime: 201, MaxTime: 300})

	got := c.Query("t", 100, 200)
	ids := make([]string, len(got))
	for i, d := range got {
		ids[i] = d.SegmentID
	}
	assert.ElementsMatch(t, []string{"touches-lo", "touches-hi"}, ids)
}

func TestQueryUnknownTableReturnsEmpty(t *testing.T) {
	c := New()
	got := c.Query("missing", 0, 100)
	assert.Empty(t, got)
}

func TestQueryFiltersOtherTables(t *testing.T) {
	c := New()
	c.Add(Descriptor{Table: "a", SegmentID: "a1", MinTime: 0, MaxTime: 100})
	c.Add(Descriptor{Table: "b", SegmentID: "b1", MinTime: 0, MaxTime: 100})

	got := c.Query("a", 0, 100)
	assert.Len(t, got, 1)
	assert.Equal(t, "a1", got[0].SegmentID)
}
