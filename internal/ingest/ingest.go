// Package ingest implements the bulk/JSON ingest pipeline: stamping
// timestamps, bucketing records into partitions, and writing one segment
// per partition bucket.
package ingest

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/apache/arrow/go/v14/arrow/memory"

	"melt/internal/batch"
	"melt/internal/catalog"
	"melt/internal/common"
	"melt/internal/jsonutil"
	"melt/internal/schema"
	"melt/internal/segment"
	"melt/internal/storage/block"
	"melt/internal/timeutil"
)

// TimestampField is the reserved column used for partitioning and
// time-range queries.
const TimestampField = "timestamp"

// Service ingests records for a table, writing segments through storage and
// registering them in catalog.
type Service struct {
	storage block.Storage
	catalog *catalog.Catalog
	alloc   memory.Allocator
}

// New builds an ingest service.
func New(storage block.Storage, cat *catalog.Catalog) *Service {
	return &Service{storage: storage, catalog: cat, alloc: memory.NewGoAllocator()}
}

// Bulk parses body as newline-delimited JSON and ingests the records.
func (s *Service) Bulk(ctx context.Context, table string, body []byte) error {
	records, err := jsonutil.ParseLines(body)
	if err != nil {
		return common.ErrBadInputErrorWithCause("failed to parse bulk body", err)
	}
	return s.IngestBatch(ctx, table, records)
}

// JSON parses body as a single JSON value (object or array of objects) and
// ingests the records.
func (s *Service) JSON(ctx context.Context, table string, body []byte) error {
	records, err := jsonutil.ParseValue(body)
	if err != nil {
		return common.ErrBadInputErrorWithCause("failed to parse json body", err)
	}
	return s.IngestBatch(ctx, table, records)
}

// IngestBatch stamps each record's timestamp, buckets records by partition,
// and writes one segment per bucket in partition-key order. A failure on one
// bucket aborts the remaining buckets; buckets already written are not
// rolled back.
func (s *Service) IngestBatch(ctx context.Context, table string, records []map[string]interface{}) error {
	for _, rec := range records {
		if err := stampTimestamp(rec); err != nil {
			return common.ErrBadInputErrorWithCause("invalid timestamp", err)
		}
	}

	buckets := partitionRecords(records)
	partitions := make([]string, 0, len(buckets))
	for p := range buckets {
		partitions = append(partitions, p)
	}
	sort.Strings(partitions)

	for _, partition := range partitions {
		if err := s.writePartition(ctx, table, partition, buckets[partition]); err != nil {
			return err
		}
		log.Printf("ingest: wrote %d records for table=%s partition=%s", len(buckets[partition]), table, partition)
	}
	return nil
}

// stampTimestamp normalizes rec's "timestamp" field (defaulting to now if
// absent) and writes the normalized microsecond value back into the field.
func stampTimestamp(rec map[string]interface{}) error {
	v, ok := rec[TimestampField]
	if !ok || v == nil {
		rec[TimestampField] = timeutil.NowMicros()
		return nil
	}

	var micros int64
	var err error
	switch t := v.(type) {
	case float64:
		micros = timeutil.NormalizeFloat(t)
	case string:
		micros, err = timeutil.NormalizeString(t)
	default:
		err = fmt.Errorf("unsupported timestamp value type %T", v)
	}
	if err != nil {
		return err
	}
	rec[TimestampField] = micros
	return nil
}

func partitionRecords(records []map[string]interface{}) map[string][]map[string]interface{} {
	buckets := make(map[string][]map[string]interface{})
	for _, rec := range records {
		micros, _ := rec[TimestampField].(int64)
		partition := timeutil.PartitionKey(micros)
		buckets[partition] = append(buckets[partition], rec)
	}
	return buckets
}

func (s *Service) writePartition(ctx context.Context, table, partition string, records []map[string]interface{}) error {
	sch, err := schema.Infer(records)
	if err != nil {
		return common.ErrBadInputErrorWithCause("failed to infer schema", err)
	}

	rec, err := batch.Build(s.alloc, sch.Arrow(), records)
	if err != nil {
		return common.ErrInternalErrorWithCause("failed to build record batch", err)
	}
	defer rec.Release()

	minTime, maxTime := batch.MinMaxInt64(rec, TimestampField)

	segmentID := common.GenerateID()
	descriptor := catalog.Descriptor{
		Table:     table,
		Partition: partition,
		SegmentID: segmentID,
		MinTime:   minTime,
		MaxTime:   maxTime,
	}

	dir := table + "/" + partition
	if err := s.storage.EnsureDir(ctx, dir); err != nil {
		return common.ErrInternalErrorWithCause("failed to create partition directory", err)
	}

	if err := segment.Write(ctx, s.storage, descriptor.SegmentPath(), rec); err != nil {
		return common.ErrInternalErrorWithCause("failed to write segment", err)
	}

	schemaBytes, err := sch.Serialize()
	if err != nil {
		return common.ErrInternalErrorWithCause("failed to serialize schema", err)
	}
	if err := block.Put(ctx, s.storage, descriptor.SchemaPath(), schemaBytes); err != nil {
		return common.ErrInternalErrorWithCause("failed to write schema", err)
	}

	s.catalog.Add(descriptor)
	return nil
}
