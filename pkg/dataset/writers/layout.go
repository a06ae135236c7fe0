package writers

import (
	"github.com/ajitpratap0/lakegen/pkg/models"
	"github.com/ajitpratap0/lakegen/pkg/partition"
)

// partitionGroup holds the rows of one batch that share a partition path.
type partitionGroup struct {
	// Path is the rendered hive-style directory path relative to the
	// table root, e.g. "year=2024/month=03/day=05".
	Path string
	Rows []*models.Record
}

// groupByPartition splits a batch's rows by their rendered partition path,
// preserving first-seen group order and row order within each group.
func groupByPartition(spec *partition.Spec, batch *models.Batch) ([]partitionGroup, error) {
	index := make(map[string]int)
	var groups []partitionGroup
	for _, rec := range batch.Records {
		path, err := spec.RecordPath(rec)
		if err != nil {
			return nil, err
		}
		i, ok := index[path]
		if !ok {
			i = len(groups)
			index[path] = i
			groups = append(groups, partitionGroup{Path: path})
		}
		groups[i].Rows = append(groups[i].Rows, rec)
	}
	return groups, nil
}

// splitRows chunks rows so no chunk exceeds target. It never produces an
// empty chunk.
func splitRows(rows []*models.Record, target int) [][]*models.Record {
	if len(rows) == 0 {
		return nil
	}
	var chunks [][]*models.Record
	for start := 0; start < len(rows); start += target {
		end := min(start+target, len(rows))
		chunks = append(chunks, rows[start:end])
	}
	return chunks
}

// partCounters tracks the next part-file index per table and partition
// path. Counters are scoped to one writer instance, matching the
// one-writer-per-run ownership rule.
type partCounters struct {
	next map[string]map[string]int
}

func newPartCounters() *partCounters {
	return &partCounters{next: make(map[string]map[string]int)}
}

// Next returns the current index for the table/path pair and advances it.
func (c *partCounters) Next(table, path string) int {
	byPath, ok := c.next[table]
	if !ok {
		byPath = make(map[string]int)
		c.next[table] = byPath
	}
	idx := byPath[path]
	byPath[path] = idx + 1
	return idx
}
