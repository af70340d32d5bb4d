package store

import (
	"context"
	"math"

	codeerrors "github.com/codeindex-mcp/codeindex/internal/errors"
)

// EvictionReport summarizes one Evict call.
type EvictionReport struct {
	SizeBefore    int64
	SizeAfter     int64
	EvictedChunks int
	EvictedNodes  int
}

// targetFraction is the post-eviction size target as a fraction of the
// configured limit (spec's single-pass heuristic, see DESIGN.md).
const targetFraction = 0.8

// evictFraction is the proportion of over-target bytes translated into a
// proportion of rows evicted, per the spec's approximation formula.
const evictFraction = 0.5

// Evict runs the single-pass eviction heuristic: if the database exceeds
// maxSizeBytes, evict the lowest-value chunks (ordered by hits ASC,
// chunk_index ASC), re-measure, and if still over target evict the
// lowest-value graph nodes (ordered by hits ASC) by the same proportional
// formula, then VACUUM. No convergence loop: one pass is the accepted
// approximation (see DESIGN.md Open Question decision).
func (s *Store) Evict(ctx context.Context, maxSizeBytes int64) (*EvictionReport, error) {
	report := &EvictionReport{}

	sizeBefore, err := s.SizeBytes()
	if err != nil {
		return nil, err
	}
	report.SizeBefore = sizeBefore

	if maxSizeBytes <= 0 || sizeBefore <= maxSizeBytes {
		report.SizeAfter = sizeBefore
		return report, nil
	}

	target := int64(float64(maxSizeBytes) * targetFraction)
	bytesToFree := sizeBefore - target

	totalChunks, err := CountChunks(ctx, s.db)
	if err != nil {
		return nil, err
	}
	if totalChunks > 0 {
		n := evictCount(bytesToFree, sizeBefore, totalChunks)
		evicted, err := evictLowestValueChunks(ctx, s.db, n)
		if err != nil {
			return nil, err
		}
		report.EvictedChunks = evicted
	}

	current, err := s.SizeBytes()
	if err != nil {
		return nil, err
	}
	if current > target {
		totalNodes, err := CountGraphNodes(ctx, s.db)
		if err != nil {
			return nil, err
		}
		if totalNodes > 0 {
			n := evictCount(current-target, current, totalNodes)
			evicted, err := evictLowestValueNodes(ctx, s.db, n)
			if err != nil {
				return nil, err
			}
			report.EvictedNodes = evicted
		}
	}

	if err := s.Vacuum(ctx); err != nil {
		return nil, err
	}
	sizeAfter, err := s.SizeBytes()
	if err != nil {
		return nil, err
	}
	report.SizeAfter = sizeAfter
	return report, nil
}

// evictCount is ceil((bytesToFree/current) * evictFraction * totalRows).
func evictCount(bytesToFree, current int64, totalRows int) int {
	if current <= 0 {
		return 0
	}
	proportion := (float64(bytesToFree) / float64(current)) * evictFraction
	n := int(math.Ceil(proportion * float64(totalRows)))
	if n < 0 {
		n = 0
	}
	if n > totalRows {
		n = totalRows
	}
	return n
}

func evictLowestValueChunks(ctx context.Context, db execer, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	res, err := db.ExecContext(ctx, `
		DELETE FROM file_chunks WHERE id IN (
			SELECT id FROM file_chunks ORDER BY hits ASC, chunk_index ASC LIMIT ?
		)
	`, n)
	if err != nil {
		return 0, codeerrors.Database("", err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

func evictLowestValueNodes(ctx context.Context, db execer, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	res, err := db.ExecContext(ctx, `
		DELETE FROM code_graph_nodes WHERE id IN (
			SELECT id FROM code_graph_nodes ORDER BY hits ASC LIMIT ?
		)
	`, n)
	if err != nil {
		return 0, codeerrors.Database("", err)
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}
