package grades

import (
	"fmt"
	"strconv"

	"gradestats-server-go/models"
)

// DefaultBoundaries are the interval edges used for the grade distribution.
var DefaultBoundaries = []float64{0, 5, 6, 7, 8, 9, 10}

// Bucketizer partitions grades into the intervals (b[i-1], b[i]].
//
// IncludeLowest closes the first interval on the left, so a grade equal to
// the lowest boundary is counted in the first bucket instead of being
// dropped.
type Bucketizer struct {
	Boundaries    []float64
	IncludeLowest bool
}

// DefaultBucketizer counts a grade of exactly 0 in the first bucket.
func DefaultBucketizer() Bucketizer {
	return Bucketizer{Boundaries: DefaultBoundaries, IncludeLowest: true}
}

// Distribute returns one bucket per interval in ascending order, including
// empty ones. Grades outside every interval are skipped silently.
func (b Bucketizer) Distribute(values []float64) []models.Bucket {
	if len(b.Boundaries) < 2 {
		return nil
	}
	buckets := make([]models.Bucket, len(b.Boundaries)-1)
	for i := range buckets {
		lo, hi := b.Boundaries[i], b.Boundaries[i+1]
		buckets[i] = models.Bucket{Lower: lo, Upper: hi, Label: intervalLabel(lo, hi, i == 0 && b.IncludeLowest)}
	}

	for _, v := range values {
		if i := b.find(v); i >= 0 {
			buckets[i].Count++
		}
	}
	return buckets
}

func (b Bucketizer) find(v float64) int {
	if b.IncludeLowest && v == b.Boundaries[0] {
		return 0
	}
	for i := 1; i < len(b.Boundaries); i++ {
		if v > b.Boundaries[i-1] && v <= b.Boundaries[i] {
			return i - 1
		}
	}
	return -1
}

func intervalLabel(lo, hi float64, closedLeft bool) string {
	open := "("
	if closedLeft {
		open = "["
	}
	return fmt.Sprintf("%s%s, %s]", open, formatBound(lo), formatBound(hi))
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
