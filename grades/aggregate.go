package grades

import "gradestats-server-go/models"

// Summarize computes the headline numbers for a dataset. An empty dataset is
// rejected with ErrEmptyDataset because its mean is undefined.
func Summarize(ds *models.Dataset) (models.Summary, error) {
	if ds == nil || len(ds.Records) == 0 {
		return models.Summary{}, ErrEmptyDataset
	}

	var sum float64
	s := models.Summary{Total: len(ds.Records)}
	for _, r := range ds.Records {
		sum += r.Grade
		switch r.Status {
		case models.StatusPassed:
			s.Passed++
		case models.StatusFailed:
			s.Failed++
		}
	}
	s.Mean = sum / float64(s.Total)
	return s, nil
}

// StatusCounts counts records per status label, in order of first appearance.
// Unrecognized source labels get their own entry.
func StatusCounts(ds *models.Dataset) ([]string, []int) {
	var labels []string
	index := make(map[models.Status]int)
	var counts []int
	for _, r := range ds.Records {
		i, ok := index[r.Status]
		if !ok {
			i = len(labels)
			index[r.Status] = i
			labels = append(labels, string(r.Status))
			counts = append(counts, 0)
		}
		counts[i]++
	}
	return labels, counts
}
