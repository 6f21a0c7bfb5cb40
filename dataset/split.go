package dataset

import (
	"math"
	"math/rand"
	"sort"

	"github.com/YuminosukeSato/oncolens/pkg/errors"
)

// Split holds record indices of the training and test partitions.
type Split struct {
	Train []int
	Test  []int
}

// TrainTestSplit partitions ds with a seeded shuffle. Without stratification
// the test partition has ceil(n·testSize) rows. With stratification every
// class contributes round(n_c·testSize) rows, capped so that each class keeps
// at least one training row. The result depends only on the labels, testSize
// and seed.
func TrainTestSplit(ds *Dataset, testSize float64, seed int64, stratify bool) (*Split, error) {
	if testSize <= 0 || testSize >= 1 || math.IsNaN(testSize) {
		return nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	n := ds.Len()
	if n < 2 {
		return nil, errors.NewValueError("TrainTestSplit", "at least two records are required")
	}

	rng := rand.New(rand.NewSource(seed))
	if !stratify {
		nTest := int(math.Ceil(float64(n) * testSize))
		if nTest >= n {
			nTest = n - 1
		}
		perm := rng.Perm(n)
		return &Split{Train: perm[nTest:], Test: perm[:nTest]}, nil
	}

	byClass := make(map[int][]int)
	for i, r := range ds.Records {
		byClass[r.Label] = append(byClass[r.Label], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	split := &Split{}
	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
		nTest := int(math.Round(float64(len(idx)) * testSize))
		if nTest > len(idx)-1 {
			nTest = len(idx) - 1
		}
		split.Test = append(split.Test, idx[:nTest]...)
		split.Train = append(split.Train, idx[nTest:]...)
	}
	if len(split.Test) == 0 {
		return nil, errors.NewValueError("TrainTestSplit", "stratified split left the test partition empty")
	}
	rng.Shuffle(len(split.Train), func(a, b int) { split.Train[a], split.Train[b] = split.Train[b], split.Train[a] })
	rng.Shuffle(len(split.Test), func(a, b int) { split.Test[a], split.Test[b] = split.Test[b], split.Test[a] })
	return split, nil
}
