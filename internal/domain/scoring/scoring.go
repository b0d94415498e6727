// Package scoring computes F1 metrics for classifier predictions against a ground truth.
package scoring

import (
	"fmt"
	"sort"

	"github.com/okian/factboard/internal/domain/model"
)

// GroundTruth maps an example id to its true label. It is read-only once loaded.
type GroundTruth map[string]string

// Result holds the per-label and macro-averaged F1.
type Result struct {
	MacroF1    float64            `json:"macroF1"`
	PerClassF1 map[string]float64 `json:"perClassF1"`
	// Scored is the number of predictions paired with a true label.
	Scored int `json:"-"`
}

type counts struct {
	tp, fp, fn int
}

// Score pairs each prediction with the true label of its id, dropping
// unknown ids, and computes F1 for every label seen on either side.
func Score(gt GroundTruth, predictions []model.Prediction) (Result, error) {
	perLabel := make(map[string]*counts)
	get := func(label string) *counts {
		c, ok := perLabel[label]
		if !ok {
			c = &counts{}
			perLabel[label] = c
		}
		return c
	}

	scored := 0
	for _, p := range predictions {
		truth, ok := gt[string(p.ID)]
		if !ok {
			continue
		}
		scored++
		predicted := string(p.Prediction)
		if predicted == truth {
			get(truth).tp++
			continue
		}
		get(predicted).fp++
		get(truth).fn++
	}

	if scored == 0 {
		return Result{}, fmt.Errorf("%w: %d predictions, none matched a known id", ErrNoScorablePredictions, len(predictions))
	}

	res := Result{PerClassF1: make(map[string]float64, len(perLabel)), Scored: scored}
	var sum float64
	for label, c := range perLabel {
		f1 := c.f1()
		res.PerClassF1[label] = f1
		sum += f1
	}
	res.MacroF1 = sum / float64(len(perLabel))
	return res, nil
}

func (c counts) f1() float64 {
	precision := ratio(c.tp, c.tp+c.fp)
	recall := ratio(c.tp, c.tp+c.fn)
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Labels returns the distinct labels of gt in sorted order.
func (gt GroundTruth) Labels() []string {
	seen := make(map[string]struct{})
	for _, l := range gt {
		seen[l] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
