package labtest

import (
	"context"
	"strconv"
	"strings"

	"github.com/labtrack/labtrack/internal/domain/refrange"
)

// Status is the per-value outcome of comparing a result against its
// reference range.
type Status string

const (
	StatusLow      Status = "low"
	StatusHigh     Status = "high"
	StatusNormal   Status = "normal"
	StatusAbnormal Status = "abnormal"
	StatusUnknown  Status = "unknown"
)

// abnormalSentinel matches qualitative results reported as a string
// (e.g. a COVID-19 test): "positive" is abnormal, "negative" and
// "normal" are not, anything else is unclassifiable.
const abnormalSentinel = "positive"

var normalSentinels = map[string]bool{"negative": true, "normal": true}

// annotation keys carried alongside measurements in result_values that
// are never evaluated.
var annotationKeys = map[string]bool{"unit": true, "units": true, "notes": true}

// RangeFinder is the reference range lookup the evaluator consults.
type RangeFinder interface {
	Find(ctx context.Context, testType, parameter string) (*refrange.Range, error)
}

// Evaluation is the result of flagging a submitted set of values.
type Evaluation struct {
	Statuses map[string]Status `json:"statuses"`
	Flagged  bool              `json:"flagged"`
}

// Evaluator determines per-value statuses and an overall abnormal flag
// for a lab test. It is a pure function of its inputs and the stored
// reference ranges.
type Evaluator struct {
	ranges RangeFinder
}

func NewEvaluator(ranges RangeFinder) *Evaluator {
	return &Evaluator{ranges: ranges}
}

// Evaluate checks each named value in result_values against the stored
// reference ranges. The "value" key of a single-value payload is looked
// up by the submitted parameter; any other named sub-value is looked up
// as a panel member under the parameter acting as test type. Values with
// no stored range are Unknown and never flagged.
func (e *Evaluator) Evaluate(ctx context.Context, parameter string, values map[string]interface{}) (Evaluation, error) {
	ev := Evaluation{Statuses: make(map[string]Status, len(values))}

	for key, raw := range values {
		if annotationKeys[strings.ToLower(key)] {
			continue
		}

		var r *refrange.Range
		var err error
		if key == "value" {
			r, err = e.ranges.Find(ctx, "", parameter)
		} else {
			r, err = e.ranges.Find(ctx, parameter, key)
		}
		if err != nil {
			return Evaluation{}, err
		}

		status := classify(r, raw)
		ev.Statuses[key] = status
		if status == StatusLow || status == StatusHigh || status == StatusAbnormal {
			ev.Flagged = true
		}
	}

	return ev, nil
}

// classify compares a single submitted value against its range.
// Boundaries are inclusive: a value equal to normal_min or normal_max
// is Normal.
func classify(r *refrange.Range, raw interface{}) Status {
	switch v := raw.(type) {
	case float64:
		return classifyNumeric(r, v)
	case int:
		return classifyNumeric(r, float64(v))
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return classifyNumeric(r, n)
		}
		return classifyQualitative(v)
	default:
		return StatusUnknown
	}
}

func classifyNumeric(r *refrange.Range, v float64) Status {
	if r == nil || r.NormalMin == nil || r.NormalMax == nil {
		return StatusUnknown
	}
	switch {
	case v < *r.NormalMin:
		return StatusLow
	case v > *r.NormalMax:
		return StatusHigh
	default:
		return StatusNormal
	}
}

func classifyQualitative(v string) Status {
	s := strings.ToLower(strings.TrimSpace(v))
	switch {
	case s == abnormalSentinel:
		return StatusAbnormal
	case normalSentinels[s]:
		return StatusNormal
	default:
		return StatusUnknown
	}
}
