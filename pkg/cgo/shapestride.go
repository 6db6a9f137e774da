package cgo

import (
	"fmt"
	"strings"

	"github.com/fnproof/kernel/pkg/fixture"
	"github.com/fnproof/kernel/pkg/fnerr"
	"github.com/fnproof/kernel/pkg/ledger"
)

// ShapeStrideCase is the open fixture schema for the shape/stride suite
// (spec.md §4.3). Operation selects which check this case exercises;
// unused fields for a given operation are simply ignored.
type ShapeStrideCase struct {
	ID                  string   `json:"id"`
	Operation           string   `json:"operation"` // broadcast | strides | as_strided | broadcast_to | sliding_window_view
	LeftShape           []int    `json:"left_shape"`
	RightShape          []int    `json:"right_shape"`
	InputShape          []int    `json:"input_shape"`
	Order               string   `json:"order"` // "C" or "F"
	WindowShape         []int    `json:"window_shape"`
	TargetShape         []int    `json:"target_shape"`
	ExpectedShape       []int    `json:"expected_shape"`
	ExpectedStrides     []int    `json:"expected_strides"`
	ExpectErrorContains string   `json:"expect_error_contains"`
	ReasonCode          string   `json:"reason_code"`
	EnvFingerprint      string   `json:"env_fingerprint"`
	Seed                uint64   `json:"seed"`
	ArtifactRefs        []string `json:"artifact_refs"`
}

// BroadcastShapes applies NumPy-style broadcasting rules: shapes are
// aligned on the trailing axis, and each axis must either match or be 1.
func BroadcastShapes(a, b []int) ([]int, error) {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	out := make([]int, n)
	for i := 0; i < n; i++ {
		ai := 1
		if i < len(a) {
			ai = a[len(a)-1-i]
		}
		bi := 1
		if i < len(b) {
			bi = b[len(b)-1-i]
		}
		switch {
		case ai == bi:
			out[n-1-i] = ai
		case ai == 1:
			out[n-1-i] = bi
		case bi == 1:
			out[n-1-i] = ai
		default:
			return nil, fnerr.NewValidationError(fnerr.SubsystemNdarray, "shape_broadcast_mismatch",
				fmt.Sprintf("operands could not be broadcast together with shapes %v %v", a, b))
		}
	}
	return out, nil
}

// ContiguousStrides computes element strides (in units of elements, not
// bytes) for a C-contiguous ("C") or Fortran-contiguous ("F") array of the
// given shape.
func ContiguousStrides(shape []int, order string) ([]int, error) {
	n := len(shape)
	strides := make([]int, n)
	switch order {
	case "C", "":
		acc := 1
		for i := n - 1; i >= 0; i-- {
			strides[i] = acc
			acc *= shape[i]
		}
	case "F":
		acc := 1
		for i := 0; i < n; i++ {
			strides[i] = acc
			acc *= shape[i]
		}
	default:
		return nil, fnerr.NewValidationError(fnerr.SubsystemNdarray, "unknown_memory_order",
			fmt.Sprintf("unknown memory order %q", order))
	}
	return strides, nil
}

// BroadcastTo validates that sourceShape can broadcast to targetShape
// without copying (every mismatched axis in source must be size 1).
func BroadcastTo(sourceShape, targetShape []int) error {
	if len(sourceShape) > len(targetShape) {
		return fnerr.NewValidationError(fnerr.SubsystemNdarray, "broadcast_to_rank_mismatch",
			fmt.Sprintf("input shape %v has more dimensions than target shape %v", sourceShape, targetShape))
	}
	offset := len(targetShape) - len(sourceShape)
	for i, s := range sourceShape {
		t := targetShape[offset+i]
		if s != t && s != 1 {
			return fnerr.NewValidationError(fnerr.SubsystemNdarray, "broadcast_to_incompatible",
				fmt.Sprintf("cannot broadcast shape %v to %v", sourceShape, targetShape))
		}
	}
	return nil
}

// SlidingWindowView computes the output shape of a sliding-window view
// over inputShape with the given windowShape (trailing axes), mirroring
// numpy.lib.stride_tricks.sliding_window_view.
func SlidingWindowView(inputShape, windowShape []int) ([]int, error) {
	if len(windowShape) > len(inputShape) {
		return nil, fnerr.NewValidationError(fnerr.SubsystemNdarray, "sliding_window_rank_mismatch",
			fmt.Sprintf("window shape %v has more axes than input shape %v", windowShape, inputShape))
	}
	offset := len(inputShape) - len(windowShape)
	out := make([]int, 0, len(inputShape)+len(windowShape))
	for i := 0; i < offset; i++ {
		out = append(out, inputShape[i])
	}
	for i, w := range windowShape {
		dim := inputShape[offset+i]
		if w <= 0 || w > dim {
			return nil, fnerr.NewValidationError(fnerr.SubsystemNdarray, "sliding_window_bad_size",
				fmt.Sprintf("window size %d invalid for axis of size %d", w, dim))
		}
		out = append(out, dim-w+1)
	}
	out = append(out, windowShape...)
	return out, nil
}

// AsStrided computes the strides numpy's stride_tricks.as_strided recipe
// would assign when broadcasting a buffer of inputShape (contiguous in the
// given order) out to targetShape: trailing axes that already match keep
// their contiguous stride, axes of size 1 (or new leading axes) get stride
// 0, and any other mismatch is an error.
func AsStrided(inputShape []int, order string, targetShape []int) ([]int, error) {
	if len(targetShape) < len(inputShape) {
		return nil, fnerr.NewValidationError(fnerr.SubsystemNdarray, "as_strided_rank_mismatch",
			fmt.Sprintf("input shape %v has more dimensions than target shape %v", inputShape, targetShape))
	}
	baseStrides, err := ContiguousStrides(inputShape, order)
	if err != nil {
		return nil, err
	}

	offset := len(targetShape) - len(inputShape)
	out := make([]int, len(targetShape))
	for i := 0; i < offset; i++ {
		out[i] = 0
	}
	for i, s := range inputShape {
		t := targetShape[offset+i]
		switch {
		case s == t:
			out[offset+i] = baseStrides[i]
		case s == 1:
			out[offset+i] = 0
		default:
			return nil, fnerr.NewValidationError(fnerr.SubsystemNdarray, "as_strided_incompatible",
				fmt.Sprintf("cannot broadcast shape %v to %v via as_strided", inputShape, targetShape))
		}
	}
	return out, nil
}

func shapesEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// RunShapeStrideSuite loads and validates every case under
// <fixtureRoot>/<relPath>, appending each decision to l when the case
// touches runtime policy (it does not; this suite never touches the
// ledger directly, but callers may share one ledger instance across
// suites per spec.md §5 sequential ordering).
func RunShapeStrideSuite(fixtureRoot, relPath string, _ *ledger.Ledger) (SuiteReport, error) {
	envelopes, err := fixture.Load(fixtureRoot, relPath)
	if err != nil {
		return SuiteReport{}, err
	}

	report := SuiteReport{SuiteName: "shape_stride", CaseCount: len(envelopes)}
	for _, env := range envelopes {
		var c ShapeStrideCase
		if err := env.Decode(&c); err != nil {
			return SuiteReport{}, err
		}

		ok, detail := evaluateShapeStrideCase(c)
		if ok {
			report.PassCount++
			continue
		}
		report.Failures = append(report.Failures, failureLine(c.ID, c.Seed, c.Operation, c.ReasonCode, c.EnvFingerprint, c.ArtifactRefs, detail))
	}
	return report, nil
}

func evaluateShapeStrideCase(c ShapeStrideCase) (bool, string) {
	switch c.Operation {
	case "broadcast":
		got, err := BroadcastShapes(c.LeftShape, c.RightShape)
		return matchShapeOrError(got, err, c)
	case "strides":
		got, err := ContiguousStrides(c.InputShape, c.Order)
		if err != nil {
			return matchError(err, c)
		}
		if !shapesEqual(got, c.ExpectedStrides) {
			return false, fmt.Sprintf("expected strides %v, got %v", c.ExpectedStrides, got)
		}
		return true, ""
	case "broadcast_to":
		err := BroadcastTo(c.InputShape, c.TargetShape)
		if c.ExpectErrorContains != "" {
			return matchError(err, c)
		}
		if err != nil {
			return false, err.Error()
		}
		return true, ""
	case "sliding_window_view":
		got, err := SlidingWindowView(c.InputShape, c.WindowShape)
		return matchShapeOrError(got, err, c)
	case "as_strided":
		got, err := AsStrided(c.InputShape, c.Order, c.TargetShape)
		if c.ExpectErrorContains != "" {
			return matchError(err, c)
		}
		if err != nil {
			return false, err.Error()
		}
		if len(c.ExpectedShape) > 0 && !shapesEqual(c.TargetShape, c.ExpectedShape) {
			return false, fmt.Sprintf("expected view shape %v, got %v", c.ExpectedShape, c.TargetShape)
		}
		if !shapesEqual(got, c.ExpectedStrides) {
			return false, fmt.Sprintf("expected strides %v, got %v", c.ExpectedStrides, got)
		}
		return true, ""
	default:
		return false, fmt.Sprintf("unknown shape/stride operation %q", c.Operation)
	}
}

func matchShapeOrError(got []int, err error, c ShapeStrideCase) (bool, string) {
	if c.ExpectErrorContains != "" {
		return matchError(err, c)
	}
	if err != nil {
		return false, err.Error()
	}
	if !shapesEqual(got, c.ExpectedShape) {
		return false, fmt.Sprintf("expected shape %v, got %v", c.ExpectedShape, got)
	}
	return true, ""
}

func matchError(err error, c ShapeStrideCase) (bool, string) {
	if err == nil {
		return false, fmt.Sprintf("expected error containing %q, got none", c.ExpectErrorContains)
	}
	if !strings.Contains(err.Error(), c.ExpectErrorContains) {
		return false, fmt.Sprintf("expected error containing %q, got %q", c.ExpectErrorContains, err.Error())
	}
	if c.ReasonCode != "" {
		if rc, ok := err.(fnerr.ReasonCoder); ok && rc.ReasonCode() != c.ReasonCode {
			return false, fmt.Sprintf("expected reason_code %q, got %q", c.ReasonCode, rc.ReasonCode())
		}
	}
	return true, ""
}
