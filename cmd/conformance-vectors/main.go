// Prints the reference fusion of two judgments under every operator: the
// canonical bytes, the conformance seal and the fused components. Other
// implementations can compare their output against it.
package main

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/trustfuse/internal/canonical"
	"github.com/ppiankov/trustfuse/internal/fusion"
	"github.com/ppiankov/trustfuse/internal/model"
	"github.com/ppiankov/trustfuse/internal/seal"
)

func main() {
	fmt.Println("=== Conformance Vectors ===")
	fmt.Println()

	const ts = "2023-01-01T00:00:00Z"
	j1, err := model.NewJudgment(0.8, 0.2, 0.0, model.NewEntry("s1", ts))
	if err != nil {
		fail(err)
	}
	j2, err := model.NewJudgment(0.6, 0.3, 0.1, model.NewEntry("s2", ts))
	if err != nil {
		fail(err)
	}
	inputs := []*model.Judgment{j1, j2}
	weights := []float64{0.6, 0.4}

	fixed := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	engine := fusion.NewEngine(fusion.WithClock(func() time.Time { return fixed }))

	for _, op := range model.Operators() {
		fmt.Printf("%s (%s)\n", op, op.Label())
		fmt.Println(strings.Repeat("-", 60))

		res, err := engine.FuseDetailed(op, inputs, weights)
		if err != nil {
			fail(err)
		}

		fmt.Printf("  Canonical: %s\n", canonical.Canonicalize(inputs, weights, op))
		fmt.Printf("  Seal:      %s\n", res.Seal)
		fmt.Printf("  Result:    T=%.12f I=%.12f F=%.12f\n", res.Judgment.T(), res.Judgment.I(), res.Judgment.F())
		if op == model.OperatorCAWA {
			fmt.Printf("  Conflict:  %.12f\n", res.Conflict)
		}
		if res.Renormalized {
			fmt.Printf("  Renormalized from T=%.12f I=%.12f F=%.12f\n", res.Raw.T, res.Raw.I, res.Raw.F)
		}

		ok, err := seal.Verify(res.Judgment, op, inputs, weights)
		if err != nil {
			fail(err)
		}
		tampered, err := seal.Verify(res.Judgment, op, inputs, []float64{0.5, 0.5})
		if err != nil {
			fail(err)
		}
		nudged, err := seal.Verify(res.Judgment, op, inputs, []float64{math.Nextafter(0.6, 1), 0.4})
		if err != nil {
			fail(err)
		}
		fmt.Printf("  Verify:    %v (tampered weights: %v, weight +1ulp: %v)\n", ok, tampered, nudged)
		fmt.Printf("  Judgment id: %s\n", seal.JudgmentID(res.Judgment))
		fmt.Printf("  Record id:   %s\n", seal.RecordID(res.Judgment))
		fmt.Println()
	}

	fmt.Printf("Judgment id of s1 input: %s\n", seal.JudgmentID(j1))
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
