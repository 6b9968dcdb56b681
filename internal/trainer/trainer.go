package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ccapprove/ccapprove/internal/approver"
)

// DefaultMaxDemos bounds how many worked examples an artifact embeds.
const DefaultMaxDemos = 8

// Options configures one training run.
type Options struct {
	Model    string
	Policy   string
	MaxDemos int
}

// BuildProgram constructs the evaluation program for a candidate
// artifact. Injected so training can be exercised without live model
// calls.
type BuildProgram func(artifact *approver.Artifact) approver.Program

// Train selects demos from the training set, assembles an artifact, and
// scores it on the validation set through the decision function. The
// pipeline itself never sees any of this; it only consumes the artifact
// file the caller saves.
func Train(ctx context.Context, build BuildProgram, train, dev []Example, opts Options) (*approver.Artifact, error) {
	if len(train) == 0 {
		return nil, fmt.Errorf("no training examples")
	}

	maxDemos := opts.MaxDemos
	if maxDemos <= 0 {
		maxDemos = DefaultMaxDemos
	}

	artifact := approver.NewArtifact(opts.Model, SelectDemos(train, maxDemos))
	artifact.TrainedAt = time.Now().UTC()

	if len(dev) > 0 {
		accuracy, err := Evaluate(ctx, build(artifact), opts.Policy, dev)
		if err != nil {
			return nil, err
		}
		artifact.Accuracy = accuracy
	}

	return artifact, nil
}

// SelectDemos picks up to max demos round-robin across labels so the
// artifact never over-represents one verdict class.
func SelectDemos(examples []Example, max int) []approver.Demo {
	byLabel := map[approver.Decision][]Example{}
	for _, example := range examples {
		byLabel[example.Label] = append(byLabel[example.Label], example)
	}

	order := []approver.Decision{approver.DecisionAllow, approver.DecisionDeny, approver.DecisionAsk}
	demos := make([]approver.Demo, 0, max)
	for round := 0; len(demos) < max; round++ {
		added := false
		for _, label := range order {
			pool := byLabel[label]
			if round >= len(pool) {
				continue
			}
			if len(demos) >= max {
				break
			}
			example := pool[round]
			demos = append(demos, approver.Demo{
				Tool:          example.Tool,
				ToolInputJSON: example.ToolInputJSON,
				HistoryTail:   example.HistoryTail,
				Decision:      string(example.Label),
			})
			added = true
		}
		if !added {
			break
		}
	}
	return demos
}

// Evaluate scores a program against labeled examples. A failed decision
// counts as a miss rather than aborting the run; accuracy over a noisy
// model is still the signal being measured.
func Evaluate(ctx context.Context, program approver.Program, policyText string, examples []Example) (float64, error) {
	if len(examples) == 0 {
		return 0, nil
	}

	correct := 0
	for _, example := range examples {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		result, err := program.Decide(ctx, approver.Request{
			Policy:        policyText,
			Tool:          example.Tool,
			ToolInputJSON: example.ToolInputJSON,
			HistoryTail:   example.HistoryTail,
		})
		if err != nil {
			slog.Debug("evaluation decision failed", "tool", example.Tool, "error", err)
			continue
		}

		predicted, ok := approver.NormalizeDecision(result.Decision)
		if ok && predicted == example.Label {
			correct++
		}
	}
	return float64(correct) / float64(len(examples)), nil
}
