package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccapprove/ccapprove/internal/approver"
	"github.com/ccapprove/ccapprove/internal/policy"
	"github.com/ccapprove/ccapprove/internal/settings"
	"github.com/ccapprove/ccapprove/internal/trainer"
)

func NewTrainCmd() *cobra.Command {
	var (
		trainPath    string
		valPath      string
		savePath     string
		maxDemos     int
		historyBytes int
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Build a decision artifact from labeled JSONL examples",
		Long: `Reads labeled examples (tool, tool input, allow/deny/ask label), selects
a balanced set of demos, scores the candidate artifact against held-out
examples through the configured model, and saves it where the hook will
pick it up.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			projectDir := settings.ProjectDir()

			chain, err := settings.NewResolver(projectDir).Resolve()
			if err != nil {
				return err
			}
			cfg, err := settings.DecodeApproverConfig(chain.Effective, projectDir)
			if err != nil {
				return err
			}
			providers, err := settings.DecodeProvidersConfig(chain.Effective)
			if err != nil {
				return err
			}

			policyText := policy.Compose(
				policy.FragmentFromDocument(chain.Document(settings.ScopeGlobal)),
				policy.FragmentFromDocument(chain.Document(settings.ScopeProject)),
				policy.FragmentFromDocument(chain.Document(settings.ScopeLocal)),
			)

			examples, err := trainer.ReadJSONL(trainPath, historyBytes)
			if err != nil {
				return err
			}
			if len(examples) == 0 {
				return fmt.Errorf("no usable training examples in %s", trainPath)
			}

			var trainSet, devSet []trainer.Example
			if valPath != "" {
				devSet, err = trainer.ReadJSONL(valPath, historyBytes)
				if err != nil {
					return err
				}
				trainSet = examples
			} else {
				trainSet, devSet = trainer.Split(examples, trainer.SplitSeed, trainer.SplitRatio)
			}

			chat, err := approver.NewChatModel(cmd.Context(), providers, cfg.Model)
			if err != nil {
				return err
			}

			artifact, err := trainer.Train(cmd.Context(),
				func(candidate *approver.Artifact) approver.Program {
					return approver.NewProgram(chat, candidate)
				},
				trainSet, devSet,
				trainer.Options{
					Model:    cfg.Model,
					Policy:   policyText,
					MaxDemos: maxDemos,
				})
			if err != nil {
				return err
			}

			target := savePath
			if target == "" {
				target = cfg.ArtifactPath
			}
			if err := artifact.Save(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Saved decision artifact to %s\n", target)
			fmt.Fprintf(out, "Validation accuracy: %.3f (%d train / %d val)\n", artifact.Accuracy, len(trainSet), len(devSet))
			return nil
		},
	}

	cmd.Flags().StringVar(&trainPath, "train", "", "Labeled JSONL training file")
	cmd.Flags().StringVar(&valPath, "val", "", "Labeled JSONL validation file (default: 20% split of --train)")
	cmd.Flags().StringVar(&savePath, "save", "", "Artifact output path (default: configured artifactPath)")
	cmd.Flags().IntVar(&maxDemos, "max-demos", trainer.DefaultMaxDemos, "Maximum demos embedded in the artifact")
	cmd.Flags().IntVar(&historyBytes, "history-bytes", 0, "Transcript history cap when examples reference transcripts")
	_ = cmd.MarkFlagRequired("train")

	return cmd
}
