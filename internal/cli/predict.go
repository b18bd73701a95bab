package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/amaumene/foldpredict/internal/app"
	"github.com/amaumene/foldpredict/internal/clients"
	"github.com/amaumene/foldpredict/internal/config"
	"github.com/amaumene/foldpredict/internal/domain"
	"github.com/amaumene/foldpredict/internal/sequence"
	"github.com/amaumene/foldpredict/internal/service"
	"github.com/amaumene/foldpredict/internal/storage"
	"github.com/spf13/cobra"
)

func predictCmd(configPath *string) *cobra.Command {
	var seq string
	var fastaPath string

	c := &cobra.Command{
		Use:   "predict",
		Short: "Fold one sequence and print the summary as JSON (no server)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if (seq == "") == (fastaPath == "") {
				return errors.New("exactly one of --sequence or --fasta is required")
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := app.ConfigureLogging(cfg); err != nil {
				return err
			}

			if fastaPath != "" {
				seq, err = readFirstRecord(fastaPath)
				if err != nil {
					return err
				}
			}

			files, err := storage.NewFileStore(cfg.StaticDir, cfg.DirPermissions)
			if err != nil {
				return err
			}
			folder := clients.NewESMFoldClient(cfg.ESMFoldURL, cfg.HTTPTimeout, cfg.MaxStructureBytes)
			svc := service.NewPredictionService(cfg, folder, files, nil)

			prediction, err := svc.Predict(cmd.Context(), seq)
			if err != nil {
				return err
			}
			path, err := files.Path(prediction.File)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(domain.Result{
				PDBURL:          path,
				Confidence:      prediction.Confidence,
				MolecularWeight: prediction.MolecularWeight,
				SequenceLength:  prediction.SequenceLength,
			})
		},
	}

	c.Flags().StringVarP(&seq, "sequence", "s", "", "Amino acid sequence")
	c.Flags().StringVarP(&fastaPath, "fasta", "f", "", "FASTA file; the first record is folded")
	return c
}

func readFirstRecord(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening fasta file: %w", err)
	}
	defer f.Close()

	records, err := sequence.ParseFasta(f)
	if err != nil {
		return "", fmt.Errorf("reading fasta file: %w", err)
	}
	if len(records) == 0 {
		return "", fmt.Errorf("no records in %s", path)
	}
	return records[0].Sequence, nil
}
