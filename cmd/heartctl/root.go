package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/heart-disease-api/internal/classifier"
	"github.com/iliyamo/heart-disease-api/internal/client"
	"github.com/iliyamo/heart-disease-api/internal/model"
	"github.com/iliyamo/heart-disease-api/internal/predictor"
	"github.com/iliyamo/heart-disease-api/internal/utils"
)

func newRootCmd() *cobra.Command {
	var baseURL string
	root := &cobra.Command{
		Use:          "heartctl",
		Short:        "Client for the heart disease prediction API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&baseURL, "url", client.DefaultBaseURL, "base URL of the API")

	root.AddCommand(
		newHealthCmd(&baseURL),
		newPredictCmd(&baseURL),
		newDemoCmd(),
		newHashKeyCmd(),
	)
	return root
}

func newHealthCmd(baseURL *string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the /health endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := client.New(*baseURL).Health(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(h)
		},
	}
}

func newPredictCmd(baseURL *string) *cobra.Command {
	var (
		index int
		file  string
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Send a sample patient (or a JSON file) to /predict",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var payload any
			if file != "" {
				raw, err := readPatientFile(file)
				if err != nil {
					return err
				}
				payload = raw
			} else {
				if index < 0 || index >= len(client.SamplePatients) {
					return fmt.Errorf("--patient must be between 0 and %d", len(client.SamplePatients)-1)
				}
				payload = client.SamplePatients[index]
			}
			p, err := client.New(*baseURL).Predict(cmd.Context(), payload)
			if err != nil {
				return err
			}
			printPrediction(cmd.OutOrStdout(), p)
			return nil
		},
	}
	cmd.Flags().IntVar(&index, "patient", 0, "index of the built-in sample patient")
	cmd.Flags().StringVar(&file, "file", "", "path to a JSON patient record")
	return cmd
}

func newDemoCmd() *cobra.Command {
	var modelPath string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Score the sample patients locally without a server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := classifier.Open(cmd.Context(), modelPath, "")
			if err != nil {
				return err
			}
			return runDemo(cmd.Context(), cmd.OutOrStdout(), predictor.NewService(m, nil, nil, nil))
		},
	}
	cmd.Flags().StringVar(&modelPath, "model", "", "model artifact (defaults to the built-in one)")
	return cmd
}

func newHashKeyCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-key <api-key>",
		Short: "Print the bcrypt hash to use as OPERATOR_API_KEY_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := utils.HashKey(args[0], cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}

func runDemo(ctx context.Context, w io.Writer, svc *predictor.Service) error {
	for i, p := range client.SamplePatients {
		pred, err := svc.Predict(ctx, p)
		if err != nil {
			return fmt.Errorf("patient %d: %w", i+1, err)
		}
		fmt.Fprintf(w, "Patient %d:\n", i+1)
		printPrediction(w, pred)
	}
	return nil
}

func readPatientFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return raw, nil
}

func printPrediction(w io.Writer, p model.Prediction) {
	fmt.Fprintf(w, "  Probability:    %.2f%%\n", p.Probability*100)
	fmt.Fprintf(w, "  Interpretation: %s\n", p.Interpretation)
	fmt.Fprintf(w, "  Risk level:     %s\n", p.RiskLevel)
	fmt.Fprintf(w, "  Prediction:     %d\n", p.Label)
}
