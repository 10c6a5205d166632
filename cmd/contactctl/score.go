package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/portfolio/backend/internal/botscore"
	"github.com/portfolio/backend/internal/model"
	"github.com/portfolio/backend/internal/validation"
)

type scoreOutput struct {
	Valid     bool               `json:"valid"`
	Errors    []model.FieldError `json:"errors,omitempty"`
	Score     int                `json:"score"`
	Threshold int                `json:"threshold"`
	Bot       bool               `json:"bot"`
	Hits      []botscore.Hit     `json:"hits"`
}

func newScoreCmd() *cobra.Command {
	var (
		sc        model.ScoringContext
		threshold int
	)
	cmd := &cobra.Command{
		Use:   "score <file.json | ->",
		Short: "Validate and score a contact submission without sending mail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}

			var req model.ContactRequest
			if err := json.NewDecoder(r).Decode(&req); err != nil {
				return fmt.Errorf("decode submission: %w", err)
			}

			out := scoreOutput{Threshold: threshold, Hits: []botscore.Hit{}}
			sub, err := validation.New().Validate(req)
			var verrs validation.Errors
			switch {
			case errors.As(err, &verrs):
				out.Errors = verrs
			case err != nil:
				return err
			default:
				out.Valid = true
				report := botscore.New(botscore.WithThreshold(threshold)).Evaluate(sub, sc)
				out.Score, out.Bot = report.Score, report.Bot
				if report.Hits != nil {
					out.Hits = report.Hits
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&sc.UserAgent, "user-agent", "", "User-Agent header to score against")
	cmd.Flags().StringVar(&sc.Referer, "referer", "", "Referer header to score against")
	cmd.Flags().IntVar(&threshold, "threshold", botscore.DefaultThreshold, "scores above this are treated as bots")
	return cmd
}
