package main

import (
	"fmt"
	"io"
	"os"

	"github.com/creasty/defaults"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/aouyang1/go-forecast-api/pipeline"
	"github.com/aouyang1/go-forecast-api/plot"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		input    string
		plotPath string
		explain  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Forecast a single request read from a json file",
		Long: `Reads a forecast request of the form {"data":[{"date":"2024-01-01","value":1}],"periods":30}
from --input (or stdin when "-") and writes the forecast response as json to stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(cmd, input)
			if err != nil {
				return err
			}

			var opts []pipeline.Option
			if explain {
				opts = append(opts, pipeline.WithExplain(cmd.ErrOrStderr()))
			}
			p, err := a.pipeline(nil, opts...)
			if err != nil {
				return err
			}

			resp, err := p.Run(cmd.Context(), *req)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return fmt.Errorf("unable to encode response, %w", err)
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), string(out)); err != nil {
				return err
			}

			if plotPath != "" {
				return writePlot(plotPath, resp)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "request json file, - for stdin")
	cmd.Flags().StringVar(&plotPath, "plot", "", "write an html chart of the forecast to this path")
	cmd.Flags().BoolVar(&explain, "explain", false, "print the fitted model to stderr")
	return cmd
}

func readRequest(cmd *cobra.Command, input string) (*pipeline.ForecastRequest, error) {
	var r io.Reader = cmd.InOrStdin()
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	req := &pipeline.ForecastRequest{}
	if err := json.NewDecoder(r).Decode(req); err != nil {
		return nil, fmt.Errorf("unable to decode request, %w", err)
	}
	if err := defaults.Set(req); err != nil {
		return nil, err
	}
	return req, nil
}

func writePlot(path string, resp *pipeline.ForecastResponse) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := plot.Render(f, resp); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
