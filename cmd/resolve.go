package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/alexmaslar/riff-plugin-editorial/internal/editorial"
)

const (
	outputAuto  = "auto"
	outputJSON  = "json"
	outputTable = "table"

	excerptWidth = 60
)

type resolveOptions struct {
	title  string
	artist string
	year   int
	source string
	output string
}

// newResolveCmd creates the 'resolve' subcommand, a one-off lookup that
// prints the same envelope the API returns.
func newResolveCmd() *cobra.Command {
	opts := &resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Looks up reviews of one album",
		Long: `Resolves the album against one source (--source) or every enabled
source. Output is a table on a terminal and the JSON envelope otherwise.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolveCommand(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.title, "title", "", "album title (required)")
	cmd.Flags().StringVar(&opts.artist, "artist", "", "album artist (required)")
	cmd.Flags().IntVar(&opts.year, "year", 0, "release year")
	cmd.Flags().StringVar(&opts.source, "source", "", "resolve against this source only")
	cmd.Flags().StringVarP(&opts.output, "output", "o", outputAuto, "output format: auto, json or table")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("artist")
	return cmd
}

func runResolveCommand(cmd *cobra.Command, opts *resolveOptions) error {
	switch opts.output {
	case outputAuto, outputJSON, outputTable:
	default:
		return fmt.Errorf("unknown output format %q", opts.output)
	}
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	input := editorial.Input{Title: opts.title, Artist: opts.artist}
	if cmd.Flags().Changed("year") {
		year := opts.year
		input.Year = &year
	}

	service := appInstance.GetService()
	var result editorial.Result
	if opts.source == "" {
		result = service.AllReviews(cmd.Context(), input)
	} else {
		result, err = service.Reviews(cmd.Context(), opts.source, input)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if opts.output == outputTable || (opts.output == outputAuto && isTerminal(out)) {
		_, err = fmt.Fprintln(out, renderReviews(result))
		return err
	}
	return writeEnvelope(out, result)
}

func writeEnvelope(w io.Writer, result editorial.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

func renderReviews(result editorial.Result) string {
	if len(result.Reviews) == 0 {
		return "No reviews found."
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Source", "Rating", "Votes", "Reviewer", "Date", "Excerpt", "URL"})
	for _, e := range result.Reviews {
		tw.AppendRow(table.Row{
			e.Source,
			formatRating(e.Rating),
			formatCount(e.RatingCount),
			deref(e.Reviewer),
			deref(e.ReviewDate),
			deref(e.Excerpt),
			e.SourceURL,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 6, WidthMax: excerptWidth},
	})
	return tw.Render()
}

func formatRating(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func formatCount(v *uint32) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatUint(uint64(*v), 10)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
