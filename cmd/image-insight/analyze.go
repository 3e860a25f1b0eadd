package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	imageinsight "github.com/menta2k/image-insight"
	"github.com/menta2k/image-insight/internal/utils"
	"github.com/menta2k/image-insight/pkg/processing"
	"github.com/menta2k/image-insight/pkg/types"
)

var (
	analyzeJSON    bool
	analyzeOverlay string
	analyzeCrops   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|url|dir>...",
	Short: "Describe one or more images",
	Long: `Analyzes each image and prints its caption, narrative and smart tags.
Directories are searched recursively for image files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output results as JSON")
	analyzeCmd.Flags().StringVar(&analyzeOverlay, "overlay", "", "write subject overlays to this directory")
	analyzeCmd.Flags().BoolVar(&analyzeCrops, "crops", false, "include crop suggestions for common aspect ratios")
	rootCmd.AddCommand(analyzeCmd)
}

// report is one analyzed input as printed by the CLI
type report struct {
	Source  string                 `json:"source"`
	Size    string                 `json:"size,omitempty"`
	Result  *types.AnalysisResult  `json:"result,omitempty"`
	Crops   map[string]cropSummary `json:"crops,omitempty"`
	Overlay string                 `json:"overlay,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

type cropSummary struct {
	Box     types.Box `json:"box"`
	Quality float64   `json:"quality"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLog()
	if err != nil {
		return err
	}
	defer log.Close()

	insight, err := newInsight(cfg, log)
	if err != nil {
		return err
	}

	sources, err := expandSources(args)
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		return errNoInput
	}
	if analyzeOverlay != "" {
		if err := utils.EnsureDir(analyzeOverlay); err != nil {
			return fmt.Errorf("failed to create overlay directory: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var reports []report
	failed := 0
	for _, source := range sources {
		r := analyzeOne(ctx, insight, source)
		if r.Error != "" {
			failed++
			log.Errorf("%v: %v", source, r.Error)
		}
		if !analyzeJSON {
			printReport(cmd.OutOrStdout(), r)
		}
		reports = append(reports, r)
		if ctx.Err() != nil {
			break
		}
	}

	if analyzeJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(sources))
	}
	return nil
}

// expandSources replaces directories with the image files below them
func expandSources(args []string) ([]string, error) {
	var sources []string
	for _, arg := range args {
		if !utils.IsURL(arg) && utils.DirExists(arg) {
			files, err := utils.ListImageFiles(arg)
			if err != nil {
				return nil, fmt.Errorf("failed to list %s: %w", arg, err)
			}
			sources = append(sources, files...)
			continue
		}
		sources = append(sources, arg)
	}
	return sources, nil
}

func analyzeOne(ctx context.Context, insight *imageinsight.Insight, source string) report {
	r := report{Source: source}

	loaded, err := processing.NewProcessor().Load(ctx, source)
	if err != nil {
		r.Error = fmt.Sprintf("failed to load image: %v", err)
		return r
	}
	r.Size = utils.FormatFileSize(int64(len(loaded.Data)))

	r.Result, err = insight.AnalyzeBytes(ctx, loaded.Data)
	if err != nil {
		r.Error = err.Error()
		return r
	}

	if analyzeCrops {
		crops, err := insight.SuggestCrops(r.Result)
		if err != nil {
			r.Error = err.Error()
			return r
		}
		r.Crops = make(map[string]cropSummary, len(crops))
		for name, c := range crops {
			r.Crops[name] = cropSummary{Box: c.Box, Quality: c.Quality}
		}
	}

	if analyzeOverlay != "" {
		path := utils.GenerateOutputFilename(source, analyzeOverlay, "", "_insight", "png")
		if err := insight.SaveImage(insight.Overlay(loaded.Image, r.Result), path, "png"); err != nil {
			r.Error = fmt.Sprintf("failed to save overlay: %v", err)
			return r
		}
		r.Overlay = path
	}
	return r
}

func printReport(w io.Writer, r report) {
	fmt.Fprintf(w, "%s\n", r.Source)
	if r.Error != "" {
		fmt.Fprintf(w, "  error: %s\n\n", r.Error)
		return
	}
	res := r.Result
	fmt.Fprintf(w, "  size:      %s\n", r.Size)
	fmt.Fprintf(w, "  caption:   %s\n", res.Caption)
	fmt.Fprintf(w, "  narrative: %s\n", res.Narrative)
	fmt.Fprintf(w, "  purpose:   %s\n", res.Purpose)
	if len(res.Subjects) > 0 {
		names := make([]string, 0, len(res.Subjects))
		for _, s := range res.Subjects {
			names = append(names, fmt.Sprintf("%s (%.2f)", s.Label, s.Confidence))
		}
		fmt.Fprintf(w, "  subjects:  %s\n", strings.Join(names, ", "))
	}
	if len(res.SmartTags) > 0 {
		tags := make([]string, 0, len(res.SmartTags))
		for _, t := range res.SmartTags {
			tags = append(tags, fmt.Sprintf("%s [%s]", t.Label, t.Category))
		}
		fmt.Fprintf(w, "  tags:      %s\n", strings.Join(tags, ", "))
	}
	names := make([]string, 0, len(r.Crops))
	for name := range r.Crops {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := r.Crops[name]
		fmt.Fprintf(w, "  crop %-10s %.3f,%.3f %.3fx%.3f quality %.2f\n", name, c.Box.X, c.Box.Y, c.Box.W, c.Box.H, c.Quality)
	}
	if r.Overlay != "" {
		fmt.Fprintf(w, "  overlay:   %s\n", r.Overlay)
	}
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "  warning:   %s\n", warning)
	}
	fmt.Fprintln(w)
}
