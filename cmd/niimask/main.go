package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"niimask/internal/logging"
	"niimask/pkg/codec/nifti"
	"niimask/pkg/config"
	"niimask/pkg/convert"
	"niimask/pkg/editor"
	"niimask/pkg/visualization"
)

const usage = `niimask edits binary masks over NIfTI volumes and PDF documents.

Usage:
  niimask <command> [flags]

Commands:
  edit      replay an editing script against a volume, document or slice directory
  pdf2nii   convert an annotated PDF into a mask volume
  nii2deck  render every slice of a volume as a PDF slide deck
  inspect   print the header and statistics of a .nii or page count of a .pdf
  slices    export the slices of a volume as PNG images
  config    write the default configuration file

Run "niimask <command> -h" for the flags of a command.
`

// common holds the flags every command shares.
type common struct {
	configPath string
	verbose    bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "niimask.yaml", "Configuration file")
	fs.BoolVar(&c.verbose, "v", false, "Verbose logging to stderr")
}

// setup loads the configuration and installs the logger.
func (c *common) setup() *config.Config {
	cfg, err := config.LoadConfig(c.configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level := slog.LevelWarn
	if c.verbose || cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	return cfg
}

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "edit":
		runEdit(ctx, args)
	case "pdf2nii":
		runPDF2NII(ctx, args)
	case "nii2deck":
		runNII2Deck(ctx, args)
	case "inspect":
		runInspect(args)
	case "slices":
		runSlices(args)
	case "config":
		runConfig(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n%s", cmd, usage)
		os.Exit(1)
	}
}

func runEdit(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("edit", flag.ExitOnError)
	var c common
	c.register(fs)
	scriptPath := fs.String("script", "", "YAML editing script")
	input := fs.String("input", "", "File or directory to edit (overrides the script input)")
	output := fs.String("output", "", "Where to save the result (overrides the script output)")
	autoCommit := fs.Bool("auto-commit", false, "Commit fill polygons on pointer-up")
	fs.Parse(args)

	if *scriptPath == "" {
		fs.Usage()
		os.Exit(1)
	}
	cfg := c.setup()

	script, err := editor.LoadScript(*scriptPath)
	if err != nil {
		log.Fatalf("Failed to load script: %v", err)
	}
	if *input != "" {
		script.Input = *input
	}
	if *output != "" {
		script.Output = *output
	}
	if script.Input == "" {
		log.Fatalf("No input given in %s or on the command line", *scriptPath)
	}

	session, err := editor.NewSession(cfg)
	if err != nil {
		log.Fatalf("Failed to create editing session: %v", err)
	}
	if *autoCommit {
		session.AutoCommitFill = true
	}

	fmt.Printf("Editing %s with %d events...\n", script.Input, len(script.Events))
	startTime := time.Now()
	report, err := script.Run(ctx, session)
	if err != nil {
		log.Fatalf("Editing failed: %v", err)
	}

	fmt.Printf("\nApplied %d events in %.2f seconds\n", report.Events, time.Since(startTime).Seconds())
	fmt.Printf("- Frames: %d (active %d)\n", session.Len(), session.Index())
	fmt.Printf("- Filled pixels: %d\n", report.Filled)
	fmt.Printf("- Undone edits: %d\n", report.Undone)
	fmt.Printf("- Undo depth remaining: %d (%d bytes)\n", session.UndoDepth(), session.HistoryBytes())
	for _, w := range report.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
	for _, p := range report.Previews {
		fmt.Printf("Preview written to: %s\n", p)
	}
	for _, p := range report.Saved {
		fmt.Printf("Saved to: %s\n", p)
	}
}

func runPDF2NII(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("pdf2nii", flag.ExitOnError)
	var c common
	c.register(fs)
	input := fs.String("input", "", "Annotated PDF")
	output := fs.String("output", "", "Output volume (default convert_<name>.nii next to the input)")
	fs.Parse(args)

	if *input == "" {
		fs.Usage()
		os.Exit(1)
	}
	cfg := c.setup()

	outPath := *output
	if outPath == "" {
		outPath = convert.MaskVolumePath(*input)
	}

	fmt.Printf("Converting %s...\n", *input)
	vol, err := convert.DocumentToMaskVolume(ctx, *input, outPath, convert.MaskOptionsFromConfig(cfg))
	if err != nil {
		log.Fatalf("Conversion failed: %v", err)
	}
	fmt.Printf("Mask volume %dx%dx%d saved to: %s\n", vol.Width, vol.Height, vol.Depth, outPath)
}

func runNII2Deck(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("nii2deck", flag.ExitOnError)
	var c common
	c.register(fs)
	input := fs.String("input", "", "Volume (.nii or .nii.gz)")
	output := fs.String("output", "", "Output deck (default <name>.pdf next to the input)")
	axis := fs.String("axis", "", "Slice axis x, y or z (default from configuration)")
	fs.Parse(args)

	if *input == "" {
		fs.Usage()
		os.Exit(1)
	}
	cfg := c.setup()

	outPath := *output
	if outPath == "" {
		outPath = convert.DeckPath(*input)
	}
	opts := convert.DeckOptionsFromConfig(cfg)
	if *axis != "" {
		opts.Axis = *axis
	}

	vol, err := nifti.ReadVolume(*input)
	if err != nil {
		log.Fatalf("Failed to read volume: %v", err)
	}

	fmt.Printf("Rendering %s-axis slices of %s...\n", opts.Axis, *input)
	if err := convert.VolumeToDeck(ctx, vol, outPath, opts); err != nil {
		log.Fatalf("Rendering failed: %v", err)
	}
	fmt.Printf("Slide deck saved to: %s\n", outPath)
}

func runInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	var c common
	c.register(fs)
	fs.Parse(args)

	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: niimask inspect [flags] <file.nii|file.pdf>...")
		os.Exit(1)
	}
	c.setup()

	for _, path := range fs.Args() {
		var info fmt.Stringer
		var err error
		if strings.HasSuffix(strings.ToLower(path), ".pdf") {
			info, err = convert.InspectDocument(path)
		} else {
			info, err = convert.Inspect(path)
		}
		if err != nil {
			log.Printf("Warning: %v", err)
			continue
		}
		fmt.Println(info.String())
	}
}

func runSlices(args []string) {
	fs := flag.NewFlagSet("slices", flag.ExitOnError)
	var c common
	c.register(fs)
	input := fs.String("input", "", "Volume (.nii or .nii.gz)")
	slicesDir := fs.String("dir", "slices", "Directory to save the slices")
	axis := fs.String("axis", "all", "Axis x, y, z or all")
	fs.Parse(args)

	if *input == "" {
		fs.Usage()
		os.Exit(1)
	}
	c.setup()

	vol, err := nifti.ReadVolume(*input)
	if err != nil {
		log.Fatalf("Failed to read volume: %v", err)
	}
	viewer := visualization.NewViewer(vol)

	axes := []string{*axis}
	if *axis == "all" {
		axes = []string{"x", "y", "z"}
	}

	for _, a := range axes {
		axisDir := filepath.Join(*slicesDir, a)
		fmt.Printf("Saving %s-axis slices to: %s\n", a, axisDir)

		if err := viewer.SaveSliceSequence(a, axisDir); err != nil {
			log.Printf("Warning: Failed to save %s-axis slices: %v", a, err)
		}
	}

	fmt.Println("Slice extraction completed!")
}

func runConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	output := fs.String("output", "niimask.yaml", "Where to write the configuration")
	fs.Parse(args)

	if err := config.CreateDefaultConfigFile(*output); err != nil {
		log.Fatalf("Failed to write configuration: %v", err)
	}
	fmt.Printf("Default configuration written to: %s\n", *output)
}
