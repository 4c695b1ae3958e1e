// Command fsmcanvas is a TUI editor for state-machine diagrams, with
// batch subcommands for layout and PNG export.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ha1tch/fsm-canvas/pkg/canvasfile"
	"github.com/ha1tch/fsm-canvas/pkg/geom"
	"github.com/ha1tch/fsm-canvas/pkg/graph"
	"github.com/ha1tch/fsm-canvas/pkg/layout"
)

var (
	flagVerbose bool
	logger      = log.New(os.Stderr)
)

func main() {
	root := &cobra.Command{
		Use:   "fsmcanvas [file]",
		Short: "Interactive state-machine diagram editor",
		Args:  cobra.MaximumNArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flagVerbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runEdit(path)
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newEditCmd(), newLayoutCmd(), newExportCmd())

	if err := root.Execute(); err != nil {
		logger.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func newEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit [file]",
		Short: "Open the interactive editor",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runEdit(path)
		},
	}
}

func newLayoutCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "layout <file>",
		Short: "Rewrite node positions with an automatic arrangement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, name, err := canvasfile.ReadFile(args[0])
			if err != nil {
				return err
			}

			switch mode {
			case "tree":
				applyLayout(doc, layout.Tree(doc))
			case "concentrate":
				applyLayout(doc, layout.Concentrate(doc, logger))
			default:
				return fmt.Errorf("unknown layout mode %q (want tree or concentrate)", mode)
			}

			if err := canvasfile.WriteFile(args[0], doc, name); err != nil {
				return err
			}
			logger.Info("layout applied", "file", args[0], "mode", mode, "nodes", doc.NodeCount())
			return nil
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "tree", "layout mode: tree or concentrate")
	return cmd
}

func newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Render a diagram to PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, err := canvasfile.ReadFile(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = args[0] + ".png"
			}

			cfg := LoadConfig()
			opts := canvasfile.DefaultPNGOptions()
			if cfg.Export.Padding > 0 {
				opts.Padding = cfg.Export.Padding
			}
			if cfg.Export.FontSize > 0 {
				opts.FontSize = cfg.Export.FontSize
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := canvasfile.RenderPNG(doc, f, opts); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			logger.Info("exported", "file", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default <file>.png)")
	return cmd
}

func applyLayout(doc *graph.Document, pos map[string]geom.Point) {
	for id, p := range pos {
		if n, ok := doc.Node(id); ok {
			n.MoveTo(p)
		}
	}
}

func runEdit(path string) error {
	cfg := LoadConfig()

	doc := graph.NewDocument()
	name := ""
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			var err error
			doc, name, err = canvasfile.ReadFile(path)
			if err != nil {
				return err
			}
		}
	}

	app := newApp(doc, path, name, cfg)
	defer app.close()
	return app.run()
}
