package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/themaplelab/openj9-omr-sub000/idt"
	"github.com/themaplelab/openj9-omr-sub000/pkg/program"
	"github.com/themaplelab/openj9-omr-sub000/pkg/report"
)

type buildFlags struct {
	program  string
	method   string
	config   string
	budget   int
	optLevel string
	format   string
	logLevel string
	strict   bool
}

func newBuildCmd() *cobra.Command {
	var f buildFlags
	cmd := &cobra.Command{
		Use:   "build --program FILE --method CLASS.NAME[(DESC)]",
		Short: "builds the inlining tree of a method and selects what to inline",
		Long: `Build interprets the method and its callees, builds the inlining
dependency tree and selects the nodes to inline within the budget.

Without --budget the budget is derived from --opt-level and the size of
the method.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, f)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&f.program, "program", "p", "", "YAML program description")
	flags.StringVarP(&f.method, "method", "m", "", "root method")
	flags.StringVar(&f.config, "config", "", "YAML options file")
	flags.IntVarP(&f.budget, "budget", "b", 0, "inlining budget in bytes; 0 derives it from --opt-level")
	flags.StringVar(&f.optLevel, "opt-level", "warm", "optimization level: cold, warm, hot, veryhot, scorching")
	flags.StringVar(&f.format, "format", "text", "output format: text or yaml")
	flags.StringVar(&f.logLevel, "log-level", "", "log level: error, warn, info, debug")
	flags.BoolVar(&f.strict, "strict", false, "fail methods with unresolved references")
	_ = cmd.MarkFlagRequired("program")
	_ = cmd.MarkFlagRequired("method")
	return cmd
}

func loadProgram(path string) (*program.Program, error) {
	if path == "" {
		return nil, fmt.Errorf("no program given")
	}
	return program.LoadFile(path)
}

func loadOptions(path string) (idt.Options, error) {
	if path == "" {
		return idt.DefaultOptions(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return idt.Options{}, err
	}
	defer f.Close()
	opts, err := idt.LoadOptions(f)
	if err != nil {
		return idt.Options{}, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}

func runBuild(cmd *cobra.Command, f buildFlags) error {
	if f.format != "text" && f.format != "yaml" {
		return fmt.Errorf("unknown format %q", f.format)
	}
	level, err := idt.ParseOptLevel(f.optLevel)
	if err != nil {
		return err
	}
	opts, err := loadOptions(f.config)
	if err != nil {
		return err
	}
	if f.logLevel != "" {
		opts.LogLevel = f.logLevel
	}
	if cmd.Flags().Changed("strict") {
		opts.Interpreter.StrictMode = f.strict
	}

	p, err := loadProgram(f.program)
	if err != nil {
		return err
	}
	root, err := p.FindMethod(f.method)
	if err != nil {
		return err
	}
	budget := f.budget
	if budget <= 0 {
		budget = opts.BudgetFor(level, root.ByteSize)
	}

	tree, err := idt.NewBuilder(p, p, opts).Build(cmd.Context(), root, budget)
	if err != nil {
		return err
	}
	r := report.New(tree, idt.Select(tree, budget), budget)
	if f.format == "yaml" {
		return r.WriteYAML(cmd.OutOrStdout())
	}
	return r.WriteText(cmd.OutOrStdout())
}
