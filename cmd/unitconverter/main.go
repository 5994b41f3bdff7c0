package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"unitconverter"
	converterrpc "unitconverter/rpc"
)

const usage = `usage: unitconverter [-config file] <command> [args]

commands:
  convert [-history] <value> <category> <from> <to>
  units [category]
  rules
  history
  serve
  call <value> <category> <from> <to>
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("bad usage")

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("unitconverter", flag.ContinueOnError)
	configPath := fs.String("config", "", "YAML config file")
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := unitconverter.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return errUsage
	}
	switch rest[0] {
	case "convert":
		return runConvert(cfg, rest[1:], out)
	case "units":
		return runUnits(rest[1:], out)
	case "rules":
		return runRules(out)
	case "history":
		return runHistory(cfg, out)
	case "serve":
		return runServe(cfg, logger)
	case "call":
		return runCall(cfg, rest[1:], out)
	}
	fs.Usage()
	return fmt.Errorf("%w: unknown command %q", errUsage, rest[0])
}

func runConvert(cfg unitconverter.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	record := fs.Bool("history", false, "record the conversion in the history database")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 4 {
		return fmt.Errorf("%w: convert takes <value> <category> <from> <to>", errUsage)
	}
	a := fs.Args()
	if !*record {
		fmt.Fprintln(out, unitconverter.Convert(a[0], a[1], a[2], a[3]))
		return nil
	}
	h, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer h.Close()
	rec, err := h.Convert(a[0], a[1], a[2], a[3])
	if err != nil {
		return err
	}
	fmt.Fprintln(out, rec.Output)
	return nil
}

func runUnits(args []string, out io.Writer) error {
	if len(args) == 0 {
		for _, c := range unitconverter.Categories() {
			fmt.Fprintln(out, c)
		}
		return nil
	}
	units := unitconverter.UnitsOf(unitconverter.Category(args[0]))
	if units == nil {
		return fmt.Errorf("unknown category %q", args[0])
	}
	for _, u := range units {
		fmt.Fprintln(out, u)
	}
	return nil
}

func runRules(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tFROM\tTO\t1 =")
	for _, r := range unitconverter.Rules() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Category, r.FromUnit, r.ToUnit, unitconverter.FormatValue(r.Formula(1)))
	}
	return w.Flush()
}

func runHistory(cfg unitconverter.Config, out io.Writer) error {
	h, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer h.Close()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, rec := range h.Records() {
		fmt.Fprintf(w, "%s\t%s\t%s %s\t->\t%s\t%s\n",
			rec.Timestamp.Format(time.RFC3339), rec.Category, rec.Input, rec.FromUnit, rec.ToUnit, rec.Output)
	}
	return w.Flush()
}

func runServe(cfg unitconverter.Config, logger *slog.Logger) error {
	h, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer h.Close()

	p := converterrpc.NewServerProcessor(h)
	p.Logger = logger
	srv, err := converterrpc.Listen(cfg.ListenAddr, p)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Serve(ctx)
}

func runCall(cfg unitconverter.Config, args []string, out io.Writer) error {
	if len(args) != 4 {
		return fmt.Errorf("%w: call takes <value> <category> <from> <to>", errUsage)
	}
	c, err := converterrpc.Dial(cfg.ListenAddr)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), converterrpc.DefaultTimeout)
	defer cancel()
	resp, err := c.Convert(ctx, converterrpc.ConvertRequest{
		Input:    args[0],
		Category: args[1],
		From:     args[2],
		To:       args[3],
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, resp.Output)
	return nil
}

func openHistory(cfg unitconverter.Config) (*unitconverter.History, error) {
	h := unitconverter.NewHistory().WithLogger(slog.Default())
	if err := h.WithSQLite(cfg.DBPath); err != nil {
		return nil, fmt.Errorf("open history %s: %w", cfg.DBPath, err)
	}
	return h, nil
}
