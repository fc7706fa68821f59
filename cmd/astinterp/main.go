// Command astinterp runs or inspects an Arduino-sketch CompactAST
// program. It replaces the teacher's raw flag.Bool/os.Args parsing
// (KTStephano-GVM main.go) with github.com/urfave/cli/v2's subcommand
// model: `run` mirrors the teacher's bare "execute the given file"
// mode, `dump-ast` mirrors its `-debug` single-step inspection mode by
// letting a user see the program's structure before running it.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/arduino-ast/interpreter/internal/command"
	"github.com/arduino-ast/interpreter/pkg/astinterp"
)

func main() {
	app := &cli.App{
		Name:  "astinterp",
		Usage: "run or inspect an Arduino-sketch CompactAST program",
		Commands: []*cli.Command{
			runCommand(),
			dumpASTCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "execute a CompactAST program, emitting NDJSON commands",
		ArgsUsage: "<program.ast>",
		Flags: []cli.Flag{
			&cli.UintFlag{Name: "max-loop-iterations", Value: uint(astinterp.DefaultOptions().MaxLoopIterations),
				Usage: "cap on loop() repetitions before the run ends"},
			&cli.BoolFlag{Name: "verbose", Usage: "enable per-statement zap tracing"},
			&cli.BoolFlag{Name: "async", Usage: "use asynchronous-request external-value mode instead of a synchronous provider"},
			&cli.UintFlag{Name: "timeout-ms", Value: uint(astinterp.DefaultOptions().ExternalValueTimeoutMS),
				Usage: "asynchronous external-value request deadline"},
			&cli.StringFlag{Name: "out", Usage: "write NDJSON commands to this file instead of stdout"},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.Exit("usage: astinterp run <program.ast>", 1)
			}
			astBytes, err := os.ReadFile(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("reading %s: %v", path, err), 1)
			}

			opts := astinterp.DefaultOptions()
			opts.MaxLoopIterations = uint32(c.Uint("max-loop-iterations"))
			opts.SyncMode = !c.Bool("async")
			opts.ExternalValueTimeoutMS = uint32(c.Uint("timeout-ms"))
			opts.Verbose = c.Bool("verbose")

			in, err := astinterp.New(astBytes, opts, opts.Verbose)
			if err != nil {
				return cli.Exit(fmt.Sprintf("constructing interpreter: %v", err), 1)
			}
			defer in.Destroy()

			sink, closeSink, err := outputSink(c.String("out"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer closeSink()
			in.AddSink(sink)

			in.SetProvider(&unconfiguredProvider{})

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := in.Start(ctx); err != nil {
				return cli.Exit(fmt.Sprintf("running program: %v", err), 1)
			}
			return nil
		},
	}
}

func dumpASTCommand() *cli.Command {
	return &cli.Command{
		Name:      "dump-ast",
		Usage:     "decode a CompactAST file and print its node table",
		ArgsUsage: "<program.ast>",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.Exit("usage: astinterp dump-ast <program.ast>", 1)
			}
			astBytes, err := os.ReadFile(path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("reading %s: %v", path, err), 1)
			}
			tree, err := astinterp.DecodeAST(astBytes)
			if err != nil {
				return cli.Exit(fmt.Sprintf("decoding %s: %v", path, err), 1)
			}
			for i, n := range tree.Nodes {
				fmt.Printf("%4d  %-24s flags=%d\n", i, n.Kind, n.Flags)
			}
			return nil
		},
	}
}

func outputSink(path string) (command.Sink, func(), error) {
	if path == "" {
		return command.NewStdoutSink(), func() {}, nil
	}
	s, err := command.NewFileSink(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return s, func() { s.Close() }, nil
}

// unconfiguredProvider answers every external-value call with an error,
// so a program run without a real hardware provider still gets the
// ConfigurationError/sentinel path spec.md §4.8 defines rather than a
// nil-pointer panic.
type unconfiguredProvider struct{}

func (unconfiguredProvider) DigitalRead(int32) (int32, error) {
	return 0, fmt.Errorf("no provider configured for digitalRead")
}
func (unconfiguredProvider) AnalogRead(int32) (int32, error) {
	return 0, fmt.Errorf("no provider configured for analogRead")
}
func (unconfiguredProvider) Millis() (uint32, error) {
	return 0, fmt.Errorf("no provider configured for millis")
}
func (unconfiguredProvider) Micros() (uint32, error) {
	return 0, fmt.Errorf("no provider configured for micros")
}
func (unconfiguredProvider) LibrarySensor(library, method string, param int32) (int32, error) {
	return 0, fmt.Errorf("no provider configured for %s.%s", library, method)
}
