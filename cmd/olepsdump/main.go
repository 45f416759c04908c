package main

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/op/go-logging"
	"github.com/urfave/cli"

	"github.com/yamitzky/oleps-go/oleps"
)

var version = "dev"

var log = logging.MustGetLogger("olepsdump")

var stderrFormat = logging.MustStringFormatter(`%{level:.4s} %{module}: %{message}`)

// usageError marks command line mistakes, reported with exit code 2.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }

func usagef(format string, args ...interface{}) error {
	return usageError{fmt.Errorf(format, args...)}
}

type options struct {
	streams          []string
	format           string
	hex              bool
	lenient          bool
	rejectDuplicates bool
	paddedStrings    bool
	verbose          bool
	color            bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// setupLogging routes the command's logger and the decoder's diagnostics to
// stderr. OLEPS_LOG_LEVEL overrides the level picked by --verbose.
func setupLogging(stderr io.Writer, verbose bool) logging.Level {
	level := logging.WARNING
	if verbose {
		level = logging.INFO
	}
	if env := os.Getenv("OLEPS_LOG_LEVEL"); env != "" {
		if l, err := logging.LogLevel(env); err == nil {
			level = l
		}
	}
	backend := logging.NewBackendFormatter(logging.NewLogBackend(stderr, "", 0), stderrFormat)
	leveled := logging.AddModuleLevel(backend)
	leveled.SetLevel(level, "olepsdump")
	log.SetBackend(leveled)
	return level
}

func verbosity(level logging.Level) int {
	switch {
	case level >= logging.DEBUG:
		return 2
	case level >= logging.INFO:
		return 1
	}
	return 0
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	// -v is --verbose here.
	cli.VersionFlag = cli.BoolFlag{Name: "version", Usage: "print the version"}
	app := cli.NewApp()
	app.Name = "olepsdump"
	app.Usage = "print the OLE property sets of a compound document or property set stream"
	app.UsageText = "olepsdump [options] FILE|-"
	app.Version = version
	app.Writer = stdout
	app.ErrWriter = stderr
	app.Flags = []cli.Flag{
		cli.StringSliceFlag{
			Name:  "stream, s",
			Usage: "only print the named stream; may be repeated",
		},
		cli.StringFlag{
			Name:  "format, f",
			Value: "text",
			Usage: "output format, text or yaml",
		},
		cli.BoolFlag{
			Name:  "hex, x",
			Usage: "also hex dump the raw stream bytes",
		},
		cli.BoolFlag{
			Name:  "lenient",
			Usage: "accept nonzero reserved fields and zero-fill truncated sectors",
		},
		cli.BoolFlag{
			Name:  "reject-duplicates",
			Usage: "treat duplicate property identifiers as corruption",
		},
		cli.BoolFlag{
			Name:  "padded-strings",
			Usage: "expect strings inside vectors and variants to be padded to 4 bytes",
		},
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "log decoder diagnostics to stderr",
		},
		cli.BoolFlag{
			Name:  "no-color",
			Usage: "disable coloured headings",
		},
	}
	app.OnUsageError = func(c *cli.Context, err error, isSubcommand bool) error {
		return usageError{err}
	}
	app.Action = func(c *cli.Context) error {
		if c.NArg() != 1 {
			return usagef("expected exactly one FILE argument, got %d", c.NArg())
		}
		opts := options{
			streams:          c.StringSlice("stream"),
			format:           c.String("format"),
			hex:              c.Bool("hex"),
			lenient:          c.Bool("lenient"),
			rejectDuplicates: c.Bool("reject-duplicates"),
			paddedStrings:    c.Bool("padded-strings"),
			verbose:          c.Bool("verbose"),
			color:            !c.Bool("no-color") && !color.NoColor,
		}
		if opts.format != "text" && opts.format != "yaml" {
			return usagef("unsupported format %q, want text or yaml", opts.format)
		}
		return dumpFile(c.Args().First(), stdin, stdout, stderr, opts)
	}
	return app
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := newApp(stdin, stdout, stderr)
	err := app.Run(append([]string{app.Name}, args...))
	if err == nil {
		return 0
	}
	fmt.Fprintf(stderr, "%s: %v\n", app.Name, err)
	var ue usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(stderr, "usage: %s\n", app.UsageText)
		return 2
	}
	return 1
}

func dumpFile(path string, stdin io.Reader, stdout, stderr io.Writer, opts options) error {
	level := setupLogging(stderr, opts.verbose)
	openOpts := &oleps.Options{
		Logfile:              stderr,
		Verbosity:            verbosity(level),
		AllowNonzeroReserved: opts.lenient,
		IgnoreCorruption:     opts.lenient,
		RejectDuplicates:     opts.rejectDuplicates,
		PaddedNestedStrings:  opts.paddedStrings,
	}
	if path == "-" {
		content, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %v", err)
		}
		openOpts.FileContents = content
	}
	f, err := oleps.Open(path, openOpts)
	if err != nil {
		return err
	}
	log.Infof("%s: %d property set streams", path, len(f.Streams))

	if len(opts.streams) > 0 {
		selected := make([]*oleps.NamedStream, 0, len(opts.streams))
		for _, name := range opts.streams {
			ns, ok := f.Stream(name)
			if !ok {
				return fmt.Errorf("stream %q not found in %s", name, path)
			}
			selected = append(selected, ns)
		}
		f.Streams = selected
	}

	var buf bytes.Buffer
	if err := oleps.Dump(&buf, f, opts.format); err != nil {
		return err
	}
	w := bufio.NewWriter(stdout)
	if opts.format == "text" && opts.color {
		colorize(w, buf.String())
	} else {
		w.Write(buf.Bytes())
	}
	if opts.hex {
		for _, ns := range f.Streams {
			fmt.Fprintf(w, "\n%s\n", heading(opts.color, fmt.Sprintf("hex dump of %q (%d bytes)", ns.Name, len(ns.Data))))
			oleps.HexCharDump(w, ns.Data, 0, len(ns.Data))
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	failed := 0
	for _, ns := range f.Streams {
		if ns.Err != nil {
			log.Errorf("%q: %v", ns.Name, ns.Err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d property set streams could not be decoded", failed, len(f.Streams))
	}
	return nil
}

func heading(enabled bool, s string) string {
	if !enabled {
		return s
	}
	c := color.New(color.FgHiCyan, color.Bold)
	c.EnableColor()
	return c.SprintFunc()(s)
}

func colorize(w io.Writer, text string) {
	red := color.New(color.FgHiRed)
	red.EnableColor()
	for _, line := range strings.SplitAfter(text, "\n") {
		trimmed := strings.TrimLeft(line, " ")
		switch {
		case strings.HasPrefix(line, "stream "), strings.HasPrefix(trimmed, "set "):
			io.WriteString(w, heading(true, strings.TrimSuffix(line, "\n")))
			if strings.HasSuffix(line, "\n") {
				io.WriteString(w, "\n")
			}
		case strings.HasPrefix(trimmed, "error: "):
			io.WriteString(w, red.Sprint(line))
		default:
			io.WriteString(w, line)
		}
	}
}
