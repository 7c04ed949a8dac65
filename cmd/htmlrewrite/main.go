// Command htmlrewrite rewrites HTML documents by the rules of a TOML file, streaming each document
// in chunks under a memory limit shared by all documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	humanize "github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tdewolff/rewrite"
	"github.com/tdewolff/rewrite/html"
	"github.com/tdewolff/rewrite/transform"
)

type options struct {
	memoryLimit string
	bufferSize  string
	encoding    string
	chunkSize   int
	config      string
	output      string
	jobs        int
	verbose     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "htmlrewrite [flags] [file ...]",
		Short: "Rewrite HTML documents while they stream",
		Long: "Rewrite HTML documents by the rules of a TOML file. Without files, or with -, the document\n" +
			"is read from stdin. Output goes to stdout unless an output directory is given.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, opts, args)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.memoryLimit, "memory-limit", "10MiB", "memory limit shared by all documents")
	flags.StringVar(&opts.bufferSize, "buffer-size", "1KiB", "output buffer size per document")
	flags.StringVar(&opts.encoding, "encoding", "utf-8", "character encoding of the documents")
	flags.IntVar(&opts.chunkSize, "chunk-size", 4096, "bytes read per write")
	flags.StringVarP(&opts.config, "config", "c", "", "TOML rule file")
	flags.StringVarP(&opts.output, "output", "o", "", "output directory")
	flags.IntVarP(&opts.jobs, "jobs", "j", 4, "documents rewritten concurrently")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log stream events")
	return cmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func run(ctx context.Context, cmd *cobra.Command, opts *options, args []string) error {
	stderr := cmd.ErrOrStderr()
	if f, ok := stderr.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
		color.NoColor = true
	}
	log := newLogger(stderr, opts.verbose)

	memoryLimit, err := humanize.ParseBytes(opts.memoryLimit)
	if err != nil {
		return fmt.Errorf("--memory-limit: %w", err)
	}
	bufferSize, err := humanize.ParseBytes(opts.bufferSize)
	if err != nil {
		return fmt.Errorf("--buffer-size: %w", err)
	} else if bufferSize == 0 || bufferSize > memoryLimit {
		return fmt.Errorf("--buffer-size must be between 1 byte and the memory limit")
	} else if opts.chunkSize <= 0 {
		return fmt.Errorf("--chunk-size must be positive")
	}
	enc, err := html.LookupEncoding(opts.encoding)
	if err != nil {
		return fmt.Errorf("--encoding: %w", err)
	}
	cfg := &Config{}
	if opts.config != "" {
		if cfg, err = LoadConfig(opts.config); err != nil {
			return err
		}
	}

	if len(args) == 0 {
		args = []string{"-"}
	}
	jobs := max(opts.jobs, 1)
	if opts.output == "" {
		jobs = 1 // documents would interleave on stdout
	} else if err := os.MkdirAll(opts.output, 0o755); err != nil {
		return err
	}

	r := &rewriter{
		limiter:   rewrite.NewSharedMemoryLimiter(int(memoryLimit)),
		settings:  transform.Settings{InitialBufferSize: int(bufferSize), Encoding: enc, Logger: log},
		chunkSize: opts.chunkSize,
		cfg:       cfg,
	}
	r.settings.MemoryLimiter = r.limiter

	ok := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	failed := make([]bool, len(args))
	for i, filename := range args {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			in, out, err := r.file(filename, opts.output, cmd.InOrStdin(), cmd.OutOrStdout())
			if err != nil {
				failed[i] = true
				fmt.Fprintf(stderr, "%s %s: %v\n", fail("error"), displayName(filename), err)
				return nil
			}
			if opts.verbose {
				fmt.Fprintf(stderr, "%s %s: %s in, %s out\n", ok("ok"), displayName(filename), humanize.IBytes(uint64(in)), humanize.IBytes(uint64(out)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, f := range failed {
		if f {
			return errors.New("some documents could not be rewritten")
		}
	}
	return nil
}

func displayName(filename string) string {
	if filename == "-" {
		return "stdin"
	}
	return filename
}

type rewriter struct {
	limiter   *rewrite.MemoryLimiter
	settings  transform.Settings
	chunkSize int
	cfg       *Config
}

// file rewrites one document, from stdin when filename is "-".
func (r *rewriter) file(filename, outputDir string, stdin io.Reader, stdout io.Writer) (int64, int64, error) {
	var src io.Reader = stdin
	if filename != "-" {
		f, err := os.Open(filename)
		if err != nil {
			return 0, 0, err
		}
		defer f.Close()
		src = f
	}

	dst := stdout
	if outputDir != "" {
		name := "stdin.html"
		if filename != "-" {
			name = filepath.Base(filename)
		}
		f, err := os.Create(filepath.Join(outputDir, name))
		if err != nil {
			return 0, 0, err
		}
		defer f.Close()
		dst = f
	}
	return r.rewrite(src, dst)
}

// rewrite streams src through a new stream into dst.
func (r *rewriter) rewrite(src io.Reader, dst io.Writer) (int64, int64, error) {
	var werr error
	sink := func(b []byte) {
		if werr == nil {
			_, werr = dst.Write(b)
		}
	}
	st, err := transform.NewStream(newRulesController(r.cfg), sink, r.settings)
	if err != nil {
		return 0, 0, err
	}

	buf := make([]byte, r.chunkSize)
	for {
		n, err := src.Read(buf)
		if 0 < n {
			if err := st.Write(buf[:n]); err != nil {
				return st.BytesIn(), st.BytesOut(), err
			} else if werr != nil {
				return st.BytesIn(), st.BytesOut(), errors.Join(werr, st.End())
			}
		}
		if err == io.EOF {
			break
		} else if err != nil {
			return st.BytesIn(), st.BytesOut(), errors.Join(err, st.End())
		}
	}
	if err := st.End(); err != nil {
		return st.BytesIn(), st.BytesOut(), err
	}
	return st.BytesIn(), st.BytesOut(), werr
}
