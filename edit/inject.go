package edit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"cssw/common"
	"cssw/css"
	"cssw/host"
	"cssw/state"
)

type injectOptions struct {
	id     string
	format common.HostFormat
	mode   css.InjectMode
	clear  bool
	rebase bool
}

// Inject places stylesheet into page as a style element replacing element
// with the same id.
func Inject(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	setCharset(ctx, cmd)

	a := args(cmd, env.Log, 3)
	src, page, dst := a[0], a[1], a[2]
	if cmd.Bool("clear") {
		// only page is expected
		page, dst = a[0], a[1]
		src = ""
	}

	opts, err := resolveInjectOptions(ctx, cmd, src, page)
	if err != nil {
		return err
	}
	return injectFile(ctx, src, page, dst, opts)
}

// resolveInjectOptions combines command line flags and configuration, flags
// win.
func resolveInjectOptions(ctx context.Context, cmd *cli.Command, src, page string) (injectOptions, error) {
	env := state.EnvFromContext(ctx)

	opts := injectOptions{
		id:     env.Cfg.Inject.ID,
		format: env.Cfg.Inject.Format,
		clear:  cmd.Bool("clear"),
		rebase: env.Cfg.Inject.Rebase || cmd.Bool("rebase"),
	}

	if id := cmd.String("id"); len(id) > 0 {
		opts.id = id
	}
	if len(opts.id) == 0 {
		if opts.clear {
			return opts, errors.New("id of style element to remove has not been specified")
		}
		opts.id = styleID(src)
	}

	if f := cmd.String("format"); len(f) > 0 {
		format, err := common.ParseHostFormat(f)
		if err != nil {
			return opts, err
		}
		opts.format = format
	} else if ext := strings.ToLower(filepath.Ext(page)); ext != "" {
		opts.format = common.HostFormatFromPath(page)
	}

	modeName := env.Cfg.Inject.Mode
	if m := cmd.String("mode"); len(m) > 0 {
		modeName = m
	}
	mode, err := css.ParseInjectMode(modeName)
	if err != nil {
		return opts, err
	}
	opts.mode = mode
	return opts, nil
}

func injectFile(ctx context.Context, src, pagePath, dst string, opts injectOptions) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("inject")

	if len(pagePath) == 0 {
		return errors.New("no page has been specified")
	}

	var text string
	if !opts.clear {
		var err error
		if text, err = readSource(ctx, src); err != nil {
			return err
		}
	}

	f, err := os.Open(pagePath)
	if err != nil {
		return fmt.Errorf("unable to open page: %w", err)
	}
	page, err := host.ReadPage(f, opts.format, env.Log)
	f.Close()
	if err != nil {
		return err
	}

	e := env.NewEngine(css.WithSink(page))
	if rebase := rebaser(src, pagePath); opts.rebase && !opts.clear && rebase != nil {
		doc := e.Parse(text)
		n := doc.RewriteURLs(rebase)
		log.Debug("References rebased", zap.String("source", src), zap.String("page", pagePath), zap.Int("count", n))
		err = e.InjectDocument(opts.id, doc, opts.mode)
	} else {
		err = e.Inject(opts.id, text, opts.mode)
	}
	if err != nil {
		return err
	}
	log.Info("Page updated", zap.String("page", pagePath), zap.String("destination", destinationName(dst)),
		zap.String("id", opts.id), zap.Stringer("format", opts.format), zap.Stringer("mode", opts.mode), zap.Bool("cleared", opts.clear))

	return writeResult(ctx, dst, page)
}

// rebaser returns function turning references relative to the stylesheet
// location into references relative to the page location. Returns nil when
// both are in the same directory.
func rebaser(src, page string) func(string) string {
	srcDir, err := filepath.Abs(filepath.Dir(src))
	if err != nil {
		return nil
	}
	pageDir, err := filepath.Abs(filepath.Dir(page))
	if err != nil {
		return nil
	}
	rel, err := filepath.Rel(pageDir, srcDir)
	if err != nil || rel == "." {
		return nil
	}
	prefix := filepath.ToSlash(rel)

	return func(ref string) string {
		if !isRelativeRef(ref) {
			return ref
		}
		return path.Join(prefix, ref)
	}
}

// isRelativeRef reports whether ref is a path relative to the document it
// comes from.
func isRelativeRef(ref string) bool {
	if len(ref) == 0 || strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "#") {
		return false
	}
	u, err := url.Parse(ref)
	return err == nil && len(u.Scheme) == 0
}
