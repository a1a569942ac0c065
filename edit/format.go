package edit

import (
	"context"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"cssw/css"
	"cssw/state"
)

// Format reformats stylesheet, optionally folding duplicate selectors.
func Format(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	setCharset(ctx, cmd)

	a := args(cmd, env.Log, 2)
	return formatFile(ctx, a[0], a[1], cmd.Bool("compress"))
}

func formatFile(ctx context.Context, src, dst string, compress bool) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("format")

	text, err := readSource(ctx, src)
	if err != nil {
		return err
	}

	start := time.Now()
	doc := env.NewEngine().Parse(text)
	if compress {
		before := len(doc)
		doc = css.Compress(doc)
		log.Debug("Stylesheet compressed", zap.Int("blocks before", before), zap.Int("blocks after", len(doc)))
	}
	log.Info("Stylesheet formatted", zap.String("source", src), zap.String("destination", destinationName(dst)),
		zap.Int("blocks", len(doc)), zap.Duration("elapsed", time.Since(start)))

	return writeResult(ctx, dst, doc)
}
