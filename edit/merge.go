package edit

import (
	"context"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"cssw/state"
)

// Merge merges INCOMING stylesheet into BASE one.
func Merge(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	setCharset(ctx, cmd)

	a := args(cmd, env.Log, 3)
	return mergeFiles(ctx, a[0], a[1], a[2], cmd.Bool("reverse"))
}

func mergeFiles(ctx context.Context, base, incoming, dst string, reverse bool) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("merge")

	baseText, err := readSource(ctx, base)
	if err != nil {
		return err
	}
	incomingText, err := readSource(ctx, incoming)
	if err != nil {
		return err
	}

	e := env.NewEngine()
	doc, in := e.Parse(baseText), e.Parse(incomingText)
	doc.Merge(in, reverse)

	log.Info("Stylesheets merged", zap.String("base", base), zap.String("incoming", incoming),
		zap.String("destination", destinationName(dst)), zap.Int("blocks", len(doc)), zap.Bool("reverse", reverse))
	return writeResult(ctx, dst, doc)
}
