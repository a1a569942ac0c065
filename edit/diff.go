package edit

import (
	"context"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"cssw/css"
	"cssw/state"
	"cssw/utils/debug"
)

// Diff outputs changes turning BASE stylesheet into LIVE one.
func Diff(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	setCharset(ctx, cmd)

	a := args(cmd, env.Log, 3)
	return diffFiles(ctx, a[0], a[1], a[2], cmd.Bool("css"))
}

func diffFiles(ctx context.Context, base, live, dst string, asCSS bool) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("diff")

	baseText, err := readSource(ctx, base)
	if err != nil {
		return err
	}
	liveText, err := readSource(ctx, live)
	if err != nil {
		return err
	}

	e := env.NewEngine()
	patch, removed := css.DiffDocuments(e.Parse(baseText), e.Parse(liveText))
	log.Info("Stylesheets compared", zap.String("base", base), zap.String("live", live),
		zap.Int("changed", len(patch)), zap.Int("removed", len(removed)))

	return writeResult(ctx, dst, strings.NewReader(renderPatch(ctx, patch, removed, asCSS)))
}

// renderPatch renders patch either as a tree which shows deleted rules or as
// CSS text where they are lost.
func renderPatch(ctx context.Context, patch css.Document, removed []string, asCSS bool) string {
	env := state.EnvFromContext(ctx)

	dump := css.Dump(patch)
	tw := debug.NewTreeWriter()
	tw.Line(0, "removed (%d selectors)", len(removed))
	for _, sel := range removed {
		tw.Node(1, "selector", sel)
	}
	env.Rpt.StoreData("patch.txt", []byte(dump+tw.String()))

	if asCSS {
		return patch.String()
	}
	return dump + tw.String()
}
