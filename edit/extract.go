package edit

import (
	"context"
	"fmt"
	"os"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"cssw/common"
	"cssw/css"
	"cssw/host"
	"cssw/state"
)

// Extract collects styles of all style elements of the page into a single
// stylesheet, optionally removing namespace class.
func Extract(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)

	a := args(cmd, env.Log, 2)

	format := common.HostFormatFromPath(a[0])
	if f := cmd.String("format"); len(f) > 0 {
		var err error
		if format, err = common.ParseHostFormat(f); err != nil {
			return err
		}
	}
	return extractFile(ctx, a[0], a[1], format, forcedClass(cmd.String("class")))
}

func extractFile(ctx context.Context, pagePath, dst string, format common.HostFormat, class string) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("extract")

	f, err := os.Open(pagePath)
	if err != nil {
		return fmt.Errorf("unable to open page: %w", err)
	}
	page, err := host.ReadPage(f, format, env.Log)
	f.Close()
	if err != nil {
		return err
	}

	sheets := page.StyleSheets()
	e := env.NewEngine()

	var doc css.Document
	for _, sheet := range sheets {
		doc.Merge(e.Parse(sheet), false)
	}
	if len(class) > 0 {
		doc = e.ClearNamespacing(doc, class)
	}
	log.Info("Styles extracted", zap.String("page", pagePath), zap.String("destination", destinationName(dst)),
		zap.Int("elements", len(sheets)), zap.Int("blocks", len(doc)))

	return writeResult(ctx, dst, strings.NewReader(doc.String()))
}
