package edit

import (
	"context"
	"sort"
	"strings"

	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"cssw/css"
	"cssw/state"
)

// Tree outputs parsed object model of the stylesheet or just its selectors.
func Tree(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	setCharset(ctx, cmd)

	a := args(cmd, env.Log, 2)
	return treeFile(ctx, a[0], a[1], cmd.Bool("selectors"))
}

func treeFile(ctx context.Context, src, dst string, selectorsOnly bool) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("tree")

	text, err := readSource(ctx, src)
	if err != nil {
		return err
	}
	doc := env.NewEngine().Parse(text)
	log.Debug("Stylesheet parsed", zap.String("source", src), zap.Int("blocks", len(doc)))

	if !selectorsOnly {
		return writeResult(ctx, dst, strings.NewReader(css.Dump(doc)))
	}

	var sb strings.Builder
	for _, sel := range sortedSelectors(doc) {
		sb.WriteString(sel)
		sb.WriteByte('\n')
	}
	return writeResult(ctx, dst, strings.NewReader(sb.String()))
}

// sortedSelectors returns distinct selectors of rule blocks in natural order.
// Selectors nested in media queries are prefixed with the query.
func sortedSelectors(doc css.Document) []string {
	seen := make(map[string]struct{})
	var collect func(prefix string, doc css.Document)
	collect = func(prefix string, doc css.Document) {
		for _, o := range doc {
			switch o.Kind {
			case css.KindImports, css.KindKeyframes:
				continue
			case css.KindMedia:
				collect(prefix+o.Selector+" > ", o.SubStyles)
				continue
			}
			seen[prefix+strings.Join(strings.Fields(o.Selector), " ")] = struct{}{}
		}
	}
	collect("", doc)

	sels := make([]string, 0, len(seen))
	for sel := range seen {
		sels = append(sels, sel)
	}
	sort.Sort(natural.StringSlice(sels))
	return sels
}
