package edit

import (
	"context"
	"strings"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"cssw/state"
)

// Namespace scopes every selector of the stylesheet with namespace class.
func Namespace(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	setCharset(ctx, cmd)

	a := args(cmd, env.Log, 2)
	return namespaceFile(ctx, a[0], a[1], forcedClass(cmd.String("class")), false)
}

// Unnamespace removes namespace class from every selector of the stylesheet.
func Unnamespace(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	setCharset(ctx, cmd)

	a := args(cmd, env.Log, 2)
	return namespaceFile(ctx, a[0], a[1], forcedClass(cmd.String("class")), true)
}

// forcedClass turns class name into class selector.
func forcedClass(class string) string {
	class = strings.TrimSpace(class)
	if len(class) == 0 || strings.HasPrefix(class, ".") {
		return class
	}
	return "." + class
}

func namespaceFile(ctx context.Context, src, dst, class string, clear bool) error {
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("namespace")

	text, err := readSource(ctx, src)
	if err != nil {
		return err
	}

	e := env.NewEngine()
	if len(class) == 0 {
		class = e.NamespaceClass()
	}

	var result string
	if clear {
		result = e.ClearNamespacingText(text, class)
	} else {
		result = e.ApplyNamespacingText(text, class).String()
	}
	log.Info("Stylesheet processed", zap.String("source", src), zap.String("destination", destinationName(dst)),
		zap.String("class", class), zap.Bool("cleared", clear))

	return writeResult(ctx, dst, strings.NewReader(result))
}
