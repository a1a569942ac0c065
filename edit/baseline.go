package edit

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cssw/baseline"
	"cssw/config"
	"cssw/state"
)

// openStore opens baseline store from command line or configuration.
func openStore(ctx context.Context, cmd *cli.Command) (*baseline.Store, error) {
	env := state.EnvFromContext(ctx)

	path := env.Cfg.Baseline.Path
	if db := cmd.String("db"); len(db) > 0 {
		path = db
	}
	if len(path) == 0 {
		return nil, errors.New("baseline store location has not been specified")
	}
	return baseline.Open(path, env.Log)
}

// withStore runs fn against opened baseline store closing it afterwards.
func withStore(ctx context.Context, cmd *cli.Command, fn func(s *baseline.Store) error) (err error) {
	s, err := openStore(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, s.Close())
	}()
	return fn(s)
}

func requireID(id string) error {
	if len(strings.TrimSpace(id)) == 0 {
		return errors.New("no baseline id has been specified")
	}
	return nil
}

// BaselineSave stores stylesheet under ID replacing previous version.
func BaselineSave(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	setCharset(ctx, cmd)

	a := args(cmd, env.Log, 2)
	return withStore(ctx, cmd, func(s *baseline.Store) error {
		return saveBaseline(ctx, s, a[0], a[1])
	})
}

func saveBaseline(ctx context.Context, s *baseline.Store, id, src string) error {
	env := state.EnvFromContext(ctx)

	if err := requireID(id); err != nil {
		return err
	}
	text, err := readSource(ctx, src)
	if err != nil {
		return err
	}
	doc := env.NewEngine().Parse(text)
	if err := s.Save(id, doc); err != nil {
		return err
	}
	env.Log.Info("Baseline saved", zap.String("id", id), zap.String("source", src), zap.Int("blocks", len(doc)))
	return nil
}

// BaselineDiff outputs changes turning stored baseline into SOURCE.
func BaselineDiff(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	setCharset(ctx, cmd)

	a := args(cmd, env.Log, 3)
	return withStore(ctx, cmd, func(s *baseline.Store) error {
		return diffBaseline(ctx, s, a[0], a[1], a[2], cmd.Bool("css"))
	})
}

func diffBaseline(ctx context.Context, s *baseline.Store, id, src, dst string, asCSS bool) error {
	env := state.EnvFromContext(ctx)

	if err := requireID(id); err != nil {
		return err
	}
	text, err := readSource(ctx, src)
	if err != nil {
		return err
	}
	e := env.NewEngine()
	patch, removed, err := s.Reconcile(e, id, e.Parse(text))
	if err != nil {
		return err
	}
	env.Log.Info("Stylesheet compared with baseline", zap.String("id", id), zap.String("live", src),
		zap.Int("changed", len(patch)), zap.Int("removed", len(removed)))
	return writeResult(ctx, dst, strings.NewReader(renderPatch(ctx, patch, removed, asCSS)))
}

// BaselineList outputs stored baselines.
func BaselineList(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)

	a := args(cmd, env.Log, 1)
	return withStore(ctx, cmd, func(s *baseline.Store) error {
		return listBaselines(ctx, s, a[0])
	})
}

func listBaselines(ctx context.Context, s *baseline.Store, dst string) error {
	entries, err := s.List()
	if err != nil {
		return err
	}
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "%s\t%d blocks\t%d bytes\t%s\n", e.ID, e.Blocks, e.Size, e.Updated.UTC().Format(time.RFC3339))
	}
	return writeResult(ctx, dst, strings.NewReader(sb.String()))
}

// BaselineDrop removes stored baseline.
func BaselineDrop(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)

	a := args(cmd, env.Log, 1)
	return withStore(ctx, cmd, func(s *baseline.Store) error {
		return dropBaseline(ctx, s, a[0])
	})
}

func dropBaseline(ctx context.Context, s *baseline.Store, id string) error {
	env := state.EnvFromContext(ctx)

	if err := requireID(id); err != nil {
		return err
	}
	existed, err := s.Delete(id)
	if err != nil {
		return err
	}
	if !existed {
		return fmt.Errorf("unable to drop '%s': %w", id, baseline.ErrNotFound)
	}
	env.Log.Info("Baseline dropped", zap.String("id", id))
	return nil
}

// BaselineExport writes stored baseline as a stylesheet file into DIRECTORY.
func BaselineExport(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)

	a := args(cmd, env.Log, 2)
	return withStore(ctx, cmd, func(s *baseline.Store) error {
		return exportBaseline(ctx, s, a[0], a[1])
	})
}

func exportBaseline(ctx context.Context, s *baseline.Store, id, dir string) error {
	env := state.EnvFromContext(ctx)

	if err := requireID(id); err != nil {
		return err
	}
	text, err := s.LoadText(id)
	if err != nil {
		return err
	}
	if len(dir) == 0 {
		dir = "."
	}
	dst := filepath.Join(dir, config.CleanFileName(id)+".css")
	env.Log.Info("Exporting baseline", zap.String("id", id), zap.String("destination", dst))
	return writeResult(ctx, dst, strings.NewReader(text))
}
