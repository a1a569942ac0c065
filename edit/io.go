// Package edit implements program commands.
package edit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gosimple/slug"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"cssw/state"
)

const (
	stdoutName     = "STDOUT"
	defaultStyleID = "cssw-style"
)

// setCharset selects encoding of non UTF-8 sources from command line.
func setCharset(ctx context.Context, cmd *cli.Command) {
	env := state.EnvFromContext(ctx)

	cp := cmd.String("charset")
	if len(cp) == 0 {
		return
	}
	enc, err := ianaindex.IANA.Encoding(cp)
	if err != nil || enc == nil {
		env.Log.Warn("Unknown character set name. Ignoring...", zap.String("charset", cp), zap.Error(err))
		env.CodePage = nil
		return
	}
	env.CodePage = enc
	n, _ := ianaindex.IANA.Name(enc)
	env.Log.Debug("Decoding sources from requested character set", zap.String("charset", n))
}

// readSource returns stylesheet text decoded to UTF-8. Copy of the source is
// put into debug report if one is requested.
func readSource(ctx context.Context, path string) (string, error) {
	env := state.EnvFromContext(ctx)

	if len(path) == 0 {
		return "", errors.New("no input source has been specified")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("unable to read source: %w", err)
	}
	if err := env.Rpt.StoreCopy("sources/"+filepath.Base(path), path); err != nil {
		env.Log.Warn("Unable to store source in debug report", zap.String("source", path), zap.Error(err))
	}

	if env.CodePage != nil {
		decoded, err := env.CodePage.NewDecoder().Bytes(data)
		if err != nil {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			return "", fmt.Errorf("unable to decode source '%s' from %s: %w", path, n, err)
		}
		data = decoded
	} else if !utf8.Valid(data) {
		env.Log.Warn("Source is not valid UTF-8, consider using --charset", zap.String("source", path))
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}

// writeResult writes out to dst or to STDOUT when dst is empty. Existing
// files are only replaced when overwrite was requested.
func writeResult(ctx context.Context, dst string, out io.WriterTo) (err error) {
	env := state.EnvFromContext(ctx)

	if len(dst) == 0 {
		if _, err := out.WriteTo(os.Stdout); err != nil {
			return fmt.Errorf("unable to write result: %w", err)
		}
		return nil
	}

	if _, err := os.Stat(dst); err == nil && !env.Overwrite {
		return fmt.Errorf("destination '%s' already exists, use --overwrite to replace it", dst)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("unable to create destination directory: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("unable to create destination file '%s': %w", dst, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if _, err := out.WriteTo(f); err != nil {
		return fmt.Errorf("unable to write result to '%s': %w", dst, err)
	}
	return nil
}

func destinationName(dst string) string {
	if len(dst) == 0 {
		return stdoutName
	}
	return dst
}

// styleID derives style element id from source file name.
func styleID(source string) string {
	base := filepath.Base(source)
	id := slug.Make(strings.TrimSuffix(base, filepath.Ext(base)))
	if len(id) == 0 {
		return defaultStyleID
	}
	return id
}

// args returns positional arguments, warning about superfluous ones.
func args(cmd *cli.Command, log *zap.Logger, n int) []string {
	list := cmd.Args().Slice()
	if len(list) > n {
		log.Warn("Malformed command line, too many arguments", zap.Strings("ignoring", list[n:]))
		list = list[:n]
	}
	for len(list) < n {
		list = append(list, "")
	}
	return list
}
