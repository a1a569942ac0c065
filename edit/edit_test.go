package edit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap/zaptest"

	"cssw/baseline"
	"cssw/common"
	"cssw/config"
	"cssw/state"
)

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)

	cfg, err := config.LoadConfiguration("")
	require.NoError(t, err)
	cfg.Engine.Namespace = "preview"
	cfg.Baseline.Path = filepath.Join(t.TempDir(), "baselines.db")

	env.Cfg = cfg
	env.Log = zaptest.NewLogger(t)
	return ctx
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestFormatFile(t *testing.T) {
	ctx := testContext(t)
	src := writeFile(t, "in.css", "\ufeff.a{color:red}\n.a{margin:0}")
	dst := filepath.Join(t.TempDir(), "out", "out.css")

	require.NoError(t, formatFile(ctx, src, dst, false))
	assert.Equal(t, ".a {\n    color: red;\n}\n\n.a {\n    margin: 0;\n}\n\n", readFile(t, dst))

	err := formatFile(ctx, src, dst, true)
	require.Error(t, err, "existing destination must not be replaced")
	assert.Contains(t, err.Error(), "--overwrite")

	state.EnvFromContext(ctx).Overwrite = true
	require.NoError(t, formatFile(ctx, src, dst, true))
	assert.Equal(t, ".a {\n    color: red;\n    margin: 0;\n}\n\n", readFile(t, dst))
}

func TestFormatFile_Errors(t *testing.T) {
	ctx := testContext(t)

	assert.Error(t, formatFile(ctx, "", "", false))
	assert.Error(t, formatFile(ctx, filepath.Join(t.TempDir(), "absent.css"), "", false))
}

func TestReadSource_Charset(t *testing.T) {
	ctx := testContext(t)
	src := writeFile(t, "cp.css", ".a:after{content:\"\xe9\"}")

	cmd := &cli.Command{
		Flags: []cli.Flag{&cli.StringFlag{Name: "charset"}},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			setCharset(ctx, cmd)
			return nil
		},
	}
	require.NoError(t, cmd.Run(ctx, []string{"test", "--charset", "windows-1252"}))
	require.NotNil(t, state.EnvFromContext(ctx).CodePage)

	text, err := readSource(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, ".a:after{content:\"é\"}", text)
}

func TestNamespaceFile(t *testing.T) {
	ctx := testContext(t)
	src := writeFile(t, "in.css", ".a { color: red; }")
	dir := t.TempDir()

	scoped := filepath.Join(dir, "scoped.css")
	require.NoError(t, namespaceFile(ctx, src, scoped, forcedClass("ns"), false))
	assert.Equal(t, ".ns .a {\n    color: red;\n}\n\n", readFile(t, scoped))

	plain := filepath.Join(dir, "plain.css")
	require.NoError(t, namespaceFile(ctx, scoped, plain, ".ns", true))
	assert.Equal(t, ".a {\n    color: red;\n}\n\n", readFile(t, plain))

	configured := filepath.Join(dir, "configured.css")
	require.NoError(t, namespaceFile(ctx, src, configured, "", false))
	assert.Equal(t, ".preview .a {\n    color: red;\n}\n\n", readFile(t, configured))
}

func TestForcedClass(t *testing.T) {
	assert.Equal(t, ".ns", forcedClass("ns"))
	assert.Equal(t, ".ns", forcedClass(" .ns "))
	assert.Equal(t, "", forcedClass(""))
}

func TestDiffFiles(t *testing.T) {
	ctx := testContext(t)
	base := writeFile(t, "base.css", ".a { color: red; }\n.gone { top: 0; }")
	live := writeFile(t, "live.css", ".a { color: blue; }")
	dir := t.TempDir()

	asCSS := filepath.Join(dir, "patch.css")
	require.NoError(t, diffFiles(ctx, base, live, asCSS, true))
	assert.Equal(t, ".a {\n    color: blue;\n}\n\n", readFile(t, asCSS))

	asTree := filepath.Join(dir, "patch.txt")
	require.NoError(t, diffFiles(ctx, base, live, asTree, false))
	out := readFile(t, asTree)
	assert.Contains(t, out, `rule ".a"`)
	assert.Contains(t, out, "removed (1 selectors)")
	assert.Contains(t, out, ".gone")
}

func TestMergeFiles(t *testing.T) {
	ctx := testContext(t)
	base := writeFile(t, "base.css", ".a { color: red; margin: 0; }")
	incoming := writeFile(t, "incoming.css", ".a { color: blue; }\n.b { top: 0; }")
	dst := filepath.Join(t.TempDir(), "merged.css")

	require.NoError(t, mergeFiles(ctx, base, incoming, dst, false))
	assert.Equal(t, ".a {\n    color: blue;\n    margin: 0;\n}\n\n.b {\n    top: 0;\n}\n\n", readFile(t, dst))
}

const page = `<!DOCTYPE html>
<html><head><title>t</title><style id="theme">.preview .x { top: 0; }</style></head>
<body><p>text</p></body></html>`

func TestInjectFile(t *testing.T) {
	ctx := testContext(t)
	src := writeFile(t, "theme.css", ".a { color: red; }")
	pagePath := writeFile(t, "page.html", page)
	dir := t.TempDir()

	injected := filepath.Join(dir, "injected.html")
	opts := injectOptions{id: "theme", format: common.HostFormatHtml}
	require.NoError(t, injectFile(ctx, src, pagePath, injected, opts))
	out := readFile(t, injected)
	assert.Contains(t, out, ".preview .a {")
	assert.NotContains(t, out, ".preview .x", "element with the same id must be replaced")

	cleared := filepath.Join(dir, "cleared.html")
	opts.clear = true
	require.NoError(t, injectFile(ctx, "", injected, cleared, opts))
	out = readFile(t, cleared)
	assert.NotContains(t, out, `id="theme"`)
	assert.Contains(t, out, "<p>text</p>")
}

func TestInjectFile_Rebase(t *testing.T) {
	ctx := testContext(t)
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "styles"), 0755))

	src := filepath.Join(root, "styles", "theme.css")
	require.NoError(t, os.WriteFile(src, []byte(`@import "print.css";
.a { background: url(img/a.png); }
.b { background: url('/abs/b.png'); content: "url(kept)"; }
.c { background: url(https://cdn.example.com/c.png); }
.d { background: url(../shared/d.png); }`), 0644))
	pagePath := filepath.Join(root, "page.html")
	require.NoError(t, os.WriteFile(pagePath, []byte(page), 0644))

	dst := filepath.Join(root, "out", "page.html")
	opts := injectOptions{id: "theme", format: common.HostFormatHtml, rebase: true}
	require.NoError(t, injectFile(ctx, src, pagePath, dst, opts))

	out := readFile(t, dst)
	assert.Contains(t, out, `@import url("styles/print.css");`)
	assert.Contains(t, out, `url("styles/img/a.png")`)
	assert.Contains(t, out, `url("/abs/b.png")`)
	assert.Contains(t, out, `"url(kept)"`)
	assert.Contains(t, out, `url("https://cdn.example.com/c.png")`)
	assert.Contains(t, out, `url("shared/d.png")`)
	assert.Contains(t, out, ".preview .a {")
}

func TestRebaser(t *testing.T) {
	root := t.TempDir()

	assert.Nil(t, rebaser(filepath.Join(root, "a.css"), filepath.Join(root, "p.html")), "same directory")

	up := rebaser(filepath.Join(root, "a.css"), filepath.Join(root, "pages", "p.html"))
	require.NotNil(t, up)
	assert.Equal(t, "../img/x.png", up("img/x.png"))
	assert.Equal(t, "#frag", up("#frag"))
	assert.Equal(t, "mailto:x", up("mailto:x"))

	for ref, want := range map[string]bool{
		"img/x.png":         true,
		"./x.png?v=1":       true,
		"":                  false,
		"/x.png":            false,
		"//cdn/x.png":       false,
		"http://host/x.png": false,
		"#id":               false,
	} {
		assert.Equal(t, want, isRelativeRef(ref), ref)
	}
}

func TestInject_Command(t *testing.T) {
	ctx := testContext(t)
	src := writeFile(t, "My Theme.css", ".a { color: red; }")
	pagePath := writeFile(t, "page.xhtml", `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head><title>t</title></head><body/></html>`)
	dst := filepath.Join(t.TempDir(), "out.xhtml")

	cmd := &cli.Command{
		Name: "inject",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "charset"},
			&cli.StringFlag{Name: "id"},
			&cli.StringFlag{Name: "format"},
			&cli.StringFlag{Name: "mode"},
			&cli.BoolFlag{Name: "clear"},
			&cli.BoolFlag{Name: "rebase"},
		},
		Action: Inject,
	}
	require.NoError(t, cmd.Run(ctx, []string{"inject", "--mode", "nonamespace", src, pagePath, dst}))

	out := readFile(t, dst)
	assert.Contains(t, out, `id="my-theme"`, "id is derived from source name")
	assert.Contains(t, out, ".a { color: red; }", "stylesheet is injected verbatim")
}

func TestResolveInjectOptions(t *testing.T) {
	ctx := testContext(t)
	state.EnvFromContext(ctx).Cfg.Inject.ID = "configured"

	var got injectOptions
	run := func(args ...string) error {
		cmd := &cli.Command{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "id"},
				&cli.StringFlag{Name: "format"},
				&cli.StringFlag{Name: "mode"},
				&cli.BoolFlag{Name: "clear"},
				&cli.BoolFlag{Name: "rebase"},
			},
			Action: func(ctx context.Context, cmd *cli.Command) (err error) {
				got, err = resolveInjectOptions(ctx, cmd, "a.css", "page.xhtml")
				return err
			},
		}
		return cmd.Run(ctx, append([]string{"test"}, args...))
	}

	require.NoError(t, run())
	assert.Equal(t, "configured", got.id)
	assert.Equal(t, common.HostFormatXhtml, got.format)

	assert.False(t, got.rebase)

	require.NoError(t, run("--id", "flag", "--format", "html", "--mode", "reformat", "--rebase"))
	assert.True(t, got.rebase)
	assert.Equal(t, "flag", got.id)
	assert.Equal(t, common.HostFormatHtml, got.format)
	assert.Equal(t, "reformat", got.mode.String())

	assert.Error(t, run("--mode", "bogus"))
	assert.Error(t, run("--format", "pdf"))
}

func TestExtractFile(t *testing.T) {
	ctx := testContext(t)
	pagePath := writeFile(t, "page.html", `<html><head>
<style>.preview .a { color: red; }</style>
<style id="second">.preview .b { top: 0; }</style>
</head><body></body></html>`)
	dst := filepath.Join(t.TempDir(), "extracted.css")

	require.NoError(t, extractFile(ctx, pagePath, dst, common.HostFormatHtml, ".preview"))
	assert.Equal(t, ".a {\n    color: red;\n}\n\n.b {\n    top: 0;\n}\n\n", readFile(t, dst))
}

func TestTreeFile(t *testing.T) {
	ctx := testContext(t)
	src := writeFile(t, "in.css", ".b { top: 0; }\n.a { top: 0; }\n.a { left: 0; }\n@media print { .c { top: 0; } }")
	dir := t.TempDir()

	sels := filepath.Join(dir, "selectors.txt")
	require.NoError(t, treeFile(ctx, src, sels, true))
	assert.Equal(t, ".a\n.b\n@media print > .c\n", readFile(t, sels))

	tree := filepath.Join(dir, "tree.txt")
	require.NoError(t, treeFile(ctx, src, tree, false))
	assert.Contains(t, readFile(t, tree), "document (4 blocks)")
}

func TestBaselines(t *testing.T) {
	ctx := testContext(t)
	s, err := baseline.Open(baseline.MemoryPath, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	dir := t.TempDir()
	src := writeFile(t, "theme.css", ".a { color: red; }\n.gone { top: 0; }")
	live := writeFile(t, "live.css", ".a { color: blue; }")

	require.Error(t, saveBaseline(ctx, s, " ", src))
	require.NoError(t, saveBaseline(ctx, s, "site/theme", src))

	list := filepath.Join(dir, "list.txt")
	require.NoError(t, listBaselines(ctx, s, list))
	assert.Contains(t, readFile(t, list), "site/theme\t2 blocks")

	patch := filepath.Join(dir, "patch.css")
	require.NoError(t, diffBaseline(ctx, s, "site/theme", live, patch, true))
	assert.Equal(t, ".a {\n    color: blue;\n}\n\n", readFile(t, patch))

	require.NoError(t, exportBaseline(ctx, s, "site/theme", dir))
	exported := readFile(t, filepath.Join(dir, config.CleanFileName("site/theme")+".css"))
	assert.Equal(t, ".a {\n    color: red;\n}\n\n.gone {\n    top: 0;\n}\n\n", exported)

	require.NoError(t, dropBaseline(ctx, s, "site/theme"))
	assert.ErrorIs(t, dropBaseline(ctx, s, "site/theme"), baseline.ErrNotFound)
	assert.ErrorIs(t, diffBaseline(ctx, s, "site/theme", live, "", true), baseline.ErrNotFound)
}

func TestBaselineCommands_ConfiguredStore(t *testing.T) {
	ctx := testContext(t)
	src := writeFile(t, "theme.css", ".a { color: red; }")

	run := func(action cli.ActionFunc, args ...string) error {
		cmd := &cli.Command{
			Name:   "baseline",
			Flags:  []cli.Flag{&cli.StringFlag{Name: "db"}, &cli.StringFlag{Name: "charset"}},
			Action: action,
		}
		return cmd.Run(ctx, append([]string{"baseline"}, args...))
	}

	require.NoError(t, run(BaselineSave, "theme", src))
	require.NoError(t, run(BaselineDrop, "theme"))
	assert.ErrorIs(t, run(BaselineDrop, "theme"), baseline.ErrNotFound)

	other := filepath.Join(t.TempDir(), "other.db")
	require.NoError(t, run(BaselineSave, "--db", other, "theme", src))
	_, err := os.Stat(other)
	assert.NoError(t, err, "store location from command line")
}

func TestStyleID(t *testing.T) {
	assert.Equal(t, "my-theme", styleID(filepath.Join("dir", "My Theme.css")))
	assert.Equal(t, defaultStyleID, styleID(""))
}

func TestArgs(t *testing.T) {
	var got []string
	run := func(list ...string) error {
		cmd := &cli.Command{
			Name: "test",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				got = args(cmd, zaptest.NewLogger(t), 2)
				return nil
			},
		}
		return cmd.Run(context.Background(), append([]string{"test"}, list...))
	}

	require.NoError(t, run("a"))
	assert.Equal(t, []string{"a", ""}, got)

	require.NoError(t, run("a", "b", "c"))
	assert.Equal(t, []string{"a", "b"}, got)
}
