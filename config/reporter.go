package config

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/maruel/natural"
	"go.uber.org/multierr"

	"cssw/misc"
)

type ReporterConfig struct {
	Destination string `yaml:"destination" sanitize:"path_clean,assure_dir_exists_for_file" validate:"required,filepath"`
}

// Prepare creates initialized empty reporter.
func (conf *ReporterConfig) Prepare() (*Report, error) {
	r := &Report{entries: make(map[string]entry)}

	if f, err := os.Create(conf.Destination); err == nil {
		r.file = f
	} else if f, err = os.CreateTemp("", misc.GetAppName()+"-report.*.zip"); err == nil {
		r.file = f
	} else {
		return nil, fmt.Errorf("unable to create report: %w", err)
	}
	return r, nil
}

type entry struct {
	original string
	actual   string
	stamp    time.Time
	data     []byte
}

// Report accumulates information necessary to prepare full debug report:
// stylesheets and pages processed, intermediate trees and logs.
// NOTE: presently not to be used concurrently!
type Report struct {
	// entries is a map of names to entries of files, directories or data to
	// be put in the final archive later.
	entries map[string]entry
	// temporary copies made by StoreCopy, removed on Close
	temps []string
	file  *os.File
}

// Close finalizes debug report and removes temporary copies.
func (r *Report) Close() (err error) {
	if r == nil || r.file == nil {
		// no report has been requested
		return nil
	}
	defer func() {
		err = multierr.Append(err, r.file.Close())
		for _, dir := range r.temps {
			err = multierr.Append(err, os.RemoveAll(dir))
		}
		r.temps = nil
	}()
	return r.finalize()
}

// Name returns name of underlying file.
func (r *Report) Name() string {
	if r == nil || r.file == nil {
		return ""
	}
	if n, err := filepath.Abs(r.file.Name()); err == nil {
		return n
	}
	return r.file.Name()
}

// Store saves path to file or directory to be put in the final archive later.
func (r *Report) Store(name, path string) {
	if r == nil {
		return
	}

	if old, exists := r.entries[name]; exists && old.original != path {
		panic(fmt.Sprintf("Attempt to overwrite file in the report for [%s]: was %s, now %s", name, old.original, path))
	}

	e := entry{original: path, actual: path}
	if p, err := filepath.Abs(path); err == nil {
		e.actual = p
	}
	r.entries[name] = e
}

// StoreData saves binary data to be put in the final archive later as a file
// under requested name. Repeated names are versioned with timestamps.
func (r *Report) StoreData(name string, data []byte) {
	if r == nil {
		return
	}

	e := entry{data: data, stamp: time.Now()}
	if _, exists := r.entries[name]; exists {
		name = fmt.Sprintf("%s-%d", name, e.stamp.UnixNano())
	}
	r.entries[name] = e
}

// StoreCopy makes a copy (at the time of a call) of the file or directory into
// temporary location to be put in the final archive later. Names are versioned
// with timestamps to avoid collisions, so it is safe to put the same content
// into report multiple times.
func (r *Report) StoreCopy(name, path string) error {
	if r == nil {
		return nil
	}

	e := entry{stamp: time.Now(), original: path}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return err
	}

	if _, exists := r.entries[name]; exists {
		name = fmt.Sprintf("%s-%d", name, e.stamp.UnixNano())
	}

	dir, err := os.MkdirTemp("", misc.GetAppName()+"-r-")
	if err != nil {
		return err
	}
	r.temps = append(r.temps, dir)

	switch {
	case info.Mode().IsRegular():
		if e.actual, err = copyFile(dir, absPath, info.ModTime()); err != nil {
			return err
		}
	case info.IsDir():
		if err := copyDir(dir, absPath); err != nil {
			return err
		}
		e.actual = dir
	default:
		return fmt.Errorf("unable to store %s: not a regular file or directory", path)
	}

	r.entries[name] = e
	return nil
}

func copyFile(dir, src string, modTime time.Time) (dst string, err error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}

	dst = filepath.Join(dir, filepath.Base(src))

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, in); err != nil {
		return "", multierr.Append(err, out.Close())
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	if err := os.Chtimes(dst, modTime, modTime); err != nil {
		return "", err
	}
	return dst, nil
}

// walkRegular calls fn for every regular file under root, links, sockets and
// such are ignored.
func walkRegular(root string, fn func(path, rel string, info fs.FileInfo) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		return fn(path, rel, info)
	})
}

func copyDir(dir, src string) error {
	return walkRegular(src, func(path, rel string, info fs.FileInfo) error {
		_, err := copyFile(filepath.Dir(filepath.Join(dir, rel)), path, info.ModTime())
		return err
	})
}

// finalize creates the final archive (report) with all previously stored items.
func (r *Report) finalize() (err error) {
	arc := zip.NewWriter(r.file)
	defer func() {
		err = multierr.Append(err, arc.Close())
	}()

	names, manifest := prepareManifest(r.entries)
	if err := saveFile(arc, "MANIFEST", time.Now(), manifest); err != nil {
		return err
	}

	// in the same order as in manifest
	for _, name := range names {
		e := r.entries[name]
		if len(e.data) > 0 {
			if err := saveFile(arc, name, e.stamp, bytes.NewReader(e.data)); err != nil {
				return err
			}
			continue
		}

		// ignoring absent files
		info, err := os.Stat(e.actual)
		if err != nil {
			continue
		}
		switch {
		case info.Mode().IsRegular():
			if err := savePath(arc, name, e.actual, info.ModTime()); err != nil {
				return err
			}
		case info.IsDir():
			if err := saveDir(arc, name, e.actual); err != nil {
				return err
			}
		}
	}
	return nil
}

func prepareManifest(entries map[string]entry) ([]string, *bytes.Buffer) {
	now := time.Now()

	buf := new(bytes.Buffer)
	if len(entries) == 0 {
		return nil, buf
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Sort(natural.StringSlice(keys))

	for _, k := range keys {
		e := entries[k]
		if e.stamp.IsZero() {
			e.stamp = now
		}
		fmt.Fprintf(buf, "%s\t%s\t%s : %s\n", e.stamp.UTC().Format(time.UnixDate), k, e.original, e.actual)
	}
	return keys, buf
}

func saveFile(dst *zip.Writer, name string, t time.Time, src io.Reader) error {
	w, err := dst.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: t})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

func savePath(dst *zip.Writer, name, path string, t time.Time) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return saveFile(dst, name, t, f)
}

func saveDir(dst *zip.Writer, name, dir string) error {
	return walkRegular(dir, func(path, rel string, info fs.FileInfo) error {
		return savePath(dst, filepath.ToSlash(filepath.Join(name, rel)), path, info.ModTime())
	})
}
