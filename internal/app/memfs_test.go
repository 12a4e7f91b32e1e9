package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// memFS is an in-memory FileSystem. Paths are slash separated and absolute.
type memFS struct {
	entries  map[string]*memEntry
	readErrs map[string]error
	copies   []string
	mkdirs   []string
	removed  []string
}

type memEntry struct {
	dir     bool
	link    string
	size    int64
	modTime time.Time
}

var baseTime = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newMemFS(paths ...string) *memFS {
	m := &memFS{entries: map[string]*memEntry{"/": {dir: true}}, readErrs: map[string]error{}}
	for _, p := range paths {
		if strings.HasSuffix(p, "/") {
			m.addDir(strings.TrimSuffix(p, "/"))
		} else {
			m.addFile(p, int64(len(p)))
		}
	}
	return m
}

func (m *memFS) addDir(p string) {
	p = path.Clean(p)
	for cur := p; cur != "/"; cur = path.Dir(cur) {
		if _, ok := m.entries[cur]; !ok {
			m.entries[cur] = &memEntry{dir: true}
		}
	}
}

func (m *memFS) addFile(p string, size int64) {
	p = path.Clean(p)
	m.addDir(path.Dir(p))
	m.entries[p] = &memEntry{size: size, modTime: baseTime}
}

func (m *memFS) addLink(p, dest string) {
	p = path.Clean(p)
	m.addDir(path.Dir(p))
	m.entries[p] = &memEntry{link: dest}
}

func (m *memFS) resolve(p string) (string, *memEntry, error) {
	p = path.Clean(filepath.ToSlash(p))
	for i := 0; i < 16; i++ {
		e, ok := m.entries[p]
		if !ok {
			// Walk through linked ancestors.
			for cur := path.Dir(p); cur != "/" && cur != "."; cur = path.Dir(cur) {
				if anc, ok := m.entries[cur]; ok && anc.link != "" {
					p = path.Join(anc.link, strings.TrimPrefix(p, cur+"/"))
					break
				}
			}
			if e, ok = m.entries[p]; !ok {
				return p, nil, fs.ErrNotExist
			}
		}
		if e.link == "" {
			return p, e, nil
		}
		p = e.link
	}
	return p, nil, errors.New("too many links")
}

func (m *memFS) ReadDir(p string) ([]fs.DirEntry, error) {
	if err := m.readErrs[p]; err != nil {
		return nil, err
	}
	resolved, e, err := m.resolve(p)
	if err != nil {
		return nil, err
	}
	if !e.dir {
		return nil, fmt.Errorf("%s: not a directory", p)
	}
	var out []fs.DirEntry
	for name, child := range m.entries {
		if name != "/" && path.Dir(name) == resolved {
			out = append(out, memDirEntry{name: path.Base(name), entry: child})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func (m *memFS) Stat(p string) (fs.FileInfo, error) {
	_, e, err := m.resolve(p)
	if err != nil {
		return nil, err
	}
	return memFileInfo{name: path.Base(p), entry: e}, nil
}

func (m *memFS) Lstat(p string) (fs.FileInfo, error) {
	e, ok := m.entries[path.Clean(p)]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return memFileInfo{name: path.Base(p), entry: e}, nil
}

func (m *memFS) Readlink(p string) (string, error) {
	e, ok := m.entries[path.Clean(p)]
	if !ok || e.link == "" {
		return "", errors.New("not a link")
	}
	return e.link, nil
}

func (m *memFS) Exists(p string) (bool, error) {
	_, _, err := m.resolve(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (m *memFS) Mkdir(p string, _ fs.FileMode) error {
	p = path.Clean(p)
	if _, ok := m.entries[p]; ok {
		return fs.ErrExist
	}
	if parent, ok := m.entries[path.Dir(p)]; !ok || !parent.dir {
		return fs.ErrNotExist
	}
	m.entries[p] = &memEntry{dir: true}
	m.mkdirs = append(m.mkdirs, p)
	return nil
}

func (m *memFS) Remove(p string) error {
	p = path.Clean(p)
	if _, ok := m.entries[p]; !ok {
		return fs.ErrNotExist
	}
	for name := range m.entries {
		if strings.HasPrefix(name, p+"/") {
			return fmt.Errorf("%s: directory not empty", p)
		}
	}
	delete(m.entries, p)
	m.removed = append(m.removed, p)
	return nil
}

func (m *memFS) CopyFile(src, dst string) error {
	_, e, err := m.resolve(src)
	if err != nil {
		return err
	}
	m.addDir(path.Dir(dst))
	m.entries[path.Clean(dst)] = &memEntry{size: e.size, modTime: e.modTime}
	m.copies = append(m.copies, dst)
	return nil
}

func (m *memFS) CopyTree(src, dst string) (int, error) {
	resolved, _, err := m.resolve(src)
	if err != nil {
		return 0, err
	}
	written := 0
	for name, e := range m.entries {
		if !strings.HasPrefix(name, resolved+"/") {
			continue
		}
		target := path.Join(dst, strings.TrimPrefix(name, resolved+"/"))
		if e.dir {
			m.addDir(target)
			continue
		}
		if existing, ok := m.entries[target]; ok && existing.size == e.size && existing.modTime.Equal(e.modTime) {
			continue
		}
		m.addDir(path.Dir(target))
		m.entries[target] = &memEntry{size: e.size, modTime: e.modTime}
		written++
	}
	m.addDir(dst)
	return written, nil
}

// Glob supports the "<segment>/<segment>" patterns the planner uses.
func (m *memFS) Glob(root, pattern string) ([]string, error) {
	var out []string
	for name, e := range m.entries {
		if !e.dir || !strings.HasPrefix(name, root+"/") {
			continue
		}
		rel := strings.TrimPrefix(name, root+"/")
		if ok, _ := path.Match(pattern, rel); ok {
			out = append(out, rel)
		}
	}
	sort.Strings(out)
	return out, nil
}

type memDirEntry struct {
	name  string
	entry *memEntry
}

func (d memDirEntry) Name() string { return d.name }
func (d memDirEntry) IsDir() bool  { return d.entry.dir }
func (d memDirEntry) Type() fs.FileMode {
	switch {
	case d.entry.link != "":
		return fs.ModeSymlink
	case d.entry.dir:
		return fs.ModeDir
	default:
		return 0
	}
}
func (d memDirEntry) Info() (fs.FileInfo, error) {
	return memFileInfo{name: d.name, entry: d.entry}, nil
}

type memFileInfo struct {
	name  string
	entry *memEntry
}

func (i memFileInfo) Name() string       { return i.name }
func (i memFileInfo) Size() int64        { return i.entry.size }
func (i memFileInfo) ModTime() time.Time { return i.entry.modTime }
func (i memFileInfo) IsDir() bool        { return i.entry.dir }
func (i memFileInfo) Sys() interface{}   { return nil }
func (i memFileInfo) Mode() fs.FileMode {
	switch {
	case i.entry.link != "":
		return fs.ModeSymlink
	case i.entry.dir:
		return fs.ModeDir | 0o755
	default:
		return 0o644
	}
}

// fakeLinker records link calls and creates link entries in a memFS.
type fakeLinker struct {
	fs    *memFS
	calls [][2]string
	fail  map[string]error
}

func (l *fakeLinker) Link(_ context.Context, target, source string) error {
	l.calls = append(l.calls, [2]string{target, source})
	if err := l.fail[target]; err != nil {
		return err
	}
	if l.fs != nil {
		if _, ok := l.fs.entries[path.Clean(target)]; ok {
			return fs.ErrExist
		}
		l.fs.addLink(target, source)
	}
	return nil
}
