package catalog

import (
	"bytes"
	"io"
	"log/slog"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/c360studio/semdocs/config"
)

func newFile(p string) *File {
	base := path.Base(p)
	ext := path.Ext(base)
	return &File{
		Path: p,
		Src: FileSrc{
			Basename: base,
			Stem:     strings.TrimSuffix(base, ext),
			Extname:  ext,
			Origin:   &Origin{URL: "https://githost/repo.git", Branch: "v1.2.3"},
		},
	}
}

func newGroup(files ...*File) *Group {
	return &Group{
		Name:    "the-component",
		Title:   "The Component",
		Version: "v1.2.3",
		Files:   files,
	}
}

func newPlaybook(style string) *config.Config {
	return &config.Config{URLs: config.URLConfig{HTMLExtensionStyle: style}}
}

// quietLogger writes warnings and errors to buf, or discards them when buf is nil.
func quietLogger(buf *bytes.Buffer) *slog.Logger {
	var w io.Writer = io.Discard
	if buf != nil {
		w = buf
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func mustClassify(t *testing.T, cfg *config.Config, groups ...*Group) *Catalog {
	t.Helper()
	var logs bytes.Buffer
	c, err := Classify(cfg, groups, nil, WithLogger(quietLogger(&logs)))
	require.NoError(t, err)
	return c
}

func versionsOf(component *Component) []string {
	versions := make([]string, len(component.Versions))
	for i, cv := range component.Versions {
		versions[i] = cv.Version
	}
	return versions
}
