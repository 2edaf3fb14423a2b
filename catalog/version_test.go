package catalog

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/mod/semver"
	"pgregory.net/rapid"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"v2.0.0", "v1.0.0", -1},
		{"v1.0.0", "v2.0.0", 1},
		{"1.10.0", "1.9.0", -1},
		{"v1", "v1.2.3", 1},
		{"v1.0.0", "v1.0.0-beta.1", -1},
		{"dev", "v1.2.3", -1},
		{"v1.2.3", "dev", 1},
		{"rev3", "rev1", -1},
		{"master", "dev", -1},
		{"same", "same", 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s vs %s", tt.a, tt.b), func(t *testing.T) {
			got := CompareVersions(tt.a, tt.b)
			switch {
			case tt.want < 0:
				assert.Negative(t, got)
			case tt.want > 0:
				assert.Positive(t, got)
			default:
				assert.Zero(t, got)
			}
		})
	}
}

func TestIsSemantic(t *testing.T) {
	assert.True(t, IsSemantic("v1"))
	assert.True(t, IsSemantic("2.0"))
	assert.True(t, IsSemantic("v1.2.3-beta.1+build.5"))
	assert.False(t, IsSemantic(""))
	assert.False(t, IsSemantic("master"))
	assert.False(t, IsSemantic("v1.2.3.4"))
}

func TestSortVersions(t *testing.T) {
	type entry struct {
		version    string
		prerelease bool
	}
	tests := []struct {
		name    string
		entries []entry
		want    []string
	}{
		{
			name:    "semantic",
			entries: []entry{{version: "v1.2.3"}, {version: "v1"}, {version: "v2.0.0"}},
			want:    []string{"v2.0.0", "v1.2.3", "v1"},
		},
		{
			name:    "not semantic",
			entries: []entry{{version: "rev3"}, {version: "rev1"}, {version: "rev2"}},
			want:    []string{"rev3", "rev2", "rev1"},
		},
		{
			name:    "non-semantic before semantic",
			entries: []entry{{version: "v1.2.3"}, {version: "dev"}, {version: "master"}},
			want:    []string{"master", "dev", "v1.2.3"},
		},
		{
			name:    "versionless first without prereleases",
			entries: []entry{{version: "v1.2.3"}, {version: "dev"}, {version: ""}},
			want:    []string{"", "dev", "v1.2.3"},
		},
		{
			name:    "versionless after last prerelease",
			entries: []entry{{version: "v1.2.3"}, {version: "v2.0", prerelease: true}, {version: ""}},
			want:    []string{"v2.0", "", "v1.2.3"},
		},
		{
			name:    "release after last prerelease",
			entries: []entry{{version: "v1.2.3"}, {version: "v2.0", prerelease: true}, {version: "v3.0"}},
			want:    []string{"v2.0", "v3.0", "v1.2.3"},
		},
		{
			name:    "versionless prerelease before other prereleases",
			entries: []entry{{version: "v1.2.3"}, {version: "v2.0", prerelease: true}, {version: "", prerelease: true}},
			want:    []string{"", "v2.0", "v1.2.3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			versions := make([]*ComponentVersion, len(tt.entries))
			for i, e := range tt.entries {
				versions[i] = &ComponentVersion{Version: e.version, Prerelease: Prerelease{Flag: e.prerelease}}
			}
			SortVersions(versions)
			got := make([]string, len(versions))
			for i, cv := range versions {
				got[i] = cv.Version
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestSortVersions_Property checks that any insertion order of released
// semantic versions sorts by descending precedence.
func TestSortVersions_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(rt, "n")
		seen := make(map[string]bool)
		var versions []*ComponentVersion
		for range n {
			v := fmt.Sprintf("v%d.%d.%d",
				rapid.IntRange(0, 5).Draw(rt, "major"),
				rapid.IntRange(0, 5).Draw(rt, "minor"),
				rapid.IntRange(0, 5).Draw(rt, "patch"))
			if seen[v] {
				continue
			}
			seen[v] = true
			versions = append(versions, &ComponentVersion{Version: v})
		}

		SortVersions(versions)
		for i := 1; i < len(versions); i++ {
			if semver.Compare(versions[i-1].Version, versions[i].Version) <= 0 {
				rt.Fatalf("%s sorted before %s", versions[i-1].Version, versions[i].Version)
			}
		}
	})
}

// TestSortVersions_PrereleasesFirst checks that flagged versions always lead.
func TestSortVersions_PrereleasesFirst(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 10).Draw(rt, "n")
		versions := make([]*ComponentVersion, n)
		for i := range versions {
			versions[i] = &ComponentVersion{
				Version:    rapid.SampledFrom([]string{"", "dev", "main", "v1", "v1.1", "v2.0.0", "v3.0.0-rc.1"}).Draw(rt, "version"),
				Prerelease: Prerelease{Flag: rapid.Bool().Draw(rt, "prerelease")},
			}
		}

		SortVersions(versions)
		inReleases := false
		for _, cv := range versions {
			if !cv.Prerelease.IsSet() {
				inReleases = true
			} else if inReleases {
				rt.Fatalf("prerelease %q sorted after a release", cv.Version)
			}
		}
	})
}

func TestRegisterComponentVersion(t *testing.T) {
	t.Run("keeps latest and mirrored fields current", func(t *testing.T) {
		c := New()
		for _, v := range []string{"v1.2.4", "v2.0.0", "v1.0.0"} {
			_, err := c.RegisterComponentVersion("the-component", v, VersionDescriptor{Title: "The Component " + v})
			require.NoError(t, err)
		}

		component := c.GetComponent("the-component")
		require.NotNil(t, component)
		assert.Equal(t, []string{"v2.0.0", "v1.2.4", "v1.0.0"}, versionsOf(component))
		assert.Equal(t, "The Component v2.0.0", component.Title())
		assert.Equal(t, "/the-component/v2.0.0/index.html", component.URL())

		_, err := c.RegisterComponentVersion("the-component", "v3.0.0", VersionDescriptor{})
		require.NoError(t, err)
		assert.Equal(t, "v3.0.0", component.Latest().Version)
		assert.Equal(t, "the-component", component.Title())
		assert.Same(t, component, component.Latest().Component())
	})

	t.Run("duplicate leaves catalog unchanged", func(t *testing.T) {
		c := New()
		_, err := c.RegisterComponentVersion("the-component", "v1.0.0", VersionDescriptor{})
		require.NoError(t, err)

		_, err = c.RegisterComponentVersion("the-component", "v1.0.0", VersionDescriptor{Title: "Again"})
		require.ErrorIs(t, err, ErrDuplicateVersion)
		assert.Contains(t, err.Error(), "version")
		assert.Len(t, c.GetComponent("the-component").Versions, 1)
		assert.Equal(t, "the-component", c.GetComponent("the-component").Title())
	})
}

func TestDisplayVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		desc    VersionDescriptor
		want    string
	}{
		{name: "version", version: "v1.2.3", want: "v1.2.3"},
		{name: "versionless", version: "", want: "default"},
		{name: "versionless with label", version: "", desc: VersionDescriptor{Prerelease: PrereleaseLabel("dev")}, want: "dev"},
		{name: "version with label", version: "v1.2.3", desc: VersionDescriptor{Prerelease: PrereleaseLabel("Beta.1")}, want: "v1.2.3 Beta.1"},
		{name: "flag only", version: "v1.2.3", desc: VersionDescriptor{Prerelease: Prerelease{Flag: true}}, want: "v1.2.3"},
		{
			name:    "explicit",
			version: "v1.2.3",
			desc:    VersionDescriptor{DisplayVersion: "1.2.3-beta.1", Prerelease: PrereleaseLabel("Beta.1")},
			want:    "1.2.3-beta.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			cv, err := c.RegisterComponentVersion("the-component", tt.version, tt.desc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cv.DisplayVersion)
		})
	}
}

func TestRemoveComponentVersion(t *testing.T) {
	c := New()
	for _, v := range []string{"v1.0.0", "v2.0.0"} {
		cv, err := c.RegisterComponentVersion("the-component", v, VersionDescriptor{})
		require.NoError(t, err)
		_, err = c.AddFile(cv, newFile("modules/ROOT/pages/index.adoc"))
		require.NoError(t, err)
	}

	assert.True(t, c.RemoveComponentVersion("the-component", "v2.0.0"))
	component := c.GetComponent("the-component")
	assert.Equal(t, []string{"v1.0.0"}, versionsOf(component))
	assert.Equal(t, "/the-component/v1.0.0/index.html", component.URL())
	assert.Len(t, c.GetFiles(), 1)

	assert.False(t, c.RemoveComponentVersion("the-component", "v9.9.9"))
	assert.True(t, c.RemoveComponentVersion("the-component", "v1.0.0"))
	assert.Nil(t, c.GetComponent("the-component"))
	assert.Empty(t, c.GetComponents())
	assert.Empty(t, c.GetFiles())
}

func TestRemoveComponentVersion_DropsAliasesIntoIt(t *testing.T) {
	home := newFile("modules/ROOT/pages/home.adoc")
	home.Contents = []byte("= Home\n:page-aliases: 1.0@other::old-home.adoc\n")
	other := &Group{Name: "other", Version: "1.0", Files: []*File{newFile("modules/ROOT/pages/index.adoc")}}
	cfg := newPlaybook("default")
	cfg.Site.StartPage = "the-component::home.adoc"
	c := mustClassify(t, cfg, newGroup(home), other)

	require.NotNil(t, c.GetSiteStartPage())
	oldHome := ResourceID{Component: "other", Version: "1.0", Module: "ROOT", Family: FamilyAlias, Relative: "old-home.adoc"}
	require.NotNil(t, c.GetByID(oldHome))

	assert.True(t, c.RemoveComponentVersion("the-component", "v1.2.3"))
	assert.Nil(t, c.GetSiteStartPage())
	assert.Nil(t, c.GetByID(oldHome))
	assert.Empty(t, c.FindBy(Filter{Family: FamilyAlias}))

	// Resources of other versions are untouched.
	files := c.GetFiles()
	require.Len(t, files, 1)
	assert.Equal(t, "other", files[0].Src.Component)
}
