package asset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/unicode/norm"

	"github.com/backmassage/framestamp/internal/config"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("png"), 0o644))
	return p
}

func TestNameMatch_FirstDirectoryWinsOnConflict(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "thumbs")
	second := filepath.Join(root, "videos")
	want := touch(t, first, "clip_thumb.png")
	touch(t, second, "clip_thumb.png")

	r := NewNameMatch([]string{first, second}, DefaultPatterns)
	got, err := r.Resolve(filepath.Join(second, "clip.mp4"))

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNameMatch_DirectoryOrderBeatsPatternOrder(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "a")
	second := filepath.Join(root, "b")
	// Lowest-priority pattern in the first directory.
	want := touch(t, first, "thumb_clip.png")
	// Highest-priority pattern in the second directory.
	touch(t, second, "clip_thumb.png")

	r := NewNameMatch([]string{first, second}, DefaultPatterns)
	got, err := r.Resolve("/videos/clip.MP4")

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNameMatch_PatternOrderWithinDirectory(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "clip.png")
	want := touch(t, dir, "clip_thumbnail.png")

	got, err := NewNameMatch([]string{dir}, DefaultPatterns).Resolve("clip.mkv")

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNameMatch_NotFound(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "other_thumb.png")

	r := NewNameMatch([]string{dir, filepath.Join(dir, "missing")}, DefaultPatterns)
	_, err := r.Resolve("clip.mp4")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNameMatch_IgnoresDirectoriesNamedLikeAssets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "clip_thumb.png"), 0o755))
	want := touch(t, dir, "clip.png")

	got, err := NewNameMatch([]string{dir}, DefaultPatterns).Resolve("clip.mp4")

	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestNameMatch_SymlinksMustReachRegularFiles(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "first")
	second := filepath.Join(root, "second")
	require.NoError(t, os.MkdirAll(first, 0o755))
	require.NoError(t, os.Symlink(root, filepath.Join(first, "v_thumb.png")))
	require.NoError(t, os.Symlink(filepath.Join(root, "gone.png"), filepath.Join(first, "w_thumb.png")))
	wantV := touch(t, second, "v_thumb.png")
	wantW := touch(t, second, "w.png")

	r := NewNameMatch([]string{first, second}, DefaultPatterns)

	got, err := r.Resolve("v.mp4")
	require.NoError(t, err)
	assert.Equal(t, wantV, got, "link to a directory is skipped")

	got, err = r.Resolve("w.mp4")
	require.NoError(t, err)
	assert.Equal(t, wantW, got, "dangling link is skipped")
}

func TestNameMatch_FollowsLinkToFile(t *testing.T) {
	dir := t.TempDir()
	target := touch(t, filepath.Join(dir, "store"), "art.png")
	link := filepath.Join(dir, "clip_thumb.png")
	require.NoError(t, os.Symlink(target, link))

	got, err := NewNameMatch([]string{dir}, DefaultPatterns).Resolve("clip.mp4")

	require.NoError(t, err)
	assert.Equal(t, link, got)
}

func TestNameMatch_CaseFoldedFallback(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "first")
	second := filepath.Join(root, "second")
	folded := touch(t, first, "Clip_Thumb.PNG")
	touch(t, second, "clip_thumb.png")

	got, err := NewNameMatch([]string{first, second}, DefaultPatterns).Resolve("clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, folded, got, "a case-insensitive hit in an earlier directory wins")

	exact := touch(t, first, "clip.png")
	got, err = NewNameMatch([]string{first}, DefaultPatterns).Resolve("clip.mp4")
	require.NoError(t, err)
	assert.Equal(t, exact, got, "exact names are tried before folded ones within a directory")
}

func TestNameMatch_UnicodeNormalization(t *testing.T) {
	dir := t.TempDir()
	decomposed := norm.NFD.String("café") + "_thumb.png"
	touch(t, dir, decomposed)

	got, err := NewNameMatch([]string{dir}, DefaultPatterns).Resolve("/in/" + norm.NFC.String("café") + ".mp4")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, decomposed), got)
}

func TestNameMatch_NoWrites(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "clip_thumb.png")
	before, err := os.ReadDir(dir)
	require.NoError(t, err)

	_, _ = NewNameMatch([]string{dir}, DefaultPatterns).Resolve("clip.mp4")
	_, _ = NewNameMatch([]string{dir}, DefaultPatterns).Resolve("absent.mp4")

	after, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}

func TestDirectorySearch(t *testing.T) {
	dir := t.TempDir()
	want := touch(t, dir, "thumb_intro.png")

	r, err := NewDirectorySearch(dir, DefaultPatterns)
	require.NoError(t, err)
	assert.Equal(t, config.StrategyDirectory, r.Strategy())

	got, err := r.Resolve("intro.mov")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = NewDirectorySearch(filepath.Join(dir, "nope"), DefaultPatterns)
	assert.Error(t, err)

	_, err = NewDirectorySearch(want, DefaultPatterns)
	assert.Error(t, err, "a file is not a search directory")
}

func TestShared(t *testing.T) {
	dir := t.TempDir()
	p := touch(t, dir, "logo.png")

	s, err := NewShared(p)
	require.NoError(t, err)
	for _, v := range []string{"a.mp4", "b.mkv"} {
		got, err := s.Resolve(v)
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	_, err = NewShared(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
	_, err = NewShared("")
	assert.Error(t, err)
	_, err = NewShared(dir)
	assert.Error(t, err, "a directory is not a shared asset")
}

func TestManual(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "one.png")
	manifest := filepath.Join(dir, "pairs.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte(`
- video: one.mp4
  asset: one.png
- video: /elsewhere/two.mp4
  asset: SKIP
- video: three.mp4
  asset: missing.png
`), 0o644))

	entries, err := LoadManifest(manifest)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	m := NewManual(entries, dir)

	got, err := m.Resolve("/input/one.mp4")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "one.png"), got)

	_, err = m.Resolve("/input/two.mp4")
	assert.ErrorIs(t, err, ErrSkipped)

	_, err = m.Resolve("/input/three.mp4")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Resolve("/input/four.mp4")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadManifest_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"missing asset", "- video: a.mp4\n"},
		{"duplicate video", "- {video: a.mp4, asset: x.png}\n- {video: a.mp4, asset: y.png}\n"},
		{"unknown field", "- {video: a.mp4, asset: x.png, prompt: true}\n"},
		{"not a list", "video: a.mp4\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(dir, tt.name+".yaml")
			require.NoError(t, os.WriteFile(p, []byte(tt.content), 0o644))
			_, err := LoadManifest(p)
			assert.Error(t, err)
		})
	}

	_, err := LoadManifest(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)
}

func TestNew_SelectsStrategy(t *testing.T) {
	dir := t.TempDir()
	logo := touch(t, dir, "logo.png")
	manifest := filepath.Join(dir, "m.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("- {video: a.mp4, asset: logo.png}\n"), 0o644))

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   config.Strategy
	}{
		{"shared", func(c *config.Config) { c.Strategy = config.StrategyShared; c.SharedAsset = logo }, config.StrategyShared},
		{"match", func(c *config.Config) { c.Strategy = config.StrategyMatch }, config.StrategyMatch},
		{"directory", func(c *config.Config) { c.Strategy = config.StrategyDirectory; c.SearchDir = dir }, config.StrategyDirectory},
		{"manual", func(c *config.Config) { c.Strategy = config.StrategyManual; c.ManifestFile = manifest }, config.StrategyManual},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.mutate(&cfg)
			r, err := New(&cfg, dir)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.Strategy())
		})
	}

	cfg := config.DefaultConfig()
	cfg.Strategy = config.StrategyShared
	cfg.SharedAsset = filepath.Join(dir, "gone.png")
	_, err := New(&cfg, dir)
	assert.Error(t, err, "missing shared asset is a configuration error")
}

func TestNew_MatchSearchesAssetDirThenInput(t *testing.T) {
	root := t.TempDir()
	assets := filepath.Join(root, "assets")
	input := filepath.Join(root, "input")
	touch(t, input, "clip_thumb.png")
	want := touch(t, assets, "clip.png")

	cfg := config.DefaultConfig()
	cfg.AssetDir = assets
	r, err := New(&cfg, input)
	require.NoError(t, err)

	got, err := r.Resolve(filepath.Join(input, "clip.mp4"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
