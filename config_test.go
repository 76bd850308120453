package wisp

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	assert.Less(t, DefaultConfig().Resize.Handle.Radius, DefaultConfig().Grab.Radius,
		"resize handles are smaller than free handles")
}

func TestParseConfig_Overrides(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
grab:
  radius: 0.03
resize:
  min_size: [0.1, 0.05]
surface:
  hover_depth: {min: 0.02, max: 0.3}
  click_freeze: 250ms
log:
  format: json
`))
	require.NoError(t, err)
	assert.Equal(t, 0.03, cfg.Grab.Radius)
	assert.Equal(t, DefaultGrabConfig().Padding, cfg.Grab.Padding, "unset keys keep defaults")
	assert.Equal(t, Vec2{0.1, 0.05}, cfg.Resize.MinSize)
	assert.Equal(t, DepthWindow{Min: 0.02, Max: 0.3}, cfg.Surface.HoverDepth)
	assert.Equal(t, 250*time.Millisecond, cfg.Surface.ClickFreeze)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want []string
	}{
		{"bad yaml", "grab: [", []string{"parse config"}},
		{"zero radius", "grab: {radius: 0}", []string{"grab.radius must be positive"}},
		{
			"several problems",
			"acceptor: {commit_distance: 1, far_distance: 0.5}\nbutton: {max: 0}",
			[]string{"acceptor.commit_distance", "button.max must be positive"},
		},
		{"min above max", "resize: {min_size: [2, 2], max_size: [1, 1]}", []string{"exceeds max_size"}},
		{"inverted window", "surface: {hover_depth: {min: 0.3, max: 0.1}}", []string{"surface.hover_depth"}},
		{"threshold range", "resize: {handle: {grab_threshold: 2}}", []string{"resize.handle.grab_threshold"}},
		{"log format", "log: {format: xml}", []string{`log.format "xml"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			require.Error(t, err)
			for _, w := range tt.want {
				assert.Contains(t, err.Error(), w)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wisp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("acceptor: {commit_distance: 0.1}\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.1, cfg.Acceptor.CommitDistance)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewResources(t *testing.T) {
	_, err := NewResources(nil, nil, DefaultConfig())
	assert.ErrorContains(t, err, "nil service")

	bad := DefaultConfig()
	bad.Grab.Radius = -1
	_, err = NewResources(NewScene(), nil, bad)
	assert.ErrorContains(t, err, "grab.radius")

	s := NewScene()
	res, err := NewResources(s, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, s.Root(), res.HandleAnchor)
	assert.NotNil(t, res.Named("test"))
}
