package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/urixen-org/instancesync/src/config"
)

func TestBuildNoCustom(t *testing.T) {
	cfg := config.New()
	cfg.Set(config.KeyLibrariesSource, "https://libraries.example.com")

	got := Build(cfg, config.KeyLibrariesSource, config.KeyCustomLibrariesSource, Identity)
	assert.Equal(t, []string{"https://libraries.example.com"}, got)
}

func TestBuildCustomFallback(t *testing.T) {
	cfg := config.New()
	cfg.Set(config.KeyLibrariesSource, "https://libraries.example.com")
	cfg.Set(config.KeyCustomLibrariesSource, "https://mirror.example.com/libs")

	got := Build(cfg, config.KeyLibrariesSource, config.KeyCustomLibrariesSource, Identity)
	assert.Equal(t, []string{"https://libraries.example.com", "https://mirror.example.com/libs"}, got)
}

func TestBuildCustomSourcesFirst(t *testing.T) {
	cfg := config.New()
	cfg.Set(config.KeyLibrariesSource, "https://libraries.example.com")
	cfg.Set(config.KeyCustomLibrariesSource, "https://mirror.example.com/libs")
	cfg.Set(config.KeyCustomSourcesFirst, "true")

	got := Build(cfg, config.KeyLibrariesSource, config.KeyCustomLibrariesSource, Identity)
	assert.Equal(t, []string{"https://mirror.example.com/libs", "https://libraries.example.com"}, got)
}

func TestBuildMissingPrimary(t *testing.T) {
	cfg := config.New()
	got := Build(cfg, config.KeyLibrariesSource, "", Identity)
	assert.Nil(t, got)
}

func TestSuffixTransform(t *testing.T) {
	transform := Suffix("1.20.1.json")

	got, err := transform("https://mirror.example.com/versions")
	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal("https://mirror.example.com/versions/1.20.1.json", got)

	got, err = transform("https://mirror.example.com/versions/")
	assert.NoError(err)
	assert.Equal("https://mirror.example.com/versions/1.20.1.json", got)

	got, err = transform("")
	assert.NoError(err)
	assert.Equal("1.20.1.json", got)
}

func TestPrependSkipsEmpty(t *testing.T) {
	got := Prepend([]string{"b"}, "", "a")
	assert.Equal(t, []string{"a", "b"}, got)

	got = Prepend([]string{"a"})
	assert.Equal(t, []string{"a"}, got)
}

func TestRebaseSuffix(t *testing.T) {
	got := RebaseSuffix([]string{"https://a.example.com", "https://b.example.com/"}, "com/mojang/foo.jar")
	assert.Equal(t, []string{
		"https://a.example.com/com/mojang/foo.jar",
		"https://b.example.com/com/mojang/foo.jar",
	}, got)
}
