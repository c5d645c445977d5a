package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sndenhance.conf")
	assert.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestParseFileIgnoresCommentsAndBlankLines(t *testing.T) {
	path := writeConfigFile(t, "# a comment\n\n; also a comment\n// and this\nwindow blackman\n")
	values, warnings, err := ParseFile(path)
	assert.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "blackman", values["window"])
}

func TestParseFileWarnsOnUnknownKeyButContinues(t *testing.T) {
	path := writeConfigFile(t, "bogus_key 1\nwindow hann\n")
	values, warnings, err := ParseFile(path)
	assert.NoError(t, err)
	assert.Len(t, warnings, 1)
	assert.Equal(t, "hann", values["window"])
}

func TestApplyFileThenFlagOverrideHonorsLaterFlag(t *testing.T) {
	// Config file scenario from spec §8 #5: file sets "window blackman",
	// CLI flag "--window hamming" must win because flags apply after the
	// file and pflag only updates fields the user actually changed.
	opts := Defaults()
	values, _, err := ParseFile(writeConfigFile(t, "window blackman\n"))
	assert.NoError(t, err)
	assert.NoError(t, ApplyFile(&opts, values))
	assert.Equal(t, "blackman", opts.Window)

	fs := FlagSet(&opts)
	assert.NoError(t, fs.Parse([]string{"--window", "hamming"}))
	assert.Equal(t, "hamming", opts.Window)
}

func TestApplyFileRejectsNonIntegerFrameDuration(t *testing.T) {
	opts := Defaults()
	values, _, err := ParseFile(writeConfigFile(t, "frame_duration notanumber\n"))
	assert.NoError(t, err)
	assert.Error(t, ApplyFile(&opts, values))
}

func TestValidateRejectsEqualInputOutput(t *testing.T) {
	opts := Defaults()
	opts.Input = "a.wav"
	opts.Output = "a.wav"
	assert.Error(t, opts.Validate())
}

func TestValidateRejectsMissingInput(t *testing.T) {
	opts := Defaults()
	assert.Error(t, opts.Validate())
}

func TestDeriveOutputPathAppendsSuffixBeforeExtension(t *testing.T) {
	assert.Equal(t, "clip_enhanced.wav", DeriveOutputPath("clip.wav"))
	assert.Equal(t, "clip_enhanced", DeriveOutputPath("clip"))
}
