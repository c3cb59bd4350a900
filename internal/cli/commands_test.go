package cli

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv writes a config using a temporary media root and database.
func testEnv(t *testing.T) (configPath, mediaRoot string) {
	t.Helper()
	dir := t.TempDir()
	mediaRoot = filepath.Join(dir, "media")
	require.NoError(t, os.MkdirAll(mediaRoot, 0o755))
	configPath = filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`
log_level = "error"
media_root = %q
database_path = %q

[cache]
backend = "none"
`, mediaRoot, filepath.Join(dir, "wavecloud.db"))
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))
	return configPath, mediaRoot
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, logLevel, jsonOut = "", "", false

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// writeMP3 writes a minimal MP3 with an ID3v2.3 title.
func writeMP3(t *testing.T, title string) string {
	t.Helper()
	var frame bytes.Buffer
	frame.WriteString("TIT2")
	_ = binary.Write(&frame, binary.BigEndian, uint32(len(title)+1))
	frame.Write([]byte{0, 0, 0})
	frame.WriteString(title)
	size := frame.Len()
	data := []byte{'I', 'D', '3', 3, 0, 0,
		byte(size >> 21 & 0x7f), byte(size >> 14 & 0x7f), byte(size >> 7 & 0x7f), byte(size & 0x7f)}
	data = append(data, frame.Bytes()...)
	data = append(data, bytes.Repeat([]byte{0xff, 0xfb, 0x90, 0x00}, 32)...)

	path := filepath.Join(t.TempDir(), strings.ReplaceAll(title, " ", "_")+".mp3")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")

	require.NoError(t, err)
	assert.Contains(t, out, "wavecloud dev")
}

func TestVersionCommand_JSON(t *testing.T) {
	out, err := execute(t, "version", "--json")

	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "dev", info["version"])
}

func TestLibraryCommands(t *testing.T) {
	configPath, mediaRoot := testEnv(t)

	out, err := execute(t, "--config", configPath, "library", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Library is empty")

	out, err = execute(t, "--config", configPath, "library", "import", writeMP3(t, "First Song"), writeMP3(t, "Second Song"))
	require.NoError(t, err)
	assert.Contains(t, out, "First Song")
	assert.Contains(t, out, "Second Song")

	out, err = execute(t, "--config", configPath, "library", "list", "--json")
	require.NoError(t, err)
	var tracks []trackJSON
	require.NoError(t, json.Unmarshal([]byte(out), &tracks))
	require.Len(t, tracks, 2)
	assert.Equal(t, "First Song", tracks[0].Title)
	_, err = os.Stat(filepath.Join(mediaRoot, filepath.FromSlash(tracks[0].DataPath)))
	assert.NoError(t, err, "audio copied under the media root")

	out, err = execute(t, "--config", configPath, "library", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "2 tracks")

	out, err = execute(t, "--config", configPath, "library", "remove", tracks[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed "+tracks[0].ID)

	_, err = execute(t, "--config", configPath, "library", "remove", tracks[0].ID)
	assert.ErrorContains(t, err, "Failed to remove track from library")
}

func TestLibraryImport_ReportsFailures(t *testing.T) {
	configPath, _ := testEnv(t)
	notes := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("hi"), 0o600))

	_, err := execute(t, "--config", configPath, "library", "import", notes, writeMP3(t, "Fine"))

	assert.ErrorContains(t, err, "1 of 2 imports failed")
}

func TestPlayCommand_EmptyLibrary(t *testing.T) {
	configPath, _ := testEnv(t)

	out, err := execute(t, "--config", configPath, "play", "--fresh")

	require.NoError(t, err)
	assert.Contains(t, out, "Library is empty")
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.toml"), "library", "list")

	assert.ErrorContains(t, err, "Failed to load configuration")
}
