package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/llehouerou/wavecloud/internal/errmsg"
	"github.com/llehouerou/wavecloud/internal/library"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Manage the music library",
}

var libraryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List library tracks in import order",
	Args:  cobra.NoArgs,
	RunE:  runLibraryList,
}

var libraryImportCmd = &cobra.Command{
	Use:   "import <files...>",
	Short: "Import audio files into the library",
	Long: `Import audio files into the library. Tags are read from each file, the
audio is copied to the configured storage under music/audio/, and embedded
or folder cover art is stored with a thumbnail.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLibraryImport,
}

var libraryRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a track and its stored files",
	Args:  cobra.ExactArgs(1),
	RunE:  runLibraryRemove,
}

func init() {
	libraryCmd.AddCommand(libraryListCmd, libraryImportCmd, libraryRemoveCmd)
	rootCmd.AddCommand(libraryCmd)
}

type trackJSON struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Artist   string    `json:"artist,omitempty"`
	Album    string    `json:"album,omitempty"`
	Duration int       `json:"duration_seconds"`
	Bytes    int64     `json:"data_bytes"`
	DataPath string    `json:"data_path"`
	AddedAt  time.Time `json:"added_at"`
}

func runLibraryList(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	tracks, err := e.library.List(cmd.Context())
	if err != nil {
		return errmsg.Wrap(errmsg.OpLibraryLoad, err)
	}

	out := cmd.OutOrStdout()
	if JSONOutput() {
		items := make([]trackJSON, len(tracks))
		for i, t := range tracks {
			items[i] = trackJSON{
				ID: t.ID, Title: t.Title, Artist: t.Artist, Album: t.Album,
				Duration: t.DurationSeconds, Bytes: t.DataBytes,
				DataPath: t.DataPath, AddedAt: t.AddedAt,
			}
		}
		return writeJSON(out, items)
	}

	if len(tracks) == 0 {
		fmt.Fprintln(out, "Library is empty")
		return nil
	}

	table := NewTable(out, "ID", "TITLE", "ARTIST", "LENGTH", "SIZE", "ADDED")
	var total int64
	for _, t := range tracks {
		table.Row(t.ID, t.Title, t.Artist,
			library.FormatDuration(t.DurationSeconds),
			library.FormatSize(t.DataBytes),
			humanize.Time(t.AddedAt))
		total += t.DataBytes
	}
	table.Flush()
	fmt.Fprintf(out, "\n%s tracks, %s\n", humanize.Comma(int64(len(tracks))), library.FormatSize(total))
	return nil
}

func runLibraryImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	st, err := e.newStorage(ctx)
	if err != nil {
		return err
	}
	im := library.NewImporter(e.library, st, logger)

	out := cmd.OutOrStdout()
	var failed int
	for _, path := range args {
		t, err := im.Import(ctx, path)
		if err != nil {
			failed++
			fmt.Fprintln(cmd.ErrOrStderr(), errmsg.FormatWith(errmsg.OpLibraryImport, filepath.Base(path), err))
			continue
		}
		fmt.Fprintf(out, "%s  %s (%s)\n", t.ID, t.Title, library.FormatDuration(t.DurationSeconds))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, len(args))
	}
	return nil
}

func runLibraryRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := openEnv(cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	st, err := e.newStorage(ctx)
	if err != nil {
		return err
	}
	im := library.NewImporter(e.library, st, logger)

	id := args[0]
	if err := im.Delete(ctx, id); err != nil {
		return errmsg.WrapWith(errmsg.OpLibraryRemove, id, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", id)
	return nil
}
