/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/friendsincode/smartplaylist/internal/cache"
	"github.com/friendsincode/smartplaylist/internal/db"
	"github.com/friendsincode/smartplaylist/internal/events"
	"github.com/friendsincode/smartplaylist/internal/playlists"
	"github.com/friendsincode/smartplaylist/internal/smartplaylist"
	"github.com/friendsincode/smartplaylist/internal/store"
	"github.com/friendsincode/smartplaylist/internal/suggest"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the library schema and rebuild smart playlist views",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

var compileCmd = &cobra.Command{
	Use:   "compile <file.yaml>",
	Short: "Print the SQL of a playlist definition file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompile,
}

var importCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Store a playlist definition file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Print a stored smart playlist as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var tracksCmd = &cobra.Command{
	Use:   "tracks <id>",
	Short: "List the tracks a stored smart playlist selects",
	Args:  cobra.ExactArgs(1),
	RunE:  runTracks,
}

var importReplaceID int64

func init() {
	rootCmd.AddCommand(migrateCmd, compileCmd, importCmd, exportCmd, tracksCmd)
	importCmd.Flags().Int64Var(&importReplaceID, "replace", 0, "Replace the smart playlist with this id instead of creating one")
}

type services struct {
	db        *gorm.DB
	store     *store.Store
	playlists *playlists.Service
}

// openServices connects to the library and wires the playlist service
// without a cache or HTTP server.
func openServices() (*services, error) {
	if err := loadConfig(); err != nil {
		return nil, err
	}
	database, err := db.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database); err != nil {
		_ = db.Close(database)
		return nil, err
	}

	bus := events.NewBus()
	st := store.New(database, bus, logger)
	svc := playlists.New(playlists.Config{
		DB:              database,
		Store:           st,
		Cache:           cache.Disabled(logger),
		Bus:             bus,
		Suggestions:     suggest.NewFactory(database, logger),
		SuggestionLimit: cfg.SuggestionLimit,
	}, logger)
	return &services{db: database, store: st, playlists: svc}, nil
}

func (s *services) Close() {
	if err := db.Close(s.db); err != nil {
		logger.Warn().Err(err).Msg("close database")
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.store.RefreshViews(cmd.Context()); err != nil {
		return fmt.Errorf("refresh views: %w", err)
	}
	logger.Info().Str("dsn", cfg.DBDSN).Msg("library schema up to date")
	return nil
}

func runCompile(cmd *cobra.Command, args []string) error {
	def, err := readDefinition(args[0])
	if err != nil {
		return err
	}

	var resolver store.PlaylistResolver
	if referencesPlaylists(def) {
		svc, err := openServices()
		if err != nil {
			return err
		}
		defer svc.Close()
		resolver = svc.store.Resolver(cmd.Context())
	}

	p, err := def.Build(resolver)
	if err != nil {
		return err
	}
	q, err := p.Compile()
	if err != nil {
		return err
	}
	sql, err := q.SQL()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), sql)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	def, err := readDefinition(args[0])
	if err != nil {
		return err
	}
	def.ID = importReplaceID

	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	p, err := svc.playlists.Save(cmd.Context(), def)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", p.ID, p.Name)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	p, err := svc.playlists.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	out, err := store.DefinitionOf(p).YAML()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func runTracks(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	svc, err := openServices()
	if err != nil {
		return err
	}
	defer svc.Close()

	tracks, err := svc.playlists.Tracks(cmd.Context(), id)
	if err != nil {
		return err
	}
	return printTracks(cmd.OutOrStdout(), tracks)
}

func printTracks(w io.Writer, tracks []playlists.Track) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tARTIST\tALBUM\tYEAR")
	for _, t := range tracks {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", t.ID, t.Title, t.Artist, t.Album, t.Year)
	}
	return tw.Flush()
}

func readDefinition(path string) (store.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return store.Definition{}, fmt.Errorf("read %s: %w", path, err)
	}
	def, err := store.ParseDefinition(data)
	if err != nil {
		return store.Definition{}, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

func referencesPlaylists(def store.Definition) bool {
	for _, r := range def.Rules {
		if r.Field == smartplaylist.FieldPlaylist.String() {
			return true
		}
	}
	return false
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid playlist id %q", raw)
	}
	return id, nil
}
