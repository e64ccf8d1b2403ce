package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"playtime/internal/app"
	"playtime/internal/backup"
	"playtime/internal/config"
	"playtime/internal/database"
	"playtime/internal/files"
	"playtime/internal/model"
	"playtime/internal/playtime"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "AddTime", "Report").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := app.LoadConfig(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.New(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(database.TimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q (want %s)", s, database.TimeLayout)
	}
	return t, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(database.DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want %s)", s, database.DateLayout)
	}
	return t, nil
}

// formatDuration renders seconds as "12h 05m".
func formatDuration(seconds float64) string {
	total := int(seconds)
	sign := ""
	if total < 0 {
		sign = "-"
		total = -total
	}
	return fmt.Sprintf("%s%dh %02dm", sign, total/3600, (total%3600)/60)
}

var rootCmd = &cobra.Command{
	Use:   "playtime",
	Short: "Local game playtime tracker",
}

// add-time command
var addTimeCmd = &cobra.Command{
	Use:   "add-time GAME_ID",
	Short: "Record a played interval",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		startStr, _ := cmd.Flags().GetString("start")
		endStr, _ := cmd.Flags().GetString("end")
		name, _ := cmd.Flags().GetString("name")

		start, err := parseTimestamp(startStr)
		if err != nil {
			return err
		}
		end, err := parseTimestamp(endStr)
		if err != nil {
			return err
		}

		a, err := newApp("AddTime")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Tracker.AddTime(start, end, args[0], name); err != nil {
			return err
		}

		fmt.Printf("Recorded %s for %s\n", formatDuration(end.Sub(start).Seconds()), args[0])
		return nil
	},
}

// report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Daily statistics for a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		startStr, _ := cmd.Flags().GetString("start")
		endStr, _ := cmd.Flags().GetString("end")
		gameID, _ := cmd.Flags().GetString("game")

		start, err := parseDate(startStr)
		if err != nil {
			return err
		}
		end, err := parseDate(endStr)
		if err != nil {
			return err
		}

		a, err := newApp("Report")
		if err != nil {
			return err
		}
		defer a.Close()

		paged, err := a.Statistics.DailyStatisticsForPeriod(start, end, gameID)
		if err != nil {
			return err
		}

		for _, day := range paged.Data {
			fmt.Printf("%s  total %s\n", day.Date, formatDuration(day.Total))
			for _, g := range day.Games {
				fmt.Printf("    %-30s %s  (%d session(s))\n",
					g.Game.Name, formatDuration(g.Time), len(g.Sessions))
			}
		}
		if paged.HasPrev {
			fmt.Println("(earlier data exists)")
		}
		if paged.HasNext {
			fmt.Println("(later data exists)")
		}
		return nil
	},
}

// overall command
var overallCmd = &cobra.Command{
	Use:   "overall",
	Short: "All-time statistics per game",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Overall")
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.Statistics.PerGameOverallStatistic()
		if err != nil {
			return err
		}

		if len(stats) == 0 {
			fmt.Println("No playtime recorded.")
			return nil
		}

		for _, g := range stats {
			last := "never"
			if g.LastSession != nil {
				last = g.LastSession.Date
			}
			fmt.Printf("%-14s %-30s %10s  last played %s\n",
				g.Game.ID, g.Game.Name, formatDuration(g.Time), last)
		}
		return nil
	},
}

// correct command
var correctCmd = &cobra.Command{
	Use:   "correct GAME_ID SECONDS",
	Short: "Set a game's overall time via a correction entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")

		seconds, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid seconds value %q", args[1])
		}

		a, err := newApp("ApplyManualCorrection")
		if err != nil {
			return err
		}
		defer a.Close()

		game := model.Game{ID: args[0], Name: name}
		if err := a.Tracker.ApplyManualCorrection(game, seconds, playtime.SourceManuallyChanged); err != nil {
			return err
		}

		fmt.Printf("Overall time for %s set to %s\n", args[0], formatDuration(seconds))
		return nil
	},
}

// game command
var gameCmd = &cobra.Command{
	Use:   "game",
	Short: "Manage the game dictionary",
}

var gameGetCmd = &cobra.Command{
	Use:   "get GAME_ID",
	Short: "Show a tracked game",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("GetGame")
		if err != nil {
			return err
		}
		defer a.Close()

		info, err := a.Games.GetByID(args[0])
		if err != nil {
			return err
		}
		if info == nil {
			fmt.Printf("Game %s is not tracked.\n", args[0])
			return nil
		}

		fmt.Printf("ID:    %s\n", info.ID)
		fmt.Printf("Name:  %s\n", info.Name)
		fmt.Printf("Time:  %s\n", formatDuration(info.Time))
		return nil
	},
}

var gameListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked games",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListGames")
		if err != nil {
			return err
		}
		defer a.Close()

		games, err := a.Games.Dictionary()
		if err != nil {
			return err
		}

		if len(games) == 0 {
			fmt.Println("No games tracked.")
			return nil
		}
		for _, g := range games {
			fmt.Printf("%-14s %s\n", g.ID, g.Name)
		}
		return nil
	},
}

// checksum command
var checksumCmd = &cobra.Command{
	Use:   "checksum",
	Short: "Manage game file checksums",
}

var checksumAddCmd = &cobra.Command{
	Use:   "add GAME_ID [FILE]",
	Short: "Store a checksum for a game, hashing FILE if given",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		algoStr, _ := cmd.Flags().GetString("algorithm")
		chunkSize, _ := cmd.Flags().GetInt64("chunk-size")
		value, _ := cmd.Flags().GetString("value")

		algorithm, err := model.ParseChecksumAlgorithm(algoStr)
		if err != nil {
			return err
		}

		checksum := value
		if checksum == "" {
			if len(args) < 2 {
				return fmt.Errorf("either FILE or --value is required")
			}
			checksum, err = files.Digest(args[1], algorithm, int(chunkSize))
			if err != nil {
				return err
			}
		}

		a, err := newApp("SaveGameChecksum")
		if err != nil {
			return err
		}
		defer a.Close()

		err = a.Games.SaveChecksum(database.ChecksumInput{
			GameID:    args[0],
			Checksum:  checksum,
			Algorithm: algorithm,
			ChunkSize: chunkSize,
		})
		if err != nil {
			return err
		}

		fmt.Printf("%s  %s  %s\n", args[0], algorithm, checksum)
		return nil
	},
}

var checksumAddBulkCmd = &cobra.Command{
	Use:   "add-bulk GAME_ID FILE...",
	Short: "Hash several files and store their checksums in one batch",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		algoStr, _ := cmd.Flags().GetString("algorithm")
		chunkSize, _ := cmd.Flags().GetInt64("chunk-size")

		algorithm, err := model.ParseChecksumAlgorithm(algoStr)
		if err != nil {
			return err
		}

		// Hash outside the store transaction; large files take a while.
		inputs := make([]database.ChecksumInput, 0, len(args)-1)
		for _, path := range args[1:] {
			checksum, err := files.Digest(path, algorithm, int(chunkSize))
			if err != nil {
				return err
			}
			inputs = append(inputs, database.ChecksumInput{
				GameID:    args[0],
				Checksum:  checksum,
				Algorithm: algorithm,
				ChunkSize: chunkSize,
			})
		}

		a, err := newApp("SaveGameChecksumBulk")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Games.SaveChecksumBulk(inputs); err != nil {
			return err
		}

		fmt.Printf("Stored %d checksum(s) for %s\n", len(inputs), args[0])
		return nil
	},
}

var checksumRemoveCmd = &cobra.Command{
	Use:   "remove GAME_ID CHECKSUM",
	Short: "Remove one stored checksum",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RemoveGameChecksum")
		if err != nil {
			return err
		}
		defer a.Close()

		return a.Games.RemoveChecksum(args[0], args[1])
	},
}

var checksumRemoveAllCmd = &cobra.Command{
	Use:   "remove-all [GAME_ID]",
	Short: "Remove all checksums of one game, or of every game",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RemoveAllChecksums")
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 1 {
			return a.Games.RemoveAllGameChecksums(args[0])
		}

		removed, err := a.Games.RemoveAllChecksums()
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d checksum(s)\n", removed)
		return nil
	},
}

var checksumListCmd = &cobra.Command{
	Use:   "list [GAME_ID]",
	Short: "List stored checksums",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListChecksums")
		if err != nil {
			return err
		}
		defer a.Close()

		var checksums []model.FileChecksum
		if len(args) == 1 {
			checksums, err = a.Games.ChecksumsForGame(args[0])
		} else {
			checksums, err = a.Games.AllChecksums()
		}
		if err != nil {
			return err
		}

		if len(checksums) == 0 {
			fmt.Println("No checksums stored.")
			return nil
		}
		for _, c := range checksums {
			fmt.Printf("%-14s %-9s %s\n", c.GameID, c.Algorithm, c.Checksum)
		}
		return nil
	},
}

var checksumLinkCmd = &cobra.Command{
	Use:   "link CHILD_ID PARENT_ID",
	Short: "Link a game into another game's identity component",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("LinkGameToGameWithChecksum")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Games.LinkGameToGameWithChecksum(args[0], args[1]); err != nil {
			return err
		}

		fmt.Printf("Linked %s to %s\n", args[0], args[1])
		return nil
	},
}

// hash command
var hashCmd = &cobra.Command{
	Use:   "hash FILE",
	Short: "Print a file's checksum without storing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		algoStr, _ := cmd.Flags().GetString("algorithm")
		chunkSize, _ := cmd.Flags().GetInt64("chunk-size")

		algorithm, err := model.ParseChecksumAlgorithm(algoStr)
		if err != nil {
			return err
		}

		checksum, err := files.Digest(args[0], algorithm, int(chunkSize))
		if err != nil {
			return err
		}

		fmt.Printf("%s  %s\n", checksum, args[0])
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup DEST",
	Short: "Export a consistent snapshot of the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		encrypt, _ := cmd.Flags().GetBool("encrypt")

		dest, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		a, err := newApp("Backup")
		if err != nil {
			return err
		}
		defer a.Close()

		if !encrypt {
			if err := backup.Export(a.Store, dest); err != nil {
				return err
			}
			fmt.Printf("Exported database to %s\n", dest)
			return nil
		}

		passphrase, err := promptPassphrase()
		if err != nil {
			return err
		}
		if err := backup.ExportEncrypted(a.Store, dest, passphrase); err != nil {
			return err
		}
		fmt.Printf("Exported encrypted database to %s\n", dest)
		return nil
	},
}

var backupDecryptCmd = &cobra.Command{
	Use:   "decrypt SRC DEST",
	Short: "Decrypt an encrypted export",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening encrypted export: %w", err)
		}
		defer src.Close()

		dst, err := os.OpenFile(args[1], os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer dst.Close()

		fmt.Fprint(os.Stderr, "Passphrase: ")
		passphrase, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("reading passphrase: %w", err)
		}

		return backup.Decrypt(src, dst, string(passphrase))
	},
}

// promptPassphrase reads a passphrase twice without echo and verifies both
// entries match.
func promptPassphrase() (string, error) {
	fmt.Fprint(os.Stderr, "Passphrase: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}

	fmt.Fprint(os.Stderr, "Confirm passphrase: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("passphrases do not match")
	}
	if len(first) == 0 {
		return "", fmt.Errorf("passphrase must not be empty")
	}
	return string(first), nil
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:  %s\n", cfg.LogDir)
		fmt.Printf("Database: %s", cfg.Database.Type)
		if cfg.Database.DataDir != "" {
			fmt.Printf(" (%s)", cfg.Database.DataDir)
		}
		fmt.Println()
		return nil
	},
}

// migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the database schema up to date",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}

		cfg, err := app.LoadConfig(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		dataDir := cfg.Database.DataDir
		if dataDir == "" {
			dataDir = filepath.Join(cfg.BaseDir, "data")
		}
		store, err := database.Open(filepath.Join(dataDir, app.DatabaseFileName))
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.MigrateUp(); err != nil {
			return err
		}
		fmt.Println("Database schema is up to date.")
		return nil
	},
}

func init() {
	addTimeCmd.Flags().String("start", "", "Interval start (YYYY-MM-DDTHH:MM:SS)")
	addTimeCmd.Flags().String("end", "", "Interval end (YYYY-MM-DDTHH:MM:SS)")
	addTimeCmd.Flags().String("name", "", "Game display name")
	addTimeCmd.MarkFlagRequired("start")
	addTimeCmd.MarkFlagRequired("end")
	addTimeCmd.MarkFlagRequired("name")

	reportCmd.Flags().String("start", "", "First day (YYYY-MM-DD)")
	reportCmd.Flags().String("end", "", "Last day (YYYY-MM-DD)")
	reportCmd.Flags().String("game", "", "Restrict to one game and its aliases")
	reportCmd.MarkFlagRequired("start")
	reportCmd.MarkFlagRequired("end")

	correctCmd.Flags().String("name", "", "Game display name")

	for _, c := range []*cobra.Command{checksumAddCmd, checksumAddBulkCmd, hashCmd} {
		c.Flags().String("algorithm", string(model.SHA256),
			"Checksum algorithm ("+algorithmNames()+")")
		c.Flags().Int64("chunk-size", files.DefaultChunkSize, "Read buffer size in bytes")
	}
	checksumAddCmd.Flags().String("value", "", "Precomputed checksum (skips hashing)")

	backupCmd.Flags().Bool("encrypt", false, "Encrypt the export with a passphrase")

	gameCmd.AddCommand(gameGetCmd)
	gameCmd.AddCommand(gameListCmd)

	checksumCmd.AddCommand(checksumAddCmd)
	checksumCmd.AddCommand(checksumAddBulkCmd)
	checksumCmd.AddCommand(checksumRemoveCmd)
	checksumCmd.AddCommand(checksumRemoveAllCmd)
	checksumCmd.AddCommand(checksumListCmd)
	checksumCmd.AddCommand(checksumLinkCmd)

	backupCmd.AddCommand(backupDecryptCmd)

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.AddCommand(addTimeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(overallCmd)
	rootCmd.AddCommand(correctCmd)
	rootCmd.AddCommand(gameCmd)
	rootCmd.AddCommand(checksumCmd)
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(migrateCmd)
}

func algorithmNames() string {
	names := make([]string, len(model.ChecksumAlgorithms))
	for i, a := range model.ChecksumAlgorithms {
		names[i] = string(a)
	}
	return strings.Join(names, ", ")
}
