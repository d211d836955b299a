package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tipsvendor/app/config"
	"tipsvendor/app/repositories"
)

// HandleCommand runs a subcommand and returns its exit code.
func HandleCommand(args []string) int {
	if len(args) < 1 {
		printHelp()
		osExit(1)
		return 1
	}

	cmd := args[0]
	if cmd == "help" {
		printHelp()
		return 0
	}

	cfg, err := loadConf()
	if err != nil {
		outf("Failed to load configuration: %v\n", err)
		osExit(1)
		return 1
	}

	switch cmd {
	case "serve":
		return RunAppServer(cfg)
	case "clean":
		clean(cfg)
		return 0
	case "init":
		initDb(cfg)
		return 0
	case "backup":
		return backup(cfg)
	case "restore":
		if len(args) < 2 {
			outln("Error: backup file path required for restore")
			osExit(1)
			return 1
		}
		return restore(cfg, args[1])
	case "seed":
		if len(args) < 2 {
			outln("Error: seed file path required")
			osExit(1)
			return 1
		}
		return seed(cfg, args[1])
	case "adduser":
		return addUser(cfg, args[1:])
	default:
		outf("Unknown command: %s\n\n", cmd)
		printHelp()
		osExit(1)
		return 1
	}
}

func printHelp() {
	helpText := `Usage: tipsvendor <command> [options]

Commands:
  serve                           Run the website
  init                            Initialize a new empty database
  clean                           Delete the database
  backup                          Create a backup of the database
  restore <file>                  Restore the database from a backup
  seed <file.yaml>                Load categories, posts, tips, SEO pages and plans
  adduser -email E -name N [-role R]
                                  Create an account; the password is prompted for
  help                            Display this help message
`
	outln(helpText)
}

// clean removes the database.
func clean(cfg *config.Config) {
	if !exists(cfg.DBPath) {
		outln("Database is already clean (does not exist)")
		return
	}
	if !confirm("Are you sure you want to clean the database? This cannot be undone.") {
		outln("Operation cancelled")
		return
	}
	if err := os.RemoveAll(cfg.DBPath); err != nil {
		outf("Failed to clean database: %v\n", err)
		return
	}
	outln("Database cleaned successfully")
}

// initDb creates a new empty database.
func initDb(cfg *config.Config) {
	if exists(cfg.DBPath) {
		outln("Database already exists. Use 'clean' first if you want to reinitialize.")
		return
	}
	if err := os.MkdirAll(cfg.DBPath, 0o755); err != nil {
		outf("Failed to create database directory: %v\n", err)
		return
	}
	store, err := repositories.Open(cfg.DBPath)
	if err != nil {
		outf("Failed to initialize database: %v\n", err)
		return
	}
	defer store.Close()
	outln("Database initialized successfully")
}

// backupDir sits next to the database directory.
func backupDir(cfg *config.Config) string {
	return filepath.Join(filepath.Dir(filepath.Clean(cfg.DBPath)), "backups")
}

// backup writes a full backup to data/backups/backup_<unix>.db.
func backup(cfg *config.Config) int {
	if !exists(cfg.DBPath) {
		outln("No database exists to backup")
		return 1
	}
	dir := backupDir(cfg)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		outf("Failed to create backup directory: %v\n", err)
		return 1
	}

	store, err := repositories.Open(cfg.DBPath)
	if err != nil {
		outf("Failed to open database: %v\n", err)
		return 1
	}
	defer store.Close()

	backupFile := filepath.Join(dir, fmt.Sprintf("backup_%d.db", time.Now().UnixNano()))
	f, err := os.Create(backupFile)
	if err != nil {
		outf("Failed to create backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	if _, err := store.Backup(f); err != nil {
		outf("Failed to backup database: %v\n", err)
		return 1
	}
	outf("Database backed up successfully to %s\n", backupFile)
	return 0
}

// restore replaces the database with a backup.
func restore(cfg *config.Config, backupFile string) int {
	fi, err := os.Stat(backupFile)
	if os.IsNotExist(err) {
		outf("Backup file does not exist: %s\n", backupFile)
		return 1
	}
	if err != nil {
		outf("Failed to stat backup file: %v\n", err)
		return 1
	}
	if fi.Size() == 0 {
		outf("Backup file is empty: %s\n", backupFile)
		return 1
	}

	if exists(cfg.DBPath) {
		if !confirm("Existing database found. Do you want to replace it?") {
			outln("Operation cancelled")
			return 1
		}
		if err := os.RemoveAll(cfg.DBPath); err != nil {
			outf("Failed to remove existing database: %v\n", err)
			return 1
		}
	}

	store, err := repositories.Open(cfg.DBPath)
	if err != nil {
		outf("Failed to open database: %v\n", err)
		return 1
	}
	defer store.Close()

	f, err := os.Open(backupFile)
	if err != nil {
		outf("Failed to open backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	err = func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic occurred during restore: %v", r)
			}
		}()
		return store.Restore(f)
	}()
	if err != nil {
		outf("Failed to restore database: %v\n", err)
		return 1
	}
	outln("Database restored successfully")
	return 0
}
