package service

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tipsvendor/app/config"
	"tipsvendor/app/models"
	"tipsvendor/app/repositories"
)

// setupTestEnv points every command at a temporary database and captures
// output. input is what the user types at prompts.
func setupTestEnv(t *testing.T, input string) (*config.Config, *bytes.Buffer) {
	t.Helper()
	tmpDir := t.TempDir()
	cfg := config.Default()
	cfg.DBPath = filepath.Join(tmpDir, "data", "badger")
	cfg.UploadDir = filepath.Join(tmpDir, "data", "uploads")

	out := &bytes.Buffer{}
	oldOut, oldIn, oldLoad := stdout, stdin, loadConf
	stdout = out
	stdin = strings.NewReader(input)
	loadConf = func() (*config.Config, error) { return cfg, nil }
	t.Cleanup(func() {
		stdout, stdin, loadConf = oldOut, oldIn, oldLoad
	})
	return cfg, out
}

func setInput(input string) {
	stdin = strings.NewReader(input)
}

func TestHandleCommand(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		expectedOutput string
		expectedExit   int
	}{
		{
			name:           "no arguments",
			args:           []string{},
			expectedOutput: "Usage: tipsvendor <command>",
			expectedExit:   1,
		},
		{
			name:           "help command",
			args:           []string{"help"},
			expectedOutput: "Usage: tipsvendor <command>",
			expectedExit:   0,
		},
		{
			name:           "unknown command",
			args:           []string{"unknown"},
			expectedOutput: "Unknown command: unknown",
			expectedExit:   1,
		},
		{
			name:           "restore without file",
			args:           []string{"restore"},
			expectedOutput: "Error: backup file path required for restore",
			expectedExit:   1,
		},
		{
			name:           "seed without file",
			args:           []string{"seed"},
			expectedOutput: "Error: seed file path required",
			expectedExit:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out := setupTestEnv(t, "")
			exitCode := -1
			oldOsExit := osExit
			defer func() { osExit = oldOsExit }()
			osExit = func(code int) { exitCode = code }

			code := HandleCommand(tt.args)

			assert.Contains(t, out.String(), tt.expectedOutput)
			assert.Equal(t, tt.expectedExit, code)
			if tt.expectedExit > 0 {
				assert.Equal(t, tt.expectedExit, exitCode)
			}
		})
	}
}

func TestInitDb(t *testing.T) {
	cfg, out := setupTestEnv(t, "")

	t.Run("initialize new database", func(t *testing.T) {
		out.Reset()
		initDb(cfg)
		assert.Contains(t, out.String(), "Database initialized successfully")
		assert.DirExists(t, cfg.DBPath)
	})

	t.Run("initialize existing database", func(t *testing.T) {
		out.Reset()
		initDb(cfg)
		assert.Contains(t, out.String(), "Database already exists")
	})
}

func TestClean(t *testing.T) {
	cfg, out := setupTestEnv(t, "")

	t.Run("clean non-existent database", func(t *testing.T) {
		out.Reset()
		clean(cfg)
		assert.Contains(t, out.String(), "Database is already clean")
	})

	t.Run("clean existing database - cancelled", func(t *testing.T) {
		initDb(cfg)
		out.Reset()
		setInput("n\n")
		clean(cfg)
		assert.Contains(t, out.String(), "Operation cancelled")
		assert.DirExists(t, cfg.DBPath)
	})

	t.Run("clean existing database - confirmed", func(t *testing.T) {
		out.Reset()
		setInput("y\n")
		clean(cfg)
		assert.Contains(t, out.String(), "Database cleaned successfully")
		assert.NoDirExists(t, cfg.DBPath)
	})
}

func TestBackupAndRestore(t *testing.T) {
	cfg, out := setupTestEnv(t, "")

	t.Run("backup non-existent database", func(t *testing.T) {
		out.Reset()
		assert.Equal(t, 1, backup(cfg))
		assert.Contains(t, out.String(), "No database exists to backup")
	})

	t.Run("restore non-existent backup", func(t *testing.T) {
		out.Reset()
		assert.Equal(t, 1, restore(cfg, filepath.Join(t.TempDir(), "nonexistent.db")))
		assert.Contains(t, out.String(), "Backup file does not exist")
	})

	t.Run("restore empty backup", func(t *testing.T) {
		empty := filepath.Join(t.TempDir(), "empty.db")
		require.NoError(t, os.WriteFile(empty, nil, 0o644))
		out.Reset()
		assert.Equal(t, 1, restore(cfg, empty))
		assert.Contains(t, out.String(), "Backup file is empty")
	})

	// Store one account, back up, wipe and restore it.
	initDb(cfg)
	store, err := repositories.Open(cfg.DBPath)
	require.NoError(t, err)
	_, err = CreateUser(store.Repositories(), "Backup Admin", "admin@example.com", models.RoleAdmin, "password123")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out.Reset()
	require.Equal(t, 0, backup(cfg))
	assert.Contains(t, out.String(), "Database backed up successfully")
	files, err := filepath.Glob(filepath.Join(backupDir(cfg), "backup_*.db"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	t.Run("restore over existing database - cancelled", func(t *testing.T) {
		out.Reset()
		setInput("n\n")
		assert.Equal(t, 1, restore(cfg, files[0]))
		assert.Contains(t, out.String(), "Operation cancelled")
	})

	t.Run("restore over existing database - confirmed", func(t *testing.T) {
		out.Reset()
		setInput("y\n")
		require.Equal(t, 0, restore(cfg, files[0]))
		assert.Contains(t, out.String(), "Database restored successfully")

		store, err := repositories.Open(cfg.DBPath)
		require.NoError(t, err)
		defer store.Close()
		user, err := store.Repositories().Users.GetByEmail("admin@example.com")
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, user.Role)
	})
}
