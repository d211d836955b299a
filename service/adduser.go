package service

import (
	"flag"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"tipsvendor/app/config"
	"tipsvendor/app/models"
	"tipsvendor/app/repositories"
	"tipsvendor/app/services"
)

// readPassword reads a line without echo when stdin is a terminal.
var readPassword = func() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := readLine(stdin)
		return line, err
	}
	raw, err := term.ReadPassword(fd)
	outln()
	return string(raw), err
}

func readLine(r io.Reader) (string, error) {
	var b strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			b.WriteByte(buf[0])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimRight(b.String(), "\r"), nil
}

// addUser creates an account from the command line. Accounts made here are
// trusted, so their email counts as verified.
func addUser(cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stdout)
	email := fs.String("email", "", "email address")
	name := fs.String("name", "", "display name")
	role := fs.String("role", models.RoleUser, "user, editor or admin")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *email == "" || *name == "" {
		outln("Error: -email and -name are required")
		fs.PrintDefaults()
		return 1
	}

	outf("Password for %s: ", *email)
	password, err := readPassword()
	if err != nil {
		outf("Failed to read password: %v\n", err)
		return 1
	}
	outf("Repeat password: ")
	again, err := readPassword()
	if err != nil {
		outf("Failed to read password: %v\n", err)
		return 1
	}
	if password != again {
		outln("Passwords do not match")
		return 1
	}
	if len(password) < 8 {
		outln("Password must be at least 8 characters")
		return 1
	}

	store, err := repositories.Open(cfg.DBPath)
	if err != nil {
		outf("Failed to open database: %v\n", err)
		return 1
	}
	defer store.Close()

	user, err := CreateUser(store.Repositories(), *name, *email, *role, password)
	if err != nil {
		outf("Failed to create user: %v\n", err)
		return 1
	}
	outf("Created %s %s (%s)\n", user.Role, user.Email, user.ID)
	return 0
}

// CreateUser stores a verified account with the given role.
func CreateUser(repos repositories.Repositories, name, email, role, password string) (*models.User, error) {
	now := time.Now().UTC()
	user := &models.User{
		Name:          name,
		Email:         email,
		Role:          role,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}
	auth := services.NewAuthService(repos.Users, nil, nil, nil, nil, 0)
	if err := auth.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}
