// Command adduser creates or updates an account directly in the database.
// The API has no registration endpoint, so operators provision accounts
// with this tool.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/term"

	"github.com/onoff/todo-api/internal/dbx"
	"github.com/onoff/todo-api/internal/server/auth"
	"github.com/onoff/todo-api/internal/server/config"
	"github.com/onoff/todo-api/internal/server/models"
	"github.com/onoff/todo-api/internal/server/repositories/users"
)

func main() {

	email := flag.String("email", "", "user email (login)")
	fullName := flag.String("name", "", "user full name")
	confirmed := flag.Bool("confirmed", true, "mark the email as confirmed")
	flag.Parse()

	if *email == "" || *fullName == "" {
		flag.Usage()
		os.Exit(2)
	}

	fmt.Println("Enter password")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	if len(password) == 0 {
		fmt.Println("password must not be empty")
		os.Exit(1)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	defer db.Close()

	hash, err := auth.HashPassword(string(password))
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	user := &models.User{
		Email:          strings.ToLower(strings.TrimSpace(*email)),
		PasswordHash:   hash,
		FullName:       *fullName,
		EmailConfirmed: *confirmed,
	}

	ctx := context.Background()
	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		saved, err := users.NewPostgresRepository(tx).Upsert(ctx, user)
		if err != nil {
			return err
		}
		user = saved
		return nil
	})
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	fmt.Printf("Success! User %d (%s) saved.\n", user.ID, user.Email)
}
