package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	goose.AddMigrationContext(upSeedDemoUser, downSeedDemoUser)
}

// upSeedDemoUser inserts the demo account used by the development frontend.
// The hash is computed here so no password material lives in the repo.
func upSeedDemoUser(ctx context.Context, tx *sql.Tx) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("123456"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, full_name, email_confirmed)
		 VALUES ($1, $2, $3, TRUE)
		 ON CONFLICT (email) DO NOTHING`,
		"demo@onoff.com", string(hash), "Usuario Demo")
	return err
}

func downSeedDemoUser(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM users WHERE email = $1`, "demo@onoff.com")
	return err
}
