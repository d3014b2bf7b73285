package cpanel

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Restrictions are the account's MySQL naming rules.
type Restrictions struct {
	Prefix                string `json:"prefix"`
	MaxDatabaseNameLength int    `json:"max_database_name_length"`
	MaxUsernameLength     int    `json:"max_username_length"`
}

// Database is a provisioned database and the user that owns it.
type Database struct {
	Name         string
	User         string
	UserPassword string
}

// MySQLRestrictions returns the account's naming rules.
func (c *Client) MySQLRestrictions(ctx context.Context) (Restrictions, error) {
	var r Restrictions
	if err := c.Call(ctx, "Mysql", "get_restrictions", nil, &r); err != nil {
		return r, err
	}
	return r, nil
}

// ProvisionDatabase creates a database named after app, a user with a random
// password, and grants the user all privileges on the database.
func (c *Client) ProvisionDatabase(ctx context.Context, app string) (Database, error) {
	r, err := c.MySQLRestrictions(ctx)
	if err != nil {
		return Database{}, fmt.Errorf("failed to read MySQL restrictions: %w", err)
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	db := Database{
		Name:         fit(r.Prefix+app, r.MaxDatabaseNameLength),
		User:         fit(r.Prefix+suffix[:7], r.MaxUsernameLength),
		UserPassword: uuid.NewString(),
	}

	if err := c.Call(ctx, "Mysql", "create_database", url.Values{"name": {db.Name}}, nil); err != nil {
		return Database{}, fmt.Errorf("failed to create database %s: %w", db.Name, err)
	}
	if err := c.Call(ctx, "Mysql", "create_user", url.Values{"name": {db.User}, "password": {db.UserPassword}}, nil); err != nil {
		return Database{}, fmt.Errorf("failed to create database user %s: %w", db.User, err)
	}
	grant := url.Values{"user": {db.User}, "database": {db.Name}, "privileges": {"ALL PRIVILEGES"}}
	if err := c.Call(ctx, "Mysql", "set_privileges_on_database", grant, nil); err != nil {
		return Database{}, fmt.Errorf("failed to grant privileges to %s: %w", db.User, err)
	}
	return db, nil
}

func fit(name string, max int) string {
	if max > 0 && len(name) > max {
		return name[:max]
	}
	return name
}
