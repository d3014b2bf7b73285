package database

import (
	"net"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/imamik/appinstaller/internal/envelope"
)

// Credentials identify a database and the user connecting to it.
type Credentials struct {
	Host         string
	Port         string
	Name         string
	User         string
	UserPassword string
}

// CredentialsFromParams reads the db section fields from request parameters.
// The password may be empty.
func CredentialsFromParams(p envelope.Params) (Credentials, error) {
	if err := p.Require("host", "port", "name", "user"); err != nil {
		return Credentials{}, err
	}
	return Credentials{
		Host:         p.Get("host"),
		Port:         p.Get("port"),
		Name:         p.Get("name"),
		User:         p.Get("user"),
		UserPassword: p.Get("userPassword"),
	}, nil
}

// Params returns the credentials as the db section record.
func (c Credentials) Params() map[string]string {
	return map[string]string{
		"host":         c.Host,
		"port":         c.Port,
		"name":         c.Name,
		"user":         c.User,
		"userPassword": c.UserPassword,
	}
}

// DSN returns the go-sql-driver/mysql data source name.
func (c Credentials) DSN(timeout time.Duration) string {
	cfg := mysql.NewConfig()
	cfg.User = c.User
	cfg.Passwd = c.UserPassword
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, c.Port)
	cfg.DBName = c.Name
	cfg.Timeout = timeout
	cfg.ReadTimeout = timeout
	cfg.WriteTimeout = timeout
	return cfg.FormatDSN()
}
