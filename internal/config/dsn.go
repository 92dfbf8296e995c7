package config

import (
	"net"
	neturl "net/url"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

// DSNValue returns the explicit DSN when one is configured, otherwise it
// assembles one from the discrete connection fields.
func (c DatabaseRuntimeConfig) DSNValue() string {
	if c.DSN != "" {
		return c.DSN
	}

	dsn := mysql.NewConfig()
	dsn.Net = "tcp"
	dsn.User = orDefault(c.User, defaultDBUser)
	dsn.Passwd = c.Password
	dsn.Addr = net.JoinHostPort(orDefault(c.Host, defaultDBHost), strconv.Itoa(orDefaultInt(c.Port, defaultDBPort)))
	dsn.DBName = orDefault(c.Name, defaultDBName)
	dsn.ParseTime = c.ParseTime

	dsn.Params = make(map[string]string, len(c.Params)+1)
	for k, v := range c.Params {
		dsn.Params[k] = v
	}
	if _, ok := dsn.Params["charset"]; !ok {
		dsn.Params["charset"] = orDefault(c.Charset, defaultDBCharset)
	}

	loc, err := time.LoadLocation(orDefault(c.Loc, defaultDBLoc))
	if err != nil {
		// validate() rejects unknown zones; keep the raw value so the driver reports it too.
		dsn.Params["loc"] = c.Loc
	} else {
		dsn.Loc = loc
	}
	return dsn.FormatDSN()
}

// URLValue returns the redis connection URL, preferring an explicit url over host/port.
func (c RedisRuntimeConfig) URLValue() string {
	if c.URL != "" {
		return c.URL
	}

	scheme := "redis"
	if c.TLS {
		scheme = "rediss"
	}
	db := c.DB
	if db < 0 {
		db = defaultRedisDB
	}
	u := &neturl.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(orDefault(c.Host, defaultRedisHost), strconv.Itoa(orDefaultInt(c.Port, defaultRedisPort))),
		Path:   "/" + strconv.Itoa(db),
	}
	switch {
	case c.Username != "" && c.Password != "":
		u.User = neturl.UserPassword(c.Username, c.Password)
	case c.Username != "":
		u.User = neturl.User(c.Username)
	case c.Password != "":
		u.User = neturl.UserPassword("", c.Password)
	}
	return u.String()
}
