// Package sqlstore implements the guestbook entry store on database/sql for
// backends reached through a driver: MySQL (github.com/go-sql-driver/mysql)
// and SQLite (modernc.org/sqlite). The dialect only decides the upsert
// statement; pooling, connection checkout and scanning are shared.
package sqlstore
