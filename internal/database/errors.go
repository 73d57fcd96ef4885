package database

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ER_DUP_ENTRY
const mysqlDuplicateEntry = 1062

// IsDuplicateKey reports whether err is a MySQL unique-key violation. When
// keys are given, the violated index name must contain one of them; MySQL 8
// reports it as "table.index" in the message.
func IsDuplicateKey(err error, keys ...string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return false
	}
	if len(keys) == 0 {
		return true
	}
	for _, k := range keys {
		if strings.Contains(me.Message, k) {
			return true
		}
	}
	return false
}
