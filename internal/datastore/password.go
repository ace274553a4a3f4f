package datastore

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// quoteLiteral escapes s for embedding as a SQL string literal by
// doubling single quotes. Used only by the maintenance statements below,
// which cannot be parameterized (CREATE/ALTER USER take no bind
// parameters).
func quoteLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// quoteIdent escapes s for embedding in a quoted SQL identifier by
// doubling double quotes.
func quoteIdent(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}

// ChangePassword sets the data-service account password, creating the
// account first when user names a different account than oldUser. The old
// account is dropped after a successful rename.
//
// The caller is responsible for re-encrypting the secret file afterwards
// (see WriteSecretFile); this only updates the backend side.
func (c *Conn) ChangePassword(ctx context.Context, user, password, oldUser string) error {
	quoted := quoteLiteral(password)
	changeUser := user != "" && user != oldUser

	var sql string
	if changeUser {
		probe := fmt.Sprintf(`SELECT usename FROM pg_user WHERE usename = '%s'`, quoteLiteral(user))
		switch c.execRaw(ctx, probe) {
		case OpError:
			return errors.Errorf("user lookup failed: %s", c.TranslateError(FailBackend))
		case OpNoRows:
			sql = fmt.Sprintf(`CREATE USER "%s" SUPERUSER ENCRYPTED PASSWORD '%s'`, quoteIdent(user), quoted)
		default:
			sql = fmt.Sprintf(`ALTER USER "%s" SUPERUSER ENCRYPTED PASSWORD '%s'`, quoteIdent(user), quoted)
		}
	} else {
		sql = fmt.Sprintf(`ALTER USER "%s" SUPERUSER ENCRYPTED PASSWORD '%s'`, quoteIdent(oldUser), quoted)
	}

	if c.execRaw(ctx, sql) == OpError {
		return errors.Errorf("password change failed: %s", c.TranslateError(FailBackend))
	}
	if changeUser {
		if c.execRaw(ctx, fmt.Sprintf(`DROP USER "%s"`, quoteIdent(oldUser))) == OpError {
			return errors.Errorf("dropping old user failed: %s", c.TranslateError(FailBackend))
		}
	}
	return nil
}
