package auth

import (
	"database/sql"
)

func expectAffected(res sql.Result, op, key, value string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return StorageError(op, err)
	}
	if n == 0 {
		return ErrNotFound.WithMetadata(map[string]any{key: value, "op": op})
	}
	return nil
}

func rowsAffected(res sql.Result, op string) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, StorageError(op, err)
	}
	return n, nil
}
