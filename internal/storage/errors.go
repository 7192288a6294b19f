package storage

import (
	"errors"

	"github.com/lib/pq"
)

// коды ошибок postgres, на которые реагирует слой хранения
const (
	pqUniqueViolation  = "23505"
	pqLockNotAvailable = "55P03"
)

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
