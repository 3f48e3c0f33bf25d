package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}

func orderClause(columns map[string]string, sortBy string, desc bool, fallback string) string {
	column, ok := columns[strings.ToLower(strings.TrimSpace(sortBy))]
	if !ok {
		return fallback
	}
	if desc {
		return column + " desc, id desc"
	}
	return column + " asc, id asc"
}
