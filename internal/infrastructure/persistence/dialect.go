package persistence

import "gorm.io/gorm"

// rowLockingSupported reports whether the dialect honors
// SELECT ... FOR UPDATE. SQLite serializes writers on the whole
// database file and its parser does not accept the clause.
func rowLockingSupported(db *gorm.DB) bool {
	return db.Dialector.Name() != "sqlite"
}
