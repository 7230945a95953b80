// Package stock maintains the eagerly computed current_stock of a
// medication as dosage rows are created, amended, and removed.
package stock

import "github.com/jmoiron/sqlx"

// Adjust adds delta to a medication's stock inside the caller's transaction.
// A medication that no longer exists is skipped: the update matches zero
// rows and adjusted comes back false. This leniency mirrors the rest of the
// dosage lifecycle, where a row may outlive the medication it references.
func Adjust(tx *sqlx.Tx, medicationID int64, delta float64) (adjusted bool, err error) {
	res, err := tx.Exec(`UPDATE medications SET current_stock = current_stock + ? WHERE id = ?`, delta, medicationID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
