package domain

// Medication is a tracked drug with an eagerly maintained stock level.
// CurrentStock is a float because dosage amounts are real numbers; SQLite
// keeps fractional values intact despite the INTEGER column affinity.
type Medication struct {
	ID           int64   `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	Description  string  `db:"description" json:"description"`
	CurrentStock float64 `db:"current_stock" json:"current_stock"`
	Threshold    int64   `db:"threshold" json:"threshold"`
	LowStock     bool    `db:"low_stock" json:"low_stock"`
}
