package seed

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// LoadMedications ingests a CSV catalog (name, description, current_stock,
// threshold) into the medications table. The load only runs against an empty
// table so restarts do not duplicate the catalog.
func LoadMedications(db *sqlx.DB, csvPath string, logger zerolog.Logger) {
	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM medications`); err != nil {
		logger.Warn().Err(err).Msg("unable to check medication table before seeding")
		return
	}
	if count > 0 {
		return
	}

	file, err := os.Open(csvPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", csvPath).Msg("unable to open medication catalog")
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Skip header
	if _, err := reader.Read(); err != nil {
		logger.Warn().Err(err).Msg("unable to read medication catalog header")
		return
	}

	tx, err := db.Beginx()
	if err != nil {
		logger.Warn().Err(err).Msg("unable to start medication seed transaction")
		return
	}
	stmt, err := tx.Preparex(`INSERT INTO medications (name, description, current_stock, threshold) VALUES (?, ?, ?, ?)`)
	if err != nil {
		logger.Warn().Err(err).Msg("unable to prepare medication insert")
		_ = tx.Rollback()
		return
	}
	defer stmt.Close()

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Warn().Err(err).Msg("unable to read medication row")
			continue
		}
		if len(record) < 4 {
			continue
		}
		name := strings.TrimSpace(record[0])
		description := strings.TrimSpace(record[1])
		if name == "" {
			continue
		}
		currentStock, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			logger.Warn().Str("name", name).Msg("skipping medication with bad current_stock")
			continue
		}
		threshold, err := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
		if err != nil {
			logger.Warn().Str("name", name).Msg("skipping medication with bad threshold")
			continue
		}

		if _, err := stmt.Exec(name, description, currentStock, threshold); err != nil {
			logger.Warn().Err(err).Str("name", name).Msg("unable to insert medication")
		} else {
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Warn().Err(err).Msg("unable to commit medication seed")
		return
	}
	logger.Info().Int("rows", rows).Msg("seeded medication catalog")
}
