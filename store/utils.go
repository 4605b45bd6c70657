package store

import (
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/malonaz/sdoc/client"
)

func boolToInt(val bool) int {
	if val {
		return 1
	}
	return 0
}

// toTimestamp converts to unix micros, keeping zero times as 0.
func toTimestamp(t client.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func fromTimestamp(micros int64) client.Time {
	if micros == 0 {
		return client.Time{}
	}
	return client.NewTime(time.UnixMicro(micros).UTC())
}

// withTx runs fn in a transaction, committing on success.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}

// matchQuery turns free text into an FTS5 query matching every term.
// Terms are quoted so punctuation never reaches the FTS5 parser.
func matchQuery(query string) string {
	terms := strings.Fields(query)
	for i, term := range terms {
		terms[i] = `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}
