package menurecord

import (
	"time"

	"github.com/Ramsey-B/squidly/pkg/database"
	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/store"
)

const tableName = "menu_records"

var recordColumns = []string{"id", "record_type", "meta", "created_at", "updated_at"}

type recordRow struct {
	ID         int64                      `db:"id"`
	RecordType string                     `db:"record_type"`
	Meta       database.JSONB[store.Meta] `db:"meta"`
	CreatedAt  time.Time                  `db:"created_at"`
	UpdatedAt  time.Time                  `db:"updated_at"`
}

func (r recordRow) toRecord() store.Record {
	meta := r.Meta.GetValue()
	if meta == nil {
		meta = store.Meta{}
	}
	return store.Record{
		ID:        r.ID,
		Type:      models.RecordType(r.RecordType),
		Meta:      meta,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
