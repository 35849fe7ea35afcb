package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"crudkit/pkg/entity"
)

type SampleEntity struct {
	entity.BaseEntity
	Name *string           `db:"name"`
	Tags entity.StringList `db:"tags"`
}

var sampleEntities = entity.NewTable("sample_entities",
	func(e *SampleEntity) *entity.BaseEntity { return &e.BaseEntity },
	entity.Field("name", "name", func(e *SampleEntity) **string { return &e.Name }, entity.Text()),
	entity.Field("tags", "tags", func(e *SampleEntity) *entity.StringList { return &e.Tags }, entity.List()),
)

const sampleColumns = "id, enabled, create_time, update_time, create_by, update_by, version, remark, name, tags"

func named(name string) *SampleEntity {
	return &SampleEntity{Name: entity.Ptr(name)}
}

func InsertManyRecordsToSampleEntity(db *sql.DB, entities []SampleEntity) ([]string, error) {
	var ids []string
	for _, e := range entities {
		id, err := InsertRecordsToSampleEntity(db, e)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func InsertRecordsToSampleEntity(db *sql.DB, e SampleEntity) (string, error) {
	id := uuid.NewString()
	query := "INSERT INTO sample_entities (id, create_time, update_time, version, name) VALUES (?, ?, ?, 0, ?)"
	now := time.Now()
	if _, err := db.Exec(query, id, now, now, *e.Name); err != nil {
		return "", err
	}
	return id, nil
}

func CreateSampleEntityTable(t *testing.T, db *sql.DB) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS sample_entities (
		id VARCHAR(64) PRIMARY KEY,
		enabled BOOLEAN NOT NULL DEFAULT TRUE,
		create_time DATETIME NULL,
		update_time DATETIME NULL,
		create_by VARCHAR(255) NULL,
		update_by VARCHAR(255) NULL,
		version BIGINT NULL,
		remark VARCHAR(255) NULL,
		name VARCHAR(255) NOT NULL,
		tags VARCHAR(1024) NULL
	)`)
	require.NoError(t, err)
}

func SelectSampleEntityByID(db *sql.DB, id string) (SampleEntity, error) {
	var e SampleEntity
	query := "SELECT " + sampleColumns + " FROM sample_entities WHERE id = ?"
	err := db.QueryRow(query, id).Scan(sampleEntities.ScanDest(&e)...)
	if err != nil {
		return SampleEntity{}, err
	}
	return e, nil
}
