// Package entity defines the persisted-record base shared by every table and
// the explicit column tables that describe how each record type maps to SQL
// columns and spreadsheet cells.
package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity, audit and versioning fields. Embed it by value
// in a record type and expose it to the table through an accessor.
//
// Pointer fields are nullable: a nil value is "not set" for partial updates
// and example matching.
type BaseEntity struct {
	ID         string     `db:"id" json:"id"`
	Enabled    *bool      `db:"enabled" json:"enabled,omitempty"`
	CreateTime *time.Time `db:"create_time" json:"createTime,omitempty"`
	UpdateTime *time.Time `db:"update_time" json:"updateTime,omitempty"`
	CreateBy   *string    `db:"create_by" json:"createBy,omitempty"`
	UpdateBy   *string    `db:"update_by" json:"updateBy,omitempty"`
	Version    *int64     `db:"version" json:"version,omitempty"`
	Remark     *string    `db:"remark" json:"remark,omitempty"`
}

func (b *BaseEntity) GetID() string {
	return b.ID
}

// IsNew reports whether the record has never been persisted.
func (b *BaseEntity) IsNew() bool {
	return b.ID == ""
}

// StampCreated fills the audit fields of a record about to be inserted.
// Caller-supplied values are overwritten.
func (b *BaseEntity) StampCreated(now time.Time, actor string) {
	var version int64
	b.CreateTime = &now
	b.UpdateTime = &now
	b.Version = &version
	if actor != "" {
		b.CreateBy = &actor
		b.UpdateBy = &actor
	} else {
		b.CreateBy = nil
		b.UpdateBy = nil
	}
}

// StampUpdated fills the modification fields of a record about to be updated.
func (b *BaseEntity) StampUpdated(now time.Time, actor string) {
	b.UpdateTime = &now
	if actor != "" {
		b.UpdateBy = &actor
	}
}

// IDGenerator produces primary keys for new records.
type IDGenerator func() string

// NewID is the default IDGenerator.
func NewID() string {
	return uuid.NewString()
}

type actorKey struct{}

// WithActor returns a context carrying the name recorded in createBy/updateBy.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored by WithActor, or "".
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey{}).(string)
	return actor
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
