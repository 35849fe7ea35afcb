// Package notice is the notice module: announcements shown to users, stored
// in the notice table and served through the generic service.
package notice

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"crudkit/pkg/entity"
	"crudkit/pkg/service"
)

type Notice struct {
	entity.BaseEntity
	Title     *string           `db:"title" json:"title,omitempty"`
	Content   *string           `db:"content" json:"content,omitempty"`
	Type      *NoticeType       `db:"notice_type" json:"type,omitempty"`
	Receivers entity.StringList `db:"receivers" json:"receivers,omitempty"`
}

// Table maps Notice onto the notice table.
var Table = entity.NewTable("notice", func(n *Notice) *entity.BaseEntity { return &n.BaseEntity },
	entity.Field("title", "title", func(n *Notice) **string { return &n.Title }, entity.Text()).
		Excel("Title"),
	entity.Field("content", "content", func(n *Notice) **string { return &n.Content }, entity.Text()).
		Excel("Content"),
	entity.Field("type", "notice_type", func(n *Notice) **NoticeType { return &n.Type }, entity.Enum(NoticeTypes()...)).
		Excel("Type").WithDefault(Message.Message()),
	entity.Field("receivers", "receivers", func(n *Notice) *entity.StringList { return &n.Receivers }, entity.List()).
		Excel("Receivers"),
)

var ErrBlankTitle = errors.New("notice title must not be blank")

// Service is the generic service over notices.
type Service = service.Service[Notice]

// NewService returns the notice service. Saving a notice without a title is
// rejected. opts are applied after the defaults.
func NewService(db *sqlx.DB, log *zap.Logger, tempDir string, opts ...service.Option[Notice]) *Service {
	base := []service.Option[Notice]{
		service.WithBeforeSave(validate),
		service.WithLogger[Notice](log.Named("notice")),
		service.WithTempDir[Notice](tempDir),
	}
	return service.New(db, Table, append(base, opts...)...)
}

func validate(_ context.Context, n *Notice) error {
	if n.Title == nil || strings.TrimSpace(*n.Title) == "" {
		return ErrBlankTitle
	}
	return nil
}
