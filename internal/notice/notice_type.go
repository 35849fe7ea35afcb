package notice

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"crudkit/pkg/entity"
)

// NoticeType classifies how a notice is shown.
type NoticeType int

const (
	TopScroll NoticeType = iota
	Message
	Doing
	Done
)

var noticeTypeMessages = map[NoticeType]string{
	TopScroll: "top scroll notice",
	Message:   "message",
	Doing:     "to do",
	Done:      "done",
}

// NoticeTypes returns every notice type in code order.
func NoticeTypes() []NoticeType {
	return []NoticeType{TopScroll, Message, Doing, Done}
}

// NoticeTypeOf returns the notice type with the given code.
func NoticeTypeOf(code int) (NoticeType, error) {
	t, ok := entity.EnumOf(NoticeTypes(), code)
	if !ok {
		return 0, fmt.Errorf("unknown notice type %d", code)
	}
	return t, nil
}

func (t NoticeType) Code() int {
	return int(t)
}

func (t NoticeType) Message() string {
	return noticeTypeMessages[t]
}

func (t NoticeType) String() string {
	if m, ok := noticeTypeMessages[t]; ok {
		return m
	}
	return fmt.Sprintf("NoticeType(%d)", int(t))
}

// MarshalJSON encodes the code.
func (t NoticeType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Code())
}

// UnmarshalJSON accepts the code or the message.
func (t *NoticeType) UnmarshalJSON(data []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		for _, v := range NoticeTypes() {
			if strings.EqualFold(v.Message(), s) {
				*t = v
				return nil
			}
		}
		return fmt.Errorf("unknown notice type %q", s)
	}

	var code int
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	v, err := NoticeTypeOf(code)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Scan implements sql.Scanner.
func (t *NoticeType) Scan(src any) error {
	var code int64
	switch v := src.(type) {
	case int64:
		code = v
	case []byte:
		if _, err := fmt.Sscan(string(v), &code); err != nil {
			return fmt.Errorf("scan notice type: %w", err)
		}
	case string:
		if _, err := fmt.Sscan(v, &code); err != nil {
			return fmt.Errorf("scan notice type: %w", err)
		}
	default:
		return fmt.Errorf("cannot scan %T into NoticeType", src)
	}
	v, err := NoticeTypeOf(int(code))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Value implements driver.Valuer.
func (t NoticeType) Value() (driver.Value, error) {
	return int64(t), nil
}
