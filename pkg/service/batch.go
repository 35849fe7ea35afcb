package service

// BatchModel is the payload of a batch operation. Nil members are skipped.
type BatchModel[E any] struct {
	Create []*E          `json:"create,omitempty"`
	Update map[string]*E `json:"update,omitempty"`
	Delete []string      `json:"delete,omitempty"`
}

// BatchResult reports each branch of a batch; a branch that was not
// requested is nil.
type BatchResult struct {
	Deleted *DeleteOutcome `json:"deleted,omitempty"`
	Updated *UpdateOutcome `json:"updated,omitempty"`
	Created *CreateOutcome `json:"created,omitempty"`
}

type DeleteOutcome struct {
	Requested int   `json:"requested"`
	Deleted   int64 `json:"deleted"`
}

type UpdateOutcome struct {
	IDs []string `json:"ids"`
	// Missing lists ids with no stored record; they are not updated.
	Missing []string `json:"missing,omitempty"`
}

type CreateOutcome struct {
	IDs []string `json:"ids"`
}
