package notes

type SaveNotePayload struct {
	Content string `json:"content" validate:"required,max=100000"`
}
