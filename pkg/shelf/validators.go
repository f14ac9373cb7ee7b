package shelf

type ListShelfQuery struct {
	Status *string `query:"status" json:"status,omitempty" validate:"omitempty,reading_status"`
	Limit  *int    `query:"limit" json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

type UpdateStatusPayload struct {
	Status string `json:"status" validate:"required,reading_status"`
}

type UpdateDetailsPayload struct {
	Rating          *int    `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
	Review          *string `json:"review,omitempty" validate:"omitempty,max=10000"`
	YearOfOwnership *string `json:"year_of_ownership,omitempty" validate:"omitempty,year"`
}
