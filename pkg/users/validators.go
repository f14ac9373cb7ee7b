package users

type CreateUserPayload struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	DisplayName string `json:"display_name" validate:"omitempty,max=100"`
}

type UpdateUserPayload struct {
	Email       *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,max=100"`
}

type UpdateProfilePayload struct {
	PhotoURL       *string  `json:"photo_url,omitempty" validate:"omitempty,url,max=2000"`
	Bio            *string  `json:"bio,omitempty" validate:"omitempty,max=1000"`
	Location       *string  `json:"location,omitempty" validate:"omitempty,max=200"`
	FavoriteGenres []string `json:"favorite_genres,omitempty" validate:"omitempty,max=20,dive,max=50"`
	ReadingGoal    *int     `json:"reading_goal,omitempty" validate:"omitempty,min=0,max=1000"`
}
