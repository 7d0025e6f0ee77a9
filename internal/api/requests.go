package api

// CreatePostRequest is the body of POST /api/post and POST /api/post/comment/{id}.
type CreatePostRequest struct {
	Text string `json:"text" validate:"notblank" msg:"Text is required"`
}

// RegisterUserRequest is the body of POST /api/users.
type RegisterUserRequest struct {
	Name     string `json:"name" validate:"notblank" msg:"Name is required"`
	Email    string `json:"email" validate:"required,email" msg:"Please include a valid email"`
	Password string `json:"password" validate:"min=6" msg:"Please enter a password with 6 or more characters"`
}

// LoginRequest is the body of POST /api/auth.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" msg:"Please include a valid email"`
	Password string `json:"password" validate:"required" msg:"Password is required"`
}

// ProfileRequest is the body of POST /api/profile. Skills arrive comma separated.
type ProfileRequest struct {
	Company        string `json:"company"`
	Website        string `json:"website"`
	Location       string `json:"location"`
	Status         string `json:"status" validate:"notblank" msg:"Status is required"`
	Skills         string `json:"skills" validate:"notblank" msg:"Skills is required"`
	Bio            string `json:"bio"`
	GithubUsername string `json:"githubusername"`
	YouTube        string `json:"youtube"`
	Twitter        string `json:"twitter"`
	Facebook       string `json:"facebook"`
	LinkedIn       string `json:"linkedin"`
	Instagram      string `json:"instagram"`
}
