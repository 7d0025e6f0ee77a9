package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Social struct {
	YouTube   string `json:"youtube,omitempty" bson:"youtube,omitempty"`
	Twitter   string `json:"twitter,omitempty" bson:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty" bson:"facebook,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty" bson:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty" bson:"instagram,omitempty"`
}

// Profile is the developer profile owned by exactly one user.
type Profile struct {
	ID             uuid.UUID `json:"_id" db:"id"`
	User           uuid.UUID `json:"user" db:"user_id"`
	Company        string    `json:"company,omitempty" db:"company"`
	Website        string    `json:"website,omitempty" db:"website"`
	Location       string    `json:"location,omitempty" db:"location"`
	Status         string    `json:"status" db:"status"`
	Skills         []string  `json:"skills"`
	Bio            string    `json:"bio,omitempty" db:"bio"`
	GithubUsername string    `json:"githubusername,omitempty" db:"github_username"`
	Social         Social    `json:"social"`
	Date           time.Time `json:"date" db:"updated_at"`
}

// PopulatedProfile is a profile with its owner's name and avatar in place of the bare id.
type PopulatedProfile struct {
	*Profile
	User UserSummary `json:"user"`
}

// ParseSkills splits a comma separated skill list, trimming blanks.
func ParseSkills(list string) []string {
	skills := []string{}
	for _, s := range strings.Split(list, ",") {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}
