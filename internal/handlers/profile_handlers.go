package handlers

import (
	"net/http"

	"dev-connector/internal/api"
	"dev-connector/internal/engine/actors"
	"dev-connector/internal/models"
	"dev-connector/internal/utils"
)

// HandleMyProfile handles GET /api/profile/me
func (s *Server) HandleMyProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile, err := s.ask(r.Context(), s.Engine.GetProfileActor(), &actors.GetProfileMsg{UserID: currentUser(r)}, "profile")
		if utils.IsErrorCode(err, utils.ErrProfileNotFound) {
			api.WriteJSON(w, http.StatusBadRequest, api.MessageResponse{Msg: "There is no profile for this user"})
			return
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, profile)
	}
}

// HandleUpsertProfile handles POST /api/profile
func (s *Server) HandleUpsertProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.ProfileRequest
		if !s.decodeAndValidate(w, r, &req) {
			return
		}

		profile, err := s.ask(r.Context(), s.Engine.GetProfileActor(), &actors.UpsertProfileMsg{
			UserID: currentUser(r),
			Profile: models.Profile{
				Company:        req.Company,
				Website:        req.Website,
				Location:       req.Location,
				Status:         req.Status,
				Skills:         models.ParseSkills(req.Skills),
				Bio:            req.Bio,
				GithubUsername: req.GithubUsername,
				Social: models.Social{
					YouTube:   req.YouTube,
					Twitter:   req.Twitter,
					Facebook:  req.Facebook,
					LinkedIn:  req.LinkedIn,
					Instagram: req.Instagram,
				},
			},
		}, "profile")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, profile)
	}
}

// HandleListProfiles handles GET /api/profile
func (s *Server) HandleListProfiles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profiles, err := s.ask(r.Context(), s.Engine.GetProfileActor(), &actors.ListProfilesMsg{}, "profile")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, profiles)
	}
}

// HandleProfileByUser handles GET /api/profile/user/{user_id}
func (s *Server) HandleProfileByUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notFound := utils.NewAppError(utils.ErrProfileNotFound, "Profile not found", nil)
		userID, err := pathID(r, "user_id", notFound)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		profile, err := s.ask(r.Context(), s.Engine.GetProfileActor(), &actors.GetProfileMsg{UserID: userID}, "profile")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, profile)
	}
}

// HandleDeleteAccount handles DELETE /api/profile: the caller's posts,
// profile and user record are all removed.
func (s *Server) HandleDeleteAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.ask(r.Context(), s.Engine.GetUserActor(), &actors.DeleteAccountMsg{UserID: currentUser(r)}, "user"); err != nil {
			s.writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, api.MessageResponse{Msg: "User deleted"})
	}
}
