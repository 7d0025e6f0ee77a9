package handlers

import (
	"net/http"

	"dev-connector/internal/api"
	"dev-connector/internal/engine/actors"
	"dev-connector/internal/utils"
)

// HandleCreatePost handles POST /api/post
func (s *Server) HandleCreatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.CreatePostRequest
		if !s.decodeAndValidate(w, r, &req) {
			return
		}

		post, err := s.ask(r.Context(), s.Engine.GetPostActor(), &actors.CreatePostMsg{
			UserID: currentUser(r),
			Text:   req.Text,
		}, "post")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, post)
	}
}

// HandleListPosts handles GET /api/post
func (s *Server) HandleListPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		posts, err := s.ask(r.Context(), s.Engine.GetPostActor(), &actors.ListPostsMsg{}, "post")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, posts)
	}
}

// HandleGetPost handles GET /api/post/{id}
func (s *Server) HandleGetPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := pathID(r, "id", utils.NewPostNotFoundError())
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		post, err := s.ask(r.Context(), s.Engine.GetPostActor(), &actors.GetPostMsg{PostID: postID}, "post")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, post)
	}
}

// HandleDeletePost handles DELETE /api/post/{id}. Only the author may delete.
func (s *Server) HandleDeletePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := pathID(r, "id", utils.NewPostNotFoundError())
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		if _, err := s.ask(r.Context(), s.Engine.GetPostActor(), &actors.DeletePostMsg{
			PostID: postID,
			UserID: currentUser(r),
		}, "post"); err != nil {
			s.writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, api.MessageResponse{Msg: "Post removed"})
	}
}

// HandleLikePost handles PUT /api/post/like/{id}
func (s *Server) HandleLikePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := pathID(r, "id", utils.NewPostNotFoundError())
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		likes, err := s.ask(r.Context(), s.Engine.GetPostActor(), &actors.LikePostMsg{
			PostID: postID,
			UserID: currentUser(r),
		}, "post")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, likes)
	}
}

// HandleUnlikePost handles PUT /api/post/unlike/{id}
func (s *Server) HandleUnlikePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := pathID(r, "id", utils.NewPostNotFoundError())
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		likes, err := s.ask(r.Context(), s.Engine.GetPostActor(), &actors.UnlikePostMsg{
			PostID: postID,
			UserID: currentUser(r),
		}, "post")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, likes)
	}
}

// HandleAddComment handles POST /api/post/comment/{id}
func (s *Server) HandleAddComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := pathID(r, "id", utils.NewPostNotFoundError())
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		var req api.CreatePostRequest
		if !s.decodeAndValidate(w, r, &req) {
			return
		}

		comments, err := s.ask(r.Context(), s.Engine.GetPostActor(), &actors.AddCommentMsg{
			PostID: postID,
			UserID: currentUser(r),
			Text:   req.Text,
		}, "post")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, comments)
	}
}

// HandleRemoveComment handles DELETE /api/post/comment/{id}/{comment_id}
func (s *Server) HandleRemoveComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := pathID(r, "id", utils.NewPostNotFoundError())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		commentID, err := pathID(r, "comment_id",
			utils.NewAppError(utils.ErrCommentNotFound, "Comment does not exist", nil))
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		comments, err := s.ask(r.Context(), s.Engine.GetPostActor(), &actors.RemoveCommentMsg{
			PostID:    postID,
			CommentID: commentID,
			UserID:    currentUser(r),
		}, "post")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, comments)
	}
}
