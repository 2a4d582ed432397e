package fakeapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/ApartmentAdmin/internal/domain"
	apperrors "github.com/utafrali/ApartmentAdmin/pkg/errors"
	"github.com/utafrali/ApartmentAdmin/pkg/httputil"
	"github.com/utafrali/ApartmentAdmin/pkg/pagination"
)

// writeStoreError maps store sentinels onto API responses.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperrors.ErrConflict):
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, httputil.ErrorResponse{
			Message: message(r, msgPhoneTaken),
			Code:    "VALIDATION_ERROR",
			Errors:  map[string][]string{"phone": {message(r, msgPhoneTaken)}},
		})
	case errors.Is(err, apperrors.ErrNotFound):
		httputil.WriteError(w, r, apperrors.NotFound("user", chi.URLParam(r, "id")), s.logger)
	default:
		httputil.WriteError(w, r, err, s.logger)
	}
}

// listUsers handles GET /api/users.
func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := domain.ParseListParams(q)
	page := pagination.FromValues(q)

	users, total := s.store.listUsers(params, page)
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPageResponse(users, page.Page, page.PerPage, total))
}

// getUser handles GET /api/users/{id}.
func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	u, found := s.store.user(domain.IDFromInt(id))
	if !found {
		s.writeStoreError(w, r, apperrors.ErrNotFound)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: u})
}

// createUser handles POST /api/users. Every admin is notified of the new
// account with a user-reference notification.
func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var in domain.CreateUserInput
	if !decode(w, r, &in) {
		return
	}

	hash, err := s.hash(in.Password)
	if err != nil {
		httputil.WriteError(w, r, err, s.logger)
		return
	}
	u := domain.User{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Username:    in.Username,
		Phone:       in.Phone,
		DateOfBirth: in.DateOfBirth,
		Role:        in.Role,
		Status:      domain.StatusPending,
	}
	if !in.PersonalPhotoID.IsZero() {
		u.PersonalPhoto = &domain.Media{ID: in.PersonalPhotoID, For: domain.MediaForPersonalPhoto}
	}
	if !in.IDPhotoID.IsZero() {
		u.IDPhoto = &domain.Media{ID: in.IDPhotoID, For: domain.MediaForIDPhoto}
	}

	created, err := s.store.addUser(u, hash)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	s.announce(r, created)

	s.logger.InfoContext(r.Context(), "user created", slog.String("user_id", created.ID.String()))
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: created, Message: message(r, msgUserCreated)})
}

// announce notifies every admin about a new user. The payload is sent as
// a JSON-encoded string, the way the production API stores it.
func (s *Server) announce(r *http.Request, u domain.User) {
	payload, err := json.Marshal(map[string]any{"item_id": u.ID})
	if err != nil {
		return
	}
	data, err := json.Marshal(string(payload))
	if err != nil {
		return
	}
	for _, admin := range s.store.adminIDs() {
		s.store.notify(admin, message(r, msgNewUser), u.FullName(), domain.TypeUserReference, data)
	}
}

// updateUser handles PUT /api/users/{id}.
func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var in domain.UpdateUserInput
	if !decode(w, r, &in) {
		return
	}

	u, err := s.store.updateUser(domain.IDFromInt(id), func(u *domain.User) {
		setIf(&u.FirstName, in.FirstName)
		setIf(&u.LastName, in.LastName)
		setIf(&u.Username, in.Username)
		setIf(&u.Phone, in.Phone)
		setIf(&u.Role, in.Role)
		setIf(&u.Status, in.Status)
		setIf(&u.DateOfBirth, in.DateOfBirth)
	})
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: u, Message: message(r, msgUserUpdated)})
}

// deleteUser handles DELETE /api/users/{id}.
func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	if !s.store.deleteUser(domain.IDFromInt(id)) {
		s.writeStoreError(w, r, apperrors.ErrNotFound)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, message(r, msgUserDeleted))
}

// systemData handles GET /api/system-data.
func (s *Server) systemData(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.store.systemData())
}
