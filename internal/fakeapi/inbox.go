package fakeapi

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/utafrali/ApartmentAdmin/internal/domain"
	"github.com/utafrali/ApartmentAdmin/pkg/httputil"
	"github.com/utafrali/ApartmentAdmin/pkg/middleware"
	"github.com/utafrali/ApartmentAdmin/pkg/pagination"
)

// maxUploadSize bounds a multipart upload.
const maxUploadSize = 10 << 20

func currentUser(r *http.Request) domain.FlexID {
	return domain.FlexID(middleware.UserIDFromContext(r.Context()))
}

// listNotifications handles GET /api/notifications.
func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromValues(r.URL.Query())
	all := s.store.inbox(currentUser(r))
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPageResponse(pagination.Window(all, page), page.Page, page.PerPage, len(all)))
}

// unreadCount handles GET /api/notifications/unread-count.
func (s *Server) unreadCount(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"count": s.store.unreadCount(currentUser(r))})
}

// markAllRead handles POST /api/notifications/read.
func (s *Server) markAllRead(w http.ResponseWriter, r *http.Request) {
	s.store.markRead(currentUser(r), "")
	httputil.WriteMessage(w, http.StatusOK, message(r, msgNotificationsRd))
}

// markRead handles POST /api/notifications/{id}/read.
func (s *Server) markRead(w http.ResponseWriter, r *http.Request) {
	id := domain.FlexID(chi.URLParam(r, "id"))
	n, ok := s.store.markRead(currentUser(r), id)
	if !ok {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorResponse{
			Message: fmt.Sprintf("No query results for notification %s", id),
			Code:    "NOT_FOUND",
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: n})
}

// uploadMedia handles POST /api/media with a multipart "file" part.
func (s *Server) uploadMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, httputil.ErrorResponse{
			Message: "The file field is required.",
			Code:    "VALIDATION_ERROR",
			Errors:  map[string][]string{"file": {"is required"}},
		})
		return
	}
	defer file.Close()

	// The content is discarded; only the metadata is kept.
	if _, err := io.Copy(io.Discard, file); err != nil {
		httputil.WriteError(w, r, err, s.logger)
		return
	}

	name := uuid.NewString() + path.Ext(header.Filename)
	m := s.store.addMedia(domain.Media{
		URL: "/storage/media/" + url.PathEscape(name),
		For: r.FormValue("for"),
	})
	httputil.WriteJSON(w, http.StatusCreated, m)
}

// listMedia handles GET /api/media.
func (s *Server) listMedia(w http.ResponseWriter, r *http.Request) {
	page := pagination.FromValues(r.URL.Query())
	items, total := s.store.listMedia(page)
	httputil.WriteJSON(w, http.StatusOK, httputil.NewPageResponse(items, page.Page, page.PerPage, total))
}
