// internal/app/features/directory/handler.go
package directory

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/mentorconnect/internal/app/features/errors"
	dirquery "github.com/dalemusser/mentorconnect/internal/app/store/queries/directory"
	"github.com/dalemusser/mentorconnect/internal/app/system/authz"
	"github.com/dalemusser/mentorconnect/internal/app/system/jsonio"
	"github.com/dalemusser/mentorconnect/internal/app/system/normalize"
	"github.com/dalemusser/mentorconnect/internal/app/system/paging"
	"github.com/dalemusser/mentorconnect/internal/app/system/timeouts"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// Handler serves the directory listing.
type Handler struct {
	Engine *dirquery.Engine
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger

	// PageSize is the default page size when the request omits page_size.
	// Zero means paging.DirectoryPageSize.
	PageSize int
}

func NewHandler(engine *dirquery.Engine, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Engine: engine, ErrLog: errLog, Log: logger}
}

func (h *Handler) defaultPageSize() int {
	if h.PageSize <= 0 || h.PageSize > paging.MaxPageSize {
		return paging.DirectoryPageSize
	}
	return h.PageSize
}

type pageResponse struct {
	Users      []models.PublicProfile `json:"users"`
	NextCursor string                 `json:"next_cursor,omitempty"`
	HasMore    bool                   `json:"has_more"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /directory?role=&field=&university=&page_size=&cursor=                  |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeList returns one page of users of the role opposite the viewer's.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	viewerRole, _, uid, _ := authz.UserCtx(r)
	target := models.OppositeRole(viewerRole)

	if role := normalize.Role(query.Get(r, "role")); role != "" && role != target {
		h.ErrLog.LogForbidden(w, r, "directory role not browsable by viewer",
			"Students browse alumni and alumni browse students.")
		return
	}

	q := dirquery.Query{
		Role:       target,
		Field:      query.Get(r, "field"),
		University: query.Get(r, "university"),
		PageSize:   paging.ParseLimit(r, "page_size", h.defaultPageSize(), paging.MaxPageSize),
		Cursor:     query.Get(r, "cursor"),
		ExcludeID:  uid,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	page, err := h.Engine.FetchPage(ctx, q)
	switch {
	case errors.Is(err, dirquery.ErrCursorFilterMismatch):
		h.ErrLog.LogBadRequest(w, r, "directory cursor filter mismatch", err,
			"Filters changed; start again from the first page.")
		return
	case errors.Is(err, dirquery.ErrBadCursor), errors.Is(err, dirquery.ErrBadRole):
		h.ErrLog.LogBadRequest(w, r, "bad directory query", err, "Invalid directory query.")
		return
	case err != nil:
		h.ErrLog.LogUnavailable(w, r, "directory query failed", err, "The directory is temporarily unavailable.")
		return
	}

	jsonio.Write(w, http.StatusOK, pageResponse{
		Users:      models.PublicProfiles(page.Users),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	})
}
