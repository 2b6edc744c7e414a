package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/subsets-backend/internal/domain/subsets"
	"github.com/yungbote/subsets-backend/internal/http/response"
	"github.com/yungbote/subsets-backend/internal/platform/apierr"
	"github.com/yungbote/subsets-backend/internal/platform/logger"
	"github.com/yungbote/subsets-backend/internal/services"
)

type SubsetsHandler struct {
	log      *logger.Logger
	series   services.SeriesService
	versions services.VersionService
}

func NewSubsetsHandler(log *logger.Logger, series services.SeriesService, versions services.VersionService) *SubsetsHandler {
	return &SubsetsHandler{
		log:      log.With("handler", "SubsetsHandler"),
		series:   series,
		versions: versions,
	}
}

// seriesView renders the versions of a series either as hrefs or as full documents.
type seriesView struct {
	*types.Series
	Versions any `json:"versions"`
}

func seriesLinks(s *types.Series) seriesView {
	refs := make([]string, 0, len(s.Versions))
	for _, id := range s.Versions {
		refs = append(refs, services.VersionHref(s.ID, id))
	}
	return seriesView{Series: s, Versions: refs}
}

// GET /subsets
func (h *SubsetsHandler) ListSeries(c *gin.Context) {
	includeDrafts, err := boolQuery(c, "includeDrafts", true)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	includeFuture, err := boolQuery(c, "includeFuture", true)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	includeExpired, err := boolQuery(c, "includeExpired", true)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	list, err := h.series.List(c.Request.Context(), includeDrafts, includeFuture, includeExpired)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	out := make([]seriesView, 0, len(list))
	for _, s := range list {
		out = append(out, seriesLinks(s))
	}
	response.RespondOK(c, out)
}

// POST /subsets
func (h *SubsetsHandler) CreateSeries(c *gin.Context) {
	var in types.Series
	if err := bindBody(c, &in); err != nil {
		response.RespondError(c, err)
		return
	}
	created, err := h.series.Create(c.Request.Context(), &in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, services.SeriesHref(created.ID), seriesLinks(created))
}

// GET /subsets/:id
func (h *SubsetsHandler) GetSeries(c *gin.Context) {
	full, err := boolQuery(c, "includeFullVersions", false)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	ctx := c.Request.Context()
	s, err := h.series.Get(ctx, c.Param("id"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if !full {
		response.RespondOK(c, seriesLinks(s))
		return
	}
	versions, err := h.series.ListVersions(ctx, s.ID, true, true)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, seriesView{Series: s, Versions: versions})
}

// PUT /subsets/:id
func (h *SubsetsHandler) UpdateSeries(c *gin.Context) {
	var in types.Series
	if err := bindBody(c, &in); err != nil {
		response.RespondError(c, err)
		return
	}
	updated, err := h.series.Update(c.Request.Context(), c.Param("id"), &in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, seriesLinks(updated))
}

// DELETE /subsets/:id
func (h *SubsetsHandler) DeleteSeries(c *gin.Context) {
	if err := h.series.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondNoContent(c)
}

// GET /subsets/schema
func (h *SubsetsHandler) Schema(c *gin.Context) {
	raw, err := h.series.Schema(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// GET /subsets/:id/versions
func (h *SubsetsHandler) ListVersions(c *gin.Context) {
	includeFuture, err := boolQuery(c, "includeFuture", true)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	includeDrafts, err := boolQuery(c, "includeDrafts", true)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	list, err := h.series.ListVersions(c.Request.Context(), c.Param("id"), includeFuture, includeDrafts)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, list)
}

// POST /subsets/:id/versions
func (h *SubsetsHandler) CreateVersion(c *gin.Context) {
	var in types.Version
	if err := bindBody(c, &in); err != nil {
		response.RespondError(c, err)
		return
	}
	created, err := h.versions.Create(c.Request.Context(), c.Param("id"), &in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, services.VersionHref(created.SeriesID, created.VersionID), created)
}

// GET /subsets/:id/versions/:versionId
func (h *SubsetsHandler) GetVersion(c *gin.Context) {
	v, err := h.versions.Get(c.Request.Context(), c.Param("id"), c.Param("versionId"))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, v)
}

// PUT /subsets/:id/versions/:versionId
func (h *SubsetsHandler) UpdateVersion(c *gin.Context) {
	var in types.Version
	if err := bindBody(c, &in); err != nil {
		response.RespondError(c, err)
		return
	}
	updated, err := h.versions.Update(c.Request.Context(), c.Param("id"), c.Param("versionId"), &in)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, updated)
}

// DELETE /subsets/:id/versions/:versionId
func (h *SubsetsHandler) DeleteVersion(c *gin.Context) {
	if err := h.versions.Delete(c.Request.Context(), c.Param("id"), c.Param("versionId")); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondNoContent(c)
}

type codesFlags struct {
	includeDrafts bool
	includeFuture bool
}

func readCodesFlags(c *gin.Context) (codesFlags, error) {
	var f codesFlags
	var err error
	if f.includeDrafts, err = boolQuery(c, "includeDrafts", false); err != nil {
		return f, err
	}
	if f.includeFuture, err = boolQuery(c, "includeFuture", false); err != nil {
		return f, err
	}
	return f, nil
}

// GET /subsets/:id/codes
func (h *SubsetsHandler) Codes(c *gin.Context) {
	flags, err := readCodesFlags(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	from, hasFrom, err := dateQuery(c, "from")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	to, hasTo, err := dateQuery(c, "to")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")

	if !hasFrom && !hasTo {
		codes, err := h.series.CurrentCodes(ctx, id, flags.includeDrafts, flags.includeFuture)
		if err != nil {
			response.RespondError(c, err)
			return
		}
		response.RespondOK(c, codes)
		return
	}
	var toPtr *types.Date
	if hasTo {
		toPtr = &to
	}
	codes, err := h.series.CodesInRange(ctx, id, from, toPtr, flags.includeDrafts, flags.includeFuture)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, codes)
}

// GET /subsets/:id/codesAt?date=
func (h *SubsetsHandler) CodesAt(c *gin.Context) {
	flags, err := readCodesFlags(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	at, ok, err := dateQuery(c, "date")
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if !ok {
		response.RespondError(c, apierr.Validation("query parameter date is required"))
		return
	}
	codes, err := h.series.CodesAt(c.Request.Context(), c.Param("id"), at, flags.includeDrafts, flags.includeFuture)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, codes)
}
