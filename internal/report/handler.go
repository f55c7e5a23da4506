package report

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/homevisit/homevisit/internal/capsule"
	"github.com/homevisit/homevisit/internal/domain/identity"
	"github.com/homevisit/homevisit/internal/domain/visit"
	"github.com/homevisit/homevisit/internal/platform/auth"
	"github.com/homevisit/homevisit/internal/platform/blobstore"
	"github.com/homevisit/homevisit/internal/platform/relay"
)

// Handler exposes artifact rendering, artifact import, and attachment
// upload over HTTP.
type Handler struct {
	visits     *visit.Service
	identities *identity.Service
	blobs      *blobstore.Store
	renderer   *Renderer
	relays     *relay.Dispatcher
}

func NewHandler(visits *visit.Service, identities *identity.Service, blobs *blobstore.Store, renderer *Renderer, relays *relay.Dispatcher) *Handler {
	return &Handler{
		visits:     visits,
		identities: identities,
		blobs:      blobs,
		renderer:   renderer,
		relays:     relays,
	}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	doctor := api.Group("", auth.RequireRole(auth.RoleDoctor))
	doctor.GET("/visits/:id/report", h.RenderReport)
	doctor.POST("/visits/:id/attachments", h.UploadAttachment)

	// Both roles import artifacts; post-processing differs per role.
	api.POST("/imports", h.ImportArtifact)
}

// RenderReport produces the PDF artifact for a saved visit and streams it
// back. A report-sync relay is dispatched best-effort on success.
func (h *Handler) RenderReport(c echo.Context) error {
	ctx := c.Request().Context()
	sv, err := h.visits.Get(ctx, c.Param("id"))
	if errors.Is(err, visit.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load visit")
	}

	var atts []Attachment
	for _, ref := range sv.Record.Attachments {
		data, err := h.blobs.Get(ref)
		if errors.Is(err, blobstore.ErrBlobNotFound) {
			// A dangling reference is skipped rather than failing the
			// whole artifact.
			continue
		}
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to load attachment")
		}
		atts = append(atts, Attachment{Name: ref, Data: data})
	}

	artifact, err := h.renderer.Render(sv.Record, atts)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "report generation failed, please retry")
	}

	h.relays.Dispatch(relay.KindReportSync, auth.RoleFromContext(c), sv.Record.RelayFields())

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="visit-%s.pdf"`, sv.ID))
	return c.Blob(http.StatusOK, "application/pdf", artifact)
}

// ImportArtifact recovers the embedded record from an uploaded artifact and
// applies the caller's role post-processing: a doctor gets a follow-up
// draft with a fresh (empty) visit identifier, a patient gets read-only
// reference data with contact fields adopted into their local profile.
func (h *Handler) ImportArtifact(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "artifact file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot open uploaded file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}

	rec, err := ImportBytes(data)
	switch {
	case errors.Is(err, ErrNoCapsuleFound):
		return echo.NewHTTPError(http.StatusNotFound, "no record found in this document")
	case errors.Is(err, capsule.ErrCapsuleFormat):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "no record found in this document")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "import failed")
	}

	role := auth.RoleFromContext(c)
	switch role {
	case auth.RoleDoctor:
		h.visits.PrepareFollowUp(rec)
	case auth.RolePatient:
		rec.VisitID = ""
		if _, _, err := h.identities.Adopt(c.Request().Context(), role, rec); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to update profile")
		}
	}

	return c.JSON(http.StatusOK, rec)
}

// UploadAttachment stores an image and appends its reference to the
// visit's ordered attachment list.
func (h *Handler) UploadAttachment(c echo.Context) error {
	ctx := c.Request().Context()
	sv, err := h.visits.Get(ctx, c.Param("id"))
	if errors.Is(err, visit.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load visit")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "image file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot open uploaded file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}

	ref, err := h.blobs.Put(fh.Filename, data)
	switch {
	case errors.Is(err, blobstore.ErrFileTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image is too large")
	case errors.Is(err, blobstore.ErrInvalidContentType):
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, "unsupported image type")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store image")
	}

	rec := sv.Record
	rec.Attachments = append(rec.Attachments, ref)
	if _, err := h.visits.Update(ctx, sv.ID, rec); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update visit")
	}

	return c.JSON(http.StatusCreated, map[string]string{"ref": ref})
}
