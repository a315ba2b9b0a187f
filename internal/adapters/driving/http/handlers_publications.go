package http

import (
	"net/http"
	"strconv"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driving"
)

// RepublishRequest carries the note stored with the new version
type RepublishRequest struct {
	ChangeSummary string `json:"change_summary" example:"Fixed typos in setup guide"`
}

// SlugAvailabilityResponse answers a publication slug check
// @Description Publication slug availability
type SlugAvailabilityResponse struct {
	Slug       string `json:"slug" example:"handbook"`
	Available  bool   `json:"available"`
	Suggestion string `json:"suggestion,omitempty" example:"handbook-2"`
}

// handlePublish godoc
// @Summary      Publish
// @Description  Snapshots the selected subtree into a new active version of the slug
// @Tags         Publications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                 true  "Space ID"
// @Param        request  body      domain.PublishOptions  true  "Selection and metadata"
// @Success      201      {object}  domain.Publication
// @Failure      400      {object}  ErrorResponse  "Invalid options or empty selection"
// @Failure      409      {object}  ErrorResponse  "Slug owned by another space"
// @Router       /api/v1/spaces/{id}/publications [post]
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var opts domain.PublishOptions
	if !decodeJSON(w, r, &opts) {
		return
	}
	pub, err := s.Publications.Publish(r.Context(), r.PathValue("id"), opts)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, pub)
}

// handleListPublications godoc
// @Summary      List publications
// @Tags         Publications
// @Produce      json
// @Security     BearerAuth
// @Param        id                path      string  true   "Space ID"
// @Param        include_inactive  query     bool    false  "Include superseded and unpublished versions"
// @Success      200               {array}   domain.Publication
// @Router       /api/v1/spaces/{id}/publications [get]
func (s *Server) handleListPublications(w http.ResponseWriter, r *http.Request) {
	includeInactive, _ := strconv.ParseBool(r.URL.Query().Get("include_inactive"))
	pubs, err := s.Publications.List(r.Context(), r.PathValue("id"), includeInactive)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pubs)
}

// handleCheckPublicationSlug godoc
// @Summary      Check publication slug
// @Tags         Publications
// @Produce      json
// @Security     BearerAuth
// @Param        slug  path      string  true  "Candidate slug"
// @Success      200   {object}  SlugAvailabilityResponse
// @Router       /api/v1/publication-slugs/{slug} [get]
func (s *Server) handleCheckPublicationSlug(w http.ResponseWriter, r *http.Request) {
	slug := domain.NormalizeSlug(r.PathValue("slug"))
	available, err := s.Slugs.IsAvailable(r.Context(), domain.ScopePublication, slug)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}

	resp := SlugAvailabilityResponse{Slug: slug, Available: available}
	if !available {
		if suggestion, err := s.Slugs.Suggest(r.Context(), domain.ScopePublication, slug); err == nil {
			resp.Suggestion = suggestion
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetPublication godoc
// @Summary      Get publication
// @Description  Returns any version, active or not. Does not count a view.
// @Tags         Publications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Publication ID"
// @Success      200  {object}  domain.Publication
// @Failure      404  {object}  ErrorResponse
// @Failure      422  {object}  ErrorResponse  "Publication was deleted"
// @Router       /api/v1/publications/{id} [get]
func (s *Server) handleGetPublication(w http.ResponseWriter, r *http.Request) {
	pub, err := s.Publications.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pub)
}

// handleUpdatePublication godoc
// @Summary      Update publication metadata
// @Tags         Publications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                            true  "Publication ID"
// @Param        request  body      driving.UpdatePublicationRequest  true  "Metadata"
// @Success      200      {object}  domain.Publication
// @Router       /api/v1/publications/{id} [patch]
func (s *Server) handleUpdatePublication(w http.ResponseWriter, r *http.Request) {
	var req driving.UpdatePublicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pub, err := s.Publications.UpdateMetadata(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pub)
}

// handleDeletePublication godoc
// @Summary      Delete publication
// @Description  Permanently removes the version and its documents
// @Tags         Publications
// @Security     BearerAuth
// @Param        id   path  string  true  "Publication ID"
// @Success      204
// @Router       /api/v1/publications/{id} [delete]
func (s *Server) handleDeletePublication(w http.ResponseWriter, r *http.Request) {
	if err := s.Publications.DeletePublication(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRepublish godoc
// @Summary      Republish
// @Description  Publishes a new version with the stored selection of this publication
// @Tags         Publications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string            true   "Publication ID"
// @Param        request  body      RepublishRequest  false  "Change summary"
// @Success      201      {object}  domain.Publication
// @Router       /api/v1/publications/{id}/republish [post]
func (s *Server) handleRepublish(w http.ResponseWriter, r *http.Request) {
	var req RepublishRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	pub, err := s.Publications.Republish(r.Context(), r.PathValue("id"), req.ChangeSummary)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, pub)
}

// handleUnpublish godoc
// @Summary      Unpublish
// @Description  Hides the publication from readers. Idempotent.
// @Tags         Publications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Publication ID"
// @Success      200  {object}  domain.Publication
// @Router       /api/v1/publications/{id}/unpublish [post]
func (s *Server) handleUnpublish(w http.ResponseWriter, r *http.Request) {
	pub, err := s.Publications.Unpublish(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pub)
}

// handleRestore godoc
// @Summary      Restore
// @Description  Re-activates an inactive version
// @Tags         Publications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Publication ID"
// @Success      200  {object}  domain.Publication
// @Failure      409  {object}  ErrorResponse  "Another version is active"
// @Router       /api/v1/publications/{id}/restore [post]
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	pub, err := s.Publications.Restore(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pub)
}

// handlePreviewTree godoc
// @Summary      Preview snapshot tree
// @Tags         Publications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Publication ID"
// @Success      200  {array}   domain.PublicationTreeNode
// @Router       /api/v1/publications/{id}/tree [get]
func (s *Server) handlePreviewTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.Publications.PreviewTree(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// handlePreviewDocument godoc
// @Summary      Preview snapshot document
// @Tags         Publications
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "Publication ID"
// @Param        docSlug  path      string  true  "Document slug"
// @Success      200      {object}  domain.PublicationDocument
// @Router       /api/v1/publications/{id}/docs/{docSlug} [get]
func (s *Server) handlePreviewDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Publications.PreviewDocument(r.Context(), r.PathValue("id"), r.PathValue("docSlug"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Public reader endpoints

// handlePublicPublication godoc
// @Summary      Read publication
// @Description  Resolves the active version of a slug and counts a view
// @Tags         Public
// @Produce      json
// @Param        slug  path      string  true  "Publication slug"
// @Success      200   {object}  domain.Publication
// @Failure      404   {object}  ErrorResponse
// @Router       /p/{slug} [get]
func (s *Server) handlePublicPublication(w http.ResponseWriter, r *http.Request) {
	pub, err := s.Gateway.ResolvePublication(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pub)
}

// handlePublicTree godoc
// @Summary      Read publication tree
// @Tags         Public
// @Produce      json
// @Param        slug  path      string  true  "Publication slug"
// @Success      200   {array}   domain.PublicationTreeNode
// @Failure      404   {object}  ErrorResponse
// @Router       /p/{slug}/tree [get]
func (s *Server) handlePublicTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.Gateway.ResolveTree(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// handlePublicDocument godoc
// @Summary      Read publication document
// @Tags         Public
// @Produce      json
// @Param        slug     path      string  true  "Publication slug"
// @Param        docSlug  path      string  true  "Document slug"
// @Success      200      {object}  domain.PublicationDocument
// @Failure      404      {object}  ErrorResponse
// @Router       /p/{slug}/docs/{docSlug} [get]
func (s *Server) handlePublicDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Gateway.ResolveDocument(r.Context(), r.PathValue("slug"), r.PathValue("docSlug"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
