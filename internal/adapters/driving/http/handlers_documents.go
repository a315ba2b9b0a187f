package http

import (
	"net/http"

	"github.com/custodia-labs/docspace/internal/core/ports/driving"
)

// Space endpoints

// handleListSpaces godoc
// @Summary      List spaces
// @Tags         Spaces
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Space
// @Router       /api/v1/spaces [get]
func (s *Server) handleListSpaces(w http.ResponseWriter, r *http.Request) {
	spaces, err := s.Spaces.List(r.Context())
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, spaces)
}

// handleCreateSpace godoc
// @Summary      Create space
// @Description  Creates a space; the slug is derived from the name when omitted
// @Tags         Spaces
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.CreateSpaceRequest  true  "Space"
// @Success      201      {object}  domain.Space
// @Failure      400      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Router       /api/v1/spaces [post]
func (s *Server) handleCreateSpace(w http.ResponseWriter, r *http.Request) {
	var req driving.CreateSpaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	space, err := s.Spaces.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, space)
}

// handleGetSpace godoc
// @Summary      Get space
// @Tags         Spaces
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Space ID"
// @Success      200  {object}  domain.Space
// @Failure      404  {object}  ErrorResponse
// @Router       /api/v1/spaces/{id} [get]
func (s *Server) handleGetSpace(w http.ResponseWriter, r *http.Request) {
	space, err := s.Spaces.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, space)
}

// handleGetTree godoc
// @Summary      Document tree
// @Description  Returns the ordered forest of live documents. Orphaned nodes appear at the root.
// @Tags         Spaces
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Space ID"
// @Success      200  {array}   domain.TreeNode
// @Failure      409  {object}  ErrorResponse  "Stored hierarchy contains a cycle"
// @Router       /api/v1/spaces/{id}/tree [get]
func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	spaceID := r.PathValue("id")
	if _, err := s.Spaces.Get(r.Context(), spaceID); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	tree, err := s.Tree.BuildTree(r.Context(), spaceID)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// Document endpoints

// handleListRootDocuments godoc
// @Summary      List root documents
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Space ID"
// @Success      200  {array}   domain.DocumentNode
// @Router       /api/v1/spaces/{id}/documents [get]
func (s *Server) handleListRootDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.Documents.ListChildren(r.Context(), r.PathValue("id"), nil)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleCreateDocument godoc
// @Summary      Create document
// @Description  Appends a document to the end of its parent's children
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Space ID"
// @Param        request  body      driving.CreateDocumentRequest  true  "Document"
// @Success      201      {object}  domain.DocumentNode
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse  "Space or parent not found"
// @Failure      409      {object}  ErrorResponse  "Slug taken"
// @Router       /api/v1/spaces/{id}/documents [post]
func (s *Server) handleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req driving.CreateDocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.SpaceID = r.PathValue("id")

	doc, err := s.Documents.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// handleGetDocument godoc
// @Summary      Get document
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.DocumentNode
// @Failure      404  {object}  ErrorResponse
// @Router       /api/v1/documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Documents.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleUpdateDocument godoc
// @Summary      Update document
// @Description  Edits fields in place. Set if_unmodified_since to reject concurrent edits.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Document ID"
// @Param        request  body      driving.UpdateDocumentRequest  true  "Fields to change"
// @Success      200      {object}  domain.DocumentNode
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Router       /api/v1/documents/{id} [patch]
func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	var req driving.UpdateDocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, err := s.Documents.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteDocument godoc
// @Summary      Delete document
// @Description  Deletes the document and all of its descendants
// @Tags         Documents
// @Security     BearerAuth
// @Param        id   path  string  true  "Document ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /api/v1/documents/{id} [delete]
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.Documents.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMoveDocument godoc
// @Summary      Move document
// @Description  Reparents and/or reorders. parent_id null moves to the root; omit it to keep the parent.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Document ID"
// @Param        request  body      driving.MoveDocumentRequest  true  "Target"
// @Success      200      {object}  domain.DocumentNode
// @Failure      404      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse  "Move would create a cycle"
// @Router       /api/v1/documents/{id}/move [post]
func (s *Server) handleMoveDocument(w http.ResponseWriter, r *http.Request) {
	var req driving.MoveDocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, err := s.Documents.Move(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleListChildren godoc
// @Summary      List children
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {array}   domain.DocumentNode
// @Failure      404  {object}  ErrorResponse
// @Router       /api/v1/documents/{id}/children [get]
func (s *Server) handleListChildren(w http.ResponseWriter, r *http.Request) {
	parent, err := s.Documents.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	children, err := s.Documents.ListChildren(r.Context(), parent.SpaceID, &parent.ID)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, children)
}

// handleListSubtree godoc
// @Summary      List subtree
// @Description  Returns the document and its live descendants in pre-order
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {array}   domain.DocumentNode
// @Router       /api/v1/documents/{id}/subtree [get]
func (s *Server) handleListSubtree(w http.ResponseWriter, r *http.Request) {
	docs, err := s.Documents.ListSubtree(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleBreadcrumbs godoc
// @Summary      Breadcrumbs
// @Description  Ancestors from the root down, excluding the document itself
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {array}   domain.DocumentNode
// @Router       /api/v1/documents/{id}/breadcrumbs [get]
func (s *Server) handleBreadcrumbs(w http.ResponseWriter, r *http.Request) {
	crumbs, err := s.Tree.Breadcrumbs(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, crumbs)
}

// Autosave endpoints

// handleSubmitDraft godoc
// @Summary      Queue autosave
// @Description  Records the latest edit; it is written in the background
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Document ID"
// @Param        request  body      driving.UpdateDocumentRequest  true  "Fields to change"
// @Success      202      {object}  domain.DraftStatus
// @Router       /api/v1/documents/{id}/draft [put]
func (s *Server) handleSubmitDraft(w http.ResponseWriter, r *http.Request) {
	var req driving.UpdateDocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	status, err := s.Drafts.Submit(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, status)
}

// handleDraftStatus godoc
// @Summary      Autosave status
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.DraftStatus
// @Router       /api/v1/documents/{id}/draft [get]
func (s *Server) handleDraftStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Drafts.Status(r.PathValue("id")))
}

// handleFlushDraft godoc
// @Summary      Save now
// @Description  Writes the pending autosave immediately
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  domain.DraftStatus
// @Failure      409  {object}  ErrorResponse
// @Router       /api/v1/documents/{id}/draft/flush [post]
func (s *Server) handleFlushDraft(w http.ResponseWriter, r *http.Request) {
	status, err := s.Drafts.Flush(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Slug lookup endpoints

// handleGetDocumentBySlug godoc
// @Summary      Get document by slug
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Space ID"
// @Param        slug  path      string  true  "Document slug"
// @Success      200   {object}  domain.DocumentNode
// @Failure      404   {object}  ErrorResponse
// @Router       /api/v1/spaces/{id}/documents/by-slug/{slug} [get]
func (s *Server) handleGetDocumentBySlug(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Documents.GetBySlug(r.Context(), r.PathValue("id"), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleListChildrenBySlug godoc
// @Summary      List children by slug
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Space ID"
// @Param        slug  path      string  true  "Document slug"
// @Success      200   {array}   domain.DocumentNode
// @Failure      404   {object}  ErrorResponse
// @Router       /api/v1/spaces/{id}/documents/by-slug/{slug}/children [get]
func (s *Server) handleListChildrenBySlug(w http.ResponseWriter, r *http.Request) {
	parent, err := s.Documents.GetBySlug(r.Context(), r.PathValue("id"), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	children, err := s.Documents.ListChildren(r.Context(), parent.SpaceID, &parent.ID)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, children)
}

// handleBreadcrumbsBySlug godoc
// @Summary      Breadcrumbs by slug
// @Tags         Documents
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Space ID"
// @Param        slug  path      string  true  "Document slug"
// @Success      200   {array}   domain.DocumentNode
// @Failure      404   {object}  ErrorResponse
// @Router       /api/v1/spaces/{id}/documents/by-slug/{slug}/breadcrumbs [get]
func (s *Server) handleBreadcrumbsBySlug(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Documents.GetBySlug(r.Context(), r.PathValue("id"), r.PathValue("slug"))
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	crumbs, err := s.Tree.Breadcrumbs(r.Context(), doc.ID)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, crumbs)
}

// Copy, visibility and batch endpoints

// handleDuplicateDocument godoc
// @Summary      Duplicate document
// @Description  Copies the document and its descendants; the copy is appended after its last sibling
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true   "Document ID"
// @Param        request  body      driving.DuplicateDocumentRequest  false  "Title and slug of the copy"
// @Success      201      {array}   domain.DocumentNode
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Failure      409      {object}  ErrorResponse
// @Router       /api/v1/documents/{id}/duplicate [post]
func (s *Server) handleDuplicateDocument(w http.ResponseWriter, r *http.Request) {
	var req driving.DuplicateDocumentRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	copies, err := s.Documents.Duplicate(r.Context(), r.PathValue("id"), req)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, copies)
}

// handleSetDocumentPublic godoc
// @Summary      Toggle publish
// @Description  Sets whether the document is included in publications that skip private nodes
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Document ID"
// @Param        request  body      driving.SetPublicRequest  true  "Visibility"
// @Success      200      {object}  domain.DocumentNode
// @Failure      404      {object}  ErrorResponse
// @Router       /api/v1/documents/{id}/publish [patch]
func (s *Server) handleSetDocumentPublic(w http.ResponseWriter, r *http.Request) {
	var req driving.SetPublicRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, err := s.Documents.SetPublic(r.Context(), r.PathValue("id"), req.IsPublic)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleBatchDeleteDocuments godoc
// @Summary      Batch delete
// @Description  Deletes every listed document with its descendants. Nothing changes if any id is invalid.
// @Tags         Documents
// @Accept       json
// @Security     BearerAuth
// @Param        id       path  string                        true  "Space ID"
// @Param        request  body  driving.BatchDocumentsRequest  true  "Documents"
// @Success      204
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /api/v1/spaces/{id}/documents/batch-delete [post]
func (s *Server) handleBatchDeleteDocuments(w http.ResponseWriter, r *http.Request) {
	var req driving.BatchDocumentsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.Documents.BatchDelete(r.Context(), r.PathValue("id"), req.DocumentIDs); err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBatchPublishDocuments godoc
// @Summary      Batch toggle publish
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Space ID"
// @Param        request  body      driving.BatchDocumentsRequest  true  "Documents and visibility"
// @Success      200      {array}   domain.DocumentNode
// @Failure      400      {object}  ErrorResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /api/v1/spaces/{id}/documents/batch-publish [post]
func (s *Server) handleBatchPublishDocuments(w http.ResponseWriter, r *http.Request) {
	var req driving.BatchDocumentsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	docs, err := s.Documents.BatchSetPublic(r.Context(), r.PathValue("id"), req.DocumentIDs, req.IsPublic)
	if err != nil {
		writeServiceError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}
