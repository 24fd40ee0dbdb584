package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/violation-service/internal/domain"
	"github.com/spec-kit/violation-service/internal/events"
	"github.com/spec-kit/violation-service/internal/repository"
	"github.com/spec-kit/violation-service/internal/storage"
	"github.com/spec-kit/violation-service/internal/validation"
	"github.com/spec-kit/violation-service/pkg/util"
	apperrors "github.com/spec-kit/violation-service/pkg/util/errorutil"
)

const responsePreviewLength = 120

// QueryService manages support queries, their threaded responses and attachments.
type QueryService struct {
	queries     repository.QueryRepository
	responses   repository.QueryResponseRepository
	attachments repository.QueryAttachmentRepository
	users       repository.UserRepository
	cases       repository.CaseRepository
	uploader    storage.Uploader
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         Clock
}

// QueryDependencies bundles collaborators for QueryService.
type QueryDependencies struct {
	QueryRepo      repository.QueryRepository
	ResponseRepo   repository.QueryResponseRepository
	AttachmentRepo repository.QueryAttachmentRepository
	UserRepo       repository.UserRepository
	CaseRepo       repository.CaseRepository
	Uploader       storage.Uploader
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
	Clock          Clock
}

// NewQueryService constructs the service.
func NewQueryService(deps QueryDependencies) *QueryService {
	uploader := deps.Uploader
	if uploader == nil {
		uploader = storage.NoopUploader{}
	}
	return &QueryService{
		queries:     deps.QueryRepo,
		responses:   deps.ResponseRepo,
		attachments: deps.AttachmentRepo,
		users:       deps.UserRepo,
		cases:       deps.CaseRepo,
		uploader:    uploader,
		dispatcher:  deps.Dispatcher,
		logger:      loggerOrNop(deps.Logger),
		now:         clockOrDefault(deps.Clock),
	}
}

// QueryCreateInput describes a new query.
type QueryCreateInput struct {
	CaseID   *string
	Subject  string
	Message  string
	Category domain.QueryCategory
	Priority domain.QueryPriority
	IsUrgent bool
}

// QueryUpdateInput carries the fields an administrator may change.
type QueryUpdateInput struct {
	Subject  *string
	Message  *string
	Category *domain.QueryCategory
	Priority *domain.QueryPriority
	Status   *domain.QueryStatus
	IsUrgent *bool
}

// ResponseInput describes a reply in a query thread. Template, Priority and
// InternalNotes are honoured for administrators only.
type ResponseInput struct {
	Message        string
	MarkAsResolved bool
	Template       *string
	Priority       *string
	InternalNotes  *string
}

// AttachmentInput describes an upload bound to exactly one of a query or a response.
type AttachmentInput struct {
	QueryID      *string
	ResponseID   *string
	OriginalName string
	ContentType  string
	Size         int64
	Body         io.Reader
	IsPublic     bool
}

// Create opens a query for owner.
func (s *QueryService) Create(ctx context.Context, owner *domain.User, in QueryCreateInput) (*domain.Query, error) {
	result := validation.ValidateQuery(validation.QueryInput{Subject: in.Subject, Message: in.Message})
	if !result.IsValid {
		return nil, apperrors.NewValidationErrors(result.Errors)
	}
	category := in.Category
	if category == "" {
		category = domain.QueryCategoryGeneralInquiry
	}
	priority := in.Priority
	if priority == "" {
		priority = domain.QueryPriorityMedium
	}
	if !category.Valid() {
		return nil, apperrors.NewValidationError("Invalid category", map[string]any{"category": category})
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("Invalid priority", map[string]any{"priority": priority})
	}

	ownerID := actorID(owner)
	if _, err := s.users.GetByID(ctx, ownerID); err != nil {
		return nil, notFoundOr(err, "User", ownerID)
	}
	caseID := trimmedOptional(in.CaseID)
	if caseID != nil {
		c, err := s.cases.GetByID(ctx, *caseID)
		if err != nil {
			return nil, notFoundOr(err, "Case", *caseID)
		}
		if c.UserID != ownerID {
			return nil, apperrors.NewNotFound("Case", map[string]any{"id": *caseID})
		}
	}

	now := s.now()
	q := &domain.Query{
		ID:          util.GenerateID(util.PrefixQuery),
		UserID:      ownerID,
		CaseID:      caseID,
		Subject:     strings.TrimSpace(in.Subject),
		Message:     strings.TrimSpace(in.Message),
		Category:    category,
		Priority:    priority,
		Status:      domain.QueryStatusOpen,
		IsUrgent:    in.IsUrgent,
		CreatedAt:   now,
		UpdatedAt:   now,
		Responses:   []domain.QueryResponse{},
		Attachments: []domain.QueryAttachment{},
	}
	if err := s.queries.Create(ctx, q); err != nil {
		return nil, err
	}
	s.logger.Info("query created", zap.String("query_id", q.ID), zap.String("user_id", ownerID))
	return q, nil
}

// Get returns a query with every response and attachment, including internal fields.
func (s *QueryService) Get(ctx context.Context, id string) (*domain.Query, error) {
	q, err := s.queries.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Query", id)
	}
	enriched := []domain.Query{*q}
	if err := s.enrich(ctx, enriched); err != nil {
		return nil, err
	}
	return &enriched[0], nil
}

// GetForUser returns an owned query with internal fields removed.
func (s *QueryService) GetForUser(ctx context.Context, userID, id string) (*domain.Query, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.UserID != userID {
		return nil, apperrors.NewNotFound("Query", map[string]any{"id": id})
	}
	publicQuery(q)
	return q, nil
}

// List returns an enriched page of queries.
func (s *QueryService) List(ctx context.Context, filter repository.QueryFilter, page util.Page) (util.Paginated[domain.Query], error) {
	queries, total, err := s.queries.List(ctx, filter, page)
	if err != nil {
		return util.Paginated[domain.Query]{}, err
	}
	if err := s.enrich(ctx, queries); err != nil {
		return util.Paginated[domain.Query]{}, err
	}
	return util.NewPaginated(queries, total, page), nil
}

// ListForUser returns the caller's queries with internal fields removed.
func (s *QueryService) ListForUser(ctx context.Context, userID string, filter repository.QueryFilter, page util.Page) (util.Paginated[domain.Query], error) {
	filter.UserIDs = []string{userID}
	out, err := s.List(ctx, filter, page)
	if err != nil {
		return out, err
	}
	for i := range out.Data {
		publicQuery(&out.Data[i])
	}
	return out, nil
}

// Update changes query fields; status changes follow the transition table.
func (s *QueryService) Update(ctx context.Context, actor *domain.User, id string, in QueryUpdateInput) (*domain.Query, error) {
	q, err := s.queries.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Query", id)
	}

	subject, message := q.Subject, q.Message
	if in.Subject != nil {
		subject = *in.Subject
	}
	if in.Message != nil {
		message = *in.Message
	}
	if result := validation.ValidateQuery(validation.QueryInput{Subject: subject, Message: message}); !result.IsValid {
		return nil, apperrors.NewValidationErrors(result.Errors)
	}
	if in.Category != nil && !in.Category.Valid() {
		return nil, apperrors.NewValidationError("Invalid category", map[string]any{"category": *in.Category})
	}
	if in.Priority != nil && !in.Priority.Valid() {
		return nil, apperrors.NewValidationError("Invalid priority", map[string]any{"priority": *in.Priority})
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, apperrors.NewValidationError("Invalid status", map[string]any{"status": *in.Status})
	}

	now := s.now()
	oldStatus := q.Status
	if in.Status != nil {
		if err := q.TransitionTo(*in.Status, now); err != nil {
			return nil, transitionConflict(err, q.Status, *in.Status)
		}
	}
	q.Subject = strings.TrimSpace(subject)
	q.Message = strings.TrimSpace(message)
	if in.Category != nil {
		q.Category = *in.Category
	}
	if in.Priority != nil {
		q.Priority = *in.Priority
	}
	if in.IsUrgent != nil {
		q.IsUrgent = *in.IsUrgent
	}
	q.UpdatedAt = now

	if err := s.queries.Update(ctx, q); err != nil {
		return nil, notFoundOr(err, "Query", id)
	}
	s.statusChanged(ctx, actor, q, oldStatus)
	return s.Get(ctx, id)
}

// BulkStatus moves every query in ids to status independently.
func (s *QueryService) BulkStatus(ctx context.Context, actor *domain.User, ids []string, status domain.QueryStatus) (BulkResult, error) {
	if !status.Valid() {
		return BulkResult{}, apperrors.NewValidationError("Invalid status", map[string]any{"status": status})
	}
	ids, err := requireIDs(ids)
	if err != nil {
		return BulkResult{}, err
	}
	result := newBulkResult(ids)
	for _, id := range ids {
		result.record(id, s.changeStatus(ctx, actor, id, status))
	}
	return result, nil
}

func (s *QueryService) changeStatus(ctx context.Context, actor *domain.User, id string, status domain.QueryStatus) error {
	q, err := s.queries.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "Query", id)
	}
	oldStatus := q.Status
	if err := q.TransitionTo(status, s.now()); err != nil {
		return transitionConflict(err, oldStatus, status)
	}
	if oldStatus == status {
		return nil
	}
	if err := s.queries.Update(ctx, q); err != nil {
		return notFoundOr(err, "Query", id)
	}
	s.statusChanged(ctx, actor, q, oldStatus)
	return nil
}

// Delete removes a query together with its responses, attachments and stored files.
func (s *QueryService) Delete(ctx context.Context, id string) error {
	if _, err := s.queries.GetByID(ctx, id); err != nil {
		return notFoundOr(err, "Query", id)
	}
	responses, err := s.responses.ListByQueryIDs(ctx, []string{id})
	if err != nil {
		return err
	}
	responseIDs := make([]string, len(responses))
	for i := range responses {
		responseIDs[i] = responses[i].ID
	}
	direct, err := s.attachments.ListByQueryIDs(ctx, []string{id})
	if err != nil {
		return err
	}
	nested, err := s.attachments.ListByResponseIDs(ctx, responseIDs)
	if err != nil {
		return err
	}

	removedAttachments, err := s.attachments.DeleteByQuery(ctx, id, responseIDs)
	if err != nil {
		return err
	}
	removedResponses, err := s.responses.DeleteByQuery(ctx, id)
	if err != nil {
		return err
	}
	if err := s.queries.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Query", id)
	}
	s.removeBlobs(ctx, append(direct, nested...))

	s.logger.Info("query deleted",
		zap.String("query_id", id),
		zap.Int("responses_removed", removedResponses),
		zap.Int("attachments_removed", removedAttachments))
	return nil
}

// AddResponse appends a reply and moves the query to in_progress, or to
// resolved when an administrator marks it so.
func (s *QueryService) AddResponse(ctx context.Context, actor *domain.User, queryID string, in ResponseInput) (*domain.QueryResponse, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, apperrors.NewValidationError("Response message is required", nil)
	}
	q, err := s.queries.GetByID(ctx, queryID)
	if err != nil {
		return nil, notFoundOr(err, "Query", queryID)
	}
	fromAdmin := isAdmin(actor)
	if !fromAdmin {
		if q.UserID != actorID(actor) {
			return nil, apperrors.NewNotFound("Query", map[string]any{"id": queryID})
		}
		if in.MarkAsResolved {
			return nil, apperrors.NewForbidden("only administrators can resolve queries")
		}
	}

	now := s.now()
	oldStatus := q.Status
	previous := *q
	if err := q.RecordResponse(in.MarkAsResolved, now); err != nil {
		target := domain.QueryStatusInProgress
		if in.MarkAsResolved {
			target = domain.QueryStatusResolved
		}
		return nil, transitionConflict(err, oldStatus, target)
	}

	response := &domain.QueryResponse{
		ID:          util.GenerateID(util.PrefixResponse),
		QueryID:     q.ID,
		Message:     message,
		RespondedBy: actorID(actor),
		RespondedAt: now,
		IsFromAdmin: fromAdmin,
		CreatedAt:   now,
		UpdatedAt:   now,
		Attachments: []domain.QueryAttachment{},
	}
	if fromAdmin {
		response.Template = trimmedOptional(in.Template)
		response.Priority = trimmedOptional(in.Priority)
		response.InternalNotes = trimmedOptional(in.InternalNotes)
	}
	if err := s.queries.Update(ctx, q); err != nil {
		return nil, notFoundOr(err, "Query", queryID)
	}
	if err := s.responses.Create(ctx, response); err != nil {
		if restoreErr := s.queries.Update(ctx, &previous); restoreErr != nil {
			s.logger.Error("query restore after failed response",
				zap.String("query_id", q.ID),
				zap.String("response_id", response.ID),
				zap.Error(restoreErr))
		}
		return nil, err
	}

	publish(ctx, s.dispatcher, s.logger, events.New(events.EventQueryResponseAdded, q.UserID, q.ID, actorID(actor),
		events.QueryResponseAddedPayload{
			ResponseID:  response.ID,
			IsFromAdmin: fromAdmin,
			Preview:     stringPreview(message, responsePreviewLength),
		}))
	s.statusChanged(ctx, actor, q, oldStatus)
	return response, nil
}

// EditResponse replaces the text of a response and flags it as edited.
func (s *QueryService) EditResponse(ctx context.Context, actor *domain.User, id string, in ResponseInput) (*domain.QueryResponse, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, apperrors.NewValidationError("Response message is required", nil)
	}
	response, err := s.responses.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Query response", id)
	}
	if !isAdmin(actor) && response.RespondedBy != actorID(actor) {
		return nil, apperrors.NewForbidden("cannot edit another user's response")
	}

	now := s.now()
	response.Message = message
	if isAdmin(actor) {
		if in.Template != nil {
			response.Template = trimmedOptional(in.Template)
		}
		if in.Priority != nil {
			response.Priority = trimmedOptional(in.Priority)
		}
		if in.InternalNotes != nil {
			response.InternalNotes = trimmedOptional(in.InternalNotes)
		}
	}
	response.IsEdited = true
	response.EditedAt = &now
	response.UpdatedAt = now
	if err := s.responses.Update(ctx, response); err != nil {
		return nil, notFoundOr(err, "Query response", id)
	}
	return response, nil
}

// DeleteResponse removes a response and its attachments.
func (s *QueryService) DeleteResponse(ctx context.Context, id string) error {
	if _, err := s.responses.GetByID(ctx, id); err != nil {
		return notFoundOr(err, "Query response", id)
	}
	attachments, err := s.attachments.ListByResponseIDs(ctx, []string{id})
	if err != nil {
		return err
	}
	if _, err := s.attachments.DeleteByResponse(ctx, id); err != nil {
		return err
	}
	if err := s.responses.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Query response", id)
	}
	s.removeBlobs(ctx, attachments)
	return nil
}

// AddAttachment stores the body and records it against a query or a response.
func (s *QueryService) AddAttachment(ctx context.Context, actor *domain.User, in AttachmentInput) (*domain.QueryAttachment, error) {
	queryID := trimmedOptional(in.QueryID)
	responseID := trimmedOptional(in.ResponseID)
	if (queryID == nil) == (responseID == nil) {
		return nil, apperrors.NewValidationError("Exactly one of queryId or responseId is required", nil)
	}
	originalName := strings.TrimSpace(in.OriginalName)
	if originalName == "" {
		return nil, apperrors.NewValidationError("File name is required", nil)
	}
	if in.Body == nil {
		return nil, apperrors.NewValidationError("File body is required", nil)
	}

	owningQueryID := ""
	if queryID != nil {
		owningQueryID = *queryID
	} else {
		response, err := s.responses.GetByID(ctx, *responseID)
		if err != nil {
			return nil, notFoundOr(err, "Query response", *responseID)
		}
		owningQueryID = response.QueryID
	}
	q, err := s.queries.GetByID(ctx, owningQueryID)
	if err != nil {
		return nil, notFoundOr(err, "Query", owningQueryID)
	}
	if !isAdmin(actor) && q.UserID != actorID(actor) {
		return nil, apperrors.NewNotFound("Query", map[string]any{"id": owningQueryID})
	}

	id := util.GenerateID(util.PrefixAttachment)
	fileName := id + strings.ToLower(path.Ext(originalName))
	key := fmt.Sprintf("queries/%s/%s", q.ID, fileName)
	uploaded, err := s.uploader.Upload(ctx, storage.UploadInput{
		Key:         key,
		Body:        in.Body,
		Size:        in.Size,
		ContentType: in.ContentType,
	})
	switch {
	case errors.Is(err, storage.ErrTooLarge):
		return nil, apperrors.NewValidationError("File exceeds the maximum allowed size", nil)
	case errors.Is(err, storage.ErrEmptyBody):
		return nil, apperrors.NewValidationError("File is empty", nil)
	case err != nil:
		return nil, err
	}

	attachment := &domain.QueryAttachment{
		ID:           id,
		QueryID:      queryID,
		ResponseID:   responseID,
		FileName:     fileName,
		OriginalName: originalName,
		FileSize:     uploaded.Size,
		FileType:     in.ContentType,
		URL:          uploaded.URL,
		PublicID:     uploaded.Key,
		UploadedAt:   s.now(),
		UploadedBy:   actorID(actor),
		IsPublic:     in.IsPublic,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		s.removeBlobs(ctx, []domain.QueryAttachment{*attachment})
		return nil, err
	}
	return attachment, nil
}

// DeleteAttachment removes an attachment record and its stored file.
func (s *QueryService) DeleteAttachment(ctx context.Context, actor *domain.User, id string) error {
	attachment, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "Attachment", id)
	}
	if !isAdmin(actor) && attachment.UploadedBy != actorID(actor) {
		return apperrors.NewForbidden("cannot delete another user's attachment")
	}
	if err := s.attachments.Delete(ctx, id); err != nil {
		return notFoundOr(err, "Attachment", id)
	}
	s.removeBlobs(ctx, []domain.QueryAttachment{*attachment})
	return nil
}

// enrich fills the response and attachment views of queries using three batched reads.
func (s *QueryService) enrich(ctx context.Context, queries []domain.Query) error {
	if len(queries) == 0 {
		return nil
	}
	queryIDs := make([]string, len(queries))
	for i := range queries {
		queryIDs[i] = queries[i].ID
	}
	responses, err := s.responses.ListByQueryIDs(ctx, queryIDs)
	if err != nil {
		return err
	}
	direct, err := s.attachments.ListByQueryIDs(ctx, queryIDs)
	if err != nil {
		return err
	}
	responseIDs := make([]string, len(responses))
	for i := range responses {
		responseIDs[i] = responses[i].ID
	}
	nested, err := s.attachments.ListByResponseIDs(ctx, responseIDs)
	if err != nil {
		return err
	}

	byResponse := make(map[string][]domain.QueryAttachment, len(responses))
	for _, a := range nested {
		if a.ResponseID != nil {
			byResponse[*a.ResponseID] = append(byResponse[*a.ResponseID], a)
		}
	}
	byQuery := make(map[string][]domain.QueryResponse, len(queries))
	for _, r := range responses {
		r.Attachments = nonNil(byResponse[r.ID])
		byQuery[r.QueryID] = append(byQuery[r.QueryID], r)
	}
	attachmentsByQuery := make(map[string][]domain.QueryAttachment, len(queries))
	for _, a := range direct {
		if a.QueryID != nil {
			attachmentsByQuery[*a.QueryID] = append(attachmentsByQuery[*a.QueryID], a)
		}
	}

	for i := range queries {
		q := &queries[i]
		q.Responses = byQuery[q.ID]
		if q.Responses == nil {
			q.Responses = []domain.QueryResponse{}
		}
		q.Attachments = nonNil(attachmentsByQuery[q.ID])
	}
	return nil
}

func (s *QueryService) removeBlobs(ctx context.Context, attachments []domain.QueryAttachment) {
	for _, a := range attachments {
		if a.PublicID == "" {
			continue
		}
		if err := s.uploader.Delete(ctx, a.PublicID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("delete attachment blob failed", zap.String("attachment_id", a.ID), zap.Error(err))
		}
	}
}

func (s *QueryService) statusChanged(ctx context.Context, actor *domain.User, q *domain.Query, oldStatus domain.QueryStatus) {
	if q.Status == oldStatus {
		return
	}
	publish(ctx, s.dispatcher, s.logger, events.New(events.EventQueryStatusChanged, q.UserID, q.ID, actorID(actor),
		events.QueryStatusChangedPayload{Subject: q.Subject, OldStatus: oldStatus, NewStatus: q.Status}))
}

// publicQuery strips internal response fields and hides private files the owner did not upload.
func publicQuery(q *domain.Query) {
	q.Attachments = visibleTo(q.UserID, q.Attachments)
	for i := range q.Responses {
		q.Responses[i] = q.Responses[i].PublicView()
		q.Responses[i].Attachments = visibleTo(q.UserID, q.Responses[i].Attachments)
	}
}

func visibleTo(userID string, attachments []domain.QueryAttachment) []domain.QueryAttachment {
	out := make([]domain.QueryAttachment, 0, len(attachments))
	for _, a := range attachments {
		if a.IsPublic || a.UploadedBy == userID {
			out = append(out, a)
		}
	}
	return out
}

func nonNil(attachments []domain.QueryAttachment) []domain.QueryAttachment {
	if attachments == nil {
		return []domain.QueryAttachment{}
	}
	return attachments
}
