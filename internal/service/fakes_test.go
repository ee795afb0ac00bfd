package service

import (
	"context"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/automation-hub/internal/domain"
	"github.com/spec-kit/automation-hub/internal/repository"
)

type fakeUserRepo struct {
	users  map[int64]domain.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	f.nextID++
	user.ID = f.nextID
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := f.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := user
	return &copied, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	result := make([]domain.User, 0, len(f.users))
	for _, user := range f.users {
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserRepo) CountByRole(_ context.Context, role domain.Role) (int, error) {
	count := 0
	for _, user := range f.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

func (f *fakeUserRepo) NormalizeRoles(_ context.Context, valid []domain.Role, fallback domain.Role) (int64, error) {
	validSet := make(map[domain.Role]struct{}, len(valid))
	for _, role := range valid {
		validSet[role] = struct{}{}
	}
	var changed int64
	for id, user := range f.users {
		if _, ok := validSet[user.Role]; !ok {
			user.Role = fallback
			f.users[id] = user
			changed++
		}
	}
	return changed, nil
}

type fakeRequestRepo struct {
	requests map[int64]domain.AutomationRequest
	nextID   int64
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[int64]domain.AutomationRequest)}
}

func (f *fakeRequestRepo) Create(_ context.Context, request *domain.AutomationRequest) error {
	f.nextID++
	request.ID = f.nextID
	f.requests[request.ID] = *request
	return nil
}

func (f *fakeRequestRepo) Update(_ context.Context, request *domain.AutomationRequest) error {
	if _, ok := f.requests[request.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.requests[request.ID] = *request
	return nil
}

func (f *fakeRequestRepo) GetByID(_ context.Context, id int64) (*domain.AutomationRequest, error) {
	request, ok := f.requests[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := request
	return &copied, nil
}

func (f *fakeRequestRepo) ListWithFilter(_ context.Context, filter repository.RequestFilter) ([]domain.AutomationRequest, error) {
	result := make([]domain.AutomationRequest, 0)
	for _, request := range f.requests {
		if filter.RequesterID != nil && request.RequesterID != *filter.RequesterID {
			continue
		}
		if filter.Status != nil && request.Status != *filter.Status {
			continue
		}
		if filter.Priority != nil && request.Priority != *filter.Priority {
			continue
		}
		if filter.Project != nil && request.ProjectName != *filter.Project {
			continue
		}
		if filter.Search != nil {
			needle := strings.ToLower(*filter.Search)
			if !strings.Contains(strings.ToLower(request.Title), needle) &&
				!strings.Contains(strings.ToLower(request.RequesterName), needle) {
				continue
			}
		}
		result = append(result, request)
	}
	sort.Slice(result, func(i, j int) bool {
		if filter.SortAsc {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].CreatedAt > result[j].CreatedAt
	})
	return result, nil
}

func (f *fakeRequestRepo) ListByStatus(_ context.Context, status domain.RequestStatus) ([]domain.AutomationRequest, error) {
	result := make([]domain.AutomationRequest, 0)
	for _, request := range f.requests {
		if request.Status == status {
			result = append(result, request)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeRequestRepo) ListIDsByRequester(_ context.Context, requesterID int64) ([]int64, error) {
	ids := make([]int64, 0)
	for _, request := range f.requests {
		if request.RequesterID == requesterID {
			ids = append(ids, request.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeRequestRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.requests[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.requests, id)
	return nil
}

type fakeAttachmentRepo struct {
	attachments []domain.Attachment
	nextID      int64
}

func newFakeAttachmentRepo() *fakeAttachmentRepo { return &fakeAttachmentRepo{} }

func (f *fakeAttachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	f.nextID++
	attachment.ID = f.nextID
	f.attachments = append(f.attachments, *attachment)
	return nil
}

func (f *fakeAttachmentRepo) ListByRequest(_ context.Context, requestID int64) ([]domain.Attachment, error) {
	result := make([]domain.Attachment, 0)
	for _, attachment := range f.attachments {
		if attachment.RequestID == requestID {
			result = append(result, attachment)
		}
	}
	return result, nil
}

func (f *fakeAttachmentRepo) MapByRequestIDs(ctx context.Context, requestIDs []int64) (map[int64][]domain.Attachment, error) {
	result := make(map[int64][]domain.Attachment)
	for _, id := range requestIDs {
		items, _ := f.ListByRequest(ctx, id)
		if len(items) > 0 {
			result[id] = items
		}
	}
	return result, nil
}

type fakeResultFileRepo struct {
	files  []domain.ResultFile
	nextID int64
}

func newFakeResultFileRepo() *fakeResultFileRepo { return &fakeResultFileRepo{} }

func (f *fakeResultFileRepo) Create(_ context.Context, file *domain.ResultFile) error {
	f.nextID++
	file.ID = f.nextID
	f.files = append(f.files, *file)
	return nil
}

func (f *fakeResultFileRepo) ListByRequest(_ context.Context, requestID int64) ([]domain.ResultFile, error) {
	result := make([]domain.ResultFile, 0)
	for _, file := range f.files {
		if file.RequestID == requestID {
			result = append(result, file)
		}
	}
	return result, nil
}

func (f *fakeResultFileRepo) MapByRequestIDs(ctx context.Context, requestIDs []int64) (map[int64][]domain.ResultFile, error) {
	result := make(map[int64][]domain.ResultFile)
	for _, id := range requestIDs {
		items, _ := f.ListByRequest(ctx, id)
		if len(items) > 0 {
			result[id] = items
		}
	}
	return result, nil
}

func (f *fakeResultFileRepo) Delete(_ context.Context, id int64) error {
	for i, file := range f.files {
		if file.ID == id {
			f.files = append(f.files[:i], f.files[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeSubmissionRepo struct {
	events []domain.SubmissionEvent
	nextID int64
}

func newFakeSubmissionRepo() *fakeSubmissionRepo { return &fakeSubmissionRepo{} }

func (f *fakeSubmissionRepo) Create(_ context.Context, event *domain.SubmissionEvent) error {
	f.nextID++
	event.ID = f.nextID
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeSubmissionRepo) ListByRequest(_ context.Context, requestID int64) ([]domain.SubmissionEvent, error) {
	result := make([]domain.SubmissionEvent, 0)
	for _, event := range f.events {
		if event.RequestID == requestID {
			result = append(result, event)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt != result[j].CreatedAt {
			return result[i].CreatedAt < result[j].CreatedAt
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (f *fakeSubmissionRepo) MapByRequestIDs(ctx context.Context, requestIDs []int64) (map[int64][]domain.SubmissionEvent, error) {
	result := make(map[int64][]domain.SubmissionEvent)
	for _, id := range requestIDs {
		items, _ := f.ListByRequest(ctx, id)
		if len(items) > 0 {
			result[id] = items
		}
	}
	return result, nil
}

func (f *fakeSubmissionRepo) CountByRequest(ctx context.Context, requestID int64) (int, error) {
	items, _ := f.ListByRequest(ctx, requestID)
	return len(items), nil
}

type fakeCommentRepo struct {
	comments []domain.Comment
	nextID   int64
}

func newFakeCommentRepo() *fakeCommentRepo { return &fakeCommentRepo{} }

func (f *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	f.nextID++
	comment.ID = f.nextID
	f.comments = append(f.comments, *comment)
	return nil
}

func (f *fakeCommentRepo) ListByRequest(_ context.Context, requestID int64) ([]domain.Comment, error) {
	result := make([]domain.Comment, 0)
	for _, comment := range f.comments {
		if comment.RequestID == requestID {
			result = append(result, comment)
		}
	}
	return result, nil
}

type fakeScriptNodeRepo struct {
	nodes  map[int64]domain.ScriptNode
	nextID int64
}

func newFakeScriptNodeRepo() *fakeScriptNodeRepo {
	return &fakeScriptNodeRepo{nodes: make(map[int64]domain.ScriptNode)}
}

func (f *fakeScriptNodeRepo) Create(_ context.Context, node *domain.ScriptNode) error {
	f.nextID++
	node.ID = f.nextID
	f.nodes[node.ID] = *node
	return nil
}

func (f *fakeScriptNodeRepo) Update(_ context.Context, node *domain.ScriptNode) error {
	if _, ok := f.nodes[node.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.nodes[node.ID] = *node
	return nil
}

func (f *fakeScriptNodeRepo) GetByID(_ context.Context, id int64) (*domain.ScriptNode, error) {
	node, ok := f.nodes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := node
	return &copied, nil
}

func (f *fakeScriptNodeRepo) GetRoot(_ context.Context) (*domain.ScriptNode, error) {
	for _, node := range f.nodes {
		if node.ParentID == nil {
			copied := node
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeScriptNodeRepo) ListAll(_ context.Context) ([]domain.ScriptNode, error) {
	result := make([]domain.ScriptNode, 0, len(f.nodes))
	for _, node := range f.nodes {
		result = append(result, node)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeScriptNodeRepo) ListChildren(_ context.Context, parentID int64) ([]domain.ScriptNode, error) {
	result := make([]domain.ScriptNode, 0)
	for _, node := range f.nodes {
		if node.ParentID != nil && *node.ParentID == parentID {
			result = append(result, node)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeScriptNodeRepo) FindChildFolderByName(_ context.Context, parentID int64, name string) (*domain.ScriptNode, error) {
	for _, node := range f.nodes {
		if node.Type == domain.NodeTypeFolder && node.ParentID != nil && *node.ParentID == parentID && node.Name == name {
			copied := node
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeScriptNodeRepo) FindFolderByRequest(_ context.Context, requestID int64) (*domain.ScriptNode, error) {
	for _, node := range f.nodes {
		if node.Type == domain.NodeTypeFolder && node.RequestID != nil && *node.RequestID == requestID {
			copied := node
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeScriptNodeRepo) FindFileInFolder(_ context.Context, parentID, requestID int64) (*domain.ScriptNode, error) {
	for _, node := range f.nodes {
		if node.Type == domain.NodeTypeFile && node.ParentID != nil && *node.ParentID == parentID &&
			node.RequestID != nil && *node.RequestID == requestID {
			copied := node
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeScriptNodeRepo) ListByRequest(_ context.Context, requestID int64) ([]domain.ScriptNode, error) {
	result := make([]domain.ScriptNode, 0)
	for _, node := range f.nodes {
		if node.RequestID != nil && *node.RequestID == requestID {
			result = append(result, node)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Delete mirrors the FK cascade: children go with the parent.
func (f *fakeScriptNodeRepo) Delete(_ context.Context, id int64) error {
	if _, ok := f.nodes[id]; !ok {
		return pgx.ErrNoRows
	}
	var remove func(target int64)
	remove = func(target int64) {
		delete(f.nodes, target)
		for childID, node := range f.nodes {
			if node.ParentID != nil && *node.ParentID == target {
				remove(childID)
			}
		}
	}
	remove(id)
	return nil
}

type fakeRegistrationRepo struct {
	registrations map[int64]domain.RegistrationRequest
	nextID        int64
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{registrations: make(map[int64]domain.RegistrationRequest)}
}

func (f *fakeRegistrationRepo) Create(_ context.Context, request *domain.RegistrationRequest) error {
	f.nextID++
	request.ID = f.nextID
	f.registrations[request.ID] = *request
	return nil
}

func (f *fakeRegistrationRepo) Update(_ context.Context, request *domain.RegistrationRequest) error {
	if _, ok := f.registrations[request.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.registrations[request.ID] = *request
	return nil
}

func (f *fakeRegistrationRepo) ClearReviewer(_ context.Context, reviewerID int64) error {
	for id, request := range f.registrations {
		if request.ReviewedBy != nil && *request.ReviewedBy == reviewerID {
			request.ReviewedBy = nil
			f.registrations[id] = request
		}
	}
	return nil
}

func (f *fakeRegistrationRepo) GetByID(_ context.Context, id int64) (*domain.RegistrationRequest, error) {
	request, ok := f.registrations[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := request
	return &copied, nil
}

func (f *fakeRegistrationRepo) List(_ context.Context) ([]domain.RegistrationRequest, error) {
	result := make([]domain.RegistrationRequest, 0, len(f.registrations))
	for _, request := range f.registrations {
		result = append(result, request)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt > result[j].CreatedAt })
	return result, nil
}

func (f *fakeRegistrationRepo) FindPendingByEmail(_ context.Context, email string) (*domain.RegistrationRequest, error) {
	for _, request := range f.registrations {
		if request.Email == email && request.Status == domain.RegistrationStatusPending {
			copied := request
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}
