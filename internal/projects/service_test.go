package projects

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"devhubs/marketplace/marketplace-backend/internal/auth"
	"devhubs/marketplace/marketplace-backend/internal/bonuspool"
	"devhubs/marketplace/marketplace-backend/internal/config"
	"devhubs/marketplace/marketplace-backend/pkg/workflows"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, project *Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Project), args.Error(1)
}

func (m *MockRepository) TitleExists(ctx context.Context, title string) (bool, error) {
	args := m.Called(ctx, title)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter ListFilter) ([]Project, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]Project), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) ListAll(ctx context.Context) ([]Project, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Project), args.Error(1)
}

func (m *MockRepository) SetBonusLink(ctx context.Context, projectID, poolID primitive.ObjectID, orderID string) error {
	args := m.Called(ctx, projectID, poolID, orderID)
	return args.Error(0)
}

func (m *MockRepository) FindUnlinkedFunded(ctx context.Context, limit int) ([]Project, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]Project), args.Error(1)
}

// MockLedger is a mock implementation of the BonusLedger interface
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Provision(ctx context.Context, req bonuspool.ProvisionRequest) (*bonuspool.BonusPool, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bonuspool.BonusPool), args.Error(1)
}

func (m *MockLedger) Settle(ctx context.Context, pool *bonuspool.BonusPool) (string, error) {
	args := m.Called(ctx, pool)
	return args.String(0), args.Error(1)
}

func (m *MockLedger) GetByProjectID(ctx context.Context, projectID primitive.ObjectID) (*bonuspool.BonusPool, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bonuspool.BonusPool), args.Error(1)
}

// passthroughTxn runs the unit of work without a transaction
type passthroughTxn struct{}

func (passthroughTxn) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(repo Repository, ledger BonusLedger) *Service {
	return NewService(repo, ledger, passthroughTxn{}, config.ListingConfig{
		UnpaginatedFullList: true,
		DefaultPageSize:     20,
	}, zap.NewNop())
}

func adminRequester() auth.Identity {
	return auth.Identity{UserID: primitive.NewObjectID().Hex(), IsPlatformAdmin: true}
}

func memberRequester() auth.Identity {
	return auth.Identity{UserID: primitive.NewObjectID().Hex()}
}

func fundedRequest() SubmitProjectRequest {
	return SubmitProjectRequest{
		Title:                 "Alpha",
		Description:           "A marketplace project",
		TechStack:             "Go,MongoDB",
		GithubLink:            "https://github.com/acme/alpha",
		Duration:              "2027-01-01",
		StartingBid:           1500,
		ContributorCount:      3,
		NumberOfBids:          10,
		Features:              "API, dashboard",
		LookingFor:            "Backend developers",
		BonusPoolAmount:       300,
		BonusPoolContributors: 2,
		Category:              "funded",
	}
}

func TestSubmitFreeProjectRequiresAdmin(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLedger := new(MockLedger)
	service := newTestService(mockRepo, mockLedger)

	req := SubmitProjectRequest{Title: "Beta", Category: "free"}

	_, _, err := service.SubmitProject(context.Background(), req, memberRequester())

	assert.ErrorIs(t, err, ErrForbidden)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestSubmitRejectsMissingBaseFields(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLedger := new(MockLedger)
	service := newTestService(mockRepo, mockLedger)

	req := fundedRequest()
	req.Description = ""
	req.GithubLink = ""

	_, _, err := service.SubmitProject(context.Background(), req, memberRequester())

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.ElementsMatch(t, []string{"description", "github_link"}, validationErr.Fields)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestSubmitRejectsMissingFundedFields(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLedger := new(MockLedger)
	service := newTestService(mockRepo, mockLedger)

	req := fundedRequest()
	req.StartingBid = 0
	req.Features = ""

	_, _, err := service.SubmitProject(context.Background(), req, memberRequester())

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.ElementsMatch(t, []string{"starting_bid", "features"}, validationErr.Fields)
}

func TestSubmitRejectsBonusPoolBelowMinimum(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLedger := new(MockLedger)
	service := newTestService(mockRepo, mockLedger)

	req := fundedRequest()
	req.BonusPoolAmount = 100

	_, _, err := service.SubmitProject(context.Background(), req, memberRequester())

	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Fields, "bonus_pool_amount")
	mockRepo.AssertNotCalled(t, "Create")
}

func TestSubmitRejectsDuplicateTitle(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLedger := new(MockLedger)
	service := newTestService(mockRepo, mockLedger)

	mockRepo.On("TitleExists", mock.Anything, "Alpha").Return(true, nil)

	_, _, err := service.SubmitProject(context.Background(), fundedRequest(), memberRequester())

	assert.ErrorIs(t, err, ErrDuplicateTitle)
	mockRepo.AssertNotCalled(t, "Create")
}

func TestSubmitFundedProjectProvisionsAndLinksPool(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLedger := new(MockLedger)
	service := newTestService(mockRepo, mockLedger)

	ctx := context.Background()
	poolID := primitive.NewObjectID()

	mockRepo.On("TitleExists", mock.Anything, "Alpha").Return(false, nil)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*projects.Project")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*Project).ID = primitive.NewObjectID()
		}).Return(nil)
	mockLedger.On("Provision", mock.Anything, mock.MatchedBy(func(req bonuspool.ProvisionRequest) bool {
		return req.AmountPerContributor == 300 && req.ContributorCount == 2 && req.ProjectTitle == "Alpha"
	})).Return(&bonuspool.BonusPool{
		ID:                   poolID,
		TotalAmount:          600,
		AmountPerContributor: 300,
		ContributorCount:     2,
		Status:               workflows.SettlementPending,
	}, nil)
	mockLedger.On("Settle", mock.Anything, mock.AnythingOfType("*bonuspool.BonusPool")).
		Run(func(args mock.Arguments) {
			pool := args.Get(1).(*bonuspool.BonusPool)
			pool.Status = workflows.SettlementFunded
		}).Return("mock_order_1", nil)
	mockRepo.On("SetBonusLink", mock.Anything, mock.AnythingOfType("primitive.ObjectID"), poolID, "mock_order_1").Return(nil)

	project, summary, err := service.SubmitProject(ctx, fundedRequest(), memberRequester())

	assert.NoError(t, err)
	assert.Equal(t, CategoryFunded, project.Category)
	assert.False(t, project.IsFreeProject)
	assert.True(t, project.Bonus.Funded)
	assert.Equal(t, "mock_order_1", project.Bonus.SettlementOrderID)
	assert.Equal(t, &poolID, project.BonusPoolID)
	assert.NotNil(t, summary)
	assert.Equal(t, int64(600), summary.TotalAmount)
	assert.Equal(t, workflows.SettlementFunded, summary.Status)
	mockRepo.AssertExpectations(t)
	mockLedger.AssertExpectations(t)
}

func TestSubmitFreeProjectAppliesDefaults(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLedger := new(MockLedger)
	service := newTestService(mockRepo, mockLedger)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	mockRepo.On("TitleExists", mock.Anything, "Beta").Return(false, nil)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*projects.Project")).Return(nil)

	req := SubmitProjectRequest{
		Title:       "Beta",
		Description: "Starter project",
		TechStack:   "Go",
		GithubLink:  "https://github.com/acme/beta",
		Category:    "free",
		StartingBid: 5000, // ignored for free projects
	}

	project, summary, err := service.SubmitProject(context.Background(), req, adminRequester())

	assert.NoError(t, err)
	assert.Nil(t, summary)
	assert.Equal(t, CategoryFree, project.Category)
	assert.True(t, project.IsFreeProject)
	assert.Equal(t, int64(0), project.StartingBid)
	assert.Equal(t, 1, project.ContributorCount)
	assert.Equal(t, 1, project.NumberOfBids)
	assert.Equal(t, int64(0), project.BonusPoolAmount)
	assert.Equal(t, 0, project.BonusPoolContributors)
	assert.Equal(t, "Free project for resume building", project.Features)
	assert.Equal(t, "Open to all developers", project.LookingFor)
	assert.Equal(t, now.Add(30*24*time.Hour), project.Duration)
	mockLedger.AssertNotCalled(t, "Provision")
}

func TestSubmitCategorizesByBonusPoolAmount(t *testing.T) {
	req := fundedRequest()
	req.Category = ""
	assert.Equal(t, CategoryFunded, resolveCategory(req))

	req.BonusPoolAmount = 0
	assert.Equal(t, CategoryFunded, resolveCategory(req))

	req.Category = "free"
	assert.Equal(t, CategoryFree, resolveCategory(req))
}

func TestListProjectsUnfilteredReturnsEverything(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLedger := new(MockLedger)
	service := newTestService(mockRepo, mockLedger)

	stored := []Project{
		{Title: "a", NumberOfBids: 1, Duration: time.Now().Add(time.Hour)},
		{Title: "b", NumberOfBids: 1, Duration: time.Now().Add(time.Hour)},
	}
	mockRepo.On("ListAll", mock.Anything).Return(stored, nil)

	results, total, err := service.ListProjects(context.Background(), ListFilter{Page: 1, Limit: 20})

	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, results, 2)
	mockRepo.AssertNotCalled(t, "List")
}

func TestListProjectsFilteredPaginates(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLedger := new(MockLedger)
	service := newTestService(mockRepo, mockLedger)

	expected := ListFilter{Budget: BudgetLow, Page: 2, Limit: 10}
	mockRepo.On("List", mock.Anything, expected).Return([]Project{{Title: "a"}}, int64(11), nil)

	results, total, err := service.ListProjects(context.Background(), expected)

	assert.NoError(t, err)
	assert.Equal(t, int64(11), total)
	assert.Len(t, results, 1)
	mockRepo.AssertExpectations(t)
}

func TestListProjectsNormalizesPagination(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLedger := new(MockLedger)
	service := newTestService(mockRepo, mockLedger)

	mockRepo.On("List", mock.Anything, ListFilter{Category: "funded", Page: 1, Limit: 20}).
		Return([]Project{}, int64(0), nil)

	_, _, err := service.ListProjects(context.Background(), ListFilter{Category: "funded"})

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestGetProjectInvalidIDIsNotFound(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLedger := new(MockLedger)
	service := newTestService(mockRepo, mockLedger)

	_, err := service.GetProject(context.Background(), "not-an-object-id")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetProjectEnrichesWithStatus(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLedger := new(MockLedger)
	service := newTestService(mockRepo, mockLedger)

	id := primitive.NewObjectID()
	stored := &Project{
		ID:           id,
		Title:        "Alpha",
		BidCount:     1,
		NumberOfBids: 5,
		Duration:     time.Now().Add(48 * time.Hour),
	}
	mockRepo.On("GetByID", mock.Anything, id).Return(stored, nil)

	result, err := service.GetProject(context.Background(), id.Hex())

	assert.NoError(t, err)
	assert.Equal(t, StatusOpen, result.StatusInfo.Status)
	assert.Equal(t, "Alpha", result.Title)
}

func TestReconcileBonusLinksRepairsUnlinkedProjects(t *testing.T) {
	mockRepo := new(MockRepository)
	mockLedger := new(MockLedger)
	service := newTestService(mockRepo, mockLedger)

	projectID := primitive.NewObjectID()
	poolID := primitive.NewObjectID()
	unlinked := []Project{{
		ID:                    projectID,
		Owner:                 primitive.NewObjectID(),
		Title:                 "Gamma",
		Category:              CategoryFunded,
		BonusPoolAmount:       250,
		BonusPoolContributors: 2,
	}}

	mockRepo.On("FindUnlinkedFunded", mock.Anything, 50).Return(unlinked, nil)
	mockLedger.On("GetByProjectID", mock.Anything, projectID).Return(nil, bonuspool.ErrNotFound)
	mockLedger.On("Provision", mock.Anything, mock.AnythingOfType("bonuspool.ProvisionRequest")).
		Return(&bonuspool.BonusPool{ID: poolID, Status: workflows.SettlementPending}, nil)
	mockLedger.On("Settle", mock.Anything, mock.AnythingOfType("*bonuspool.BonusPool")).Return("mock_order_9", nil)
	mockRepo.On("SetBonusLink", mock.Anything, projectID, poolID, "mock_order_9").Return(nil)

	repaired, err := service.ReconcileBonusLinks(context.Background(), 50)

	assert.NoError(t, err)
	assert.Equal(t, 1, repaired)
	mockLedger.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}
