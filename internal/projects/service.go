package projects

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"devhubs/marketplace/marketplace-backend/internal/auth"
	"devhubs/marketplace/marketplace-backend/internal/bonuspool"
	"devhubs/marketplace/marketplace-backend/internal/config"
	"devhubs/marketplace/marketplace-backend/internal/database"
)

var (
	// ErrForbidden is returned when a non-admin submits a free project
	ErrForbidden = errors.New("only platform administrators can list free projects")
	// ErrInvalidRequester is returned when the requester identity cannot be resolved
	ErrInvalidRequester = errors.New("invalid requester identity")
)

// Fallback text for free projects submitted without these fields
const (
	defaultFreeFeatures   = "Free project for resume building"
	defaultFreeLookingFor = "Open to all developers"
	freeProjectDuration   = 30 * 24 * time.Hour
)

var durationLayouts = []string{time.RFC3339, "2006-01-02"}

// BonusLedger is the bonus pool collaborator the registry orchestrates
type BonusLedger interface {
	Provision(ctx context.Context, req bonuspool.ProvisionRequest) (*bonuspool.BonusPool, error)
	Settle(ctx context.Context, pool *bonuspool.BonusPool) (string, error)
	GetByProjectID(ctx context.Context, projectID primitive.ObjectID) (*bonuspool.BonusPool, error)
}

// Registry is the service interface for project listings
type Registry interface {
	SubmitProject(ctx context.Context, req SubmitProjectRequest, requester auth.Identity) (*Project, *bonuspool.Summary, error)
	ListProjects(ctx context.Context, filter ListFilter) ([]ProjectWithStatus, int64, error)
	GetProject(ctx context.Context, id string) (*ProjectWithStatus, error)
}

// Service validates, categorizes and persists project submissions and
// orchestrates bonus pool provisioning for the funded path.
type Service struct {
	repo    Repository
	ledger  BonusLedger
	txn     database.TxnRunner
	logger  *zap.Logger
	listing config.ListingConfig
	now     func() time.Time
}

// NewService creates the project registry
func NewService(repo Repository, ledger BonusLedger, txn database.TxnRunner, listing config.ListingConfig, logger *zap.Logger) *Service {
	if listing.DefaultPageSize <= 0 {
		listing.DefaultPageSize = 20
	}
	return &Service{
		repo:    repo,
		ledger:  ledger,
		txn:     txn,
		logger:  logger,
		listing: listing,
		now:     time.Now,
	}
}

// SubmitProject validates a submission, resolves its category, persists the
// project and, for funded categories, provisions and settles its bonus pool
// in the same unit of work.
func (s *Service) SubmitProject(ctx context.Context, req SubmitProjectRequest, requester auth.Identity) (*Project, *bonuspool.Summary, error) {
	owner, err := primitive.ObjectIDFromHex(requester.UserID)
	if err != nil {
		return nil, nil, ErrInvalidRequester
	}

	// Free listings are reserved to the platform itself
	if req.Category == string(CategoryFree) && !requester.IsPlatformAdmin {
		return nil, nil, ErrForbidden
	}

	category := resolveCategory(req)

	if err := validateBaseFields(req); err != nil {
		return nil, nil, err
	}

	project := &Project{
		Owner:         owner,
		Title:         req.Title,
		Description:   req.Description,
		TechStack:     req.TechStack,
		GithubLink:    req.GithubLink,
		CoverPhoto:    req.CoverPhoto,
		Images:        req.Images,
		Category:      category,
		IsFreeProject: category == CategoryFree,
	}

	now := s.now()
	if category == CategoryFree {
		s.applyFreeDefaults(project, req, now)
	} else {
		if err := s.applyFundedFields(project, req); err != nil {
			return nil, nil, err
		}
	}

	exists, err := s.repo.TitleExists(ctx, req.Title)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, ErrDuplicateTitle
	}

	project.CreatedAt = now
	project.UpdatedAt = now

	if category == CategoryFree {
		if err := s.repo.Create(ctx, project); err != nil {
			return nil, nil, err
		}
		s.logger.Info("Created free project", zap.String("project_id", project.ID.Hex()))
		return project, nil, nil
	}

	var pool *bonuspool.BonusPool
	err = s.txn.Run(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, project); err != nil {
			return err
		}
		pool, err = s.ledger.Provision(ctx, bonuspool.ProvisionRequest{
			ProjectID:            project.ID,
			ProjectOwner:         owner,
			ProjectTitle:         project.Title,
			AmountPerContributor: project.BonusPoolAmount,
			ContributorCount:     project.BonusPoolContributors,
		})
		if err != nil {
			return err
		}
		orderID, err := s.ledger.Settle(ctx, pool)
		if err != nil {
			return err
		}
		if err := s.repo.SetBonusLink(ctx, project.ID, pool.ID, orderID); err != nil {
			return err
		}
		project.BonusPoolID = &pool.ID
		project.Bonus = BonusState{Funded: true, SettlementOrderID: orderID}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Created funded project",
		zap.String("project_id", project.ID.Hex()),
		zap.String("bonus_pool_id", pool.ID.Hex()))

	summary := pool.Summary()
	return project, &summary, nil
}

// ListProjects returns projects matching the filter, each enriched with its
// computed status. With no filter dimensions and the full-list toggle on, the
// whole collection is returned in one page.
func (s *Service) ListProjects(ctx context.Context, filter ListFilter) ([]ProjectWithStatus, int64, error) {
	if !filter.HasDimensions() && s.listing.UnpaginatedFullList {
		all, err := s.repo.ListAll(ctx)
		if err != nil {
			return nil, 0, err
		}
		return ComputeStatusBatch(all, s.now()), int64(len(all)), nil
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = s.listing.DefaultPageSize
	}

	results, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return ComputeStatusBatch(results, s.now()), total, nil
}

// GetProject returns a single project with its status detail
func (s *Service) GetProject(ctx context.Context, id string) (*ProjectWithStatus, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	project, err := s.repo.GetByID(ctx, objectID)
	if err != nil {
		return nil, err
	}
	return &ProjectWithStatus{
		Project:    *project,
		StatusInfo: ComputeStatus(project, s.now()),
	}, nil
}

// ReconcileBonusLinks completes bonus pool linkage for funded projects whose
// two-step write was interrupted. Returns the number of projects repaired.
func (s *Service) ReconcileBonusLinks(ctx context.Context, limit int) (int, error) {
	unlinked, err := s.repo.FindUnlinkedFunded(ctx, limit)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for i := range unlinked {
		project := &unlinked[i]
		pool, err := s.ledger.GetByProjectID(ctx, project.ID)
		if errors.Is(err, bonuspool.ErrNotFound) {
			pool, err = s.ledger.Provision(ctx, bonuspool.ProvisionRequest{
				ProjectID:            project.ID,
				ProjectOwner:         project.Owner,
				ProjectTitle:         project.Title,
				AmountPerContributor: project.BonusPoolAmount,
				ContributorCount:     project.BonusPoolContributors,
			})
		}
		if err != nil {
			s.logger.Error("Failed to resolve bonus pool during reconcile",
				zap.Error(err), zap.String("project_id", project.ID.Hex()))
			continue
		}
		orderID, err := s.ledger.Settle(ctx, pool)
		if err != nil {
			s.logger.Error("Failed to settle bonus pool during reconcile",
				zap.Error(err), zap.String("bonus_pool_id", pool.ID.Hex()))
			continue
		}
		if err := s.repo.SetBonusLink(ctx, project.ID, pool.ID, orderID); err != nil {
			s.logger.Error("Failed to link bonus pool during reconcile",
				zap.Error(err), zap.String("project_id", project.ID.Hex()))
			continue
		}
		repaired++
	}
	return repaired, nil
}

// resolveCategory applies the submission categorization rules in priority
// order: an explicit free request is honored, a positive bonus pool amount
// forces funded, and everything else defaults to funded.
func resolveCategory(req SubmitProjectRequest) Category {
	switch {
	case req.Category == string(CategoryFree):
		return CategoryFree
	case req.BonusPoolAmount > 0:
		return CategoryFunded
	default:
		return CategoryFunded
	}
}

func validateBaseFields(req SubmitProjectRequest) error {
	var missing []string
	if req.Title == "" {
		missing = append(missing, "title")
	}
	if req.Description == "" {
		missing = append(missing, "description")
	}
	if req.TechStack == "" {
		missing = append(missing, "tech_stack")
	}
	if req.GithubLink == "" {
		missing = append(missing, "github_link")
	}
	if len(missing) > 0 {
		return newValidationError("project title, description, tech stack, and GitHub link are required", missing...)
	}
	return nil
}

func (s *Service) applyFreeDefaults(project *Project, req SubmitProjectRequest, now time.Time) {
	if end, err := parseDuration(req.Duration); err == nil {
		project.Duration = end
	} else {
		project.Duration = now.Add(freeProjectDuration)
	}
	project.StartingBid = 0
	project.ContributorCount = 1
	project.NumberOfBids = 1
	project.Features = req.Features
	if project.Features == "" {
		project.Features = defaultFreeFeatures
	}
	project.LookingFor = req.LookingFor
	if project.LookingFor == "" {
		project.LookingFor = defaultFreeLookingFor
	}
	project.BonusPoolAmount = 0
	project.BonusPoolContributors = 0
}

func (s *Service) applyFundedFields(project *Project, req SubmitProjectRequest) error {
	var missing []string
	if req.Duration == "" {
		missing = append(missing, "duration")
	}
	if req.StartingBid <= 0 {
		missing = append(missing, "starting_bid")
	}
	if req.ContributorCount <= 0 {
		missing = append(missing, "contributor_count")
	}
	if req.NumberOfBids <= 0 {
		missing = append(missing, "number_of_bids")
	}
	if req.Features == "" {
		missing = append(missing, "features")
	}
	if req.LookingFor == "" {
		missing = append(missing, "looking_for")
	}
	if len(missing) > 0 {
		return newValidationError("all fields are required for funded projects", missing...)
	}

	end, err := parseDuration(req.Duration)
	if err != nil {
		return newValidationError("invalid project duration date", "duration")
	}

	bonusAmount := req.BonusPoolAmount
	if bonusAmount == 0 {
		bonusAmount = bonuspool.MinAmountPerContributor
	}
	bonusContributors := req.BonusPoolContributors
	if bonusContributors == 0 {
		bonusContributors = bonuspool.MinContributorCount
	}
	if bonusAmount < bonuspool.MinAmountPerContributor {
		return newValidationError("bonus pool amount must be at least 200 for funded projects", "bonus_pool_amount")
	}
	if bonusContributors < bonuspool.MinContributorCount {
		return newValidationError("bonus pool contributors must be at least 1 for funded projects", "bonus_pool_contributors")
	}

	project.Duration = end
	project.StartingBid = req.StartingBid
	project.ContributorCount = req.ContributorCount
	project.NumberOfBids = req.NumberOfBids
	project.Features = req.Features
	project.LookingFor = req.LookingFor
	project.BonusPoolAmount = bonusAmount
	project.BonusPoolContributors = bonusContributors
	return nil
}

func parseDuration(value string) (time.Time, error) {
	var lastErr error
	for _, layout := range durationLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
