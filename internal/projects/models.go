package projects

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"devhubs/marketplace/marketplace-backend/internal/uploads"
)

// Category classifies how a project is funded
type Category string

const (
	CategoryFree   Category = "free"
	CategoryFunded Category = "funded"
)

// BonusState is the funding linkage nested on a project
type BonusState struct {
	Funded            bool   `bson:"funded" json:"funded"`
	SettlementOrderID string `bson:"settlement_order_id,omitempty" json:"settlementOrderId,omitempty"`
}

// Project is a marketplace listing of work to be done
type Project struct {
	ID                    primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Owner                 primitive.ObjectID     `bson:"user" json:"user"`
	Title                 string                 `bson:"project_title" json:"title"`
	Description           string                 `bson:"description" json:"description"`
	TechStack             string                 `bson:"tech_stack" json:"techStack"`
	GithubLink            string                 `bson:"github_link" json:"githubLink"`
	CoverPhoto            string                 `bson:"cover_photo,omitempty" json:"coverPhoto,omitempty"`
	Images                []uploads.FileMetadata `bson:"images,omitempty" json:"images,omitempty"`
	Category              Category               `bson:"category" json:"category"`
	IsFreeProject         bool                   `bson:"is_free_project" json:"isFreeProject"`
	Duration              time.Time              `bson:"duration" json:"duration"`
	StartingBid           int64                  `bson:"starting_bid" json:"startingBid"`
	ContributorCount      int                    `bson:"contributor_count" json:"contributorCount"`
	NumberOfBids          int                    `bson:"number_of_bids" json:"numberOfBids"`
	Features              string                 `bson:"features" json:"features"`
	LookingFor            string                 `bson:"looking_for" json:"lookingFor"`
	BonusPoolAmount       int64                  `bson:"bonus_pool_amount" json:"bonusPoolAmount"`
	BonusPoolContributors int                    `bson:"bonus_pool_contributors" json:"bonusPoolContributors"`
	BonusPoolID           *primitive.ObjectID    `bson:"bonus_pool,omitempty" json:"bonusPool,omitempty"`
	Bonus                 BonusState             `bson:"bonus" json:"bonus"`
	BidCount              int                    `bson:"bid_count" json:"bidCount"`
	CreatedAt             time.Time              `bson:"created_at" json:"createdAt"`
	UpdatedAt             time.Time              `bson:"updated_at" json:"updatedAt"`
}

// SubmitProjectRequest is a project submission. Cover photo and gallery
// metadata are attached by the handler from the ingestion capability.
type SubmitProjectRequest struct {
	Title                 string `form:"title" json:"title"`
	Description           string `form:"description" json:"description"`
	TechStack             string `form:"tech_stack" json:"techStack"`
	GithubLink            string `form:"github_link" json:"githubLink"`
	CoverPhoto            string `form:"cover_photo" json:"coverPhoto"`
	Duration              string `form:"duration" json:"duration"`
	StartingBid           int64  `form:"starting_bid" json:"startingBid"`
	ContributorCount      int    `form:"contributor_count" json:"contributorCount"`
	NumberOfBids          int    `form:"number_of_bids" json:"numberOfBids"`
	Features              string `form:"features" json:"features"`
	LookingFor            string `form:"looking_for" json:"lookingFor"`
	BonusPoolAmount       int64  `form:"bonus_pool_amount" json:"bonusPoolAmount"`
	BonusPoolContributors int    `form:"bonus_pool_contributors" json:"bonusPoolContributors"`
	Category              string `form:"category" json:"category"`

	Images []uploads.FileMetadata `form:"-" json:"-"`
}

// Budget buckets for the listing starting-bid filter
const (
	BudgetFree   = "Free"
	BudgetMicro  = "Micro_Budget"
	BudgetLow    = "Low_Budget"
	BudgetMedium = "Medium_Budget"
	BudgetHigh   = "High_Budget"
)

// Team-size buckets for the listing contributor filter
const (
	TeamSolo   = "Solo"
	TeamSmall  = "Small_Team"
	TeamMedium = "Medium_Team"
	TeamLarge  = "Large_Team"
)

// ListFilter carries the optional listing dimensions, combined by AND
type ListFilter struct {
	Search      string
	TechStack   string
	Budget      string
	Contributor string
	Category    string
	Page        int
	Limit       int
}

// HasDimensions reports whether any filter dimension is present
func (f ListFilter) HasDimensions() bool {
	return f.Search != "" || f.TechStack != "" || f.Budget != "" ||
		f.Contributor != "" || f.Category != ""
}

// ValidationError reports the required fields a submission is missing
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Fields, ", "))
}

func newValidationError(message string, fields ...string) *ValidationError {
	return &ValidationError{Message: message, Fields: fields}
}
