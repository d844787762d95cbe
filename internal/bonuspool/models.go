package bonuspool

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"devhubs/marketplace/marketplace-backend/pkg/workflows"
)

// Minimums enforced for funded projects
const (
	MinAmountPerContributor = 200
	MinContributorCount     = 1
)

// BonusPool is the escrow record tracking pooled bonus funds for a funded
// project. Exactly one pool exists per funded project; the project holds the
// authoritative back-reference.
type BonusPool struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProjectID            primitive.ObjectID `bson:"project_id" json:"projectId"`
	ProjectOwner         primitive.ObjectID `bson:"project_owner" json:"projectOwner"`
	TotalAmount          int64              `bson:"total_amount" json:"totalAmount"`
	ContributorCount     int                `bson:"contributor_count" json:"contributorCount"`
	AmountPerContributor int64              `bson:"amount_per_contributor" json:"amountPerContributor"`
	Status               string             `bson:"status" json:"status"`
	ProjectTitle         string             `bson:"project_title" json:"projectTitle"`
	SettlementOrderID    string             `bson:"settlement_order_id,omitempty" json:"settlementOrderId,omitempty"`
	FundedAt             *time.Time         `bson:"funded_at,omitempty" json:"fundedAt,omitempty"`
	IsNewProject         bool               `bson:"is_new_project" json:"isNewProject"`
	CreatedAt            time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt            time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Funded reports whether settlement has completed
func (p *BonusPool) Funded() bool {
	return p.Status == workflows.SettlementFunded
}

// Summary is the pool view returned alongside a created project
type Summary struct {
	ID          primitive.ObjectID `json:"id"`
	TotalAmount int64              `json:"totalAmount"`
	Status      string             `json:"status"`
}

// Summary returns the response view of the pool
func (p *BonusPool) Summary() Summary {
	return Summary{ID: p.ID, TotalAmount: p.TotalAmount, Status: p.Status}
}
