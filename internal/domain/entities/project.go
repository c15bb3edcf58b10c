package entities

import (
	"time"

	"github.com/google/uuid"
)

// Project is the stored project model. Name is the dedup key: exact,
// case-sensitive match within a tenant, enforced by a unique index.
type Project struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID        string     `json:"tenant_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_projects_tenant_name"`
	Name            string     `json:"name" gorm:"type:varchar(500);not null;uniqueIndex:idx_projects_tenant_name"`
	LatestMeetingID *uuid.UUID `json:"latest_meeting_id,omitempty" gorm:"type:uuid"`
	CreatedAt       time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Project) TableName() string {
	return "projects"
}

// NewProject creates a new project
func NewProject(tenantID, name string) *Project {
	return &Project{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
