package tables

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the read-only view of a platform account used to attribute unsubscribes.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	Id        uuid.UUID  `json:"id" bun:"id,pk,type:uuid"`
	Email     string     `json:"email" bun:"email,unique,notnull"`
	CompanyId *uuid.UUID `json:"company_id,omitempty" bun:"company_id,type:uuid"`
	CreatedAt time.Time  `json:"created_at" bun:"created_at,notnull"`
}

type Company struct {
	bun.BaseModel `bun:"table:companies,alias:c"`

	Id        uuid.UUID `json:"id" bun:"id,pk,type:uuid"`
	Name      string    `json:"name" bun:"name,notnull"`
	CreatedAt time.Time `json:"created_at" bun:"created_at,notnull"`
}
