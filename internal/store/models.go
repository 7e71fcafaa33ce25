package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MemberTypeID string

const (
	MemberTypeBasic    MemberTypeID = "basic"
	MemberTypeBusiness MemberTypeID = "business"
)

type MemberType struct {
	ID                 MemberTypeID `gorm:"primaryKey;size:16"`
	Discount           float64      `gorm:"not null"`
	PostsLimitPerMonth int          `gorm:"not null"`
}

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	Balance   float64   `gorm:"not null"`
	CreatedAt time.Time
}

type Profile struct {
	ID           uuid.UUID    `gorm:"type:uuid;primaryKey"`
	IsMale       bool         `gorm:"not null"`
	YearOfBirth  int          `gorm:"not null"`
	UserID       uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex"`
	MemberTypeID MemberTypeID `gorm:"size:16;not null;index"`
	CreatedAt    time.Time

	User       *User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	MemberType *MemberType `gorm:"foreignKey:MemberTypeID"`
}

type Post struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title     string    `gorm:"not null"`
	Content   string    `gorm:"not null"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt time.Time

	Author *User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

// Subscription is a directed edge: SubscriberID follows AuthorID.
type Subscription struct {
	SubscriberID uuid.UUID `gorm:"type:uuid;primaryKey"`
	AuthorID     uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt    time.Time

	Subscriber *User `gorm:"foreignKey:SubscriberID;constraint:OnDelete:CASCADE"`
	Author     *User `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
}

func (Subscription) TableName() string { return "user_subscriptions" }

func (u *User) BeforeCreate(*gorm.DB) error    { u.ID = ensureID(u.ID); return nil }
func (p *Profile) BeforeCreate(*gorm.DB) error { p.ID = ensureID(p.ID); return nil }
func (p *Post) BeforeCreate(*gorm.DB) error    { p.ID = ensureID(p.ID); return nil }

func ensureID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

// models lists every table in migration order.
func models() []any {
	return []any{&MemberType{}, &User{}, &Profile{}, &Post{}, &Subscription{}}
}

var seedMemberTypes = []MemberType{
	{ID: MemberTypeBasic, Discount: 2.3, PostsLimitPerMonth: 20},
	{ID: MemberTypeBusiness, Discount: 7.7, PostsLimitPerMonth: 100},
}
