package store

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const subscriptionEntity = "subscription"

// Subscriptions stores the directed follow edges between users.
type Subscriptions struct {
	db *gorm.DB
}

// Subscribe records that subscriber follows author. Subscribing twice is a
// no-op. Unknown users fail with CONSTRAINT_VIOLATION.
func (s *Subscriptions) Subscribe(ctx context.Context, subscriberID, authorID uuid.UUID) (err error) {
	done := observe(ctx, subscriptionEntity, "create")
	defer func() { done(1, err) }()

	edge := &Subscription{SubscriberID: subscriberID, AuthorID: authorID}
	err = s.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(edge).Error
	return translate(err, subscriptionEntity)
}

// Unsubscribe removes the edge. It fails with NOT_FOUND when there is none.
func (s *Subscriptions) Unsubscribe(ctx context.Context, subscriberID, authorID uuid.UUID) (err error) {
	done := observe(ctx, subscriptionEntity, "delete")
	var affected int64
	defer func() { done(int(affected), err) }()

	res := s.db.WithContext(ctx).
		Where("subscriber_id = ? AND author_id = ?", subscriberID, authorID).
		Delete(&Subscription{})
	if res.Error != nil {
		return translate(res.Error, subscriptionEntity)
	}
	affected = res.RowsAffected
	if affected == 0 {
		return translate(gorm.ErrRecordNotFound, subscriptionEntity)
	}
	return nil
}

// SubscribedTo returns the ids of the authors subscriberID follows.
func (s *Subscriptions) SubscribedTo(ctx context.Context, subscriberID uuid.UUID) ([]uuid.UUID, error) {
	return s.pluck(ctx, "findSubscribedTo", "author_id", "subscriber_id", subscriberID)
}

// Subscribers returns the ids of the users following authorID.
func (s *Subscriptions) Subscribers(ctx context.Context, authorID uuid.UUID) ([]uuid.UUID, error) {
	return s.pluck(ctx, "findSubscribers", "subscriber_id", "author_id", authorID)
}

func (s *Subscriptions) pluck(ctx context.Context, op, column, by string, id uuid.UUID) (ids []uuid.UUID, err error) {
	done := observe(ctx, subscriptionEntity, op)
	defer func() { done(len(ids), err) }()

	err = s.db.WithContext(ctx).
		Model(&Subscription{}).
		Where(by+" = ?", id).
		Order("created_at, " + column).
		Pluck(column, &ids).Error
	return ids, translate(err, subscriptionEntity)
}
