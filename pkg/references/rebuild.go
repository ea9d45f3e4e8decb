package references

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/store"
)

const rebuildBatchSize = 500

// Rebuild replays every referencing record in the store into tracker.
func Rebuild(ctx context.Context, s store.EntityStore, tracker Tracker, logger ectologger.Logger) (int, error) {
	tracked := 0

	err := eachRecord(ctx, s, models.RecordTypeGroupItem, func(rec store.Record) error {
		var item models.GroupItem
		if err := rec.Decode(&item); err != nil {
			return err
		}
		return tracker.Track(ctx, models.NewRef(models.RecordTypeGroupItem, rec.ID), OfGroupItem(&item))
	}, &tracked)
	if err != nil {
		return tracked, err
	}

	err = eachRecord(ctx, s, models.RecordTypeProductGroup, func(rec store.Record) error {
		var group models.ProductGroup
		if err := rec.Decode(&group); err != nil {
			return err
		}
		return tracker.Track(ctx, models.NewRef(models.RecordTypeProductGroup, rec.ID), OfProductGroup(&group))
	}, &tracked)
	if err != nil {
		return tracked, err
	}

	err = eachRecord(ctx, s, models.RecordTypeProduct, func(rec store.Record) error {
		var product models.Product
		if err := rec.Decode(&product); err != nil {
			return err
		}
		return tracker.Track(ctx, models.NewRef(models.RecordTypeProduct, rec.ID), OfProduct(&product))
	}, &tracked)
	if err != nil {
		return tracked, err
	}

	logger.WithContext(ctx).WithField("records", tracked).Info("rebuilt reference index")
	return tracked, nil
}

func eachRecord(ctx context.Context, s store.EntityStore, recordType models.RecordType, fn func(store.Record) error, count *int) error {
	for offset := 0; ; offset += rebuildBatchSize {
		records, err := s.FindRecords(ctx, recordType, nil, rebuildBatchSize, offset)
		if err != nil {
			return fmt.Errorf("failed to load %s records: %w", recordType, err)
		}
		for _, rec := range records {
			if err := fn(rec); err != nil {
				return fmt.Errorf("failed to track %s #%d: %w", recordType, rec.ID, err)
			}
			*count++
		}
		if len(records) < rebuildBatchSize {
			return nil
		}
	}
}
