package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"unicarpool/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migration struct {
	Version     int
	Description string
	Up          func(context.Context, *mongo.Database) error
	Down        func(context.Context, *mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
	logger     *logger.Logger
}

func NewMigrator(db *mongo.Database, log *logger.Logger) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
		logger:     log,
	}
}

func (m *Migrator) Up(ctx context.Context) error {
	if err := m.createMigrationsCollection(ctx); err != nil {
		return err
	}

	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}

		m.logger.WithField("version", migration.Version).Infof("Running migration: %s", migration.Description)

		if err := migration.Up(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if err := m.updateVersion(ctx, migration.Version); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) Down(ctx context.Context, targetVersion int) error {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return err
	}

	for i := len(m.migrations) - 1; i >= 0; i-- {
		migration := m.migrations[i]
		if migration.Version > currentVersion || migration.Version <= targetVersion {
			continue
		}

		m.logger.WithField("version", migration.Version).Infof("Reverting migration: %s", migration.Description)

		if err := migration.Down(ctx, m.db); err != nil {
			return fmt.Errorf("migration %d rollback failed: %w", migration.Version, err)
		}

		previousVersion := targetVersion
		if i > 0 {
			previousVersion = m.migrations[i-1].Version
		}

		if err := m.updateVersion(ctx, previousVersion); err != nil {
			return fmt.Errorf("failed to update migration version: %w", err)
		}
	}

	return nil
}

func (m *Migrator) createMigrationsCollection(ctx context.Context) error {
	names, err := m.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: MigrationsCollection}})
	if err != nil {
		return err
	}
	if len(names) > 0 {
		return nil
	}
	return m.db.CreateCollection(ctx, MigrationsCollection)
}

func (m *Migrator) getCurrentVersion(ctx context.Context) (int, error) {
	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection(MigrationsCollection).FindOne(ctx, bson.D{}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(ctx context.Context, version int) error {
	_, err := m.db.Collection(MigrationsCollection).ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now().UTC()}},
		options.Replace().SetUpsert(true),
	)
	return err
}

func dropCollection(name string) func(context.Context, *mongo.Database) error {
	return func(ctx context.Context, db *mongo.Database) error {
		return db.Collection(name).Drop(ctx)
	}
}

func getMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users collection with indexes",
			Up:          createUsersIndexes,
			Down:        dropCollection(UsersCollection),
		},
		{
			Version:     2,
			Description: "Create rides collection with indexes",
			Up:          createRidesIndexes,
			Down:        dropCollection(RidesCollection),
		},
		{
			Version:     3,
			Description: "Create ride_requests collection with indexes",
			Up:          createRideRequestsIndexes,
			Down:        dropCollection(RideRequestsCollection),
		},
		{
			Version:     4,
			Description: "Create reviews collection with indexes",
			Up:          createReviewsIndexes,
			Down:        dropCollection(ReviewsCollection),
		},
		{
			Version:     5,
			Description: "Create emergencies collection with indexes",
			Up:          createEmergenciesIndexes,
			Down:        dropCollection(EmergenciesCollection),
		},
		{
			Version:     6,
			Description: "Key review uniqueness by reviewee for passenger reviews",
			Up:          keyReviewsByReviewee,
			Down:        keyReviewsByReviewer,
		},
	}
}

func createUsersIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "banner_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "school_email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "device_tokens.token", Value: 1}},
		},
	}

	_, err := db.Collection(UsersCollection).Indexes().CreateMany(ctx, indexes)
	return err
}

func createRidesIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "departure_date_time", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "destination", Value: 1}},
		},
	}

	_, err := db.Collection(RidesCollection).Indexes().CreateMany(ctx, indexes)
	return err
}

// ActiveRequestStatuses are the request statuses that block a rider from
// submitting another request for the same ride.
var ActiveRequestStatuses = []string{"PENDING", "ACCEPTED", "WITHDRAWN"}

func createRideRequestsIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "ride_id", Value: 1}, {Key: "rider_id", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("ride_rider_active_unique").
				SetPartialFilterExpression(bson.M{"status": bson.M{"$in": ActiveRequestStatuses}}),
		},
		{
			Keys: bson.D{{Key: "rider_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "driver_id", Value: 1}, {Key: "status", Value: 1}},
		},
	}

	_, err := db.Collection(RideRequestsCollection).Indexes().CreateMany(ctx, indexes)
	return err
}

func createReviewsIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ride_id", Value: 1}, {Key: "reviewer_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "reviewee_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}

	_, err := db.Collection(ReviewsCollection).Indexes().CreateMany(ctx, indexes)
	return err
}

const (
	reviewerIndexName = "ride_id_1_reviewer_id_1"
	revieweeIndexName = "ride_id_1_reviewer_id_1_reviewee_id_1"
)

// ReviewUniqueKeys allows a driver one review per passenger of a ride while a
// rider still gets one review of the ride's driver.
var ReviewUniqueKeys = bson.D{{Key: "ride_id", Value: 1}, {Key: "reviewer_id", Value: 1}, {Key: "reviewee_id", Value: 1}}

func keyReviewsByReviewee(ctx context.Context, db *mongo.Database) error {
	indexes := db.Collection(ReviewsCollection).Indexes()
	if _, err := indexes.CreateOne(ctx, mongo.IndexModel{
		Keys:    ReviewUniqueKeys,
		Options: options.Index().SetUnique(true).SetName(revieweeIndexName),
	}); err != nil {
		return err
	}
	if _, err := indexes.DropOne(ctx, reviewerIndexName); err != nil {
		return fmt.Errorf("failed to drop %s: %w", reviewerIndexName, err)
	}
	return nil
}

func keyReviewsByReviewer(ctx context.Context, db *mongo.Database) error {
	indexes := db.Collection(ReviewsCollection).Indexes()
	if _, err := indexes.CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "ride_id", Value: 1}, {Key: "reviewer_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(reviewerIndexName),
	}); err != nil {
		return err
	}
	_, err := indexes.DropOne(ctx, revieweeIndexName)
	return err
}

func createEmergenciesIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "ride_id", Value: 1}},
		},
	}

	_, err := db.Collection(EmergenciesCollection).Indexes().CreateMany(ctx, indexes)
	return err
}
