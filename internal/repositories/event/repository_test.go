package event_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	eventrepo "github.com/datacite/events/internal/repositories/event"
	"github.com/datacite/events/pkg/database"
	"github.com/datacite/events/pkg/models"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) *sqlx.DB {
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "events"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return db
}

func testDBEvent(subjSuffix string) *models.Event {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Event{
		UUID:           uuid.NewString(),
		SubjID:         "https://doi.org/10.5281/zenodo." + subjSuffix,
		ObjID:          "https://doi.org/10.1371/journal.pbio.2001414",
		SourceID:       "datacite-crossref",
		SourceToken:    "token-1",
		RelationTypeID: "cites",
		Total:          1,
		License:        models.DefaultLicense,
		MessageAction:  "create",
		Subj:           database.JSONB[models.Metadata]{Data: models.Metadata{"@type": "Dataset"}},
		Obj:            database.JSONB[models.Metadata]{Data: models.Metadata{}},
		OccurredAt:     now,
		IndexedAt:      models.EpochSentinel,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestRepository_InsertFindUpdate(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	defer db.Close()
	repo := eventrepo.New(db, getTestLogger())
	ctx := context.Background()

	event := testDBEvent(uuid.NewString())
	require.NoError(t, repo.Insert(ctx, event))

	key := eventrepo.NaturalKey{
		SubjID:         event.SubjID,
		ObjID:          event.ObjID,
		SourceID:       event.SourceID,
		RelationTypeID: event.RelationTypeID,
	}

	found, err := repo.FindByNaturalKey(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, event.UUID, found.UUID)
	assert.Equal(t, "Dataset", found.SubjMetadata()["@type"])

	// Same natural key again hits the unique constraint.
	dup := testDBEvent("x")
	dup.SubjID = event.SubjID
	err = repo.Insert(ctx, dup)
	assert.ErrorIs(t, err, eventrepo.ErrDuplicateEvent)

	found.Total = 50
	found.UpdatedAt = time.Now().UTC()
	require.NoError(t, repo.Update(ctx, found))

	byUUID, err := repo.GetByUUID(ctx, event.UUID)
	require.NoError(t, err)
	require.NotNil(t, byUUID)
	assert.Equal(t, 50, byUUID.Total)

	indexedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.MarkIndexed(ctx, event.UUID, indexedAt))

	byUUID, err = repo.GetByUUID(ctx, event.UUID)
	require.NoError(t, err)
	assert.WithinDuration(t, indexedAt, byUUID.IndexedAt, time.Second)
}

func TestRepository_FindByNaturalKeyMissing(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	defer db.Close()
	repo := eventrepo.New(db, getTestLogger())

	found, err := repo.FindByNaturalKey(context.Background(), eventrepo.NaturalKey{
		SubjID:         "https://doi.org/10.5281/zenodo.does-not-exist",
		ObjID:          "https://doi.org/10.5281/zenodo.either",
		SourceID:       "datacite-crossref",
		RelationTypeID: "cites",
	})
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRepository_GetByUUIDMissing(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	defer db.Close()
	repo := eventrepo.New(db, getTestLogger())

	found, err := repo.GetByUUID(context.Background(), uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, found)
}
