package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Vovarama1992/mediashelf/internal/models"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testID  = "3f1c2a9e-8d7b-4c1a-9f00-6b2d5e7a1c44"
	otherID = "0a9b8c7d-6e5f-4a3b-8c1d-0e9f8a7b6c5d"
)

var mediaCols = []string{"id", "title", "type", "status", "rating", "review", "image_url", "created_at"}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *PostgresMediaRepo) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewPostgresMediaRepo(mock).(*PostgresMediaRepo)
}

func ptr[T any](v T) *T { return &v }

func duneRow(mock pgxmock.PgxPoolIface, id string, status models.MediaStatus, rating *int, created time.Time) *pgxmock.Rows {
	return mock.NewRows(mediaCols).AddRow(
		id, "Dune", models.MediaTypeBook, status, rating, (*string)(nil), ptr("http://cdn/dune.png"), created,
	)
}

func TestGetAllOrdersNewestFirst(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now()

	rows := mock.NewRows(mediaCols).
		AddRow(testID, "Dune", models.MediaTypeBook, models.MediaStatusRead, ptr(5), (*string)(nil), ptr("u1"), now).
		AddRow(otherID, "Alien", models.MediaTypeMovie, models.MediaStatusWatched, (*int)(nil), ptr("tense"), ptr("u2"), now.Add(-time.Hour))
	mock.ExpectQuery(`FROM media ORDER BY created_at DESC, id DESC`).WillReturnRows(rows)

	list, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, testID, list[0].ID)
	assert.Equal(t, 5, *list[0].Rating)
	assert.Nil(t, list[1].Rating)
	assert.Equal(t, "tense", *list[1].Review)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAllEmptyIsNotNil(t *testing.T) {
	mock, repo := newMockRepo(t)
	mock.ExpectQuery(`FROM media`).WillReturnRows(mock.NewRows(mediaCols))

	list, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestFilterByType(t *testing.T) {
	mock, repo := newMockRepo(t)
	mock.ExpectQuery(`FROM media WHERE type = \$1 ORDER BY created_at DESC, id DESC`).
		WithArgs("book").
		WillReturnRows(duneRow(mock, testID, models.MediaStatusRead, nil, time.Now()))

	list, err := repo.Filter(context.Background(), models.MediaTypeBook)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.MediaTypeBook, list[0].Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	mock, repo := newMockRepo(t)
	mock.ExpectQuery(`FROM media WHERE id = \$1`).
		WithArgs(testID).
		WillReturnRows(duneRow(mock, testID, models.MediaStatusPlan, nil, time.Now()))

	m, err := repo.GetByID(context.Background(), testID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "Dune", m.Title)
	assert.Equal(t, "http://cdn/dune.png", *m.ImageURL)
}

func TestGetByIDAbsent(t *testing.T) {
	mock, repo := newMockRepo(t)
	mock.ExpectQuery(`FROM media WHERE id = \$1`).
		WithArgs(otherID).
		WillReturnRows(mock.NewRows(mediaCols))

	m, err := repo.GetByID(context.Background(), otherID)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestGetByIDMalformedSkipsQuery(t *testing.T) {
	mock, repo := newMockRepo(t)

	m, err := repo.GetByID(context.Background(), "not-a-uuid")
	require.NoError(t, err)
	assert.Nil(t, m)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInsertsSuppliedFields(t *testing.T) {
	mock, repo := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO media \(id,title,type,status,image_url,rating,review\) VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7\) RETURNING`).
		WithArgs(pgxmock.AnyArg(), "Dune", "book", "plan", "http://cdn/dune.png", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(duneRow(mock, testID, models.MediaStatusPlan, nil, now))

	m, err := repo.Create(context.Background(), models.MediaFields{
		Title:    "Dune",
		Type:     models.MediaTypeBook,
		Status:   models.MediaStatusPlan,
		ImageURL: "http://cdn/dune.png",
	})
	require.NoError(t, err)
	assert.Equal(t, testID, m.ID)
	assert.Nil(t, m.Rating)
	assert.Nil(t, m.Review)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWrapsStorageError(t *testing.T) {
	mock, repo := newMockRepo(t)
	mock.ExpectQuery(`INSERT INTO media`).
		WithArgs(pgxmock.AnyArg(), "x", "movie", "plan", "", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Create(context.Background(), models.MediaFields{Title: "x", Type: models.MediaTypeMovie, Status: models.MediaStatusPlan})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert media")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestUpdateSetsOnlyPresentColumns(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(`UPDATE media SET rating = \$1, status = \$2 WHERE id = \$3 RETURNING`).
		WithArgs(5, "read", testID).
		WillReturnRows(duneRow(mock, testID, models.MediaStatusRead, ptr(5), time.Now()))

	m, err := repo.Update(context.Background(), testID, models.MediaPatch{
		Status: models.Set(models.MediaStatusRead),
		Rating: models.Set(5),
	})
	require.NoError(t, err)
	assert.Equal(t, models.MediaStatusRead, m.Status)
	assert.Equal(t, "Dune", m.Title)
	assert.Equal(t, "http://cdn/dune.png", *m.ImageURL)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateClearsColumn(t *testing.T) {
	mock, repo := newMockRepo(t)

	mock.ExpectQuery(`UPDATE media SET rating = \$1 WHERE id = \$2`).
		WithArgs(nil, testID).
		WillReturnRows(duneRow(mock, testID, models.MediaStatusRead, nil, time.Now()))

	m, err := repo.Update(context.Background(), testID, models.MediaPatch{Rating: models.Clear[int]()})
	require.NoError(t, err)
	assert.Nil(t, m.Rating)
}

func TestUpdateUnknownID(t *testing.T) {
	mock, repo := newMockRepo(t)
	mock.ExpectQuery(`UPDATE media SET title = \$1 WHERE id = \$2`).
		WithArgs("X", otherID).
		WillReturnRows(mock.NewRows(mediaCols))

	_, err := repo.Update(context.Background(), otherID, models.MediaPatch{Title: models.Set("X")})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateEmptyPatchReadsCurrentRow(t *testing.T) {
	mock, repo := newMockRepo(t)
	mock.ExpectQuery(`FROM media WHERE id = \$1`).
		WithArgs(testID).
		WillReturnRows(duneRow(mock, testID, models.MediaStatusPlan, nil, time.Now()))

	m, err := repo.Update(context.Background(), testID, models.MediaPatch{})
	require.NoError(t, err)
	assert.Equal(t, testID, m.ID)

	_, err = repo.Update(context.Background(), "nope", models.MediaPatch{})
	assert.ErrorIs(t, err, models.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	mock, repo := newMockRepo(t)
	mock.ExpectQuery(`DELETE FROM media WHERE id = \$1 RETURNING`).
		WithArgs(testID).
		WillReturnRows(duneRow(mock, testID, models.MediaStatusRead, nil, time.Now()))
	mock.ExpectQuery(`DELETE FROM media WHERE id = \$1 RETURNING`).
		WithArgs(testID).
		WillReturnRows(mock.NewRows(mediaCols))

	m, err := repo.Delete(context.Background(), testID)
	require.NoError(t, err)
	assert.Equal(t, testID, m.ID)

	_, err = repo.Delete(context.Background(), testID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
