package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citynews/internal/news"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db), mock
}

func TestExists(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(123)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.Exists(context.Background(), 123)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExists_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := store.Exists(context.Background(), 999)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInsert_AssignsIDAndCreatedAt(t *testing.T) {
	store, mock := newMockStore(t)

	createdAt := time.Date(2025, time.August, 27, 12, 0, 0, 0, time.UTC)
	a := &news.Article{
		ExternalID: 123,
		Title:      "Отключение электроснабжения",
		Link:       "https://nerehta-adm.ru/news/123",
		Content:    "текст",
		Category:   news.CategoryPower,
		Date:       time.Date(2025, time.August, 27, 0, 0, 0, 0, time.UTC),
	}

	mock.ExpectQuery(`INSERT INTO news`).
		WithArgs(a.ExternalID, a.Title, a.Link, a.Content, string(a.Category), a.Date).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), createdAt))

	created, err := store.Insert(context.Background(), a)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(7), a.ID)
	assert.Equal(t, createdAt, a.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_UniqueViolationIsBenign(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO news`).
		WillReturnError(&pq.Error{Code: "23505"})

	created, err := store.Insert(context.Background(), &news.Article{ExternalID: 123})
	require.NoError(t, err, "a duplicate insert signals already-ingested, not failure")
	assert.False(t, created)
}

func TestInsert_OtherErrorPropagates(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO news`).
		WillReturnError(&pq.Error{Code: "53300", Message: "too many connections"})

	created, err := store.Insert(context.Background(), &news.Article{ExternalID: 123})
	assert.Error(t, err)
	assert.False(t, created)
}

func TestRecent(t *testing.T) {
	store, mock := newMockStore(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "external_id", "title", "link", "content", "category", "date", "created_at"}).
		AddRow(int64(2), int64(124), "b", "https://nerehta-adm.ru/news/124", "", "other", now, now).
		AddRow(int64(1), int64(123), "a", "https://nerehta-adm.ru/news/123", "текст", "power-outage", now, now)

	mock.ExpectQuery(`(?s)SELECT .+ FROM news`).
		WithArgs(2).
		WillReturnRows(rows)

	articles, err := store.Recent(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, news.CategoryOther, articles[0].Category)
	assert.Equal(t, news.CategoryPower, articles[1].Category)
}
