package postgres

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealmRepository_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRealmRepository(db)
	realm := &domain.Realm{
		ID: "realm-1", Name: "Whisperwood", RealmType: domain.RealmForest,
		Scope: domain.ScopeRegional, NarrativeTags: []string{"ancient", "misty"},
	}

	mock.ExpectExec("INSERT INTO realms").
		WithArgs(realm.ID, realm.Name, string(realm.RealmType), string(realm.Scope), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Upsert(context.Background(), realm))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRealmRepository_AddWithinEdge_LocationIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRealmRepository(db)

	mock.ExpectQuery("SELECT realm_id FROM realm_within_edges").
		WithArgs("realm-1").
		WillReturnError(sql.ErrNoRows)

	mock.ExpectExec("INSERT INTO realm_within_edges").
		WithArgs("loc-1", "realm-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.AddWithinEdge(context.Background(), "loc-1", "realm-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRealmRepository_AddWithinEdge_RealmCycleRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRealmRepository(db)

	// "parent" is already within "child" — so adding child-within-parent
	// would close the loop. Walking up from "parent" reaches "child",
	// which is the locationID being inserted.
	mock.ExpectQuery("SELECT realm_id FROM realm_within_edges").
		WithArgs("parent").
		WillReturnRows(sqlmock.NewRows([]string{"realm_id"}).AddRow("child"))

	err = repo.AddWithinEdge(context.Background(), "child", "parent")
	require.Error(t, err)
	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, domain.CodeConflict, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRealmRepository_ListRealmsFor(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRealmRepository(db)

	mock.ExpectQuery("SELECT realm_id FROM realm_within_edges").
		WithArgs("loc-1").
		WillReturnRows(sqlmock.NewRows([]string{"realm_id"}).AddRow("realm-1"))

	mock.ExpectQuery("SELECT (.+) FROM realms").
		WithArgs("realm-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "realm_type", "scope", "narrative_tags"}).
			AddRow("realm-1", "Whisperwood", "FOREST", "REGIONAL", "{ancient,misty}"))

	mock.ExpectQuery("SELECT realm_id FROM realm_within_edges").
		WithArgs("realm-1").
		WillReturnError(sql.ErrNoRows)

	realms, err := repo.ListRealmsFor(context.Background(), "loc-1")
	require.NoError(t, err)
	require.Len(t, realms, 1)
	assert.Equal(t, "Whisperwood", realms[0].Name)
	assert.Equal(t, domain.RealmForest, realms[0].RealmType)
	assert.Contains(t, realms[0].NarrativeTags, "misty")
	assert.NoError(t, mock.ExpectationsWereMet())
}
