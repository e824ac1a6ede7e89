package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/mediashare/internal/apperrors"
	"github.com/nkiryanov/mediashare/internal/models"
	"github.com/nkiryanov/mediashare/internal/testutil"
)

func Test_RelationRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Relations reference users, so every test needs subject in db
	withSubject := func(t *testing.T, fn func(r *RelationRepo, subject models.User)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			users := UserRepo{DB: tx}
			subject, err := users.CreateUser(t.Context(), newTestUser("subject"))
			require.NoError(t, err)

			fn(&RelationRepo{DB: tx}, subject)
		})
	}

	video := models.RelationKey{Kind: models.TargetVideo, TargetID: uuid.New()}

	t.Run("insert ok", func(t *testing.T) {
		withSubject(t, func(r *RelationRepo, subject models.User) {
			rel, err := r.Insert(t.Context(), subject.ID, video)

			require.NoError(t, err)
			assert.Equal(t, subject.ID, rel.SubjectID)
			assert.Equal(t, models.TargetVideo, rel.Kind)
			assert.Equal(t, video.TargetID, rel.TargetID)
			assert.False(t, rel.CreatedAt.IsZero())
		})
	})

	t.Run("insert twice fails", func(t *testing.T) {
		withSubject(t, func(r *RelationRepo, subject models.User) {
			_, err := r.Insert(t.Context(), subject.ID, video)
			require.NoError(t, err)

			_, err = r.Insert(t.Context(), subject.ID, video)

			require.ErrorIs(t, err, apperrors.ErrRelationExists)
			require.ErrorIs(t, err, apperrors.ErrConflict)

			count, err := r.CountByTarget(t.Context(), video)
			require.NoError(t, err)
			require.EqualValues(t, 1, count, "only one row per key")
		})
	})

	t.Run("insert for unknown subject fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			r := &RelationRepo{DB: tx}

			_, err := r.Insert(t.Context(), uuid.New(), video)

			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("same target different kind is different key", func(t *testing.T) {
		withSubject(t, func(r *RelationRepo, subject models.User) {
			_, err := r.Insert(t.Context(), subject.ID, video)
			require.NoError(t, err)

			_, err = r.Insert(t.Context(), subject.ID, models.RelationKey{Kind: models.TargetTweet, TargetID: video.TargetID})

			require.NoError(t, err)
		})
	})

	t.Run("delete reports affected row", func(t *testing.T) {
		withSubject(t, func(r *RelationRepo, subject models.User) {
			_, err := r.Insert(t.Context(), subject.ID, video)
			require.NoError(t, err)

			deleted, err := r.Delete(t.Context(), subject.ID, video)
			require.NoError(t, err)
			require.True(t, deleted, "existing relation should be deleted")

			deleted, err = r.Delete(t.Context(), subject.ID, video)
			require.NoError(t, err)
			require.False(t, deleted, "nothing to delete second time")

			_, err = r.Get(t.Context(), subject.ID, video)
			require.ErrorIs(t, err, apperrors.ErrRelationNotFound)
		})
	})

	t.Run("count and list", func(t *testing.T) {
		withSubject(t, func(r *RelationRepo, subject models.User) {
			users := UserRepo{DB: r.DB}
			other, err := users.CreateUser(t.Context(), newTestUser("other"))
			require.NoError(t, err)

			secondVideo := models.RelationKey{Kind: models.TargetVideo, TargetID: uuid.New()}
			for _, k := range []models.RelationKey{video, secondVideo} {
				_, err := r.Insert(t.Context(), subject.ID, k)
				require.NoError(t, err)
			}
			_, err = r.Insert(t.Context(), other.ID, video)
			require.NoError(t, err)

			count, err := r.CountByTarget(t.Context(), video)
			require.NoError(t, err)
			assert.EqualValues(t, 2, count)

			count, err = r.CountByTarget(t.Context(), models.RelationKey{Kind: models.TargetVideo, TargetID: uuid.New()})
			require.NoError(t, err)
			assert.EqualValues(t, 0, count)

			liked, err := r.ListBySubject(t.Context(), subject.ID, models.TargetVideo)
			require.NoError(t, err)
			assert.Len(t, liked, 2)

			tweets, err := r.ListBySubject(t.Context(), subject.ID, models.TargetTweet)
			require.NoError(t, err)
			assert.Empty(t, tweets)

			likers, err := r.ListByTarget(t.Context(), video)
			require.NoError(t, err)
			require.Len(t, likers, 2)
			assert.ElementsMatch(t, []uuid.UUID{subject.ID, other.ID}, []uuid.UUID{likers[0].SubjectID, likers[1].SubjectID})
		})
	})
}
