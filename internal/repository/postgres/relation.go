package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nkiryanov/mediashare/internal/apperrors"
	"github.com/nkiryanov/mediashare/internal/models"
)

type RelationRepo struct {
	DB DBTX
}

const relationColumns = `subject_id, target_kind, target_id, created_at`

const insertRelation = `-- name: InsertRelation if it not exists
INSERT INTO relations (subject_id, target_kind, target_id)
VALUES ($1, $2, $3)
ON CONFLICT (subject_id, target_kind, target_id) DO NOTHING
RETURNING ` + relationColumns

// Insert relation
// On conflict nothing is returned, so existing row reported as apperrors.ErrRelationExists
func (r *RelationRepo) Insert(ctx context.Context, subjectID uuid.UUID, key models.RelationKey) (models.Relation, error) {
	rows, _ := r.DB.Query(ctx, insertRelation, subjectID, key.Kind, key.TargetID)
	rel, err := pgx.CollectOneRow(rows, rowToRelation)

	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		return rel, nil
	case errors.Is(err, pgx.ErrNoRows):
		return rel, apperrors.ErrRelationExists
	case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation:
		return rel, apperrors.ErrUserNotFound
	default:
		return rel, dbError(err)
	}
}

const deleteRelation = `-- name: DeleteRelation
DELETE FROM relations
WHERE subject_id = $1 AND target_kind = $2 AND target_id = $3
`

// Delete relation
// Of concurrent callers only one sees the row affected
func (r *RelationRepo) Delete(ctx context.Context, subjectID uuid.UUID, key models.RelationKey) (bool, error) {
	tag, err := r.DB.Exec(ctx, deleteRelation, subjectID, key.Kind, key.TargetID)
	if err != nil {
		return false, dbError(err)
	}

	return tag.RowsAffected() == 1, nil
}

const getRelation = `-- name: GetRelation
SELECT ` + relationColumns + ` FROM relations
WHERE subject_id = $1 AND target_kind = $2 AND target_id = $3
`

func (r *RelationRepo) Get(ctx context.Context, subjectID uuid.UUID, key models.RelationKey) (models.Relation, error) {
	rows, _ := r.DB.Query(ctx, getRelation, subjectID, key.Kind, key.TargetID)
	rel, err := pgx.CollectOneRow(rows, rowToRelation)

	switch {
	case err == nil:
		return rel, nil
	case errors.Is(err, pgx.ErrNoRows):
		return rel, apperrors.ErrRelationNotFound
	default:
		return rel, dbError(err)
	}
}

const countByTarget = `-- name: CountByTarget
SELECT count(*) FROM relations
WHERE target_kind = $1 AND target_id = $2
`

func (r *RelationRepo) CountByTarget(ctx context.Context, key models.RelationKey) (int64, error) {
	rows, _ := r.DB.Query(ctx, countByTarget, key.Kind, key.TargetID)
	count, err := pgx.CollectOneRow(rows, pgx.RowTo[int64])
	if err != nil {
		return 0, dbError(err)
	}

	return count, nil
}

const listBySubject = `-- name: ListBySubject
SELECT ` + relationColumns + ` FROM relations
WHERE subject_id = $1 AND target_kind = $2
ORDER BY created_at DESC, target_id
`

func (r *RelationRepo) ListBySubject(ctx context.Context, subjectID uuid.UUID, kind models.TargetKind) ([]models.Relation, error) {
	rows, _ := r.DB.Query(ctx, listBySubject, subjectID, kind)
	rels, err := pgx.CollectRows(rows, rowToRelation)
	if err != nil {
		return nil, dbError(err)
	}

	return rels, nil
}

const listByTarget = `-- name: ListByTarget
SELECT ` + relationColumns + ` FROM relations
WHERE target_kind = $1 AND target_id = $2
ORDER BY created_at DESC, subject_id
`

func (r *RelationRepo) ListByTarget(ctx context.Context, key models.RelationKey) ([]models.Relation, error) {
	rows, _ := r.DB.Query(ctx, listByTarget, key.Kind, key.TargetID)
	rels, err := pgx.CollectRows(rows, rowToRelation)
	if err != nil {
		return nil, dbError(err)
	}

	return rels, nil
}

func rowToRelation(row pgx.CollectableRow) (models.Relation, error) {
	var rel models.Relation
	err := row.Scan(&rel.SubjectID, &rel.Kind, &rel.TargetID, &rel.CreatedAt)
	return rel, err
}
