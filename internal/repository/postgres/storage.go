package postgres

import (
	"context"
	"fmt"

	"github.com/nkiryanov/mediashare/internal/repository"
)

type Storage struct {
	db DBTX
}

func NewStorage(db DBTX) repository.Storage {
	return &Storage{db: db}
}

func (s *Storage) User() repository.UserRepo {
	return &UserRepo{DB: s.db}
}

func (s *Storage) Relation() repository.RelationRepo {
	return &RelationRepo{DB: s.db}
}

func (s *Storage) Ping(ctx context.Context) error {
	_, err := s.db.Exec(ctx, "SELECT 1")
	if err != nil {
		return dbError(err)
	}
	return nil
}

// Run fn in transaction (nested one becomes savepoint)
func (s *Storage) InTx(ctx context.Context, fn func(repository.Storage) error) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("db tx error: %w", dbError(err))
	}

	defer func() {
		switch err {
		case nil:
			err = tx.Commit(ctx)
		default:
			_ = tx.Rollback(ctx)
		}
	}()

	err = fn(NewStorage(tx))

	return err
}
