// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-vault-sync/internal/logger"
	"github.com/MKhiriev/go-vault-sync/models"
)

// objectColumns is the column list shared by every object query.
var objectColumns = []string{
	"uid", "kind", "revision", "envelope_version",
	"ciphertext", "wrapped_key", "parent_uid", "members",
}

type cacheRepository struct {
	*DB
	log *logger.Logger
}

// NewCacheRepository builds the SQLite-backed [CacheRepository].
func NewCacheRepository(db *DB, log *logger.Logger) CacheRepository {
	return &cacheRepository{DB: db, log: log}
}

// execer abstracts *sql.DB and *sql.Tx so the same statement helpers serve
// single writes and batch transactions.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *cacheRepository) Get(ctx context.Context, uid string) (models.CachedObject, error) {
	log := logger.FromContext(ctx)

	query, args, err := sq.Select(objectColumns...).
		From("objects").
		Where(sq.Eq{"uid": uid}).
		ToSql()
	if err != nil {
		return models.CachedObject{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	obj, err := scanObject(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.CachedObject{}, fmt.Errorf("%w: %s", ErrObjectNotFound, uid)
	}
	if err != nil {
		log.Err(err).
			Str("func", "cacheRepository.Get").
			Str("uid", uid).
			Msg("failed to read cached object")
		return models.CachedObject{}, err
	}

	return obj, nil
}

func (r *cacheRepository) GetAll(ctx context.Context, kinds ...models.ObjectKind) ([]models.CachedObject, error) {
	log := logger.FromContext(ctx)

	builder := sq.Select(objectColumns...).From("objects").OrderBy("uid")
	if len(kinds) > 0 {
		builder = builder.Where(sq.Eq{"kind": kinds})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "cacheRepository.GetAll").
			Msg("failed to query cached objects")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var objects []models.CachedObject
	for rows.Next() {
		obj, scanErr := scanObject(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "cacheRepository.GetAll").
				Msg("failed to scan cached object row")
			return nil, scanErr
		}
		objects = append(objects, obj)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, rowsErr)
	}

	return objects, nil
}

func (r *cacheRepository) Put(ctx context.Context, obj models.CachedObject) error {
	return upsertObject(ctx, r.DB, obj)
}

func (r *cacheRepository) Delete(ctx context.Context, uid string) error {
	return deleteObject(ctx, r.DB, uid)
}

func (r *cacheRepository) Cursor(ctx context.Context) (int64, error) {
	query, args, err := sq.Select("cursor").
		From("sync_state").
		Where(sq.Eq{"id": 1}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var cursor int64
	if err = r.DB.QueryRowContext(ctx, query, args...).Scan(&cursor); err != nil {
		return 0, fmt.Errorf("read sync cursor: %w", err)
	}
	return cursor, nil
}

func (r *cacheRepository) AdvanceCursor(ctx context.Context, revision int64) error {
	return advanceCursor(ctx, r.DB, revision)
}

// ApplyBatch implements [CacheRepository]. All writes of one delta batch and
// the cursor advance share a single transaction, so an interrupted sync can
// never leave the cursor ahead of (or behind) the objects it describes.
func (r *cacheRepository) ApplyBatch(ctx context.Context, puts []models.CachedObject, deletions []string, revision int64) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, obj := range puts {
		if err = upsertObject(ctx, tx, obj); err != nil {
			return err
		}
	}
	for _, uid := range deletions {
		if err = deleteObject(ctx, tx, uid); err != nil {
			return err
		}
	}
	if err = advanceCursor(ctx, tx, revision); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).
			Str("func", "cacheRepository.ApplyBatch").
			Int64("revision", revision).
			Msg("failed to commit delta batch")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}

func (r *cacheRepository) MarkDirty(ctx context.Context, uid string) error {
	query, args, err := sq.Insert("dirty").
		Columns("uid").
		Values(uid).
		Suffix("ON CONFLICT(uid) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: mark dirty %s: %w", ErrExecutingStatement, uid, err)
	}
	return nil
}

func (r *cacheRepository) DirtyUIDs(ctx context.Context) ([]string, error) {
	query, args, err := sq.Select("uid").From("dirty").OrderBy("uid").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var uids []string
	for rows.Next() {
		var uid string
		if err = rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		uids = append(uids, uid)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, rowsErr)
	}

	return uids, nil
}

func (r *cacheRepository) ClearDirty(ctx context.Context, uids ...string) error {
	if len(uids) == 0 {
		return nil
	}

	query, args, err := sq.Delete("dirty").Where(sq.Eq{"uid": uids}).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.DB.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: clear dirty: %w", ErrExecutingStatement, err)
	}
	return nil
}

// Reset implements [CacheRepository]. Objects, dirty set, and cursor go in
// one transaction: after a reset the cache is indistinguishable from a
// freshly created one.
func (r *cacheRepository) Reset(ctx context.Context) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, stmt := range []string{
		`DELETE FROM objects`,
		`DELETE FROM dirty`,
		`UPDATE sync_state SET cursor = 0 WHERE id = 1`,
	} {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w: reset cache: %w", ErrExecutingStatement, err)
		}
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).
			Str("func", "cacheRepository.Reset").
			Msg("failed to commit cache reset")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}

func upsertObject(ctx context.Context, ex execer, obj models.CachedObject) error {
	wrappedKey, err := marshalNullable(obj.Key)
	if err != nil {
		return fmt.Errorf("encode wrapped key for %s: %w", obj.UID, err)
	}
	members, err := marshalNullable(obj.Members)
	if err != nil {
		return fmt.Errorf("encode members for %s: %w", obj.UID, err)
	}

	query, args, err := sq.Insert("objects").
		Columns(objectColumns...).
		Values(
			obj.UID,
			obj.Kind,
			obj.Revision,
			obj.Envelope.Version,
			obj.Envelope.Ciphertext,
			wrappedKey,
			obj.ParentUID,
			members,
		).
		Suffix(`ON CONFLICT(uid) DO UPDATE SET
			kind             = excluded.kind,
			revision         = excluded.revision,
			envelope_version = excluded.envelope_version,
			ciphertext       = excluded.ciphertext,
			wrapped_key      = excluded.wrapped_key,
			parent_uid       = excluded.parent_uid,
			members          = excluded.members`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: upsert %s: %w", ErrExecutingStatement, obj.UID, err)
	}
	return nil
}

func deleteObject(ctx context.Context, ex execer, uid string) error {
	query, args, err := sq.Delete("objects").Where(sq.Eq{"uid": uid}).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrExecutingStatement, uid, err)
	}
	return nil
}

// advanceCursor moves the cursor forward only. The WHERE guard makes the
// monotonicity invariant hold even if two writers race: moving backwards
// simply matches no row.
func advanceCursor(ctx context.Context, ex execer, revision int64) error {
	query, args, err := sq.Update("sync_state").
		Set("cursor", revision).
		Where(sq.And{sq.Eq{"id": 1}, sq.LtOrEq{"cursor": revision}}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := ex.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: advance cursor: %w", ErrExecutingStatement, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance cursor rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: requested revision %d", ErrCursorRegression, revision)
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanObject(row rowScanner) (models.CachedObject, error) {
	var (
		obj        models.CachedObject
		wrappedKey []byte
		members    []byte
	)
	err := row.Scan(
		&obj.UID,
		&obj.Kind,
		&obj.Revision,
		&obj.Envelope.Version,
		&obj.Envelope.Ciphertext,
		&wrappedKey,
		&obj.ParentUID,
		&members,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CachedObject{}, err
	}
	if err != nil {
		return models.CachedObject{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	if len(wrappedKey) > 0 {
		obj.Key = &models.WrappedKey{}
		if err = json.Unmarshal(wrappedKey, obj.Key); err != nil {
			return models.CachedObject{}, fmt.Errorf("decode wrapped key for %s: %w", obj.UID, err)
		}
	}
	if len(members) > 0 {
		if err = json.Unmarshal(members, &obj.Members); err != nil {
			return models.CachedObject{}, fmt.Errorf("decode members for %s: %w", obj.UID, err)
		}
	}

	return obj, nil
}

// marshalNullable encodes v as JSON, mapping nil/empty values to NULL so
// the absence of a wrapped key or member list is visible in the schema.
func marshalNullable(v any) ([]byte, error) {
	switch t := v.(type) {
	case *models.WrappedKey:
		if t == nil {
			return nil, nil
		}
	case []models.SharedFolderMember:
		if len(t) == 0 {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
