package repositories

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/kishanss4/corrupt-watch/internal/errors"
	"github.com/kishanss4/corrupt-watch/internal/models"
	"github.com/kishanss4/corrupt-watch/internal/sqlite"
)

type UserRepository struct {
	dbs    *sqlite.Database
	logger *slog.Logger
}

func NewUserRepository(dbs *sqlite.Database, logger *slog.Logger) *UserRepository {
	return &UserRepository{
		dbs:    dbs,
		logger: logger.With("source", "UserRepository"),
	}
}

// Upsert stores the user and every credential it carries. The role of an
// existing user is left untouched so a login cannot demote an official.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	tx, err := r.dbs.ReadWrite.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt := `INSERT INTO users (id, display_name, role) VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET display_name = excluded.display_name`
	if _, err = tx.ExecContext(ctx, stmt, user.ID, user.DisplayName, user.Role); err != nil {
		return errors.Wrap(err, "upsert user")
	}

	for i := range user.Credentials {
		if err = upsertCredential(ctx, tx, user.ID, &user.Credentials[i]); err != nil {
			return err
		}
	}

	return errors.Wrap(tx.Commit(), "commit user")
}

// UpsertCredential stores a single credential for an existing user, e.g.
// after a login bumps the signature counter.
func (r *UserRepository) UpsertCredential(ctx context.Context, userID []byte, credential *webauthn.Credential) error {
	tx, err := r.dbs.ReadWrite.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err = upsertCredential(ctx, tx, userID, credential); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit credential")
}

type execerContext interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertCredential(ctx context.Context, tx execerContext, userID []byte, c *webauthn.Credential) error {
	transport := ""
	for i, t := range c.Transport {
		if i > 0 {
			transport += ","
		}
		transport += string(t)
	}
	stmt := `INSERT INTO credentials (id, user_id, public_key, attestation_type, transport,
 flag_user_present, flag_user_verified, flag_backup_eligible, flag_backup_state,
 authenticator_aaguid, authenticator_sign_count, authenticator_clone_warning, authenticator_attachment)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET authenticator_sign_count    = excluded.authenticator_sign_count,
                               authenticator_clone_warning = excluded.authenticator_clone_warning`
	_, err := tx.ExecContext(ctx, stmt,
		c.ID, userID, c.PublicKey, c.AttestationType, transport,
		c.Flags.UserPresent, c.Flags.UserVerified, c.Flags.BackupEligible, c.Flags.BackupState,
		c.Authenticator.AAGUID, c.Authenticator.SignCount, c.Authenticator.CloneWarning,
		string(c.Authenticator.Attachment))
	return errors.Wrap(err, "upsert credential")
}

// Get reads a user and their credentials.
func (r *UserRepository) Get(ctx context.Context, id []byte) (*models.User, error) {
	var user models.User
	stmt := `SELECT id, display_name, role FROM users WHERE id = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &user, stmt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrap(ErrNotFound, "user by id")
		}
		return nil, errors.Wrap(err, "read user")
	}

	stmt = `SELECT id, public_key, attestation_type, flag_user_present, flag_user_verified,
 flag_backup_eligible, flag_backup_state, authenticator_aaguid, authenticator_sign_count,
 authenticator_clone_warning
FROM credentials
WHERE user_id = ?`
	rows, err := r.dbs.ReadOnly.QueryContext(ctx, stmt, id)
	if err != nil {
		return nil, errors.Wrap(err, "query credentials")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			r.logger.Error("could not close rows", errors.SlogError(closeErr))
		}
	}()
	for rows.Next() {
		var c webauthn.Credential
		if err = rows.Scan(&c.ID, &c.PublicKey, &c.AttestationType,
			&c.Flags.UserPresent, &c.Flags.UserVerified, &c.Flags.BackupEligible, &c.Flags.BackupState,
			&c.Authenticator.AAGUID, &c.Authenticator.SignCount, &c.Authenticator.CloneWarning); err != nil {
			return nil, errors.Wrap(err, "scan credential")
		}
		user.Credentials = append(user.Credentials, c)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows error")
	}

	return &user, nil
}

// Exists reports whether a user with the given id is registered.
func (r *UserRepository) Exists(ctx context.Context, id []byte) (bool, error) {
	var exists bool
	stmt := `SELECT EXISTS (SELECT 1 FROM users WHERE id = ?)`
	if err := r.dbs.ReadOnly.GetContext(ctx, &exists, stmt, id); err != nil {
		return false, errors.Wrap(err, "check user exists")
	}
	return exists, nil
}

// Role returns the role held by the user.
func (r *UserRepository) Role(ctx context.Context, id []byte) (models.Role, error) {
	var role models.Role
	stmt := `SELECT role FROM users WHERE id = ?`
	if err := r.dbs.ReadOnly.GetContext(ctx, &role, stmt, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", errors.Wrap(ErrNotFound, "user by id")
		}
		return "", errors.Wrap(err, "read user role")
	}
	return role, nil
}

// SetRole grants a role to a user. Used by the admin CLI.
func (r *UserRepository) SetRole(ctx context.Context, id []byte, role models.Role) error {
	if !role.Valid() {
		return errors.New("unknown role", slog.String("role", string(role)))
	}
	result, err := r.dbs.ReadWrite.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return errors.Wrap(err, "update user role")
	}
	return rowFound(result, "user")
}
