package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/onboardhq/onboard-engine/pkg/database"
	"github.com/onboardhq/onboard-engine/pkg/models"
)

// MembershipRepository defines data access for program memberships.
// Memberships are the manager-scope axis: the set of program IDs returned
// here decides how far an OwnedPrograms actor reaches.
type MembershipRepository interface {
	Add(ctx context.Context, m *models.ProgramMembership) error
	Remove(ctx context.Context, programID, userID uuid.UUID) error
	// GetProgramIDsForUser returns every program the user belongs to,
	// read fresh per request.
	GetProgramIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	GetByProgram(ctx context.Context, programID uuid.UUID) ([]*models.ProgramMembership, error)
}

type membershipRepository struct{}

// NewMembershipRepository creates a new membership repository.
func NewMembershipRepository() MembershipRepository {
	return &membershipRepository{}
}

// Add inserts a membership row. Re-adding an existing (user, program) pair
// updates the role instead of erroring.
func (r *membershipRepository) Add(ctx context.Context, m *models.ProgramMembership) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	m.CreatedAt = time.Now()

	query := `
		INSERT INTO program_memberships (user_id, program_id, role_in_program, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, program_id) DO UPDATE
		SET role_in_program = EXCLUDED.role_in_program`

	_, err := scope.Conn.Exec(ctx, query, m.UserID, m.ProgramID, m.RoleInProgram, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add membership: %w", err)
	}

	return nil
}

// Remove deletes a membership row. Removing a missing membership is a no-op.
func (r *membershipRepository) Remove(ctx context.Context, programID, userID uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return fmt.Errorf("no database scope in context")
	}

	query := `DELETE FROM program_memberships WHERE program_id = $1 AND user_id = $2`

	_, err := scope.Conn.Exec(ctx, query, programID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove membership: %w", err)
	}

	return nil
}

// GetProgramIDsForUser returns the program IDs the user is a member of.
func (r *membershipRepository) GetProgramIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `SELECT program_id FROM program_memberships WHERE user_id = $1`

	rows, err := scope.Conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get memberships: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memberships: %w", err)
	}

	return ids, nil
}

// GetByProgram returns all memberships for a program.
func (r *membershipRepository) GetByProgram(ctx context.Context, programID uuid.UUID) ([]*models.ProgramMembership, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no database scope in context")
	}

	query := `
		SELECT user_id, program_id, role_in_program, created_at
		FROM program_memberships
		WHERE program_id = $1
		ORDER BY created_at`

	rows, err := scope.Conn.Query(ctx, query, programID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*models.ProgramMembership
	for rows.Next() {
		var m models.ProgramMembership
		if err := rows.Scan(&m.UserID, &m.ProgramID, &m.RoleInProgram, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, &m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memberships: %w", err)
	}

	return memberships, nil
}

// Ensure membershipRepository implements MembershipRepository at compile time.
var _ MembershipRepository = (*membershipRepository)(nil)
