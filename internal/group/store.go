// Package group reads the membership tables owned by the external group
// administration system. This service never writes them.
package group

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides read-only Postgres access to groups and group_members.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a group store on the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// IsApprovedMember reports whether the user is an approved member of the
// group. Pending or rejected memberships do not count.
func (s *Store) IsApprovedMember(ctx context.Context, groupID, userID int) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, "membership_check", groupID, userID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("membership check (%d,%d): %w", groupID, userID, err)
	}
	return true, nil
}

// ActiveGroupIDs returns every group's id, in id order. The weekly cycle
// scores each of them.
func (s *Store) ActiveGroupIDs(ctx context.Context) ([]int, error) {
	rows, err := s.pool.Query(ctx, "active_groups")
	if err != nil {
		return nil, fmt.Errorf("active groups: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan group id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
