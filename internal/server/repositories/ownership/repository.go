// Package ownership maintains the explicit fileID-to-owner index that backs
// access control. The index, not the physical storage layout, decides who
// may reach a file; the custody store is just bytes.
package ownership

import "context"

type Repository interface {
	// Register records ownerID as the owner of fileID. Insert-only; a fileID
	// is registered exactly once, at upload.
	Register(ctx context.Context, fileID, ownerID string) error

	// OwnerOf returns the registered owner of fileID, or common.ErrNotFound
	// if the fileID was never registered.
	OwnerOf(ctx context.Context, fileID string) (string, error)
}
