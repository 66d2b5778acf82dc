package comments

import (
	"github.com/google/uuid"

	"github.com/epost-hub/backend/internal/models"
)

// BuildTree nests replies under their parents. Input order is kept at every level;
// replies whose parent is missing are promoted to the top level.
func BuildTree(flat []*models.Comment) []*models.Comment {
	byID := make(map[uuid.UUID]*models.Comment, len(flat))
	for _, c := range flat {
		c.Replies = nil
		byID[c.ID] = c
	}
	roots := make([]*models.Comment, 0, len(flat))
	for _, c := range flat {
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok && parent != c {
				parent.Replies = append(parent.Replies, c)
				continue
			}
		}
		roots = append(roots, c)
	}
	return roots
}
