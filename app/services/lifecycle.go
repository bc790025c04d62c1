package services

import (
	"fmt"
	"time"

	"inkwell/app/models"
)

// statusEdge describes one cell of the draft/published transition
// table. Every edge between the two states is legal; the only side
// effect is the publish timestamp on the draft→published edge.
// Unpublishing keeps the old timestamp (publish history is not erased),
// and re-publishing an already published post leaves it untouched.
type statusEdge struct {
	stampPublish bool
}

var statusTable = map[models.Status]map[models.Status]statusEdge{
	models.StatusDraft: {
		models.StatusDraft:     {},
		models.StatusPublished: {stampPublish: true},
	},
	models.StatusPublished: {
		models.StatusDraft:     {},
		models.StatusPublished: {},
	},
}

// TransitionStatus moves post to the target status on behalf of actor.
// The actor must be the post's author or staff; otherwise the post is
// left unchanged and ErrPermission is returned.
func TransitionStatus(post *models.Post, target models.Status, actor *models.User) error {
	if !actor.CanManage(post) {
		return fmt.Errorf("%w: only the author or staff may change post status", ErrPermission)
	}

	row, ok := statusTable[post.Status]
	if !ok {
		return fmt.Errorf("%w: unknown post status %q", ErrValidation, post.Status)
	}
	edge, ok := row[target]
	if !ok {
		return fmt.Errorf("%w: unknown target status %q", ErrValidation, target)
	}

	if edge.stampPublish {
		post.Publish = time.Now()
	}
	post.Status = target
	return nil
}
