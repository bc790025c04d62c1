package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanManage(t *testing.T) {
	post := &Post{ID: 1, AuthorID: 10}
	author := &User{ID: 10}
	staff := &User{ID: 20, Staff: true}
	stranger := &User{ID: 30}
	var nobody *User

	assert.True(t, author.CanManage(post))
	assert.True(t, staff.CanManage(post))
	assert.False(t, stranger.CanManage(post))
	assert.False(t, nobody.CanManage(post))
	assert.False(t, author.CanManage(nil))
}

func TestUserBeforeCreate(t *testing.T) {
	user := &User{Username: "mallory", Email: "mallory@example.com", PasswordHash: "hash"}
	user.BeforeCreate()
	assert.True(t, user.Active)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, user.Validate())
}

func TestCommentBeforeCreate(t *testing.T) {
	comment := &Comment{PostID: 1, Name: "Visitor", Email: "v@example.com", Body: "hi"}
	comment.BeforeCreate()
	assert.True(t, comment.Active)
	assert.NoError(t, comment.Validate())
}
