package controller

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestMemberRemovalOutcome(t *testing.T) {
	status, msg := memberRemovalOutcome(1)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Member removed", msg)

	// The second removal of the same user deletes zero rows and must
	// surface as a conflict, never a silent success.
	status, msg = memberRemovalOutcome(0)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "User is not a member of this workspace", msg)
}
